package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/z-inspection/report-cli/internal/config"
	"github.com/z-inspection/report-cli/internal/model"
)

func cfgWith(driver string) config.StoreConfig {
	return config.StoreConfig{Driver: driver}
}

func testTime() time.Time {
	return time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
}

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

func TestPostgresStore_GetProject_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, title, category, owner_id`).
		WithArgs("p-missing").
		WillReturnError(pgx.ErrNoRows)

	got, err := s.GetProject(context.Background(), "p-missing")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListAssignments(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	rows := pgxmock.NewRows([]string{"project_id", "user_id", "name", "role"}).
		AddRow("p1", "u1", "Dr. Reyes", "medical_expert").
		AddRow("p1", "u2", "", "technical_expert")
	mock.ExpectQuery(`SELECT project_id, user_id, name, role FROM assignments`).
		WithArgs("p1").
		WillReturnRows(rows)

	got, err := s.ListAssignments(context.Background(), "p1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "u1", got[0].UserID)
	assert.Equal(t, "technical_expert", got[1].Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListScoreDocuments(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	byPrinciple := []byte(`{"transparency":{"risk":4,"min":4,"max":4,"avg_importance":0.9,"high_importance_ratio":1}}`)
	breakdown := []byte(`[{"question_id":"q1","principle_label":"transparency","risk_contribution":4}]`)
	rows := pgxmock.NewRows([]string{"id", "project_id", "user_id", "role", "questionnaire_key", "model_version", "by_principle", "question_breakdown", "scored_at"}).
		AddRow("s1", "p1", "u1", "medical_expert", "q-med-v2", "v3", byPrinciple, breakdown, testTime())
	mock.ExpectQuery(`SELECT id, project_id, user_id, role, questionnaire_key`).
		WithArgs("p1").
		WillReturnRows(rows)

	got, err := s.ListScoreDocuments(context.Background(), "p1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.InDelta(t, 4.0, got[0].ByPrinciple["transparency"].Risk, 0.001)
	require.Len(t, got[0].QuestionBreakdown, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_PutAssignment(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO assignments`).
		WithArgs("p1", "u1", "Dr. Reyes", "medical_expert").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.PutAssignment(context.Background(), model.EvaluatorAssignment{
		ProjectID: "p1", UserID: "u1", Name: "Dr. Reyes", Role: "medical_expert",
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListAttempts_QueryError(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, project_id, user_id, name, role`).
		WithArgs("p1").
		WillReturnError(assert.AnError)

	_, err := s.ListAttempts(context.Background(), "p1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list attempts")
	assert.NoError(t, mock.ExpectationsWereMet())
}
