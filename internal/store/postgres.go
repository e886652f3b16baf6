package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/z-inspection/report-cli/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses, satisfied by
// pgxmock in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS projects (
	id                  TEXT PRIMARY KEY,
	title               TEXT NOT NULL,
	category            TEXT NOT NULL DEFAULT '',
	owner_id            TEXT NOT NULL DEFAULT '',
	assigned_user_ids   JSONB NOT NULL DEFAULT '[]',
	use_case_expert_ids JSONB NOT NULL DEFAULT '[]',
	created_at          TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS assignments (
	project_id TEXT NOT NULL,
	user_id    TEXT NOT NULL,
	name       TEXT NOT NULL DEFAULT '',
	role       TEXT NOT NULL,
	PRIMARY KEY (project_id, user_id, role)
);

CREATE TABLE IF NOT EXISTS attempts (
	id                TEXT PRIMARY KEY,
	project_id        TEXT NOT NULL,
	user_id           TEXT NOT NULL,
	name              TEXT NOT NULL DEFAULT '',
	role              TEXT NOT NULL DEFAULT '',
	questionnaire_key TEXT NOT NULL,
	status            TEXT NOT NULL DEFAULT '',
	submitted_at      TIMESTAMPTZ,
	answers           JSONB NOT NULL DEFAULT '[]'
);

CREATE TABLE IF NOT EXISTS score_documents (
	id                 TEXT PRIMARY KEY,
	project_id         TEXT NOT NULL,
	user_id            TEXT NOT NULL,
	role               TEXT NOT NULL DEFAULT '',
	questionnaire_key  TEXT NOT NULL,
	model_version      TEXT NOT NULL DEFAULT '',
	by_principle       JSONB NOT NULL DEFAULT '{}',
	question_breakdown JSONB NOT NULL DEFAULT '[]',
	scored_at          TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS questions (
	id              TEXT PRIMARY KEY,
	text            TEXT NOT NULL DEFAULT '',
	principle_label TEXT NOT NULL,
	importance      DOUBLE PRECISION NOT NULL DEFAULT 0,
	required        BOOLEAN NOT NULL DEFAULT false,
	ord             INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_assignments_project ON assignments(project_id);
CREATE INDEX IF NOT EXISTS idx_attempts_project ON attempts(project_id);
CREATE INDEX IF NOT EXISTS idx_score_documents_project ON score_documents(project_id);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) GetProject(ctx context.Context, projectID string) (*model.Project, error) {
	var (
		p            model.Project
		assignedJSON []byte
		expertsJSON  []byte
	)
	err := s.pool.QueryRow(ctx,
		`SELECT id, title, category, owner_id, assigned_user_ids, use_case_expert_ids, created_at
		 FROM projects WHERE id = $1`, projectID,
	).Scan(&p.ID, &p.Title, &p.Category, &p.OwnerID, &assignedJSON, &expertsJSON, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get project %s", projectID)
	}
	if err := json.Unmarshal(assignedJSON, &p.AssignedUserIDs); err != nil {
		return nil, eris.Wrapf(err, "postgres: unmarshal assigned users for %s", projectID)
	}
	if err := json.Unmarshal(expertsJSON, &p.UseCaseExpertIDs); err != nil {
		return nil, eris.Wrapf(err, "postgres: unmarshal use-case experts for %s", projectID)
	}
	return &p, nil
}

func (s *PostgresStore) ListAssignments(ctx context.Context, projectID string) ([]model.EvaluatorAssignment, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT project_id, user_id, name, role FROM assignments WHERE project_id = $1`, projectID)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list assignments %s", projectID)
	}
	defer rows.Close()

	var out []model.EvaluatorAssignment
	for rows.Next() {
		var a model.EvaluatorAssignment
		if err := rows.Scan(&a.ProjectID, &a.UserID, &a.Name, &a.Role); err != nil {
			return nil, eris.Wrap(err, "postgres: scan assignment")
		}
		out = append(out, a)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate assignments")
}

func (s *PostgresStore) ListAttempts(ctx context.Context, projectID string) ([]model.AnswerAttempt, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, project_id, user_id, name, role, questionnaire_key, status, submitted_at, answers
		 FROM attempts WHERE project_id = $1`, projectID)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list attempts %s", projectID)
	}
	defer rows.Close()

	var out []model.AnswerAttempt
	for rows.Next() {
		var (
			at          model.AnswerAttempt
			answersJSON []byte
		)
		if err := rows.Scan(&at.ID, &at.ProjectID, &at.UserID, &at.Name, &at.Role,
			&at.QuestionnaireKey, &at.Status, &at.SubmittedAt, &answersJSON); err != nil {
			return nil, eris.Wrap(err, "postgres: scan attempt")
		}
		if err := json.Unmarshal(answersJSON, &at.Answers); err != nil {
			return nil, eris.Wrapf(err, "postgres: unmarshal answers for attempt %s", at.ID)
		}
		out = append(out, at)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate attempts")
}

func (s *PostgresStore) ListScoreDocuments(ctx context.Context, projectID string) ([]model.ScoreDocument, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, project_id, user_id, role, questionnaire_key, model_version, by_principle, question_breakdown, scored_at
		 FROM score_documents WHERE project_id = $1`, projectID)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list score documents %s", projectID)
	}
	defer rows.Close()

	var out []model.ScoreDocument
	for rows.Next() {
		var (
			d             model.ScoreDocument
			byPrinciple   []byte
			breakdownJSON []byte
		)
		if err := rows.Scan(&d.ID, &d.ProjectID, &d.UserID, &d.Role, &d.QuestionnaireKey,
			&d.ModelVersion, &byPrinciple, &breakdownJSON, &d.ScoredAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan score document")
		}
		if err := json.Unmarshal(byPrinciple, &d.ByPrinciple); err != nil {
			return nil, eris.Wrapf(err, "postgres: unmarshal by_principle for %s", d.ID)
		}
		if err := json.Unmarshal(breakdownJSON, &d.QuestionBreakdown); err != nil {
			return nil, eris.Wrapf(err, "postgres: unmarshal breakdown for %s", d.ID)
		}
		out = append(out, d)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate score documents")
}

func (s *PostgresStore) ListQuestions(ctx context.Context) ([]model.Question, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, text, principle_label, importance, required, ord FROM questions ORDER BY ord`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list questions")
	}
	defer rows.Close()

	var out []model.Question
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.Text, &q.PrincipleLabel, &q.Importance, &q.Required, &q.Order); err != nil {
			return nil, eris.Wrap(err, "postgres: scan question")
		}
		out = append(out, q)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate questions")
}

func (s *PostgresStore) PutProject(ctx context.Context, p model.Project) error {
	assigned, err := json.Marshal(orEmpty(p.AssignedUserIDs))
	if err != nil {
		return eris.Wrap(err, "postgres: marshal assigned users")
	}
	experts, err := json.Marshal(orEmpty(p.UseCaseExpertIDs))
	if err != nil {
		return eris.Wrap(err, "postgres: marshal use-case experts")
	}
	createdAt := p.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO projects (id, title, category, owner_id, assigned_user_ids, use_case_expert_ids, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (id) DO UPDATE SET title=EXCLUDED.title, category=EXCLUDED.category,
		   owner_id=EXCLUDED.owner_id, assigned_user_ids=EXCLUDED.assigned_user_ids,
		   use_case_expert_ids=EXCLUDED.use_case_expert_ids`,
		p.ID, p.Title, p.Category, p.OwnerID, assigned, experts, createdAt,
	)
	return eris.Wrapf(err, "postgres: put project %s", p.ID)
}

func (s *PostgresStore) PutAssignment(ctx context.Context, a model.EvaluatorAssignment) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO assignments (project_id, user_id, name, role) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (project_id, user_id, role) DO UPDATE SET name=EXCLUDED.name`,
		a.ProjectID, a.UserID, a.Name, a.Role,
	)
	return eris.Wrapf(err, "postgres: put assignment %s/%s", a.ProjectID, a.UserID)
}

func (s *PostgresStore) PutAttempt(ctx context.Context, at model.AnswerAttempt) error {
	answers, err := json.Marshal(at.Answers)
	if err != nil {
		return eris.Wrapf(err, "postgres: marshal answers for attempt %s", at.ID)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO attempts (id, project_id, user_id, name, role, questionnaire_key, status, submitted_at, answers)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (id) DO UPDATE SET status=EXCLUDED.status, submitted_at=EXCLUDED.submitted_at, answers=EXCLUDED.answers`,
		at.ID, at.ProjectID, at.UserID, at.Name, at.Role, at.QuestionnaireKey, at.Status, at.SubmittedAt, answers,
	)
	return eris.Wrapf(err, "postgres: put attempt %s", at.ID)
}

func (s *PostgresStore) PutScoreDocument(ctx context.Context, d model.ScoreDocument) error {
	byPrinciple, err := json.Marshal(d.ByPrinciple)
	if err != nil {
		return eris.Wrapf(err, "postgres: marshal by_principle for %s", d.ID)
	}
	breakdown, err := json.Marshal(d.QuestionBreakdown)
	if err != nil {
		return eris.Wrapf(err, "postgres: marshal breakdown for %s", d.ID)
	}
	scoredAt := d.ScoredAt
	if scoredAt.IsZero() {
		scoredAt = time.Now().UTC()
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO score_documents (id, project_id, user_id, role, questionnaire_key, model_version, by_principle, question_breakdown, scored_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (id) DO UPDATE SET model_version=EXCLUDED.model_version,
		   by_principle=EXCLUDED.by_principle, question_breakdown=EXCLUDED.question_breakdown,
		   scored_at=EXCLUDED.scored_at`,
		d.ID, d.ProjectID, d.UserID, d.Role, d.QuestionnaireKey, d.ModelVersion, byPrinciple, breakdown, scoredAt,
	)
	return eris.Wrapf(err, "postgres: put score document %s", d.ID)
}

func (s *PostgresStore) PutQuestion(ctx context.Context, q model.Question) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO questions (id, text, principle_label, importance, required, ord)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (id) DO UPDATE SET text=EXCLUDED.text, principle_label=EXCLUDED.principle_label,
		   importance=EXCLUDED.importance, required=EXCLUDED.required, ord=EXCLUDED.ord`,
		q.ID, q.Text, q.PrincipleLabel, q.Importance, q.Required, q.Order,
	)
	return eris.Wrapf(err, "postgres: put question %s", q.ID)
}
