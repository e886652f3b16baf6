package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/z-inspection/report-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS projects (
	id                  TEXT PRIMARY KEY,
	title               TEXT NOT NULL,
	category            TEXT NOT NULL DEFAULT '',
	owner_id            TEXT NOT NULL DEFAULT '',
	assigned_user_ids   TEXT NOT NULL DEFAULT '[]',
	use_case_expert_ids TEXT NOT NULL DEFAULT '[]',
	created_at          DATETIME NOT NULL DEFAULT (datetime('now'))
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
	submitted_at      DATETIME,
	answers           TEXT NOT NULL DEFAULT '[]'
);

CREATE TABLE IF NOT EXISTS score_documents (
	id                 TEXT PRIMARY KEY,
	project_id         TEXT NOT NULL,
	user_id            TEXT NOT NULL,
	role               TEXT NOT NULL DEFAULT '',
	questionnaire_key  TEXT NOT NULL,
	model_version      TEXT NOT NULL DEFAULT '',
	by_principle       TEXT NOT NULL DEFAULT '{}',
	question_breakdown TEXT NOT NULL DEFAULT '[]',
	scored_at          DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS questions (
	id              TEXT PRIMARY KEY,
	text            TEXT NOT NULL DEFAULT '',
	principle_label TEXT NOT NULL,
	importance      REAL NOT NULL DEFAULT 0,
	required        INTEGER NOT NULL DEFAULT 0,
	ord             INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_assignments_project ON assignments(project_id);
CREATE INDEX IF NOT EXISTS idx_attempts_project ON attempts(project_id);
CREATE INDEX IF NOT EXISTS idx_score_documents_project ON score_documents(project_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) GetProject(ctx context.Context, projectID string) (*model.Project, error) {
	var (
		p            model.Project
		assignedJSON string
		expertsJSON  string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, category, owner_id, assigned_user_ids, use_case_expert_ids, created_at
		 FROM projects WHERE id = ?`, projectID,
	).Scan(&p.ID, &p.Title, &p.Category, &p.OwnerID, &assignedJSON, &expertsJSON, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get project %s", projectID)
	}
	if err := json.Unmarshal([]byte(assignedJSON), &p.AssignedUserIDs); err != nil {
		return nil, eris.Wrapf(err, "sqlite: unmarshal assigned users for %s", projectID)
	}
	if err := json.Unmarshal([]byte(expertsJSON), &p.UseCaseExpertIDs); err != nil {
		return nil, eris.Wrapf(err, "sqlite: unmarshal use-case experts for %s", projectID)
	}
	return &p, nil
}

func (s *SQLiteStore) ListAssignments(ctx context.Context, projectID string) ([]model.EvaluatorAssignment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT project_id, user_id, name, role FROM assignments WHERE project_id = ?`, projectID)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list assignments %s", projectID)
	}
	defer rows.Close()

	var out []model.EvaluatorAssignment
	for rows.Next() {
		var a model.EvaluatorAssignment
		if err := rows.Scan(&a.ProjectID, &a.UserID, &a.Name, &a.Role); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan assignment")
		}
		out = append(out, a)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate assignments")
}

func (s *SQLiteStore) ListAttempts(ctx context.Context, projectID string) ([]model.AnswerAttempt, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, project_id, user_id, name, role, questionnaire_key, status, submitted_at, answers
		 FROM attempts WHERE project_id = ?`, projectID)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list attempts %s", projectID)
	}
	defer rows.Close()

	var out []model.AnswerAttempt
	for rows.Next() {
		var (
			at          model.AnswerAttempt
			submittedAt sql.NullTime
			answersJSON string
		)
		if err := rows.Scan(&at.ID, &at.ProjectID, &at.UserID, &at.Name, &at.Role,
			&at.QuestionnaireKey, &at.Status, &submittedAt, &answersJSON); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan attempt")
		}
		if submittedAt.Valid {
			t := submittedAt.Time
			at.SubmittedAt = &t
		}
		if err := json.Unmarshal([]byte(answersJSON), &at.Answers); err != nil {
			return nil, eris.Wrapf(err, "sqlite: unmarshal answers for attempt %s", at.ID)
		}
		out = append(out, at)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate attempts")
}

func (s *SQLiteStore) ListScoreDocuments(ctx context.Context, projectID string) ([]model.ScoreDocument, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, project_id, user_id, role, questionnaire_key, model_version, by_principle, question_breakdown, scored_at
		 FROM score_documents WHERE project_id = ?`, projectID)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list score documents %s", projectID)
	}
	defer rows.Close()

	var out []model.ScoreDocument
	for rows.Next() {
		var (
			d             model.ScoreDocument
			byPrinciple   string
			breakdownJSON string
		)
		if err := rows.Scan(&d.ID, &d.ProjectID, &d.UserID, &d.Role, &d.QuestionnaireKey,
			&d.ModelVersion, &byPrinciple, &breakdownJSON, &d.ScoredAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan score document")
		}
		if err := json.Unmarshal([]byte(byPrinciple), &d.ByPrinciple); err != nil {
			return nil, eris.Wrapf(err, "sqlite: unmarshal by_principle for %s", d.ID)
		}
		if err := json.Unmarshal([]byte(breakdownJSON), &d.QuestionBreakdown); err != nil {
			return nil, eris.Wrapf(err, "sqlite: unmarshal breakdown for %s", d.ID)
		}
		out = append(out, d)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate score documents")
}

func (s *SQLiteStore) ListQuestions(ctx context.Context) ([]model.Question, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, text, principle_label, importance, required, ord FROM questions ORDER BY ord`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list questions")
	}
	defer rows.Close()

	var out []model.Question
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.Text, &q.PrincipleLabel, &q.Importance, &q.Required, &q.Order); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan question")
		}
		out = append(out, q)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate questions")
}

func (s *SQLiteStore) PutProject(ctx context.Context, p model.Project) error {
	assigned, err := json.Marshal(orEmpty(p.AssignedUserIDs))
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal assigned users")
	}
	experts, err := json.Marshal(orEmpty(p.UseCaseExpertIDs))
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal use-case experts")
	}
	createdAt := p.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO projects (id, title, category, owner_id, assigned_user_ids, use_case_expert_ids, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET title=excluded.title, category=excluded.category,
		   owner_id=excluded.owner_id, assigned_user_ids=excluded.assigned_user_ids,
		   use_case_expert_ids=excluded.use_case_expert_ids`,
		p.ID, p.Title, p.Category, p.OwnerID, string(assigned), string(experts), createdAt,
	)
	return eris.Wrapf(err, "sqlite: put project %s", p.ID)
}

func (s *SQLiteStore) PutAssignment(ctx context.Context, a model.EvaluatorAssignment) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO assignments (project_id, user_id, name, role) VALUES (?, ?, ?, ?)
		 ON CONFLICT(project_id, user_id, role) DO UPDATE SET name=excluded.name`,
		a.ProjectID, a.UserID, a.Name, a.Role,
	)
	return eris.Wrapf(err, "sqlite: put assignment %s/%s", a.ProjectID, a.UserID)
}

func (s *SQLiteStore) PutAttempt(ctx context.Context, at model.AnswerAttempt) error {
	answers, err := json.Marshal(at.Answers)
	if err != nil {
		return eris.Wrapf(err, "sqlite: marshal answers for attempt %s", at.ID)
	}
	var submittedAt any
	if at.SubmittedAt != nil {
		submittedAt = *at.SubmittedAt
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO attempts (id, project_id, user_id, name, role, questionnaire_key, status, submitted_at, answers)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET status=excluded.status, submitted_at=excluded.submitted_at, answers=excluded.answers`,
		at.ID, at.ProjectID, at.UserID, at.Name, at.Role, at.QuestionnaireKey, at.Status, submittedAt, string(answers),
	)
	return eris.Wrapf(err, "sqlite: put attempt %s", at.ID)
}

func (s *SQLiteStore) PutScoreDocument(ctx context.Context, d model.ScoreDocument) error {
	byPrinciple, err := json.Marshal(d.ByPrinciple)
	if err != nil {
		return eris.Wrapf(err, "sqlite: marshal by_principle for %s", d.ID)
	}
	breakdown, err := json.Marshal(d.QuestionBreakdown)
	if err != nil {
		return eris.Wrapf(err, "sqlite: marshal breakdown for %s", d.ID)
	}
	scoredAt := d.ScoredAt
	if scoredAt.IsZero() {
		scoredAt = time.Now().UTC()
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO score_documents (id, project_id, user_id, role, questionnaire_key, model_version, by_principle, question_breakdown, scored_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET model_version=excluded.model_version,
		   by_principle=excluded.by_principle, question_breakdown=excluded.question_breakdown,
		   scored_at=excluded.scored_at`,
		d.ID, d.ProjectID, d.UserID, d.Role, d.QuestionnaireKey, d.ModelVersion,
		string(byPrinciple), string(breakdown), scoredAt,
	)
	return eris.Wrapf(err, "sqlite: put score document %s", d.ID)
}

func (s *SQLiteStore) PutQuestion(ctx context.Context, q model.Question) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO questions (id, text, principle_label, importance, required, ord)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET text=excluded.text, principle_label=excluded.principle_label,
		   importance=excluded.importance, required=excluded.required, ord=excluded.ord`,
		q.ID, q.Text, q.PrincipleLabel, q.Importance, q.Required, q.Order,
	)
	return eris.Wrapf(err, "sqlite: put question %s", q.ID)
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
