// Package store provides the record store the report engine reads
// from. The engine treats every collection as read-only upstream fact;
// the write methods exist for the import tooling only.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/z-inspection/report-cli/internal/config"
	"github.com/z-inspection/report-cli/internal/model"
)

// Store is the persistence interface over the evaluation records.
type Store interface {
	// Read side, keyed by project. Missing project returns nil, not an
	// error; a project with no records is a data-quality state the
	// validity engine classifies, not a failure.
	GetProject(ctx context.Context, projectID string) (*model.Project, error)
	ListAssignments(ctx context.Context, projectID string) ([]model.EvaluatorAssignment, error)
	ListAttempts(ctx context.Context, projectID string) ([]model.AnswerAttempt, error)
	ListScoreDocuments(ctx context.Context, projectID string) ([]model.ScoreDocument, error)
	ListQuestions(ctx context.Context) ([]model.Question, error)

	// Write side, used by the import command.
	PutProject(ctx context.Context, p model.Project) error
	PutAssignment(ctx context.Context, a model.EvaluatorAssignment) error
	PutAttempt(ctx context.Context, at model.AnswerAttempt) error
	PutScoreDocument(ctx context.Context, d model.ScoreDocument) error
	PutQuestion(ctx context.Context, q model.Question) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Open creates a Store for the configured driver.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "sqlite", "":
		return NewSQLite(cfg.DatabaseURL)
	case "postgres":
		return NewPostgres(ctx, cfg.DatabaseURL)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
}
