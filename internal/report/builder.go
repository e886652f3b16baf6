// Package report implements the risk aggregation, evaluator resolution
// and validity engine. A report build is a pure, read-only fold over
// the record store's current contents: fetch, resolve, aggregate,
// validate, extract, cross-check. Nothing is cached and nothing is
// written back, so concurrent builds need no coordination.
package report

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/z-inspection/report-cli/internal/config"
	"github.com/z-inspection/report-cli/internal/model"
	"github.com/z-inspection/report-cli/internal/riskscale"
)

// ErrProjectNotFound is returned when the project ID resolves to
// nothing in the record store.
var ErrProjectNotFound = eris.New("report: project not found")

// Source is the read-only slice of the record store a report build
// consumes.
type Source interface {
	GetProject(ctx context.Context, projectID string) (*model.Project, error)
	ListAssignments(ctx context.Context, projectID string) ([]model.EvaluatorAssignment, error)
	ListAttempts(ctx context.Context, projectID string) ([]model.AnswerAttempt, error)
	ListScoreDocuments(ctx context.Context, projectID string) ([]model.ScoreDocument, error)
	ListQuestions(ctx context.Context) ([]model.Question, error)
}

// Builder assembles reports. Safe for concurrent use.
type Builder struct {
	src     Source
	mapping *config.LabelMapping
	report  config.ReportConfig
	scoring config.ScoringConfig
}

// NewBuilder creates a Builder.
func NewBuilder(src Source, mapping *config.LabelMapping, report config.ReportConfig, scoring config.ScoringConfig) *Builder {
	if mapping == nil {
		mapping = config.DefaultLabelMapping()
	}
	return &Builder{src: src, mapping: mapping, report: report, scoring: scoring}
}

// Build computes a fresh report for the project. Recoverable data gaps
// degrade into an invalid report with reasons attached; structural
// invariant violations and total data absence abort with an error.
func (b *Builder) Build(ctx context.Context, projectID string) (*model.Report, error) {
	started := time.Now()

	var (
		project     *model.Project
		assignments []model.EvaluatorAssignment
		attempts    []model.AnswerAttempt
		docs        []model.ScoreDocument
		questions   []model.Question
	)

	// The five collections are independent reads; fetch them together.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { project, err = b.src.GetProject(gctx, projectID); return err })
	g.Go(func() (err error) { assignments, err = b.src.ListAssignments(gctx, projectID); return err })
	g.Go(func() (err error) { attempts, err = b.src.ListAttempts(gctx, projectID); return err })
	g.Go(func() (err error) { docs, err = b.src.ListScoreDocuments(gctx, projectID); return err })
	g.Go(func() (err error) { questions, err = b.src.ListQuestions(gctx); return err })
	if err := g.Wait(); err != nil {
		return nil, eris.Wrapf(err, "report: fetch project %s", projectID)
	}
	if project == nil {
		return nil, eris.Wrapf(ErrProjectNotFound, "project %s", projectID)
	}

	sets := ResolveEvaluators(project, assignments, attempts, docs)

	// More submitted than assigned people cannot come from legitimate
	// data entry; it means the resolution paths disagree about who the
	// team is. An unknown assigned universe (zero) is a data gap, not a
	// violation, and stays with the validity engine.
	if len(sets.Assigned) > 0 && len(sets.Submitted) > len(sets.Assigned) {
		return nil, eris.Errorf("report: %d submitted evaluator(s) exceed the %d assigned for project %s",
			len(sets.Submitted), len(sets.Assigned), projectID)
	}

	principles, notes := AggregatePrinciples(docs, b.mapping)
	sets.Notes = append(sets.Notes, notes...)

	anyPresent := false
	totals := model.ReportTotals{}
	for _, p := range model.CanonicalPrinciples {
		agg, ok := principles[p].Aggregate()
		if !ok {
			continue
		}
		anyPresent = true
		totals.CumulativeRisk += agg.CumulativeRisk
		totals.TotalAnswers += agg.TotalAnswers
		totals.UniqueQuestions += agg.UniqueQuestionCount
	}
	if !anyPresent {
		return nil, eris.Errorf("report: no principle has any evaluation data for project %s; nothing meaningful can be reported", projectID)
	}
	if totals.TotalAnswers > 0 {
		totals.AverageERC = totals.CumulativeRisk / float64(totals.TotalAnswers)
	}
	totals.OverallLevel = riskscale.ClassifyCumulative(totals.CumulativeRisk, totals.TotalAnswers)

	// The inversion guard runs on every pair this report publishes.
	if totals.TotalAnswers > 0 {
		if err := riskscale.AssertNotInverted(totals.AverageERC, totals.OverallLevel); err != nil {
			return nil, eris.Wrapf(err, "report: project %s totals", projectID)
		}
	}
	for _, p := range model.CanonicalPrinciples {
		agg, ok := principles[p].Aggregate()
		if !ok || agg.TotalAnswers == 0 {
			continue
		}
		avg := agg.CumulativeRisk / float64(agg.TotalAnswers)
		if err := riskscale.AssertNotInverted(avg, agg.NormalizedLevel); err != nil {
			return nil, eris.Wrapf(err, "report: project %s principle %s", projectID, p)
		}
	}

	rep := &model.Report{
		ProjectID:   projectID,
		Title:       project.Title,
		GeneratedAt: time.Now().UTC(),
		Validity:    EvaluateValidity(sets, docs, b.scoring),
		Principles:  principles,
		Totals:      totals,
		TopDrivers:  ExtractTopDrivers(docs, attempts, questions, b.mapping, b.report.TopDrivers, b.report.ExcerptMaxChars),
		Evaluators:  sets,
	}

	issues, err := CheckConsistency(rep, b.report.ConsistencyTolerance)
	if err != nil {
		return nil, eris.Wrapf(err, "report: project %s", projectID)
	}
	rep.Issues = issues

	zap.L().Info("report: built",
		zap.String("project_id", projectID),
		zap.String("validity", string(rep.Validity.Status)),
		zap.Float64("cumulative_risk", totals.CumulativeRisk),
		zap.String("overall_level", string(totals.OverallLevel)),
		zap.Int("drivers", len(rep.TopDrivers)),
		zap.Int("warnings", len(issues)),
		zap.Duration("elapsed", time.Since(started)),
	)
	return rep, nil
}
