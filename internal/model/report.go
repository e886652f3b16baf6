package model

import (
	"encoding/json"
	"time"

	"github.com/z-inspection/report-cli/internal/riskscale"
)

// Evaluator is one resolved person in the assigned/started/submitted
// sets, deduplicated by person across roles and questionnaires.
type Evaluator struct {
	UserID         string   `json:"user_id"`
	Name           string   `json:"name,omitempty"`
	Role           string   `json:"role,omitempty"`
	Questionnaires []string `json:"questionnaires,omitempty"`
	HasScore       bool     `json:"has_score"`
}

// EvaluatorSets is the resolver output. Notes collect human-readable
// data-quality observations (missing scores, fallback sources used)
// that are surfaced instead of silently dropping anyone.
type EvaluatorSets struct {
	Assigned  []Evaluator `json:"assigned"`
	Started   []Evaluator `json:"started"`
	Submitted []Evaluator `json:"submitted"`
	Notes     []string    `json:"notes,omitempty"`
}

// SubmittedWithScore counts submitted evaluators that have at least one
// score document.
func (s EvaluatorSets) SubmittedWithScore() int {
	n := 0
	for _, e := range s.Submitted {
		if e.HasScore {
			n++
		}
	}
	return n
}

// PrincipleAggregate is the populated per-principle report figure.
// CumulativeRisk is a sum over contributing evaluators, never an
// average: two evaluators each reporting 4.0 yield 8.0.
type PrincipleAggregate struct {
	CumulativeRisk      float64         `json:"cumulative_risk"`
	UniqueQuestionCount int             `json:"unique_question_count"`
	TotalAnswers        int             `json:"total_answers"`
	EvaluatorCount      int             `json:"evaluator_count"`
	Min                 float64         `json:"min"`
	Max                 float64         `json:"max"`
	AverageImportance   float64         `json:"average_importance"`
	HighImportanceRatio float64         `json:"high_importance_ratio"`
	NormalizedLevel     riskscale.Level `json:"normalized_level"`
}

// PrincipleResult is a tagged variant: either absent (no evaluator
// produced data for the principle) or a populated aggregate. Absence
// and a cumulative risk of exactly zero are structurally different
// outcomes; zero means evaluated and found minimal risk. The tag keeps
// downstream code from coercing one into the other.
type PrincipleResult struct {
	present bool
	agg     PrincipleAggregate
}

// Absent returns the not-evaluated result.
func Absent() PrincipleResult {
	return PrincipleResult{}
}

// Evaluated wraps a populated aggregate.
func Evaluated(agg PrincipleAggregate) PrincipleResult {
	return PrincipleResult{present: true, agg: agg}
}

// Present reports whether any evaluator contributed to the principle.
func (r PrincipleResult) Present() bool { return r.present }

// Aggregate returns the populated aggregate; ok is false for absent.
func (r PrincipleResult) Aggregate() (PrincipleAggregate, bool) {
	return r.agg, r.present
}

// MarshalJSON emits null for absent, the aggregate object otherwise.
func (r PrincipleResult) MarshalJSON() ([]byte, error) {
	if !r.present {
		return []byte("null"), nil
	}
	return json.Marshal(r.agg)
}

// UnmarshalJSON accepts null as absent.
func (r *PrincipleResult) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*r = Absent()
		return nil
	}
	var agg PrincipleAggregate
	if err := json.Unmarshal(data, &agg); err != nil {
		return err
	}
	*r = Evaluated(agg)
	return nil
}

// ValidityStatus is the engine's verdict on whether current data
// supports a trustworthy report.
type ValidityStatus string

const (
	ValidityValid                ValidityStatus = "valid"
	ValidityMissingScores        ValidityStatus = "invalid_missing_scores"
	ValidityPartialScores        ValidityStatus = "invalid_partial_scores"
	ValidityIncompleteEvaluators ValidityStatus = "invalid_incomplete_evaluators"
	ValidityScoringPipeline      ValidityStatus = "invalid_scoring_pipeline"
)

// ReportValidity carries the verdict plus the data-driven reasons and
// operator-facing next steps. Invalidity is a first-class output, not
// an error.
type ReportValidity struct {
	Status             ValidityStatus `json:"status"`
	Reasons            []string       `json:"reasons,omitempty"`
	RecommendedActions []string       `json:"recommended_actions,omitempty"`
}

// Valid reports whether the report is publishable as-is.
func (v ReportValidity) Valid() bool { return v.Status == ValidityValid }

// TopRiskDriver is one question ranked by its total risk contribution
// across all evaluators.
type TopRiskDriver struct {
	QuestionID        string    `json:"question_id"`
	Principle         Principle `json:"principle"`
	TotalContribution float64   `json:"total_contribution"`
	Roles             []string  `json:"roles,omitempty"`
	AnswerExcerpt     string    `json:"answer_excerpt,omitempty"`
	SubmittedEmpty    bool      `json:"submitted_empty,omitempty"`
}

// ConsistencySeverity distinguishes rounding-level disagreements from
// structural divergence between counting paths.
type ConsistencySeverity string

const (
	ConsistencyWarning ConsistencySeverity = "warning"
	ConsistencyError   ConsistencySeverity = "error"
)

// ConsistencyIssue is one failed cross-check.
type ConsistencyIssue struct {
	Check    string              `json:"check"`
	Severity ConsistencySeverity `json:"severity"`
	Detail   string              `json:"detail"`
}

// ReportTotals are the project-wide headline figures.
type ReportTotals struct {
	CumulativeRisk  float64         `json:"cumulative_risk"`
	TotalAnswers    int             `json:"total_answers"`
	UniqueQuestions int             `json:"unique_questions"`
	AverageERC      float64         `json:"average_erc"`
	OverallLevel    riskscale.Level `json:"overall_level"`
}

// Report is the single in-memory result handed to downstream
// collaborators. No consumer recomputes risk numbers independently;
// everything renderable is here.
type Report struct {
	ProjectID   string                        `json:"project_id"`
	Title       string                        `json:"title,omitempty"`
	GeneratedAt time.Time                     `json:"generated_at"`
	Validity    ReportValidity                `json:"validity"`
	Principles  map[Principle]PrincipleResult `json:"principles"`
	Totals      ReportTotals                  `json:"totals"`
	TopDrivers  []TopRiskDriver               `json:"top_drivers"`
	Evaluators  EvaluatorSets                 `json:"evaluators"`
	Issues      []ConsistencyIssue            `json:"consistency_issues,omitempty"`
}
