package model

import (
	"strings"
	"time"
)

// RoleProject is the synthetic role attached to project-level score
// documents produced upstream. It is never a person and must be
// excluded from evaluator-level aggregation.
const RoleProject = "project"

// Project is the basic project metadata read from the record store.
// AssignedUserIDs and UseCaseExpertIDs are legacy homes for assignment
// data and only consulted when no assignment records exist.
type Project struct {
	ID               string    `json:"id" yaml:"id"`
	Title            string    `json:"title" yaml:"title"`
	Category         string    `json:"category,omitempty" yaml:"category,omitempty"`
	OwnerID          string    `json:"owner_id,omitempty" yaml:"owner_id,omitempty"`
	AssignedUserIDs  []string  `json:"assigned_user_ids,omitempty" yaml:"assigned_user_ids,omitempty"`
	UseCaseExpertIDs []string  `json:"use_case_expert_ids,omitempty" yaml:"use_case_expert_ids,omitempty"`
	CreatedAt        time.Time `json:"created_at,omitempty" yaml:"created_at,omitempty"`
}

// EvaluatorAssignment records that a person was assigned to evaluate a
// project in a given role. Immutable; defines the assigned universe.
type EvaluatorAssignment struct {
	ProjectID string `json:"project_id" yaml:"project_id"`
	UserID    string `json:"user_id" yaml:"user_id"`
	Name      string `json:"name,omitempty" yaml:"name,omitempty"`
	Role      string `json:"role" yaml:"role"`
}

// Answer is one answer inside an attempt. Any one of the payload fields
// being populated makes the answer count as real content.
type Answer struct {
	QuestionID string   `json:"question_id" yaml:"question_id"`
	Text       string   `json:"text,omitempty" yaml:"text,omitempty"`
	Choice     string   `json:"choice,omitempty" yaml:"choice,omitempty"`
	Choices    []string `json:"choices,omitempty" yaml:"choices,omitempty"`
	Value      *float64 `json:"value,omitempty" yaml:"value,omitempty"`
}

// HasContent reports whether the answer carries real content: text, a
// selected choice, a numeric value, or multiple selections. Whitespace
// is not content.
func (a Answer) HasContent() bool {
	if strings.TrimSpace(a.Text) != "" {
		return true
	}
	if strings.TrimSpace(a.Choice) != "" {
		return true
	}
	for _, c := range a.Choices {
		if strings.TrimSpace(c) != "" {
			return true
		}
	}
	return a.Value != nil
}

// AnswerAttempt is one evaluator's pass over one questionnaire for one
// project, with its answers embedded. The Status flag is advisory only:
// it is known to lag the actual completion action, so submission is
// decided from answer content, never from Status.
type AnswerAttempt struct {
	ID               string     `json:"id" yaml:"id"`
	ProjectID        string     `json:"project_id" yaml:"project_id"`
	UserID           string     `json:"user_id" yaml:"user_id"`
	Name             string     `json:"name,omitempty" yaml:"name,omitempty"`
	Role             string     `json:"role" yaml:"role"`
	QuestionnaireKey string     `json:"questionnaire_key" yaml:"questionnaire_key"`
	Status           string     `json:"status,omitempty" yaml:"status,omitempty"`
	SubmittedAt      *time.Time `json:"submitted_at,omitempty" yaml:"submitted_at,omitempty"`
	Answers          []Answer   `json:"answers" yaml:"answers"`
}

// HasSubmittedContent reports whether at least one answer in the
// attempt carries real content.
func (at AnswerAttempt) HasSubmittedContent() bool {
	for _, a := range at.Answers {
		if a.HasContent() {
			return true
		}
	}
	return false
}

// PrincipleEntry is one principle's pre-computed summary inside a
// ScoreDocument. Risk is the evaluator's own cumulative risk for the
// principle, a sum over that principle's question contributions, not an
// average.
type PrincipleEntry struct {
	Risk                float64 `json:"risk" yaml:"risk"`
	Min                 float64 `json:"min" yaml:"min"`
	Max                 float64 `json:"max" yaml:"max"`
	AvgImportance       float64 `json:"avg_importance" yaml:"avg_importance"`
	HighImportanceRatio float64 `json:"high_importance_ratio" yaml:"high_importance_ratio"`
}

// QuestionScore is one question's risk contribution inside a
// ScoreDocument breakdown.
type QuestionScore struct {
	QuestionID       string  `json:"question_id" yaml:"question_id"`
	PrincipleLabel   string  `json:"principle_label" yaml:"principle_label"`
	RiskContribution float64 `json:"risk_contribution" yaml:"risk_contribution"`
	AnswerText       string  `json:"answer_text,omitempty" yaml:"answer_text,omitempty"`
}

// ScoreDocument is the upstream scoring pipeline's per-evaluator,
// per-questionnaire summary. Read-only here; the engine never rescores
// or mutates these.
type ScoreDocument struct {
	ID                string                    `json:"id" yaml:"id"`
	ProjectID         string                    `json:"project_id" yaml:"project_id"`
	UserID            string                    `json:"user_id" yaml:"user_id"`
	Role              string                    `json:"role" yaml:"role"`
	QuestionnaireKey  string                    `json:"questionnaire_key" yaml:"questionnaire_key"`
	ModelVersion      string                    `json:"model_version,omitempty" yaml:"model_version,omitempty"`
	ByPrinciple       map[string]PrincipleEntry `json:"by_principle" yaml:"by_principle"`
	QuestionBreakdown []QuestionScore           `json:"question_breakdown,omitempty" yaml:"question_breakdown,omitempty"`
	ScoredAt          time.Time                 `json:"scored_at,omitempty" yaml:"scored_at,omitempty"`
}

// IsEvaluatorLevel reports whether the document belongs to a person, as
// opposed to the synthetic project-level rollup.
func (d ScoreDocument) IsEvaluatorLevel() bool {
	return d.Role != RoleProject
}

// Question is questionnaire metadata for one question, used by the
// driver extractor's fallback path when no score document carries a
// breakdown.
type Question struct {
	ID             string  `json:"id" yaml:"id"`
	Text           string  `json:"text,omitempty" yaml:"text,omitempty"`
	PrincipleLabel string  `json:"principle_label" yaml:"principle_label"`
	Importance     float64 `json:"importance,omitempty" yaml:"importance,omitempty"`
	Required       bool    `json:"required,omitempty" yaml:"required,omitempty"`
	Order          int     `json:"order,omitempty" yaml:"order,omitempty"`
}
