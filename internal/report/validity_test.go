package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/z-inspection/report-cli/internal/config"
	"github.com/z-inspection/report-cli/internal/model"
)

func testScoring() config.ScoringConfig {
	return config.ScoringConfig{
		CurrentModelVersion:   "v3",
		ObsoleteModelVersions: []string{"v1", "v2"},
	}
}

func TestEvaluateValidity_MissingScores(t *testing.T) {
	sets := model.EvaluatorSets{
		Submitted: []model.Evaluator{{UserID: "u1"}},
	}

	v := EvaluateValidity(sets, nil, testScoring())

	assert.Equal(t, model.ValidityMissingScores, v.Status)
	require.NotEmpty(t, v.Reasons)
	assert.Contains(t, v.Reasons[0], "1 evaluator(s) submitted")
	assert.NotEmpty(t, v.RecommendedActions)
}

func TestEvaluateValidity_PartialScores(t *testing.T) {
	sets := model.EvaluatorSets{
		Submitted: []model.Evaluator{
			{UserID: "u1", HasScore: true},
			{UserID: "u2", HasScore: false},
		},
	}
	docs := []model.ScoreDocument{
		{ID: "s1", UserID: "u1", ModelVersion: "v3", Role: "medical_expert"},
	}

	v := EvaluateValidity(sets, docs, testScoring())

	assert.Equal(t, model.ValidityPartialScores, v.Status)
	assert.Contains(t, v.Reasons[0], "1 of 2")
}

func TestEvaluateValidity_IncompleteEvaluators(t *testing.T) {
	sets := model.EvaluatorSets{
		Assigned: []model.Evaluator{{UserID: "u1"}, {UserID: "u2"}},
		Submitted: []model.Evaluator{
			{UserID: "u1", HasScore: true},
		},
	}
	docs := []model.ScoreDocument{
		{ID: "s1", UserID: "u1", ModelVersion: "v3", Role: "medical_expert"},
	}

	v := EvaluateValidity(sets, docs, testScoring())

	assert.Equal(t, model.ValidityIncompleteEvaluators, v.Status)
	// The reason names both counts.
	assert.Contains(t, v.Reasons[0], "1 of 2")
	assert.Contains(t, v.RecommendedActions[0], "wait")
}

func TestEvaluateValidity_ObsoleteScoringModel(t *testing.T) {
	sets := model.EvaluatorSets{
		Assigned:  []model.Evaluator{{UserID: "u1"}},
		Submitted: []model.Evaluator{{UserID: "u1", HasScore: true}},
	}
	docs := []model.ScoreDocument{
		{ID: "s1", UserID: "u1", ModelVersion: "v1", Role: "medical_expert"},
	}

	v := EvaluateValidity(sets, docs, testScoring())

	assert.Equal(t, model.ValidityScoringPipeline, v.Status)
	assert.Contains(t, v.Reasons[0], "obsolete")
	assert.Contains(t, v.RecommendedActions[0], "v3")
}

func TestEvaluateValidity_Valid(t *testing.T) {
	sets := model.EvaluatorSets{
		Assigned: []model.Evaluator{{UserID: "u1"}, {UserID: "u2"}},
		Submitted: []model.Evaluator{
			{UserID: "u1", HasScore: true},
			{UserID: "u2", HasScore: true},
		},
	}
	docs := []model.ScoreDocument{
		{ID: "s1", UserID: "u1", ModelVersion: "v3", Role: "medical_expert"},
		{ID: "s2", UserID: "u2", ModelVersion: "v3", Role: "technical_expert"},
	}

	v := EvaluateValidity(sets, docs, testScoring())

	assert.Equal(t, model.ValidityValid, v.Status)
	assert.True(t, v.Valid())
	assert.Empty(t, v.Reasons)
}

func TestEvaluateValidity_PriorityOrder(t *testing.T) {
	// Partial coverage AND an obsolete model: the earlier rule wins.
	sets := model.EvaluatorSets{
		Assigned:  []model.Evaluator{{UserID: "u1"}, {UserID: "u2"}},
		Submitted: []model.Evaluator{{UserID: "u1", HasScore: true}},
	}
	docs := []model.ScoreDocument{
		{ID: "s1", UserID: "u1", ModelVersion: "v1", Role: "medical_expert"},
	}

	v := EvaluateValidity(sets, docs, testScoring())
	assert.Equal(t, model.ValidityIncompleteEvaluators, v.Status)
}

func TestEvaluateValidity_ProjectDocsDoNotCount(t *testing.T) {
	sets := model.EvaluatorSets{
		Submitted: []model.Evaluator{{UserID: "u1"}},
	}
	// Only a synthetic project-level rollup exists.
	docs := []model.ScoreDocument{
		{ID: "s1", UserID: "synthetic", Role: model.RoleProject, ModelVersion: "v3"},
	}

	v := EvaluateValidity(sets, docs, testScoring())
	assert.Equal(t, model.ValidityMissingScores, v.Status)
}

func TestEvaluateValidity_NoAssignedDataIsNotABlocker(t *testing.T) {
	// Unknown assigned universe: rule 3 cannot fire.
	sets := model.EvaluatorSets{
		Submitted: []model.Evaluator{{UserID: "u1", HasScore: true}},
	}
	docs := []model.ScoreDocument{
		{ID: "s1", UserID: "u1", ModelVersion: "v3", Role: "medical_expert"},
	}

	v := EvaluateValidity(sets, docs, testScoring())
	assert.Equal(t, model.ValidityValid, v.Status)
}
