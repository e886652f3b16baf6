package report

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/z-inspection/report-cli/internal/model"
)

func TestExtractTopDrivers_PrimaryPath(t *testing.T) {
	docs := []model.ScoreDocument{
		scoreDoc("s1", "u1", nil,
			model.QuestionScore{QuestionID: "q1", PrincipleLabel: "transparency", RiskContribution: 4.0, AnswerText: "no explanation is shown to clinicians"},
			model.QuestionScore{QuestionID: "q2", PrincipleLabel: "fairness", RiskContribution: 1.0},
		),
		scoreDoc("s2", "u2", nil,
			model.QuestionScore{QuestionID: "q1", PrincipleLabel: "transparency", RiskContribution: 3.0},
		),
	}
	docs[1].Role = "technical_expert"

	drivers := ExtractTopDrivers(docs, nil, nil, testMapping(t), 10, 200)

	require.Len(t, drivers, 2)
	assert.Equal(t, "q1", drivers[0].QuestionID)
	assert.InDelta(t, 7.0, drivers[0].TotalContribution, 0.001)
	assert.Equal(t, model.PrincipleTransparency, drivers[0].Principle)
	assert.ElementsMatch(t, []string{"medical_expert", "technical_expert"}, drivers[0].Roles)
	assert.Equal(t, "no explanation is shown to clinicians", drivers[0].AnswerExcerpt)
	assert.False(t, drivers[0].SubmittedEmpty)
}

func TestExtractTopDrivers_SubmittedEmptyRetained(t *testing.T) {
	docs := []model.ScoreDocument{
		scoreDoc("s1", "u1", nil,
			model.QuestionScore{QuestionID: "q9", PrincipleLabel: "accountability", RiskContribution: 2.0},
		),
	}

	drivers := ExtractTopDrivers(docs, nil, nil, testMapping(t), 10, 200)

	require.Len(t, drivers, 1)
	assert.True(t, drivers[0].SubmittedEmpty)
	assert.Empty(t, drivers[0].AnswerExcerpt)
}

func TestExtractTopDrivers_ExcerptFromAttemptsWhenBreakdownBare(t *testing.T) {
	docs := []model.ScoreDocument{
		scoreDoc("s1", "u1", nil,
			model.QuestionScore{QuestionID: "q1", PrincipleLabel: "privacy", RiskContribution: 2.0},
		),
	}
	attempts := []model.AnswerAttempt{
		{ID: "a1", UserID: "u1", QuestionnaireKey: "q-med",
			Answers: []model.Answer{{QuestionID: "q1", Choice: "records are shared without consent"}}},
	}

	drivers := ExtractTopDrivers(docs, attempts, nil, testMapping(t), 10, 200)
	require.Len(t, drivers, 1)
	assert.Equal(t, "records are shared without consent", drivers[0].AnswerExcerpt)
	assert.False(t, drivers[0].SubmittedEmpty)
}

func TestExtractTopDrivers_ExcerptTruncated(t *testing.T) {
	long := strings.Repeat("x", 300)
	docs := []model.ScoreDocument{
		scoreDoc("s1", "u1", nil,
			model.QuestionScore{QuestionID: "q1", PrincipleLabel: "privacy", RiskContribution: 1.0, AnswerText: long},
		),
	}

	drivers := ExtractTopDrivers(docs, nil, nil, testMapping(t), 10, 200)
	require.Len(t, drivers, 1)
	assert.Len(t, drivers[0].AnswerExcerpt, 200)
}

func TestExtractTopDrivers_FallbackPath(t *testing.T) {
	v4, v2 := 4.0, 2.0
	attempts := []model.AnswerAttempt{
		{ID: "a1", UserID: "u1", Role: "medical_expert", QuestionnaireKey: "q-med",
			Answers: []model.Answer{
				{QuestionID: "q1", Value: &v4, Text: "high risk of harm"},
				{QuestionID: "q2", Value: &v2},
			}},
		{ID: "a2", UserID: "u2", Role: "technical_expert", QuestionnaireKey: "q-tech",
			Answers: []model.Answer{
				{QuestionID: "q1", Value: &v4},
			}},
	}
	questions := []model.Question{
		{ID: "q1", PrincipleLabel: "safety", Importance: 1.0},
		{ID: "q2", PrincipleLabel: "fairness", Importance: 0.5},
	}

	// No score document carries a breakdown, so the extractor recomputes.
	drivers := ExtractTopDrivers(nil, attempts, questions, testMapping(t), 10, 200)

	require.Len(t, drivers, 2)
	assert.Equal(t, "q1", drivers[0].QuestionID)
	assert.InDelta(t, 8.0, drivers[0].TotalContribution, 0.001, "sum across evaluators")
	assert.Equal(t, model.PrincipleTechnicalRobustness, drivers[0].Principle)
	assert.Equal(t, "high risk of harm", drivers[0].AnswerExcerpt)
	assert.InDelta(t, 1.0, drivers[1].TotalContribution, 0.001)
}

func TestExtractTopDrivers_LimitClampedAndTiesStable(t *testing.T) {
	var breakdown []model.QuestionScore
	for i := 0; i < 30; i++ {
		breakdown = append(breakdown, model.QuestionScore{
			QuestionID:       fmt.Sprintf("q%02d", i),
			PrincipleLabel:   "transparency",
			RiskContribution: 1.0, // all tied
		})
	}
	docs := []model.ScoreDocument{scoreDoc("s1", "u1", nil, breakdown...)}

	t.Run("limit clamped to max", func(t *testing.T) {
		drivers := ExtractTopDrivers(docs, nil, nil, testMapping(t), 50, 200)
		assert.Len(t, drivers, 20)
	})

	t.Run("limit clamped to min", func(t *testing.T) {
		drivers := ExtractTopDrivers(docs, nil, nil, testMapping(t), 3, 200)
		assert.Len(t, drivers, 10)
	})

	t.Run("ties keep encounter order", func(t *testing.T) {
		drivers := ExtractTopDrivers(docs, nil, nil, testMapping(t), 10, 200)
		for i, d := range drivers {
			assert.Equal(t, fmt.Sprintf("q%02d", i), d.QuestionID)
		}
	})
}
