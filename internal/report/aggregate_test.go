package report

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/z-inspection/report-cli/internal/config"
	"github.com/z-inspection/report-cli/internal/model"
	"github.com/z-inspection/report-cli/internal/riskscale"
)

func testMapping(t *testing.T) *config.LabelMapping {
	t.Helper()
	return config.DefaultLabelMapping()
}

func scoreDoc(id, user string, byPrinciple map[string]model.PrincipleEntry, breakdown ...model.QuestionScore) model.ScoreDocument {
	return model.ScoreDocument{
		ID: id, ProjectID: "p1", UserID: user, Role: "medical_expert",
		QuestionnaireKey: "q-med", ModelVersion: "v3",
		ByPrinciple: byPrinciple, QuestionBreakdown: breakdown,
	}
}

func TestAggregatePrinciples_NoDilutionSummation(t *testing.T) {
	docs := []model.ScoreDocument{
		scoreDoc("s1", "u1",
			map[string]model.PrincipleEntry{"transparency": {Risk: 4.0, Min: 4, Max: 4, AvgImportance: 1, HighImportanceRatio: 1}},
			model.QuestionScore{QuestionID: "q1", PrincipleLabel: "transparency", RiskContribution: 4.0}),
		scoreDoc("s2", "u2",
			map[string]model.PrincipleEntry{"transparency": {Risk: 4.0, Min: 4, Max: 4, AvgImportance: 1, HighImportanceRatio: 1}},
			model.QuestionScore{QuestionID: "q1", PrincipleLabel: "transparency", RiskContribution: 4.0}),
	}

	out, notes := AggregatePrinciples(docs, testMapping(t))
	assert.Empty(t, notes)

	agg, ok := out[model.PrincipleTransparency].Aggregate()
	require.True(t, ok)
	assert.InDelta(t, 8.0, agg.CumulativeRisk, 0.001)
	assert.Equal(t, 1, agg.UniqueQuestionCount, "shared question counted once")
	assert.Equal(t, 2, agg.TotalAnswers)
	assert.Equal(t, 2, agg.EvaluatorCount)
	// 8.0 over 2 answers normalizes to 4.0.
	assert.Equal(t, riskscale.LevelCritical, agg.NormalizedLevel)
}

func TestAggregatePrinciples_NullVsZero(t *testing.T) {
	docs := []model.ScoreDocument{
		scoreDoc("s1", "u1",
			map[string]model.PrincipleEntry{"fairness": {Risk: 0}},
			model.QuestionScore{QuestionID: "q1", PrincipleLabel: "fairness", RiskContribution: 0}),
	}

	out, _ := AggregatePrinciples(docs, testMapping(t))

	// Evaluated at zero risk: populated aggregate.
	agg, ok := out[model.PrincipleFairness].Aggregate()
	require.True(t, ok)
	assert.Zero(t, agg.CumulativeRisk)
	assert.Equal(t, riskscale.LevelMinimal, agg.NormalizedLevel)

	// Never evaluated: absent, not zero.
	assert.False(t, out[model.PrincipleAccountability].Present())
	assert.NotEqual(t, out[model.PrincipleAccountability], out[model.PrincipleFairness])
}

func TestAggregatePrinciples_LegacyLabelsFold(t *testing.T) {
	docs := []model.ScoreDocument{
		scoreDoc("s1", "u1", map[string]model.PrincipleEntry{
			"safety":         {Risk: 1.5},
			"medical_safety": {Risk: 2.0},
		}),
		scoreDoc("s2", "u2", map[string]model.PrincipleEntry{
			"robustness": {Risk: 0.5},
		}),
	}

	out, _ := AggregatePrinciples(docs, testMapping(t))

	agg, ok := out[model.PrincipleTechnicalRobustness].Aggregate()
	require.True(t, ok)
	assert.InDelta(t, 4.0, agg.CumulativeRisk, 0.001)
	assert.Equal(t, 2, agg.EvaluatorCount, "person with two legacy labels counted once")
}

func TestAggregatePrinciples_UnmappedLabelNoted(t *testing.T) {
	docs := []model.ScoreDocument{
		scoreDoc("s1", "u1", map[string]model.PrincipleEntry{
			"astrology":    {Risk: 3.0},
			"transparency": {Risk: 1.0},
		}),
	}

	out, notes := AggregatePrinciples(docs, testMapping(t))

	agg, ok := out[model.PrincipleTransparency].Aggregate()
	require.True(t, ok)
	assert.InDelta(t, 1.0, agg.CumulativeRisk, 0.001)

	require.NotEmpty(t, notes)
	assert.Contains(t, notes[0], "astrology")
}

func TestAggregatePrinciples_InvalidRiskSkipped(t *testing.T) {
	docs := []model.ScoreDocument{
		scoreDoc("s1", "u1", map[string]model.PrincipleEntry{
			"transparency": {Risk: math.NaN()},
		}),
		scoreDoc("s2", "u2", map[string]model.PrincipleEntry{
			"transparency": {Risk: -1.0},
		}),
	}

	out, notes := AggregatePrinciples(docs, testMapping(t))
	assert.False(t, out[model.PrincipleTransparency].Present())
	assert.Len(t, notes, 2)
}

func TestAggregatePrinciples_ProjectRoleExcluded(t *testing.T) {
	d := scoreDoc("s1", "synthetic", map[string]model.PrincipleEntry{"transparency": {Risk: 4.0}})
	d.Role = model.RoleProject

	out, _ := AggregatePrinciples([]model.ScoreDocument{d}, testMapping(t))
	assert.False(t, out[model.PrincipleTransparency].Present())
}

func TestAggregatePrinciples_ImportanceIsMeanNotSum(t *testing.T) {
	docs := []model.ScoreDocument{
		scoreDoc("s1", "u1", map[string]model.PrincipleEntry{"privacy": {Risk: 2, AvgImportance: 0.8, HighImportanceRatio: 1.0}}),
		scoreDoc("s2", "u2", map[string]model.PrincipleEntry{"privacy": {Risk: 2, AvgImportance: 0.4, HighImportanceRatio: 0.5}}),
	}

	out, _ := AggregatePrinciples(docs, testMapping(t))

	agg, ok := out[model.PrinciplePrivacyData].Aggregate()
	require.True(t, ok)
	assert.InDelta(t, 4.0, agg.CumulativeRisk, 0.001, "risk sums")
	assert.InDelta(t, 0.6, agg.AverageImportance, 0.001, "importance averages")
	assert.InDelta(t, 0.75, agg.HighImportanceRatio, 0.001)
}
