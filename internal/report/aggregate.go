package report

import (
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/z-inspection/report-cli/internal/config"
	"github.com/z-inspection/report-cli/internal/model"
	"github.com/z-inspection/report-cli/internal/riskscale"
)

// principleAccum collects one canonical principle's contributions
// before they are folded into the final aggregate.
type principleAccum struct {
	riskSum       float64
	min           float64
	max           float64
	importanceSum float64
	highRatioSum  float64
	entries       int
	evaluators    map[string]bool
	questions     map[string]bool
	answers       int
}

// AggregatePrinciples folds all evaluator-level score documents into
// one result per canonical principle. Cumulative risk is a plain sum
// over every contributing evaluator's own risk: two evaluators each
// reporting 4.0 on the same concern yield 8.0, two independent
// confirmations, not an averaged 4.0 indistinguishable from one.
//
// A principle no evaluator touched comes back absent. A principle whose
// contributions sum to exactly zero comes back populated; that is an
// evaluated, minimal-risk finding and the two must never be conflated.
func AggregatePrinciples(docs []model.ScoreDocument, mapping *config.LabelMapping) (map[model.Principle]model.PrincipleResult, []string) {
	accums := map[model.Principle]*principleAccum{}
	var notes []string
	unmapped := map[string]bool{}

	accumFor := func(p model.Principle) *principleAccum {
		acc, ok := accums[p]
		if !ok {
			acc = &principleAccum{
				min:        math.Inf(1),
				max:        math.Inf(-1),
				evaluators: map[string]bool{},
				questions:  map[string]bool{},
			}
			accums[p] = acc
		}
		return acc
	}

	for _, d := range docs {
		if !d.IsEvaluatorLevel() {
			continue
		}

		for label, entry := range d.ByPrinciple {
			p, ok := mapping.Canonical(label)
			if !ok {
				unmapped[label] = true
				continue
			}
			if math.IsNaN(entry.Risk) || math.IsInf(entry.Risk, 0) || entry.Risk < 0 {
				notes = append(notes, fmt.Sprintf(
					"score document %s carries an invalid risk value %v for %q; skipped", d.ID, entry.Risk, label))
				continue
			}
			acc := accumFor(p)
			acc.riskSum += entry.Risk
			acc.min = math.Min(acc.min, entry.Min)
			acc.max = math.Max(acc.max, entry.Max)
			acc.importanceSum += entry.AvgImportance
			acc.highRatioSum += entry.HighImportanceRatio
			acc.entries++
			acc.evaluators[d.UserID] = true
		}

		// Question counts come from the breakdown, deduplicated by
		// question ID across evaluators. Counting evaluator scores
		// instead would overcount shared questions.
		for _, qs := range d.QuestionBreakdown {
			p, ok := mapping.Canonical(qs.PrincipleLabel)
			if !ok {
				unmapped[qs.PrincipleLabel] = true
				continue
			}
			acc := accumFor(p)
			acc.questions[qs.QuestionID] = true
			acc.answers++
		}
	}

	if len(unmapped) > 0 {
		labels := make([]string, 0, len(unmapped))
		for l := range unmapped {
			labels = append(labels, l)
		}
		sort.Strings(labels)
		notes = append(notes, fmt.Sprintf("unmapped principle labels ignored: %v (extend the mapping table)", labels))
		zap.L().Warn("report: unmapped principle labels", zap.Strings("labels", labels))
	}

	out := make(map[model.Principle]model.PrincipleResult, len(model.CanonicalPrinciples))
	for _, p := range model.CanonicalPrinciples {
		acc, ok := accums[p]
		if !ok || acc.entries == 0 {
			out[p] = model.Absent()
			continue
		}

		agg := model.PrincipleAggregate{
			CumulativeRisk:      acc.riskSum,
			UniqueQuestionCount: len(acc.questions),
			TotalAnswers:        acc.answers,
			EvaluatorCount:      len(acc.evaluators),
			Min:                 acc.min,
			Max:                 acc.max,
			AverageImportance:   acc.importanceSum / float64(acc.entries),
			HighImportanceRatio: acc.highRatioSum / float64(acc.entries),
		}
		// Normalize before classifying; a principle with many answered
		// questions must not look critical from volume alone. Documents
		// without breakdowns fall back to the entry count.
		n := agg.TotalAnswers
		if n == 0 {
			n = acc.entries
		}
		agg.NormalizedLevel = riskscale.ClassifyCumulative(agg.CumulativeRisk, n)
		out[p] = model.Evaluated(agg)
	}
	return out, notes
}
