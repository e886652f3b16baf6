package report

import (
	"fmt"
	"math"

	"github.com/rotisserie/eris"

	"github.com/z-inspection/report-cli/internal/model"
	"github.com/z-inspection/report-cli/internal/riskscale"
)

// CheckConsistency re-derives numbers the assembled report states in
// more than one place and compares them. Disagreements within the
// rounding tolerance (percentage points) are ignored; larger ones come
// back as warnings. A structural divergence between the two evaluator
// counting paths, where the evaluator appendix is populated but the
// headline count is zero, returns a hard error because the report's
// numbers can no longer be trusted at all.
func CheckConsistency(rep *model.Report, tolerancePct float64) ([]model.ConsistencyIssue, error) {
	var issues []model.ConsistencyIssue

	// Headline evaluator count, derived independently from the
	// principle aggregates rather than the resolver output.
	headline := 0
	aggregateRisk := 0.0
	for _, p := range model.CanonicalPrinciples {
		agg, ok := rep.Principles[p].Aggregate()
		if !ok {
			continue
		}
		if agg.EvaluatorCount > headline {
			headline = agg.EvaluatorCount
		}
		aggregateRisk += agg.CumulativeRisk
	}
	appendix := rep.Evaluators.SubmittedWithScore()

	if appendix > 0 && headline == 0 {
		return issues, eris.Errorf(
			"consistency: evaluator appendix lists %d scored evaluator(s) but the headline count is zero; the counting paths have diverged", appendix)
	}
	if headline > appendix {
		issues = append(issues, model.ConsistencyIssue{
			Check:    "evaluator_counts",
			Severity: model.ConsistencyWarning,
			Detail: fmt.Sprintf(
				"headline evaluator count %d exceeds the %d scored evaluator(s) in the appendix", headline, appendix),
		})
	}

	// Evidence coverage stated for the summary vs recomputed from the
	// submitted list. Both sides round independently, hence the
	// tolerance.
	if n := len(rep.Evaluators.Submitted); n > 0 {
		stated := math.Round(float64(appendix) / float64(n) * 100)
		recomputed := 0.0
		for _, ev := range rep.Evaluators.Submitted {
			if ev.HasScore {
				recomputed++
			}
		}
		recomputed = math.Round(recomputed / float64(n) * 100)
		if diff := math.Abs(stated - recomputed); diff > tolerancePct {
			issues = append(issues, model.ConsistencyIssue{
				Check:    "evidence_coverage",
				Severity: model.ConsistencyWarning,
				Detail: fmt.Sprintf(
					"summary coverage %.0f%% disagrees with recomputed %.0f%% by %.1f points", stated, recomputed, diff),
			})
		}
	}

	// Headline cumulative risk vs the sum over principle aggregates.
	if diff := math.Abs(rep.Totals.CumulativeRisk - aggregateRisk); diff > 0.001 {
		issues = append(issues, model.ConsistencyIssue{
			Check:    "cumulative_risk",
			Severity: model.ConsistencyWarning,
			Detail: fmt.Sprintf(
				"headline cumulative risk %.2f disagrees with per-principle sum %.2f", rep.Totals.CumulativeRisk, aggregateRisk),
		})
	}

	// Average-vs-sum regression guard. The stated average risk per
	// answer must differ from the cumulative total whenever more than
	// one answer contributed; equality means a sum was silently
	// replaced by an average somewhere.
	if rep.Totals.TotalAnswers > 1 && rep.Totals.CumulativeRisk > 0 {
		if rep.Totals.AverageERC == rep.Totals.CumulativeRisk {
			return issues, eris.Errorf(
				"consistency: stated average risk %.2f equals cumulative risk with %d answers; summation has regressed to averaging", rep.Totals.AverageERC, rep.Totals.TotalAnswers)
		}
		recomputed := rep.Totals.CumulativeRisk / float64(rep.Totals.TotalAnswers)
		if math.Abs(recomputed-rep.Totals.AverageERC) > 0.001 {
			issues = append(issues, model.ConsistencyIssue{
				Check:    "average_erc",
				Severity: model.ConsistencyWarning,
				Detail: fmt.Sprintf(
					"stated average risk %.2f disagrees with recomputed %.2f", rep.Totals.AverageERC, recomputed),
			})
		}
		if riskscale.Classify(recomputed) == riskscale.Classify(rep.Totals.CumulativeRisk) {
			issues = append(issues, model.ConsistencyIssue{
				Check:    "average_vs_sum",
				Severity: model.ConsistencyWarning,
				Detail: fmt.Sprintf(
					"average %.2f and cumulative %.2f classify to the same level; rounding could mask an averaging bug", recomputed, rep.Totals.CumulativeRisk),
			})
		}
	}

	return issues, nil
}
