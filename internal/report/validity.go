package report

import (
	"fmt"

	"github.com/z-inspection/report-cli/internal/config"
	"github.com/z-inspection/report-cli/internal/model"
)

// EvaluateValidity cross-checks the resolved evaluator sets against the
// available score documents and produces the report's publishability
// verdict. Invalidity is a first-class output with reasons and operator
// actions attached; nothing here is an error condition.
//
// Rules run in priority order; the first match wins:
//  1. submitted evaluators exist but no score documents at all
//  2. more submitted evaluators than evaluators with a score document
//  3. assigned evaluators who have not submitted (partial team
//     coverage blocks publishing; under-covered evaluations are a known
//     past failure mode, not a footnote)
//  4. any contributing score document from an obsolete scoring model
func EvaluateValidity(sets model.EvaluatorSets, docs []model.ScoreDocument, scoring config.ScoringConfig) model.ReportValidity {
	submitted := len(sets.Submitted)
	assigned := len(sets.Assigned)

	evaluatorDocs := 0
	var obsolete []string
	for _, d := range docs {
		if !d.IsEvaluatorLevel() {
			continue
		}
		evaluatorDocs++
		if scoring.IsObsoleteModelVersion(d.ModelVersion) {
			obsolete = append(obsolete, fmt.Sprintf("%s (model %s)", d.ID, d.ModelVersion))
		}
	}

	if submitted > 0 && evaluatorDocs == 0 {
		return model.ReportValidity{
			Status: model.ValidityMissingScores,
			Reasons: []string{fmt.Sprintf(
				"%d evaluator(s) submitted answers but no score documents exist", submitted)},
			RecommendedActions: []string{
				"run the scoring pipeline for this project",
				"verify the scoring pipeline is processing submissions",
			},
		}
	}

	if withScore := sets.SubmittedWithScore(); submitted > withScore {
		return model.ReportValidity{
			Status: model.ValidityPartialScores,
			Reasons: []string{fmt.Sprintf(
				"%d of %d submitted evaluator(s) have a score document", withScore, submitted)},
			RecommendedActions: []string{
				"recompute scores for the unscored evaluators",
			},
		}
	}

	if assigned > 0 && submitted < assigned {
		return model.ReportValidity{
			Status: model.ValidityIncompleteEvaluators,
			Reasons: []string{fmt.Sprintf(
				"only %d of %d assigned evaluator(s) have submitted", submitted, assigned)},
			RecommendedActions: []string{
				"wait for the remaining evaluators to submit",
				"or unassign evaluators who will not participate",
			},
		}
	}

	if len(obsolete) > 0 {
		return model.ReportValidity{
			Status: model.ValidityScoringPipeline,
			Reasons: []string{fmt.Sprintf(
				"score document(s) produced by an obsolete scoring model: %v", obsolete)},
			RecommendedActions: []string{
				fmt.Sprintf("rescore with the current model version %s", scoring.CurrentModelVersion),
			},
		}
	}

	return model.ReportValidity{Status: model.ValidityValid}
}
