package report

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/z-inspection/report-cli/internal/model"
)

// ResolveEvaluators reconciles assignment records, answer attempts and
// score documents into the assigned, started and submitted sets, each
// deduplicated by person.
//
// Submission is decided from answer content alone: an attempt counts as
// submitted when at least one answer carries real content, regardless
// of its draft/submitted status flag, which is known to lag the actual
// completion action. This precedence chain lives here and nowhere else.
func ResolveEvaluators(
	project *model.Project,
	assignments []model.EvaluatorAssignment,
	attempts []model.AnswerAttempt,
	docs []model.ScoreDocument,
) model.EvaluatorSets {
	var sets model.EvaluatorSets

	// Questionnaires with a score document, per person. Synthetic
	// project-level documents are not people and stay out.
	scoredQuestionnaires := map[string]map[string]bool{}
	for _, d := range docs {
		if !d.IsEvaluatorLevel() {
			continue
		}
		if scoredQuestionnaires[d.UserID] == nil {
			scoredQuestionnaires[d.UserID] = map[string]bool{}
		}
		scoredQuestionnaires[d.UserID][d.QuestionnaireKey] = true
	}
	hasAnyScore := func(userID string) bool {
		return len(scoredQuestionnaires[userID]) > 0
	}

	// Assigned: assignment records are authoritative. Historically the
	// data also lived on the use case and on the project itself, so
	// fall back through those when no records exist.
	seenAssigned := map[string]bool{}
	for _, a := range assignments {
		if seenAssigned[a.UserID] {
			continue
		}
		seenAssigned[a.UserID] = true
		sets.Assigned = append(sets.Assigned, model.Evaluator{
			UserID:   a.UserID,
			Name:     a.Name,
			Role:     a.Role,
			HasScore: hasAnyScore(a.UserID),
		})
	}
	if len(sets.Assigned) == 0 && project != nil {
		switch {
		case len(project.UseCaseExpertIDs) > 0:
			for _, id := range dedupStrings(project.UseCaseExpertIDs) {
				sets.Assigned = append(sets.Assigned, model.Evaluator{UserID: id, HasScore: hasAnyScore(id)})
			}
			sets.Notes = append(sets.Notes, "no assignment records found; assigned set taken from the use-case expert list")
		case len(project.AssignedUserIDs) > 0:
			for _, id := range dedupStrings(project.AssignedUserIDs) {
				sets.Assigned = append(sets.Assigned, model.Evaluator{UserID: id, HasScore: hasAnyScore(id)})
			}
			sets.Notes = append(sets.Notes, "no assignment records found; assigned set taken from the project's assigned users")
		}
	}

	// Started: any attempt at all, with or without content.
	seenStarted := map[string]bool{}
	for _, at := range attempts {
		if at.Role == model.RoleProject || seenStarted[at.UserID] {
			continue
		}
		seenStarted[at.UserID] = true
		sets.Started = append(sets.Started, model.Evaluator{
			UserID:   at.UserID,
			Name:     at.Name,
			Role:     at.Role,
			HasScore: hasAnyScore(at.UserID),
		})
	}

	// Submitted: one entry per person no matter how many questionnaires
	// they completed. When the same person appears under several
	// attempt variants, the variant backed by a score document wins.
	submittedIdx := map[string]int{}
	scoredVariant := map[string]bool{}
	for _, at := range attempts {
		if at.Role == model.RoleProject || !at.HasSubmittedContent() {
			continue
		}
		variantScored := scoredQuestionnaires[at.UserID][at.QuestionnaireKey]
		idx, ok := submittedIdx[at.UserID]
		if !ok {
			sets.Submitted = append(sets.Submitted, model.Evaluator{
				UserID:         at.UserID,
				Name:           at.Name,
				Role:           at.Role,
				Questionnaires: []string{at.QuestionnaireKey},
				HasScore:       hasAnyScore(at.UserID),
			})
			submittedIdx[at.UserID] = len(sets.Submitted) - 1
			scoredVariant[at.UserID] = variantScored
			continue
		}
		ev := &sets.Submitted[idx]
		if !containsString(ev.Questionnaires, at.QuestionnaireKey) {
			ev.Questionnaires = append(ev.Questionnaires, at.QuestionnaireKey)
		}
		if variantScored && !scoredVariant[at.UserID] {
			ev.Name = at.Name
			ev.Role = at.Role
			scoredVariant[at.UserID] = true
		}
	}

	// Submitted evaluators without any score document stay in the set
	// and become a data-quality note instead of silently vanishing.
	for _, ev := range sets.Submitted {
		if !ev.HasScore {
			sets.Notes = append(sets.Notes, fmt.Sprintf(
				"submitted evaluator %s has no score document; risk figures exclude their answers", evaluatorLabel(ev)))
		}
	}

	zap.L().Debug("report: evaluators resolved",
		zap.Int("assigned", len(sets.Assigned)),
		zap.Int("started", len(sets.Started)),
		zap.Int("submitted", len(sets.Submitted)),
		zap.Int("notes", len(sets.Notes)),
	)
	return sets
}

func evaluatorLabel(ev model.Evaluator) string {
	if ev.Name != "" {
		return ev.Name
	}
	return ev.UserID
}

func dedupStrings(in []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, s := range in {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

func containsString(in []string, s string) bool {
	for _, v := range in {
		if v == s {
			return true
		}
	}
	return false
}
