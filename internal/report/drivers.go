package report

import (
	"sort"
	"strings"

	"github.com/z-inspection/report-cli/internal/config"
	"github.com/z-inspection/report-cli/internal/model"
)

const (
	minTopDrivers     = 10
	maxTopDrivers     = 20
	defaultTopDrivers = 15
)

// ExtractTopDrivers ranks individual questions by their total risk
// contribution summed across all evaluators and returns the top N.
//
// The primary path reads the question breakdowns the scoring pipeline
// already materialized in the score documents. When no document carries
// breakdown data at all, the extractor recomputes contributions from
// the raw answers and question importance metadata with the same
// sum-based logic. Questions answered with empty content are retained
// and labeled submitted-empty so data-entry problems surface instead of
// disappearing.
func ExtractTopDrivers(
	docs []model.ScoreDocument,
	attempts []model.AnswerAttempt,
	questions []model.Question,
	mapping *config.LabelMapping,
	limit int,
	excerptMax int,
) []model.TopRiskDriver {
	if limit <= 0 {
		limit = defaultTopDrivers
	}
	if limit < minTopDrivers {
		limit = minTopDrivers
	}
	if limit > maxTopDrivers {
		limit = maxTopDrivers
	}
	if excerptMax <= 0 {
		excerptMax = 200
	}

	drivers := driversFromBreakdowns(docs, attempts, mapping, excerptMax)
	if drivers == nil {
		drivers = driversFromAnswers(attempts, questions, mapping, excerptMax)
	}

	// Descending by contribution; ties keep encounter order.
	sort.SliceStable(drivers, func(i, j int) bool {
		return drivers[i].TotalContribution > drivers[j].TotalContribution
	})
	if len(drivers) > limit {
		drivers = drivers[:limit]
	}
	return drivers
}

func driversFromBreakdowns(docs []model.ScoreDocument, attempts []model.AnswerAttempt, mapping *config.LabelMapping, excerptMax int) []model.TopRiskDriver {
	var (
		order   []string
		byID    = map[string]*model.TopRiskDriver{}
		scored  bool
		answers = answerTextIndex(attempts)
	)

	for _, d := range docs {
		if !d.IsEvaluatorLevel() || len(d.QuestionBreakdown) == 0 {
			continue
		}
		scored = true
		for _, qs := range d.QuestionBreakdown {
			drv, ok := byID[qs.QuestionID]
			if !ok {
				p, _ := mapping.Canonical(qs.PrincipleLabel)
				drv = &model.TopRiskDriver{QuestionID: qs.QuestionID, Principle: p}
				byID[qs.QuestionID] = drv
				order = append(order, qs.QuestionID)
			}
			drv.TotalContribution += qs.RiskContribution
			if d.Role != "" && !containsString(drv.Roles, d.Role) {
				drv.Roles = append(drv.Roles, d.Role)
			}
			if drv.AnswerExcerpt == "" {
				drv.AnswerExcerpt = truncate(qs.AnswerText, excerptMax)
			}
		}
	}
	if !scored {
		return nil
	}

	out := make([]model.TopRiskDriver, 0, len(order))
	for _, id := range order {
		drv := byID[id]
		if drv.AnswerExcerpt == "" {
			drv.AnswerExcerpt = truncate(answers[id], excerptMax)
		}
		drv.SubmittedEmpty = drv.AnswerExcerpt == ""
		out = append(out, *drv)
	}
	return out
}

// driversFromAnswers is the fallback path: contribution is the answer's
// numeric value weighted by the question's importance, summed across
// evaluators exactly like the primary path.
func driversFromAnswers(attempts []model.AnswerAttempt, questions []model.Question, mapping *config.LabelMapping, excerptMax int) []model.TopRiskDriver {
	meta := map[string]model.Question{}
	for _, q := range questions {
		meta[q.ID] = q
	}

	var order []string
	byID := map[string]*model.TopRiskDriver{}

	for _, at := range attempts {
		if at.Role == model.RoleProject {
			continue
		}
		for _, a := range at.Answers {
			q, ok := meta[a.QuestionID]
			if !ok {
				continue
			}
			drv, seen := byID[a.QuestionID]
			if !seen {
				p, _ := mapping.Canonical(q.PrincipleLabel)
				drv = &model.TopRiskDriver{QuestionID: a.QuestionID, Principle: p, SubmittedEmpty: true}
				byID[a.QuestionID] = drv
				order = append(order, a.QuestionID)
			}
			if a.Value != nil {
				drv.TotalContribution += *a.Value * q.Importance
			}
			if at.Role != "" && !containsString(drv.Roles, at.Role) {
				drv.Roles = append(drv.Roles, at.Role)
			}
			if a.HasContent() {
				drv.SubmittedEmpty = false
			}
			if drv.AnswerExcerpt == "" {
				drv.AnswerExcerpt = truncate(answerSnippet(a), excerptMax)
			}
		}
	}

	out := make([]model.TopRiskDriver, 0, len(order))
	for _, id := range order {
		out = append(out, *byID[id])
	}
	return out
}

// answerTextIndex maps question IDs to the first non-empty answer
// snippet found in any attempt.
func answerTextIndex(attempts []model.AnswerAttempt) map[string]string {
	idx := map[string]string{}
	for _, at := range attempts {
		for _, a := range at.Answers {
			if idx[a.QuestionID] != "" {
				continue
			}
			if s := answerSnippet(a); s != "" {
				idx[a.QuestionID] = s
			}
		}
	}
	return idx
}

// answerSnippet returns the first textual representation of an answer:
// free text, then a single choice, then joined multi-choices.
func answerSnippet(a model.Answer) string {
	if s := strings.TrimSpace(a.Text); s != "" {
		return s
	}
	if s := strings.TrimSpace(a.Choice); s != "" {
		return s
	}
	var parts []string
	for _, c := range a.Choices {
		if s := strings.TrimSpace(c); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ", ")
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
