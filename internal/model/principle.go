package model

import "strings"

// Principle is one of the seven canonical ethical-risk categories every
// report is broken down by. All legacy and role-specific questionnaire
// labels are folded onto these via the configured mapping table.
type Principle string

const (
	PrincipleHumanAgency         Principle = "human_agency"
	PrincipleTechnicalRobustness Principle = "technical_robustness"
	PrinciplePrivacyData         Principle = "privacy_data"
	PrincipleTransparency        Principle = "transparency"
	PrincipleFairness            Principle = "fairness"
	PrincipleSocietalWellbeing   Principle = "societal_wellbeing"
	PrincipleAccountability      Principle = "accountability"
)

// CanonicalPrinciples lists the seven principles in report order.
var CanonicalPrinciples = []Principle{
	PrincipleHumanAgency,
	PrincipleTechnicalRobustness,
	PrinciplePrivacyData,
	PrincipleTransparency,
	PrincipleFairness,
	PrincipleSocietalWellbeing,
	PrincipleAccountability,
}

var principleNames = map[Principle]string{
	PrincipleHumanAgency:         "Human Agency & Oversight",
	PrincipleTechnicalRobustness: "Technical Robustness & Safety",
	PrinciplePrivacyData:         "Privacy & Data Governance",
	PrincipleTransparency:        "Transparency",
	PrincipleFairness:            "Diversity, Non-discrimination & Fairness",
	PrincipleSocietalWellbeing:   "Societal & Environmental Well-being",
	PrincipleAccountability:      "Accountability",
}

// DisplayName returns the human-readable name for report rendering.
func (p Principle) DisplayName() string {
	if n, ok := principleNames[p]; ok {
		return n
	}
	return string(p)
}

// IsCanonical reports whether p is one of the seven fixed principles.
func (p Principle) IsCanonical() bool {
	_, ok := principleNames[p]
	return ok
}

// NormalizeLabel prepares a raw questionnaire principle label for lookup
// in the mapping table: lowercased, trimmed, separators unified.
func NormalizeLabel(label string) string {
	s := strings.ToLower(strings.TrimSpace(label))
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
