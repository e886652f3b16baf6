package config

import (
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/z-inspection/report-cli/internal/model"
)

// MappingConfig points at the principle label mapping table. The table
// is versioned configuration, reviewed whenever a new questionnaire
// variant ships; it is never inferred at runtime.
type MappingConfig struct {
	File string `yaml:"file" mapstructure:"file"`
}

// mappingFile is the on-disk shape of a mapping table.
type mappingFile struct {
	Version string            `yaml:"version"`
	Labels  map[string]string `yaml:"labels"`
}

// LabelMapping resolves raw questionnaire principle labels to canonical
// principles. Labels are normalized before lookup; canonical ids always
// map to themselves.
type LabelMapping struct {
	Version string
	labels  map[string]model.Principle
}

// defaultLabels is the built-in mapping table covering every
// questionnaire variant seen so far. Legacy variants used different
// names for overlapping concepts; role-specific questionnaires add
// their own labels on top.
var defaultLabels = map[string]model.Principle{
	// human agency & oversight
	"human_agency":               model.PrincipleHumanAgency,
	"human_agency_and_oversight": model.PrincipleHumanAgency,
	"human_oversight":            model.PrincipleHumanAgency,
	"autonomy":                   model.PrincipleHumanAgency,
	"oversight":                  model.PrincipleHumanAgency,

	// technical robustness & safety
	"technical_robustness":            model.PrincipleTechnicalRobustness,
	"technical_robustness_and_safety": model.PrincipleTechnicalRobustness,
	"robustness":                      model.PrincipleTechnicalRobustness,
	"safety":                          model.PrincipleTechnicalRobustness,
	"security":                        model.PrincipleTechnicalRobustness,
	"medical_safety":                  model.PrincipleTechnicalRobustness,

	// privacy & data governance
	"privacy_data":        model.PrinciplePrivacyData,
	"privacy":             model.PrinciplePrivacyData,
	"data_governance":     model.PrinciplePrivacyData,
	"data_protection":     model.PrinciplePrivacyData,
	"patient_privacy":     model.PrinciplePrivacyData,
	"privacy_&_data_governance": model.PrinciplePrivacyData,

	// transparency
	"transparency":     model.PrincipleTransparency,
	"explainability":   model.PrincipleTransparency,
	"explicability":    model.PrincipleTransparency,
	"interpretability": model.PrincipleTransparency,

	// diversity, non-discrimination & fairness
	"fairness":           model.PrincipleFairness,
	"bias":               model.PrincipleFairness,
	"diversity":          model.PrincipleFairness,
	"non_discrimination": model.PrincipleFairness,

	// societal & environmental well-being
	"societal_wellbeing":   model.PrincipleSocietalWellbeing,
	"social_wellbeing":     model.PrincipleSocietalWellbeing,
	"societal_impact":      model.PrincipleSocietalWellbeing,
	"environmental_impact": model.PrincipleSocietalWellbeing,
	"sustainability":       model.PrincipleSocietalWellbeing,

	// accountability
	"accountability": model.PrincipleAccountability,
	"auditability":   model.PrincipleAccountability,
	"responsibility": model.PrincipleAccountability,
	"redress":        model.PrincipleAccountability,
}

// DefaultLabelMapping returns the built-in table.
func DefaultLabelMapping() *LabelMapping {
	labels := make(map[string]model.Principle, len(defaultLabels))
	for k, v := range defaultLabels {
		labels[k] = v
	}
	return &LabelMapping{Version: "builtin", labels: labels}
}

// LoadLabelMapping returns the built-in table, extended and overridden
// by the configured mapping file when one is set. Unknown canonical
// targets in the file are rejected.
func LoadLabelMapping(cfg MappingConfig) (*LabelMapping, error) {
	m := DefaultLabelMapping()
	if cfg.File == "" {
		return m, nil
	}

	data, err := os.ReadFile(cfg.File)
	if err != nil {
		return nil, eris.Wrapf(err, "config: read mapping file %s", cfg.File)
	}

	var mf mappingFile
	if err := yaml.Unmarshal(data, &mf); err != nil {
		return nil, eris.Wrapf(err, "config: parse mapping file %s", cfg.File)
	}

	for label, target := range mf.Labels {
		p := model.Principle(model.NormalizeLabel(target))
		if !p.IsCanonical() {
			return nil, eris.Errorf("config: mapping file %s maps %q to unknown principle %q", cfg.File, label, target)
		}
		m.labels[model.NormalizeLabel(label)] = p
	}
	if mf.Version != "" {
		m.Version = mf.Version
	}

	zap.L().Info("config: label mapping loaded",
		zap.String("version", m.Version),
		zap.Int("labels", len(m.labels)),
	)
	return m, nil
}

// Canonical resolves a raw label. ok is false for labels the table does
// not know; callers surface those as data-quality notes rather than
// guessing a bucket.
func (m *LabelMapping) Canonical(label string) (model.Principle, bool) {
	p, ok := m.labels[model.NormalizeLabel(label)]
	return p, ok
}
