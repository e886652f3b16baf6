package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/z-inspection/report-cli/internal/model"
)

func TestLoadDefaults(t *testing.T) {
	// Run from a temp dir so no stray config.yaml is picked up.
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 15, cfg.Report.TopDrivers)
	assert.Equal(t, 200, cfg.Report.ExcerptMaxChars)
	assert.InDelta(t, 1.0, cfg.Report.ConsistencyTolerance, 0.001)
	assert.Equal(t, "v3", cfg.Scoring.CurrentModelVersion)
	assert.Contains(t, cfg.Scoring.ObsoleteModelVersions, "v1")
}

func TestScoringConfigObsoleteVersions(t *testing.T) {
	sc := ScoringConfig{
		CurrentModelVersion:   "v3",
		ObsoleteModelVersions: []string{"v1", "v2"},
	}
	assert.True(t, sc.IsObsoleteModelVersion("v1"))
	assert.True(t, sc.IsObsoleteModelVersion("v2"))
	assert.False(t, sc.IsObsoleteModelVersion("v3"))
	assert.False(t, sc.IsObsoleteModelVersion(""))
}

func TestDefaultLabelMapping(t *testing.T) {
	m := DefaultLabelMapping()

	tests := []struct {
		label string
		want  model.Principle
	}{
		{"transparency", model.PrincipleTransparency},
		{"Explainability", model.PrincipleTransparency},
		{"medical_safety", model.PrincipleTechnicalRobustness},
		{"non-discrimination", model.PrincipleFairness},
		{"Privacy", model.PrinciplePrivacyData},
		{"auditability", model.PrincipleAccountability},
		{"autonomy", model.PrincipleHumanAgency},
		{"sustainability", model.PrincipleSocietalWellbeing},
	}
	for _, tt := range tests {
		got, ok := m.Canonical(tt.label)
		require.True(t, ok, "label %q not mapped", tt.label)
		assert.Equal(t, tt.want, got)
	}

	// Every canonical id maps to itself.
	for _, p := range model.CanonicalPrinciples {
		got, ok := m.Canonical(string(p))
		require.True(t, ok)
		assert.Equal(t, p, got)
	}

	_, ok := m.Canonical("astrology")
	assert.False(t, ok)
}

func TestLoadLabelMappingFile(t *testing.T) {
	t.Run("extends and overrides defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "mapping.yaml")
		content := "version: \"2024-03\"\nlabels:\n  clinical_transparency: transparency\n  bias: accountability\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		m, err := LoadLabelMapping(MappingConfig{File: path})
		require.NoError(t, err)
		assert.Equal(t, "2024-03", m.Version)

		got, ok := m.Canonical("clinical_transparency")
		require.True(t, ok)
		assert.Equal(t, model.PrincipleTransparency, got)

		// File wins over built-in.
		got, ok = m.Canonical("bias")
		require.True(t, ok)
		assert.Equal(t, model.PrincipleAccountability, got)
	})

	t.Run("unknown canonical target rejected", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "mapping.yaml")
		require.NoError(t, os.WriteFile(path, []byte("labels:\n  foo: not_a_principle\n"), 0o644))

		_, err := LoadLabelMapping(MappingConfig{File: path})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown principle")
	})

	t.Run("missing file errors", func(t *testing.T) {
		_, err := LoadLabelMapping(MappingConfig{File: "/nonexistent/mapping.yaml"})
		require.Error(t, err)
	})

	t.Run("empty file setting returns builtin", func(t *testing.T) {
		m, err := LoadLabelMapping(MappingConfig{})
		require.NoError(t, err)
		assert.Equal(t, "builtin", m.Version)
	})
}
