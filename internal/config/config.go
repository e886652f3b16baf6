package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
	Report  ReportConfig  `yaml:"report" mapstructure:"report"`
	Scoring ScoringConfig `yaml:"scoring" mapstructure:"scoring"`
	Mapping MappingConfig `yaml:"mapping" mapstructure:"mapping"`
}

// StoreConfig configures the record store backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ServerConfig configures the report HTTP server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	RatePerSecond  float64  `yaml:"rate_per_second" mapstructure:"rate_per_second"`
	RateBurst      int      `yaml:"rate_burst" mapstructure:"rate_burst"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// ReportConfig configures report assembly.
type ReportConfig struct {
	TopDrivers           int     `yaml:"top_drivers" mapstructure:"top_drivers"`
	ExcerptMaxChars      int     `yaml:"excerpt_max_chars" mapstructure:"excerpt_max_chars"`
	ConsistencyTolerance float64 `yaml:"consistency_tolerance_pct" mapstructure:"consistency_tolerance_pct"`
}

// ScoringConfig describes which upstream scoring model versions this
// engine accepts. A document produced by an obsolete version may carry
// silently wrong numbers (a missing severity factor defaulting to
// zero), so it is a validity blocker rather than a footnote.
type ScoringConfig struct {
	CurrentModelVersion   string   `yaml:"current_model_version" mapstructure:"current_model_version"`
	ObsoleteModelVersions []string `yaml:"obsolete_model_versions" mapstructure:"obsolete_model_versions"`
}

// IsObsoleteModelVersion reports whether a score document model version
// is on the obsolete list.
func (c ScoringConfig) IsObsoleteModelVersion(version string) bool {
	for _, v := range c.ObsoleteModelVersions {
		if v == version {
			return true
		}
	}
	return false
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("REPORT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "inspection.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.rate_per_second", 10.0)
	v.SetDefault("server.rate_burst", 20)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("report.top_drivers", 15)
	v.SetDefault("report.excerpt_max_chars", 200)
	v.SetDefault("report.consistency_tolerance_pct", 1.0)
	v.SetDefault("scoring.current_model_version", "v3")
	v.SetDefault("scoring.obsolete_model_versions", []string{"v1", "v2"})
	v.SetDefault("mapping.file", "")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
