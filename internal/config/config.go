// Package config loads ServiceConfig, the corestar core's structured
// configuration (spec §6.3/SPEC_FULL.md "Structured config precedence"),
// layering environment variables over an optional TOML/YAML file over
// hardcoded defaults. Grounded on the teacher's internal/config viper
// singleton (Initialize/GetBool/GetString/GetDuration, precedence tests in
// config_test.go), adapted from a package-level singleton to an explicit
// struct so multiple ServiceConfigs can coexist in tests.
package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Backend selects the SQL dialect the Repository opens against.
type Backend string

const (
	BackendSQLite Backend = "sqlite"
	BackendMySQL  Backend = "mysql"
)

// envPrefix namespaces every environment variable this package reads, e.g.
// CORESTAR_DATABASE_PATH, mirroring the teacher's BD_/BEADS_ dual-prefix
// convention but collapsed to one prefix since this is a single binary's
// config, not a CLI-plus-daemon pair.
const envPrefix = "CORESTAR"

// ServiceConfig is the full set of knobs the core reads at startup (spec
// §6.3). Every field has a documented default; construct one with
// DefaultServiceConfig and override via Load.
type ServiceConfig struct {
	Backend      Backend       `mapstructure:"backend"`
	DatabasePath string        `mapstructure:"database-path"`
	DSN          string        `mapstructure:"dsn"`
	ChunkSize    int           `mapstructure:"chunk-size"`

	FuzzyTolerance int  `mapstructure:"fuzzy-tolerance"`
	SearchAliases  bool `mapstructure:"search-aliases"`
	MaxResults     int  `mapstructure:"max-results"`

	LogLevel string `mapstructure:"log-level"`
	LogJSON  bool   `mapstructure:"log-json"`

	OTelEndpoint string        `mapstructure:"otel-endpoint"`
	RetryMaxWait time.Duration `mapstructure:"retry-max-wait"`
}

// DefaultServiceConfig returns the hardcoded defaults, the lowest tier of
// the precedence stack (file overrides these, env overrides the file).
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		Backend:      BackendSQLite,
		DatabasePath: "corestar.db",
		ChunkSize:    100,

		FuzzyTolerance: 2,
		SearchAliases:  true,
		MaxResults:     100,

		LogLevel: "info",
		LogJSON:  false,

		RetryMaxWait: 30 * time.Second,
	}
}

// Option configures Load.
type Option func(*viper.Viper)

// WithConfigFile points Load at an explicit file path instead of searching
// the working directory for corestar.toml / corestar.yaml.
func WithConfigFile(path string) Option {
	return func(v *viper.Viper) {
		v.SetConfigFile(path)
	}
}

// Load assembles a ServiceConfig from, in increasing precedence:
// DefaultServiceConfig(), a discovered config file (corestar.toml or
// corestar.yaml in the working directory, or one named by WithConfigFile),
// then CORESTAR_*-prefixed environment variables (spec: "layers
// environment variables over a TOML/YAML file over hardcoded defaults").
// A missing config file is not an error; a malformed one is.
func Load(opts ...Option) (ServiceConfig, error) {
	defaults := DefaultServiceConfig()

	v := viper.New()
	v.SetConfigName("corestar")
	v.AddConfigPath(".")
	setDefaults(v, defaults)

	for _, opt := range opts {
		opt(v)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return ServiceConfig{}, fmt.Errorf("config: read config file: %w", err)
		}
	}

	var cfg ServiceConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return ServiceConfig{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, d ServiceConfig) {
	v.SetDefault("backend", string(d.Backend))
	v.SetDefault("database-path", d.DatabasePath)
	v.SetDefault("dsn", d.DSN)
	v.SetDefault("chunk-size", d.ChunkSize)
	v.SetDefault("fuzzy-tolerance", d.FuzzyTolerance)
	v.SetDefault("search-aliases", d.SearchAliases)
	v.SetDefault("max-results", d.MaxResults)
	v.SetDefault("log-level", d.LogLevel)
	v.SetDefault("log-json", d.LogJSON)
	v.SetDefault("otel-endpoint", d.OTelEndpoint)
	v.SetDefault("retry-max-wait", d.RetryMaxWait)
}

// Validate checks invariants Load cannot express through viper defaults
// alone (spec §7: fail fast on bad configuration rather than at first
// query).
func (c ServiceConfig) Validate() error {
	switch c.Backend {
	case BackendSQLite:
		if c.DatabasePath == "" {
			return fmt.Errorf("config: database-path is required for backend %q", c.Backend)
		}
	case BackendMySQL:
		if c.DSN == "" {
			return fmt.Errorf("config: dsn is required for backend %q", c.Backend)
		}
	default:
		return fmt.Errorf("config: unknown backend %q", c.Backend)
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("config: chunk-size must be positive, got %d", c.ChunkSize)
	}
	if c.FuzzyTolerance < 0 {
		return fmt.Errorf("config: fuzzy-tolerance must be >= 0, got %d", c.FuzzyTolerance)
	}
	return nil
}

// WriteTOML serializes cfg as a TOML file, the default on-disk format
// (spec SPEC_FULL.md: "TOML/YAML file"); mirrors the teacher's
// SetYamlConfig but for the structured ServiceConfig rather than
// free-form key/value edits.
func WriteTOML(path string, cfg ServiceConfig) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(fileSettings(cfg)); err != nil {
		return fmt.Errorf("config: marshal toml: %w", err)
	}
	return os.WriteFile(path, buf.Bytes(), 0o600)
}

// WriteYAML serializes cfg as a YAML file, the alternate on-disk format.
func WriteYAML(path string, cfg ServiceConfig) error {
	data, err := yaml.Marshal(fileSettings(cfg))
	if err != nil {
		return fmt.Errorf("config: marshal yaml: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}

// fileSettings keys cfg by the same names Load reads ("database-path",
// "chunk-size", ...), so a file written by WriteTOML/WriteYAML loads back.
func fileSettings(cfg ServiceConfig) map[string]interface{} {
	v := viper.New()
	setDefaults(v, cfg)
	return v.AllSettings()
}
