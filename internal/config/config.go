// Package config loads tally's configuration from config.yaml, environment
// variables, and flag overrides, in that order of increasing precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	// ConfigDirName is the directory under the user config root.
	ConfigDirName = "tally"
	// ConfigFileName is the yaml file tally reads at startup.
	ConfigFileName = "config.yaml"
	// EnvPrefix namespaces environment overrides (TALLY_DB, TALLY_JSON, ...).
	EnvPrefix = "TALLY"
)

// Config is the resolved startup configuration.
type Config struct {
	// Database is the sqlite path. ":memory:" selects the in-memory store.
	Database string `yaml:"db" mapstructure:"db"`
	// Actor is recorded as the author on comments.
	Actor string `yaml:"actor,omitempty" mapstructure:"actor"`
	// JSON switches command output to machine-readable JSON.
	JSON bool `yaml:"json,omitempty" mapstructure:"json"`
	// NoColor disables ANSI color in human output.
	NoColor bool `yaml:"no-color,omitempty" mapstructure:"no-color"`
	// PreviewLimit is how many representative children summaries show.
	PreviewLimit int `yaml:"preview-limit,omitempty" mapstructure:"preview-limit"`
	// QueryTimeout bounds the reads behind progress re-aggregation.
	QueryTimeout time.Duration `yaml:"query-timeout,omitempty" mapstructure:"query-timeout"`
}

// Default returns the configuration used when no file or overrides exist.
func Default() *Config {
	return &Config{
		Database:     defaultDatabasePath(),
		PreviewLimit: 3,
		QueryTimeout: 10 * time.Second,
	}
}

// Dir returns the tally config directory, creating nothing.
func Dir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolving config dir: %w", err)
	}
	return filepath.Join(base, ConfigDirName), nil
}

// Path returns the config.yaml path.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFileName), nil
}

func defaultDatabasePath() string {
	dir, err := Dir()
	if err != nil {
		return "tally.db"
	}
	return filepath.Join(dir, "tally.db")
}

// Load reads configuration from the given file (or the default location when
// file is empty), layering TALLY_* environment variables on top. A missing
// file is not an error; defaults apply.
func Load(file string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cfg := Default()
	v.SetDefault("db", cfg.Database)
	v.SetDefault("preview-limit", cfg.PreviewLimit)
	v.SetDefault("query-timeout", cfg.QueryTimeout)

	if file == "" {
		file, _ = Path()
	}
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
				return nil, fmt.Errorf("reading %s: %w", file, err)
			}
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the engine cannot run with.
func (c *Config) Validate() error {
	if c.Database == "" {
		return fmt.Errorf("db must not be empty")
	}
	if c.PreviewLimit < 0 {
		return fmt.Errorf("preview-limit must be >= 0 (got %d)", c.PreviewLimit)
	}
	if c.QueryTimeout <= 0 {
		return fmt.Errorf("query-timeout must be positive (got %s)", c.QueryTimeout)
	}
	return nil
}

// Save writes the configuration to the default location, creating the
// directory if needed.
func (c *Config) Save() error {
	dir, err := Dir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	path := filepath.Join(dir, ConfigFileName)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
