// Package config loads skill-loader settings from defaults, an optional
// YAML config file, SKILL_LOADER_* environment variables and flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/rcliao/skill-loader/internal/logging"
	"github.com/rcliao/skill-loader/internal/model"
)

const (
	// AppName is the application name.
	AppName = "skill-loader"
	// ConfigFileName is the config file name without extension.
	ConfigFileName = "skill-loader"
	// EnvPrefix prefixes every environment variable, e.g. SKILL_LOADER_ROOT.
	EnvPrefix = "SKILL_LOADER"
	// MatrixFileName is the matrix document looked for in the content root.
	MatrixFileName = "product-matrix.yaml"
)

// Output formats.
const (
	FormatJSON = "json"
	FormatText = "text"
)

// Config holds resolved settings.
type Config struct {
	Root        string `mapstructure:"root"`
	Matrix      string `mapstructure:"matrix"`
	Budget      int    `mapstructure:"budget"`
	Level       int    `mapstructure:"level"`
	Session     string `mapstructure:"session"`
	SessionID   string `mapstructure:"session_id"`
	LogLevel    string `mapstructure:"log_level"`
	Format      string `mapstructure:"format"`
	Concurrency int    `mapstructure:"concurrency"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Root:        "skills",
		Level:       int(model.Level2),
		Session:     ":memory:",
		LogLevel:    "warn",
		Format:      FormatJSON,
		Concurrency: 4,
	}
}

// New returns a viper instance with defaults, config search paths and
// environment binding set up. Flags are bound onto it by the caller.
func New() *viper.Viper {
	v := viper.New()
	d := DefaultConfig()
	v.SetDefault("root", d.Root)
	v.SetDefault("matrix", d.Matrix)
	v.SetDefault("budget", d.Budget)
	v.SetDefault("level", d.Level)
	v.SetDefault("session", d.Session)
	v.SetDefault("session_id", d.SessionID)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("format", d.Format)
	v.SetDefault("concurrency", d.Concurrency)

	v.SetConfigName(ConfigFileName)
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if dir, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(dir, AppName))
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the config file (file, if set, must exist; otherwise the
// search paths are tried and a missing file is fine), then decodes and
// validates the merged settings.
func Load(v *viper.Viper, file string) (*Config, error) {
	if file != "" {
		v.SetConfigFile(file)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Matrix == "" {
		cfg.Matrix = filepath.Join(cfg.Root, MatrixFileName)
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConfig().Concurrency
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if _, err := model.ParseLevel(c.Level); err != nil {
		return fmt.Errorf("config level: %w", err)
	}
	if c.Budget < 0 {
		return fmt.Errorf("config budget: must be >= 0, got %d", c.Budget)
	}
	if c.Root == "" {
		return errors.New("config root: must not be empty")
	}
	switch c.Format {
	case FormatJSON, FormatText:
	default:
		return fmt.Errorf("config format: %q (valid: json, text)", c.Format)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("config log_level: %w", err)
	}
	return nil
}

// DisclosureLevel returns Level as a model.Level. Validate has already
// checked the range.
func (c *Config) DisclosureLevel() model.Level {
	return model.Level(c.Level)
}
