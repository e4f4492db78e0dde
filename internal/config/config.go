// Package config manages lint-gate settings using Viper.
//
// Every setting has a default equal to the gate's fixed behaviour, so a
// run with no config file and no environment overrides lints backend_api
// with flake8 from the backend_api/venv virtualenv.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/viper"
)

// Default values for every setting.
const (
	DefaultProjectRoot = "backend_api"
	DefaultEnvDir      = "venv"
	DefaultEnvFile     = ".env"
	DefaultChecker     = "flake8"
	DefaultLogLevel    = "warn"
	DefaultLogFormat   = LogFormatAuto
)

// Log output formats.
const (
	LogFormatAuto   = "auto"
	LogFormatText   = "text"
	LogFormatLogfmt = "logfmt"
	LogFormatJSON   = "json"
)

const (
	configName = "lint-gate"
	envPrefix  = "LINT_GATE"
)

// Config represents the gate configuration.
type Config struct {
	// ProjectRoot is the directory the checker runs in.
	ProjectRoot string `mapstructure:"project_root"`

	// EnvDir is the virtualenv directory, relative to ProjectRoot unless absolute.
	EnvDir string `mapstructure:"env_dir"`

	// EnvFile is an optional dotenv file, relative to ProjectRoot unless
	// absolute. Empty disables it.
	EnvFile string `mapstructure:"env_file"`

	// Checker is the executable name resolved on the activated PATH.
	Checker string `mapstructure:"checker"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// Load loads configuration from files and environment variables.
// It searches for lint-gate.{yaml,yml,toml,json} in the following order:
// 1. ./
// 2. $XDG_CONFIG_HOME/lint-gate/ (or ~/.config/lint-gate/)
//
// Environment variables override file settings using the prefix LINT_GATE_
// For example: LINT_GATE_PROJECT_ROOT, LINT_GATE_CHECKER
func Load() (*Config, error) {
	return load(".", getXDGConfigPath())
}

func load(searchPaths ...string) (*Config, error) {
	v := newViper(searchPaths...)

	// A missing file is fine, defaults and env vars still apply.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	return LoadWithViper(v)
}

// LoadWithViper loads configuration using a provided Viper instance.
// This is useful for testing or when you want to configure Viper differently.
func LoadWithViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func newViper(searchPaths ...string) *viper.Viper {
	v := viper.New()

	v.SetConfigName(configName)
	for _, p := range searchPaths {
		v.AddConfigPath(p)
	}

	v.SetDefault("project_root", DefaultProjectRoot)
	v.SetDefault("env_dir", DefaultEnvDir)
	v.SetDefault("env_file", DefaultEnvFile)
	v.SetDefault("checker", DefaultChecker)
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("log_format", DefaultLogFormat)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	// LINT_GATE_ENV_FILE= disables the dotenv file.
	v.AllowEmptyEnv(true)
	v.AutomaticEnv()

	return v
}

// Validate checks that every required setting is present and that the
// logging settings name a known level and format.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.ProjectRoot) == "" {
		return errors.New("config: project_root must not be empty")
	}
	if strings.TrimSpace(c.EnvDir) == "" {
		return errors.New("config: env_dir must not be empty")
	}
	if strings.TrimSpace(c.Checker) == "" {
		return errors.New("config: checker must not be empty")
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("config: log_level: %w", err)
	}
	switch c.LogFormat {
	case LogFormatAuto, LogFormatText, LogFormatLogfmt, LogFormatJSON:
	default:
		return fmt.Errorf("config: unknown log_format %q (valid: auto, text, logfmt, json)", c.LogFormat)
	}
	return nil
}

// getXDGConfigPath returns the XDG config directory for lint-gate.
func getXDGConfigPath() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, configName)
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(homeDir, ".config", configName)
}
