// Package config loads pvcheck tool settings from YAML and merges them with
// command line flags.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Output formats accepted by Format
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatCSV  = "csv"
	FormatHTML = "html"
	FormatLive = "live"
)

// Color modes accepted by Color
const (
	ColorYes  = "yes"
	ColorNo   = "no"
	ColorAuto = "auto"
)

// Config holds the settings of a pvcheck run.
type Config struct {
	// Timeout is the wall-clock limit for each program run (0 = none)
	Timeout time.Duration `yaml:"timeout"`

	// MaxErrors is the number of wrong lines reported per section
	MaxErrors int `yaml:"max_errors"`

	// Verbosity selects the text report detail (0 errors .. 4 debug)
	Verbosity int `yaml:"verbosity"`

	// OutputLimit is the maximum number of lines per output stream (0 = none)
	OutputLimit int `yaml:"output_limit"`

	// Format selects the report written to stdout
	Format string `yaml:"format"`

	// Color controls colored text output: yes, no or auto
	Color string `yaml:"color"`

	// LogFile receives a JSON record of every session ("" disables it)
	LogFile string `yaml:"log_file"`

	// HistoryDB is the SQLite database for run history ("" disables it)
	HistoryDB string `yaml:"history_db"`

	// Valgrind runs every program under valgrind
	Valgrind bool `yaml:"valgrind"`

	// LogLevel sets the diagnostics verbosity (trace, debug, info, warn, error)
	LogLevel string `yaml:"log_level"`

	// TempDir is where temporary input files are created ("" = system default)
	TempDir string `yaml:"temp_dir"`
}

// DefaultConfig returns a Config with the standard pvcheck defaults
func DefaultConfig() *Config {
	return &Config{
		Timeout:     10 * time.Second,
		MaxErrors:   4,
		Verbosity:   3,
		OutputLimit: 10000,
		Format:      FormatText,
		Color:       ColorAuto,
		LogFile:     "~/.pvcheck.log",
		HistoryDB:   "",
		Valgrind:    false,
		LogLevel:    "warn",
		TempDir:     "",
	}
}

// LoadConfig loads configuration from the specified file path.
// If the file doesn't exist, returns default configuration without error.
// Keys present in the file override the defaults, including zero values.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Pointers distinguish absent keys from explicit zero values
	type yamlConfig struct {
		Timeout     *string `yaml:"timeout"`
		MaxErrors   *int    `yaml:"max_errors"`
		Verbosity   *int    `yaml:"verbosity"`
		OutputLimit *int    `yaml:"output_limit"`
		Format      *string `yaml:"format"`
		Color       *string `yaml:"color"`
		LogFile     *string `yaml:"log_file"`
		HistoryDB   *string `yaml:"history_db"`
		Valgrind    *bool   `yaml:"valgrind"`
		LogLevel    *string `yaml:"log_level"`
		TempDir     *string `yaml:"temp_dir"`
	}

	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if yamlCfg.Timeout != nil {
		timeout, err := ParseTimeout(*yamlCfg.Timeout)
		if err != nil {
			return nil, err
		}
		cfg.Timeout = timeout
	}
	if yamlCfg.MaxErrors != nil {
		cfg.MaxErrors = *yamlCfg.MaxErrors
	}
	if yamlCfg.Verbosity != nil {
		cfg.Verbosity = *yamlCfg.Verbosity
	}
	if yamlCfg.OutputLimit != nil {
		cfg.OutputLimit = *yamlCfg.OutputLimit
	}
	if yamlCfg.Format != nil {
		cfg.Format = strings.ToLower(*yamlCfg.Format)
	}
	if yamlCfg.Color != nil {
		cfg.Color = strings.ToLower(*yamlCfg.Color)
	}
	if yamlCfg.LogFile != nil {
		cfg.LogFile = *yamlCfg.LogFile
	}
	if yamlCfg.HistoryDB != nil {
		cfg.HistoryDB = *yamlCfg.HistoryDB
	}
	if yamlCfg.Valgrind != nil {
		cfg.Valgrind = *yamlCfg.Valgrind
	}
	if yamlCfg.LogLevel != nil {
		cfg.LogLevel = strings.ToLower(*yamlCfg.LogLevel)
	}
	if yamlCfg.TempDir != nil {
		cfg.TempDir = *yamlCfg.TempDir
	}

	return cfg, nil
}

// ParseTimeout accepts a Go duration ("1m30s") or a plain number of seconds ("2.5").
func ParseTimeout(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}
	d, err := time.ParseDuration(s + "s")
	if err != nil {
		return 0, fmt.Errorf("invalid timeout format %q: %w", s, err)
	}
	return d, nil
}

// LoadConfigFromDir loads configuration from .pvcheck/config.yaml in the specified directory.
// If the directory or file doesn't exist, returns default configuration without error.
func LoadConfigFromDir(dir string) (*Config, error) {
	return LoadConfig(filepath.Join(dir, ".pvcheck", "config.yaml"))
}

// Overrides carries command line values; nil fields were not set on the command line.
type Overrides struct {
	Timeout     *time.Duration
	MaxErrors   *int
	Verbosity   *int
	OutputLimit *int
	Format      *string
	Color       *string
	LogFile     *string
	HistoryDB   *string
	Valgrind    *bool
	LogLevel    *string
}

// MergeWithFlags merges CLI flags into the configuration.
// Non-nil flag values override configuration values.
func (c *Config) MergeWithFlags(o Overrides) {
	if o.Timeout != nil {
		c.Timeout = *o.Timeout
	}
	if o.MaxErrors != nil {
		c.MaxErrors = *o.MaxErrors
	}
	if o.Verbosity != nil {
		c.Verbosity = *o.Verbosity
	}
	if o.OutputLimit != nil {
		c.OutputLimit = *o.OutputLimit
	}
	if o.Format != nil {
		c.Format = strings.ToLower(*o.Format)
	}
	if o.Color != nil {
		c.Color = strings.ToLower(*o.Color)
	}
	if o.LogFile != nil {
		c.LogFile = *o.LogFile
	}
	if o.HistoryDB != nil {
		c.HistoryDB = *o.HistoryDB
	}
	if o.Valgrind != nil {
		c.Valgrind = *o.Valgrind
	}
	if o.LogLevel != nil {
		c.LogLevel = strings.ToLower(*o.LogLevel)
	}
}

// Validate validates the configuration values.
// Returns an error if any values are invalid.
func (c *Config) Validate() error {
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must be >= 0, got %v", c.Timeout)
	}
	if c.MaxErrors < 1 {
		return fmt.Errorf("max_errors must be >= 1, got %d", c.MaxErrors)
	}
	if c.Verbosity < 0 || c.Verbosity > 4 {
		return fmt.Errorf("verbosity must be between 0 and 4, got %d", c.Verbosity)
	}
	if c.OutputLimit < 0 {
		return fmt.Errorf("output_limit must be >= 0, got %d", c.OutputLimit)
	}

	switch c.Format {
	case FormatText, FormatJSON, FormatCSV, FormatHTML, FormatLive:
	default:
		return fmt.Errorf("invalid format %q, must be one of: text, json, csv, html, live", c.Format)
	}

	switch c.Color {
	case ColorYes, ColorNo, ColorAuto:
	default:
		return fmt.Errorf("invalid color %q, must be one of: yes, no, auto", c.Color)
	}

	validLevels := map[string]bool{
		"trace": true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.LogLevel] {
		return fmt.Errorf("invalid log_level %q, must be one of: trace, debug, info, warn, error", c.LogLevel)
	}

	return nil
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
