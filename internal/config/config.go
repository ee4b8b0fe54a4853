// Package config loads fwbuild.yaml: the coverage pipeline settings, the version stamper
// settings, metrics output and logging.
package config

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// CurrentVersion is the configuration schema version written by Init.
const CurrentVersion = "1.0"

// DefaultPath is the configuration file looked up when --config is not given.
const DefaultPath = "fwbuild.yaml"

// Config is the root of fwbuild.yaml.
type Config struct {
	Version  string         `yaml:"version"`
	Coverage CoverageConfig `yaml:"coverage"`
	Stamp    StampConfig    `yaml:"stamp"`
	Metrics  MetricsConfig  `yaml:"metrics,omitempty"`
	Logging  LoggingConfig  `yaml:"logging,omitempty"`
}

// CoverageConfig controls when and how the coverage report is produced.
type CoverageConfig struct {
	Environment    string   `yaml:"environment"`     // build environment that runs instrumented tests
	Flag           string   `yaml:"flag"`            // build flag that enables instrumentation
	Targets        []string `yaml:"targets"`         // build targets that get the post-action
	Directory      string   `yaml:"directory"`       // lcov --directory
	BaseDirectory  string   `yaml:"base_directory"`  // lcov --base-directory
	RawFile        string   `yaml:"raw_file"`        // captured tracefile
	FilteredFile   string   `yaml:"filtered_file"`   // tracefile after --remove
	ReportDir      string   `yaml:"report_dir"`      // genhtml --output-directory
	IgnoreErrors   []string `yaml:"ignore_errors"`   // tolerated gcov/lcov error classes
	TolerantRetry  *bool    `yaml:"tolerant_retry,omitempty"`
	RemovePatterns []string `yaml:"remove_patterns"` // lcov --remove globs
	DataExtensions []string `yaml:"data_extensions"`
	LcovBinary     string   `yaml:"lcov_binary"`
	GenhtmlBinary  string   `yaml:"genhtml_binary"`
	InstallHint    string   `yaml:"install_hint,omitempty"`
}

// TolerantCapture reports whether capture starts with --ignore-errors and retries strictly.
func (c CoverageConfig) TolerantCapture() bool {
	return c.TolerantRetry == nil || *c.TolerantRetry
}

// StampConfig controls the firmware version macro.
type StampConfig struct {
	Macro           string     `yaml:"macro"`
	Fallback        string     `yaml:"fallback"`
	Repository      string     `yaml:"repository"`
	Backend         GitBackend `yaml:"backend"`
	GitBinary       string     `yaml:"git_binary"`
	ComponentMacros bool       `yaml:"component_macros,omitempty"`
	Header          string     `yaml:"header,omitempty"` // optional C header written on stamp
}

// MetricsConfig enables a Prometheus textfile with run metrics.
type MetricsConfig struct {
	Textfile string `yaml:"textfile,omitempty"`
}

// LoggingConfig selects slog level and handler.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level,omitempty"`
	Format LogFormat `yaml:"format,omitempty"`
}

// Load reads configPath. A missing file is not an error: defaults are returned so that a
// project without fwbuild.yaml still gets the standard behaviour.
func Load(configPath string) (*Config, error) {
	if err := loadEnvFile(); err != nil {
		slog.Debug("No .env file loaded", "error", err)
	}

	var cfg Config
	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", configPath, err)
		}
		if cfg.Version != "" && cfg.Version != CurrentVersion {
			return nil, fmt.Errorf("unsupported configuration version: %s (expected %s)", cfg.Version, CurrentVersion)
		}
	case os.IsNotExist(err):
		cfg.Version = CurrentVersion
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := normalizeConfig(&cfg); err != nil {
		return nil, fmt.Errorf("normalize: %w", err)
	}
	applyDefaults(&cfg)
	if err := ValidateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	cfg := &Config{Version: CurrentVersion}
	applyDefaults(cfg)
	return cfg
}

// Init writes an example configuration file populated with the defaults.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	cfg := Default()
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	header := "# fwbuild configuration\n# Coverage runs after the listed targets in the coverage environment when the flag is set.\n"
	if err := os.WriteFile(configPath, append([]byte(header), data...), 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
