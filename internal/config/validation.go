package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var macroName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidateConfig checks a defaulted configuration.
func ValidateConfig(cfg *Config) error {
	if err := validateCoverage(&cfg.Coverage); err != nil {
		return err
	}
	return validateStamp(&cfg.Stamp)
}

func validateCoverage(c *CoverageConfig) error {
	if !strings.HasPrefix(c.Flag, "-") {
		return fmt.Errorf("coverage.flag must be a compiler flag, got %q", c.Flag)
	}
	for _, t := range c.Targets {
		if strings.TrimSpace(t) == "" {
			return errors.New("coverage.targets must not contain empty names")
		}
	}
	if len(c.RemovePatterns) == 0 {
		return errors.New("coverage.remove_patterns must list at least one glob")
	}
	for _, p := range c.RemovePatterns {
		if strings.TrimSpace(p) == "" {
			return errors.New("coverage.remove_patterns must not contain empty globs")
		}
	}
	if c.RawFile == c.FilteredFile {
		return fmt.Errorf("coverage.raw_file and coverage.filtered_file must differ (%s)", c.RawFile)
	}
	for _, ext := range c.DataExtensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("coverage.data_extensions entries must start with '.', got %q", ext)
		}
	}
	return nil
}

func validateStamp(s *StampConfig) error {
	if !macroName.MatchString(s.Macro) {
		return fmt.Errorf("stamp.macro %q is not a valid C identifier", s.Macro)
	}
	if strings.TrimSpace(s.Fallback) == "" {
		return errors.New("stamp.fallback must not be empty")
	}
	switch s.Backend {
	case GitBackendAuto, GitBackendCLI, GitBackendNative:
	default:
		return fmt.Errorf("stamp.backend %q is not supported", s.Backend)
	}
	return nil
}
