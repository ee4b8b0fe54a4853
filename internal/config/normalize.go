package config

import (
	"fmt"
	"sort"
	"strings"
)

// normalizer maps case/space-insensitive strings onto an enum type.
type normalizer[T comparable] struct {
	values       map[string]T
	defaultValue T
	keys         []string
}

func newNormalizer[T comparable](values map[string]T, defaultValue T) *normalizer[T] {
	n := &normalizer[T]{values: make(map[string]T, len(values)), defaultValue: defaultValue}
	for k, v := range values {
		key := normalizeKey(k)
		n.values[key] = v
		n.keys = append(n.keys, key)
	}
	sort.Strings(n.keys)
	return n
}

// Normalize returns the default for unknown input.
func (n *normalizer[T]) Normalize(raw string) T {
	if v, ok := n.values[normalizeKey(raw)]; ok {
		return v
	}
	return n.defaultValue
}

// NormalizeWithError rejects unknown input.
func (n *normalizer[T]) NormalizeWithError(raw string) (T, error) {
	if v, ok := n.values[normalizeKey(raw)]; ok {
		return v, nil
	}
	var zero T
	return zero, fmt.Errorf("invalid value %q, valid options: %v", raw, n.keys)
}

func normalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// normalizeConfig canonicalises enumerations before defaults are applied. Empty values are
// left for applyDefaults; unknown non-empty values are errors.
func normalizeConfig(cfg *Config) error {
	if cfg.Stamp.Backend != "" {
		b, err := gitBackendNormalizer.NormalizeWithError(string(cfg.Stamp.Backend))
		if err != nil {
			return fmt.Errorf("stamp.backend: %w", err)
		}
		cfg.Stamp.Backend = b
	}
	if cfg.Logging.Level != "" {
		l, err := logLevelNormalizer.NormalizeWithError(string(cfg.Logging.Level))
		if err != nil {
			return fmt.Errorf("logging.level: %w", err)
		}
		cfg.Logging.Level = l
	}
	if cfg.Logging.Format != "" {
		f, err := logFormatNormalizer.NormalizeWithError(string(cfg.Logging.Format))
		if err != nil {
			return fmt.Errorf("logging.format: %w", err)
		}
		cfg.Logging.Format = f
	}
	return nil
}
