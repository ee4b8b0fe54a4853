package lcov

import (
	"fmt"
	"regexp"
	"strings"
)

// Pattern is a compiled lcov --remove/--extract glob. As in lcov, '*' also matches
// path separators, so "*/test/*" matches every file below any test directory.
type Pattern struct {
	glob string
	re   *regexp.Regexp
}

// CompilePattern translates an lcov glob ('*', '?', literal text) into a matcher.
func CompilePattern(glob string) (Pattern, error) {
	if glob == "" {
		return Pattern{}, fmt.Errorf("empty pattern")
	}
	var b strings.Builder
	b.WriteString("^")
	for _, r := range glob {
		switch r {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	re, err := regexp.Compile(b.String())
	if err != nil {
		return Pattern{}, fmt.Errorf("compile pattern %q: %w", glob, err)
	}
	return Pattern{glob: glob, re: re}, nil
}

// Match reports whether path matches the pattern.
func (p Pattern) Match(path string) bool {
	return p.re != nil && p.re.MatchString(path)
}

// String returns the original glob.
func (p Pattern) String() string { return p.glob }

// Patterns is a set of globs; a path matches when any of them does.
type Patterns []Pattern

// CompilePatterns compiles each glob.
func CompilePatterns(globs []string) (Patterns, error) {
	out := make(Patterns, 0, len(globs))
	for _, g := range globs {
		p, err := CompilePattern(g)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// Match reports whether any pattern matches path.
func (ps Patterns) Match(path string) bool {
	for _, p := range ps {
		if p.Match(path) {
			return true
		}
	}
	return false
}
