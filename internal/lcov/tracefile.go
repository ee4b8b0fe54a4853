// Package lcov reads lcov tracefiles (the .info files produced by `lcov --capture`) and
// matches source paths against lcov-style remove patterns.
package lcov

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Record is the coverage of one source file (one SF: ... end_of_record block).
type Record struct {
	SourceFile     string
	Lines          map[int]int64 // line -> execution count
	LinesFound     int
	LinesHit       int
	FunctionsFound int
	FunctionsHit   int
	BranchesFound  int
	BranchesHit    int
}

// Tracefile is a parsed lcov .info file.
type Tracefile struct {
	Records []*Record
}

// ParseFile parses the tracefile at path.
func ParseFile(path string) (*Tracefile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	tf, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return tf, nil
}

// Parse reads an lcov tracefile. Unknown keys (TN, FN, FNDA, BRDA, ...) are ignored.
func Parse(r io.Reader) (*Tracefile, error) {
	tf := &Tracefile{}
	var cur *Record
	sawLF, sawLH := false, false

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "end_of_record" {
			if cur == nil {
				return nil, fmt.Errorf("line %d: end_of_record without SF", lineNo)
			}
			finish(cur, sawLF, sawLH)
			tf.Records = append(tf.Records, cur)
			cur, sawLF, sawLH = nil, false, false
			continue
		}

		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		if key == "SF" {
			if cur != nil {
				return nil, fmt.Errorf("line %d: SF before end_of_record of %s", lineNo, cur.SourceFile)
			}
			cur = &Record{SourceFile: value, Lines: map[int]int64{}}
			continue
		}
		if cur == nil {
			continue
		}

		var err error
		switch key {
		case "DA":
			err = parseDA(cur, value)
		case "LF":
			cur.LinesFound, err = strconv.Atoi(value)
			sawLF = true
		case "LH":
			cur.LinesHit, err = strconv.Atoi(value)
			sawLH = true
		case "FNF":
			cur.FunctionsFound, err = strconv.Atoi(value)
		case "FNH":
			cur.FunctionsHit, err = strconv.Atoi(value)
		case "BRF":
			cur.BranchesFound, err = strconv.Atoi(value)
		case "BRH":
			cur.BranchesHit, err = strconv.Atoi(value)
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid %s record %q: %w", lineNo, key, value, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if cur != nil {
		return nil, fmt.Errorf("unterminated record for %s", cur.SourceFile)
	}
	return tf, nil
}

// parseDA handles "DA:<line>,<count>[,<checksum>]".
func parseDA(rec *Record, value string) error {
	fields := strings.Split(value, ",")
	if len(fields) < 2 {
		return fmt.Errorf("expected line,count")
	}
	ln, err := strconv.Atoi(fields[0])
	if err != nil {
		return err
	}
	// gcov reports negative counts on some toolchains; treat them as not executed
	count, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return err
	}
	if count < 0 {
		count = 0
	}
	rec.Lines[ln] += count
	return nil
}

func finish(rec *Record, sawLF, sawLH bool) {
	if !sawLF {
		rec.LinesFound = len(rec.Lines)
	}
	if !sawLH {
		hit := 0
		for _, c := range rec.Lines {
			if c > 0 {
				hit++
			}
		}
		rec.LinesHit = hit
	}
}

// SourceFiles lists the SF paths in file order.
func (t *Tracefile) SourceFiles() []string {
	out := make([]string, 0, len(t.Records))
	for _, r := range t.Records {
		out = append(out, r.SourceFile)
	}
	return out
}

// Matching returns the source files that match any of the patterns.
func (t *Tracefile) Matching(patterns Patterns) []string {
	var out []string
	for _, r := range t.Records {
		if patterns.Match(r.SourceFile) {
			out = append(out, r.SourceFile)
		}
	}
	return out
}
