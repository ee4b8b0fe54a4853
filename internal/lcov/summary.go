package lcov

import "fmt"

// Summary aggregates the counters of every record in a tracefile.
type Summary struct {
	Files          int
	LinesFound     int
	LinesHit       int
	FunctionsFound int
	FunctionsHit   int
	BranchesFound  int
	BranchesHit    int
}

// Summary totals the tracefile.
func (t *Tracefile) Summary() Summary {
	var s Summary
	for _, r := range t.Records {
		s.Files++
		s.LinesFound += r.LinesFound
		s.LinesHit += r.LinesHit
		s.FunctionsFound += r.FunctionsFound
		s.FunctionsHit += r.FunctionsHit
		s.BranchesFound += r.BranchesFound
		s.BranchesHit += r.BranchesHit
	}
	return s
}

// LineRate is LinesHit/LinesFound, 0 when no lines were instrumented.
func (s Summary) LineRate() float64 { return ratio(s.LinesHit, s.LinesFound) }

// FunctionRate is FunctionsHit/FunctionsFound.
func (s Summary) FunctionRate() float64 { return ratio(s.FunctionsHit, s.FunctionsFound) }

// BranchRate is BranchesHit/BranchesFound.
func (s Summary) BranchRate() float64 { return ratio(s.BranchesHit, s.BranchesFound) }

// String matches the "lines......: 87.5% (7 of 8 lines)" style of lcov --summary.
func (s Summary) String() string {
	return fmt.Sprintf("lines: %.1f%% (%d of %d), functions: %.1f%% (%d of %d), branches: %.1f%% (%d of %d)",
		s.LineRate()*100, s.LinesHit, s.LinesFound,
		s.FunctionRate()*100, s.FunctionsHit, s.FunctionsFound,
		s.BranchRate()*100, s.BranchesHit, s.BranchesFound)
}

func ratio(hit, found int) float64 {
	if found <= 0 {
		return 0
	}
	return float64(hit) / float64(found)
}
