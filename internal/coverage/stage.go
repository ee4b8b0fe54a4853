package coverage

import "time"

// Stage names a pipeline step.
type Stage string

const (
	StageToolcheck Stage = "toolcheck"
	StageDiscover  Stage = "discover"
	StageCapture   Stage = "capture"
	StageFilter    Stage = "filter"
	StageRender    Stage = "render"
	StageSummary   Stage = "summary"
)

// Outcome is the result category of a stage.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeWarning Outcome = "warning" // finished, but something was off
	OutcomeFailed  Outcome = "failed"
)

// StageResult records one executed stage.
type StageResult struct {
	Stage    Stage
	Tool     string
	Outcome  Outcome
	ExitCode int // last tool exit code, -1 when the tool could not start
	Attempts int
	Duration time.Duration
	Message  string
}

func success() StageResult { return StageResult{Outcome: OutcomeSuccess} }

func failed(exitCode int, msg string) StageResult {
	return StageResult{Outcome: OutcomeFailed, ExitCode: exitCode, Message: msg}
}

func warning(msg string) StageResult {
	return StageResult{Outcome: OutcomeWarning, Message: msg}
}
