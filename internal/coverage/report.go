package coverage

import (
	fwerrors "git.home.luguber.info/inful/fwbuild/internal/errors"
	"git.home.luguber.info/inful/fwbuild/internal/lcov"
)

// Report summarises a pipeline run. It is never returned as an error: callers inspect it.
type Report struct {
	Completed   bool
	Skipped     bool
	Reason      Reason
	FailedStage Stage
	Stages      []StageResult
	DataFiles   []string
	Summary     *lcov.Summary
	// Leaked lists files left in the filtered tracefile that match a remove pattern.
	Leaked []string
}

// Stage returns the result of the named stage, if it ran.
func (r Report) Stage(s Stage) (StageResult, bool) {
	for _, sr := range r.Stages {
		if sr.Stage == s {
			return sr, true
		}
	}
	return StageResult{}, false
}

// Err describes why the report is incomplete, for logging. It is nil for completed or
// skipped runs.
func (r Report) Err() error {
	if r.Completed || r.Skipped || r.FailedStage == "" {
		return nil
	}
	sr, ok := r.Stage(r.FailedStage)
	if !ok {
		return fwerrors.InternalError("coverage pipeline interrupted before "+string(r.FailedStage), nil)
	}
	if sr.Stage == StageToolcheck {
		return fwerrors.ToolUnavailable(sr.Tool, nil)
	}
	return fwerrors.ToolFailed(sr.Tool, sr.ExitCode).WithContext("stage", string(sr.Stage))
}
