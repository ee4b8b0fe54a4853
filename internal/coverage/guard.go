package coverage

import "git.home.luguber.info/inful/fwbuild/internal/buildctx"

// Reason explains a guard decision.
type Reason string

const (
	ReasonEnabled          Reason = "enabled"
	ReasonWrongEnvironment Reason = "wrong-environment"
	ReasonFlagMissing      Reason = "flag-missing"
)

// Decision is the outcome of ShouldRun.
type Decision struct {
	Run    bool
	Reason Reason
}

// ShouldRun holds only in the coverage environment with the instrumentation flag among
// the build flags.
func ShouldRun(bc *buildctx.Context, opts Options) Decision {
	if bc == nil || bc.Environment != opts.Environment {
		return Decision{Reason: ReasonWrongEnvironment}
	}
	if !bc.HasFlag(opts.Flag) {
		return Decision{Reason: ReasonFlagMissing}
	}
	return Decision{Run: true, Reason: ReasonEnabled}
}
