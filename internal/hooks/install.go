package hooks

import (
	"fmt"
	"io"
	"os"

	"git.home.luguber.info/inful/fwbuild/internal/buildctx"
	"git.home.luguber.info/inful/fwbuild/internal/coverage"
	"git.home.luguber.info/inful/fwbuild/internal/stamp"
)

// Action names used in the registry.
const (
	ActionStampVersion     = "stamp-version"
	ActionGenerateCoverage = "generate-coverage"
)

// Deps are the components Install wires into the registry.
type Deps struct {
	Stamper  *stamp.Stamper
	Coverage *coverage.Generator
	Stdout   io.Writer
}

// Install registers the version stamper on configure and, when the coverage guard holds
// for bc, the coverage generator after every configured target. It returns the guard
// decision.
func Install(reg *Registry, bc *buildctx.Context, deps Deps) coverage.Decision {
	out := deps.Stdout
	if out == nil {
		out = os.Stdout
	}

	if deps.Stamper != nil {
		reg.AddConfigureAction(ActionStampVersion, deps.Stamper.Action())
	}
	if deps.Coverage == nil {
		return coverage.Decision{Reason: coverage.ReasonWrongEnvironment}
	}

	opts := deps.Coverage.Options
	d := coverage.ShouldRun(bc, opts)
	switch d.Reason {
	case coverage.ReasonEnabled:
		_, _ = fmt.Fprintln(out, "Registering coverage generation post-action...")
		for _, target := range opts.Targets {
			reg.AddPostAction(target, ActionGenerateCoverage, deps.Coverage.Action())
		}
	case coverage.ReasonFlagMissing:
		_, _ = fmt.Fprintf(out, "Note: Coverage is not enabled for '%s' environment. Add '%s' to build_flags in platformio.ini to enable it.\n",
			opts.Environment, opts.Flag)
	}
	return d
}
