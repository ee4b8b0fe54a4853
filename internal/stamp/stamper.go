package stamp

import (
	"context"
	"fmt"
	"io"
	"os"

	"git.home.luguber.info/inful/fwbuild/internal/buildctx"
	"git.home.luguber.info/inful/fwbuild/internal/config"
	"git.home.luguber.info/inful/fwbuild/internal/logfields"
	"git.home.luguber.info/inful/fwbuild/internal/metrics"
	"git.home.luguber.info/inful/fwbuild/internal/observability"
	"git.home.luguber.info/inful/fwbuild/internal/toolexec"
)

// Options are the stamper settings from the stamp: section of fwbuild.yaml.
type Options struct {
	Macro           string
	Fallback        string
	Repository      string
	Backend         config.GitBackend
	GitBinary       string
	ComponentMacros bool
	Header          string
}

// OptionsFromConfig copies the stamp configuration.
func OptionsFromConfig(c config.StampConfig) Options {
	return Options{
		Macro:           c.Macro,
		Fallback:        c.Fallback,
		Repository:      c.Repository,
		Backend:         c.Backend,
		GitBinary:       c.GitBinary,
		ComponentMacros: c.ComponentMacros,
		Header:          c.Header,
	}
}

// Stamper resolves the version and appends it to a build context.
type Stamper struct {
	Options  Options
	Resolver *Resolver
	Recorder metrics.Recorder
	Stdout   io.Writer
}

// NewStamper wires a resolver for the configured backend.
func NewStamper(opts Options, runner toolexec.Runner) *Stamper {
	if opts.Macro == "" {
		opts.Macro = config.DefaultMacro
	}
	d := NewDescriber(opts.Backend, runner, opts.GitBinary, opts.Repository)
	r := NewResolver(d, opts.Fallback)
	r.Repository = opts.Repository
	return &Stamper{
		Options:  opts,
		Resolver: r,
		Recorder: metrics.NoopRecorder{},
		Stdout:   os.Stdout,
	}
}

// Stamp resolves the firmware version, prints it and appends the macro to bc.
// A nil bc only resolves and prints.
func (s *Stamper) Stamp(ctx context.Context, bc *buildctx.Context) Resolution {
	ctx = observability.WithStage(ctx, "stamp")
	res := s.Resolver.Resolve(ctx)
	s.recorder().IncVersionSource(string(res.Source))

	_, _ = fmt.Fprintf(s.out(), "Firmware version: %s\n", res.Version)
	observability.InfoContext(ctx, "Firmware version resolved",
		logfields.Version(res.Version), logfields.Source(string(res.Source)))

	if bc != nil {
		for _, d := range s.Defines(res) {
			bc.AppendDefine(d)
		}
	}

	if s.Options.Header != "" {
		if err := WriteHeader(s.Options.Header, s.Options.Macro, res); err != nil {
			observability.WarnContext(ctx, "Failed to write version header",
				logfields.Path(s.Options.Header), logfields.Error(err))
		}
	}
	return res
}

// Defines returns the macros Stamp appends for res.
func (s *Stamper) Defines(res Resolution) []buildctx.Define {
	defs := []buildctx.Define{buildctx.StringDefine(s.Options.Macro, res.Version)}
	if s.Options.ComponentMacros {
		defs = append(defs, componentDefines(s.Options.Macro, res.Components())...)
	}
	return defs
}

// Action adapts Stamp to a configure hook. It never returns an error.
func (s *Stamper) Action() func(context.Context, *buildctx.Context) error {
	return func(ctx context.Context, bc *buildctx.Context) error {
		s.Stamp(ctx, bc)
		return nil
	}
}

func (s *Stamper) recorder() metrics.Recorder {
	if s.Recorder == nil {
		return metrics.NoopRecorder{}
	}
	return s.Recorder
}

func (s *Stamper) out() io.Writer {
	if s.Stdout == nil {
		return os.Stdout
	}
	return s.Stdout
}
