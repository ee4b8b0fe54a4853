package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/fwbuild/internal/buildctx"
	"git.home.luguber.info/inful/fwbuild/internal/config"
	"git.home.luguber.info/inful/fwbuild/internal/coverage"
	fwerrors "git.home.luguber.info/inful/fwbuild/internal/errors"
	"git.home.luguber.info/inful/fwbuild/internal/foundation"
	"git.home.luguber.info/inful/fwbuild/internal/hooks"
	"git.home.luguber.info/inful/fwbuild/internal/logfields"
	"git.home.luguber.info/inful/fwbuild/internal/metrics"
	"git.home.luguber.info/inful/fwbuild/internal/observability"
	"git.home.luguber.info/inful/fwbuild/internal/stamp"
	"git.home.luguber.info/inful/fwbuild/internal/toolexec"
)

// CommandExecutor executes each CLI command as a request/response pair.
type CommandExecutor interface {
	ExecuteHook(ctx context.Context, req HookRequest) foundation.Result[HookResponse, error]
	ExecuteCoverage(ctx context.Context, req CoverageRequest) foundation.Result[CoverageResponse, error]
	ExecuteStamp(ctx context.Context, req StampRequest) foundation.Result[StampResponse, error]
	ExecuteInit(ctx context.Context, req InitRequest) foundation.Result[InitResponse, error]
}

// Request/Response types for each command

// ContextSource says where the build context comes from. A context file wins over the
// PIOENV/BUILD_FLAGS environment; Environment and BuildFlags are applied on top.
type ContextSource struct {
	ContextFile string
	Environment string
	BuildFlags  []string
}

type HookRequest struct {
	ConfigPath string
	Event      string
	ContextSource
	PrintDefines bool
}

type HookResponse struct {
	Event    hooks.Event
	Ran      []string
	Failed   []string
	Coverage coverage.Decision
	Defines  []buildctx.Define
}

type CoverageRequest struct {
	ConfigPath string
	Manual     bool
	WorkDir    string
	ContextSource
}

type CoverageResponse struct {
	Report coverage.Report
}

type StampRequest struct {
	ConfigPath string
	Format     string
	Output     string
	Repository string
	Backend    string
}

type StampResponse struct {
	Resolution stamp.Resolution
	Rendered   string
	Written    string // output path, empty when printed
}

type InitRequest struct {
	ConfigPath string
	Force      bool
}

type InitResponse struct {
	ConfigPath string
	Created    bool
}

// DefaultCommandExecutor implements the CommandExecutor interface.
type DefaultCommandExecutor struct {
	runner toolexec.Runner
	stdout io.Writer
	stderr io.Writer
	getenv func(string) string
}

// NewCommandExecutor creates an executor that runs real tools and prints to os.Stdout.
func NewCommandExecutor() *DefaultCommandExecutor {
	return &DefaultCommandExecutor{
		runner: toolexec.NewExecRunner(),
		stdout: os.Stdout,
		stderr: os.Stderr,
		getenv: os.Getenv,
	}
}

// WithRunner allows injecting a fake tool runner (for testing).
func (e *DefaultCommandExecutor) WithRunner(r toolexec.Runner) *DefaultCommandExecutor {
	e.runner = r
	return e
}

// WithStdout redirects user-facing output.
func (e *DefaultCommandExecutor) WithStdout(w io.Writer) *DefaultCommandExecutor {
	e.stdout = w
	return e
}

// WithStderr redirects progress lines that must stay off stdout, such as those of
// hook --print-defines.
func (e *DefaultCommandExecutor) WithStderr(w io.Writer) *DefaultCommandExecutor {
	e.stderr = w
	return e
}

// WithGetenv replaces the environment lookup used for PIOENV/BUILD_FLAGS.
func (e *DefaultCommandExecutor) WithGetenv(fn func(string) string) *DefaultCommandExecutor {
	e.getenv = fn
	return e
}

// Command execution implementations

func (e *DefaultCommandExecutor) ExecuteHook(ctx context.Context, req HookRequest) foundation.Result[HookResponse, error] {
	ev, err := hooks.ParseEvent(req.Event)
	if err != nil {
		return foundation.Err[HookResponse, error](fwerrors.ValidationFailed("event", err.Error()))
	}
	cfg, err := e.loadConfig(req.ConfigPath)
	if err != nil {
		return foundation.Err[HookResponse, error](err)
	}
	bc, err := e.loadContext(req.ContextSource)
	if err != nil {
		return foundation.Err[HookResponse, error](err)
	}

	ctx = observability.WithEvent(ctx, string(ev))
	rec, flush := e.recorder(ctx, cfg)
	defer flush()

	// With --print-defines stdout is consumed as build flags and carries the defines only.
	progress := e.stdout
	if req.PrintDefines {
		progress = e.stderr
	}
	st := e.newStamper(cfg.Stamp, rec, progress)
	gen := e.newGenerator(cfg.Coverage, "", rec, progress)

	reg := hooks.NewRegistry()
	decision := hooks.Install(reg, bc, hooks.Deps{Stamper: st, Coverage: gen, Stdout: progress})
	fired := reg.Fire(ctx, ev, bc)

	if req.ContextFile != "" {
		if err := bc.Save(req.ContextFile); err != nil {
			return foundation.Err[HookResponse, error](fwerrors.ContextFileError("save", req.ContextFile, err))
		}
	}
	if req.PrintDefines {
		for _, d := range bc.Defines {
			_, _ = fmt.Fprintln(e.stdout, d.ShellEscaped())
		}
	}

	return foundation.Ok[HookResponse, error](HookResponse{
		Event:    ev,
		Ran:      fired.Ran,
		Failed:   fired.Failed,
		Coverage: decision,
		Defines:  bc.Defines,
	})
}

func (e *DefaultCommandExecutor) ExecuteCoverage(ctx context.Context, req CoverageRequest) foundation.Result[CoverageResponse, error] {
	cfg, err := e.loadConfig(req.ConfigPath)
	if err != nil {
		return foundation.Err[CoverageResponse, error](err)
	}
	rec, flush := e.recorder(ctx, cfg)
	defer flush()

	gen := e.newGenerator(cfg.Coverage, req.WorkDir, rec, e.stdout)

	var rep coverage.Report
	if req.Manual {
		rep = gen.Run(ctx)
	} else {
		bc, err := e.loadContext(req.ContextSource)
		if err != nil {
			return foundation.Err[CoverageResponse, error](err)
		}
		rep = gen.RunGuarded(ctx, bc)
		if rep.Skipped {
			observability.InfoContext(ctx, "Coverage not generated for this build",
				slog.String("reason", string(rep.Reason)), logfields.Environment(bc.Environment))
		}
	}
	if err := rep.Err(); err != nil {
		observability.WarnContext(ctx, "Coverage report incomplete", logfields.Error(err))
	}
	return foundation.Ok[CoverageResponse, error](CoverageResponse{Report: rep})
}

func (e *DefaultCommandExecutor) ExecuteStamp(ctx context.Context, req StampRequest) foundation.Result[StampResponse, error] {
	format := stamp.Format(req.Format)
	if !validFormat(format) {
		return foundation.Err[StampResponse, error](fwerrors.ValidationFailed("format", fmt.Sprintf("unknown format %q", req.Format)))
	}
	cfg, err := e.loadConfig(req.ConfigPath)
	if err != nil {
		return foundation.Err[StampResponse, error](err)
	}
	if req.Repository != "" {
		cfg.Stamp.Repository = req.Repository
	}
	if req.Backend != "" {
		cfg.Stamp.Backend = config.NormalizeGitBackend(req.Backend)
	}

	rec, flush := e.recorder(ctx, cfg)
	defer flush()

	st := e.newStamper(cfg.Stamp, rec, e.stdout)
	res := st.Resolver.Resolve(observability.WithStage(ctx, "stamp"))
	rec.IncVersionSource(string(res.Source))

	rendered, err := stamp.Render(format, st.Options.Macro, res)
	if err != nil {
		return foundation.Err[StampResponse, error](fwerrors.InternalError("render version", err))
	}

	resp := StampResponse{Resolution: res, Rendered: rendered}
	if req.Output == "" {
		_, _ = io.WriteString(e.stdout, rendered)
		return foundation.Ok[StampResponse, error](resp)
	}
	if err := writeOutput(req.Output, rendered); err != nil {
		return foundation.Err[StampResponse, error](fwerrors.OutputWriteError(req.Output, err))
	}
	resp.Written = req.Output
	observability.InfoContext(ctx, "Version written", logfields.Path(req.Output), logfields.Version(res.Version))
	return foundation.Ok[StampResponse, error](resp)
}

func (e *DefaultCommandExecutor) ExecuteInit(_ context.Context, req InitRequest) foundation.Result[InitResponse, error] {
	slog.Info("Initializing configuration", logfields.Path(req.ConfigPath), slog.Bool("force", req.Force))

	if err := config.Init(req.ConfigPath, req.Force); err != nil {
		return foundation.Err[InitResponse, error](fwerrors.ConfigInvalid(req.ConfigPath, err))
	}

	return foundation.Ok[InitResponse, error](InitResponse{
		ConfigPath: req.ConfigPath,
		Created:    true,
	})
}

func (e *DefaultCommandExecutor) loadConfig(path string) (*config.Config, error) {
	if path == "" {
		path = config.DefaultPath
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fwerrors.ConfigInvalid(path, err)
	}
	return cfg, nil
}

func (e *DefaultCommandExecutor) loadContext(src ContextSource) (*buildctx.Context, error) {
	var (
		bc  *buildctx.Context
		err error
	)
	if src.ContextFile != "" {
		bc, err = buildctx.Load(src.ContextFile)
		if err != nil {
			return nil, fwerrors.ContextFileError("load", src.ContextFile, err)
		}
	} else {
		bc, err = buildctx.FromEnv(e.getenv)
		if err != nil {
			return nil, fwerrors.ValidationFailed(buildctx.EnvBuildFlags, err.Error())
		}
	}
	bc.Override(src.Environment, src.BuildFlags)
	return bc, nil
}

// recorder returns a Prometheus recorder when a textfile is configured. The returned
// flush writes the textfile; write errors are logged, never returned.
func (e *DefaultCommandExecutor) recorder(ctx context.Context, cfg *config.Config) (metrics.Recorder, func()) {
	if cfg.Metrics.Textfile == "" {
		return metrics.NoopRecorder{}, func() {}
	}
	pr := metrics.NewPrometheusRecorder(nil)
	return pr, func() {
		if err := pr.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			observability.WarnContext(ctx, "Failed to write metrics textfile", logfields.Error(err))
		}
	}
}

func (e *DefaultCommandExecutor) newStamper(c config.StampConfig, rec metrics.Recorder, out io.Writer) *stamp.Stamper {
	st := stamp.NewStamper(stamp.OptionsFromConfig(c), e.runner)
	st.Recorder = rec
	st.Stdout = out
	return st
}

func (e *DefaultCommandExecutor) newGenerator(c config.CoverageConfig, workDir string, rec metrics.Recorder, out io.Writer) *coverage.Generator {
	opts := coverage.OptionsFromConfig(c)
	opts.WorkDir = workDir
	gen := coverage.NewGenerator(opts, e.runner)
	gen.Recorder = rec
	gen.Stdout = out
	return gen
}

func validFormat(f stamp.Format) bool {
	if f == "" {
		return true
	}
	for _, known := range stamp.Formats() {
		if f == known {
			return true
		}
	}
	return false
}

func writeOutput(path, content string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return err
		}
	}
	return os.WriteFile(path, []byte(content), 0o600)
}
