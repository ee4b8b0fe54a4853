package coverage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"git.home.luguber.info/inful/fwbuild/internal/buildctx"
	"git.home.luguber.info/inful/fwbuild/internal/lcov"
	"git.home.luguber.info/inful/fwbuild/internal/logfields"
	"git.home.luguber.info/inful/fwbuild/internal/metrics"
	"git.home.luguber.info/inful/fwbuild/internal/observability"
	"git.home.luguber.info/inful/fwbuild/internal/toolexec"
)

// Generator runs the coverage pipeline.
type Generator struct {
	Options  Options
	Runner   toolexec.Runner
	Recorder metrics.Recorder
	// Stdout receives the progress lines a developer watches in the build output.
	Stdout io.Writer
}

// NewGenerator returns a generator printing to os.Stdout without metrics.
func NewGenerator(opts Options, runner toolexec.Runner) *Generator {
	return &Generator{Options: opts, Runner: runner, Recorder: metrics.NoopRecorder{}, Stdout: os.Stdout}
}

type step struct {
	stage Stage
	run   func(context.Context, *Report) StageResult
}

// RunGuarded runs the pipeline only when ShouldRun holds for bc.
func (g *Generator) RunGuarded(ctx context.Context, bc *buildctx.Context) Report {
	d := ShouldRun(bc, g.Options)
	if !d.Run {
		observability.DebugContext(ctx, "Coverage pipeline not applicable",
			slog.String("reason", string(d.Reason)))
		return Report{Skipped: true, Reason: d.Reason}
	}
	return g.Run(ctx)
}

// Run executes the pipeline unconditionally. It stops at the first failed stage.
func (g *Generator) Run(ctx context.Context) Report {
	rep := Report{Reason: ReasonEnabled}
	steps := []step{
		{StageToolcheck, g.toolcheck},
		{StageDiscover, g.discover},
		{StageCapture, g.capture},
		{StageFilter, g.filter},
		{StageRender, g.render},
		{StageSummary, g.summary},
	}

	g.printf("Checking for coverage tools...\n")
	for _, s := range steps {
		if err := ctx.Err(); err != nil {
			observability.WarnContext(ctx, "Coverage pipeline interrupted", logfields.Error(err))
			rep.FailedStage = s.stage
			return rep
		}
		sctx := observability.WithStage(ctx, string(s.stage))
		start := time.Now()
		res := s.run(sctx, &rep)
		res.Stage = s.stage
		res.Tool = g.toolFor(s.stage)
		res.Duration = time.Since(start)
		g.record(res)
		rep.Stages = append(rep.Stages, res)

		if res.Outcome == OutcomeFailed {
			rep.FailedStage = s.stage
			return rep
		}
	}

	rep.Completed = true
	g.printf("Coverage report generated in %s\n", g.Options.ReportIndex())
	return rep
}

// Action adapts RunGuarded to a post-build hook. It always returns nil.
func (g *Generator) Action() func(context.Context, *buildctx.Context) error {
	return func(ctx context.Context, bc *buildctx.Context) error {
		g.RunGuarded(ctx, bc)
		return nil
	}
}

func (g *Generator) toolcheck(ctx context.Context, _ *Report) StageResult {
	lcovBin := g.Options.LcovBinary
	res, err := g.Runner.Run(ctx, toolexec.Command{
		Name:  lcovBin,
		Args:  []string{"--version"},
		Dir:   g.Options.WorkDir,
		Quiet: true,
	})
	if err != nil || !res.OK() {
		g.printf("Warning: '%s' not found. Coverage report will not be generated.\n", lcovBin)
		if g.Options.InstallHint != "" {
			g.printf("%s\n", g.Options.InstallHint)
		}
		observability.WarnContext(ctx, "Coverage tool unavailable",
			logfields.Tool(lcovBin), logfields.ExitCode(res.ExitCode), logfields.Error(err))
		return failed(res.ExitCode, "tool unavailable")
	}
	g.printf("Generating coverage report...\n")
	return success()
}

func (g *Generator) discover(ctx context.Context, rep *Report) StageResult {
	exts := g.Options.DataExtensions
	g.printf("Listing %s files:\n", strings.Join(exts, " and "))
	rep.DataFiles = Discover(g.Options.resolve(g.Options.Directory), exts)
	for _, f := range rep.DataFiles {
		g.printf("%s\n", f)
	}
	observability.DebugContext(ctx, "Discovered coverage data files", slog.Int("count", len(rep.DataFiles)))
	if len(rep.DataFiles) == 0 {
		return warning("no coverage data files found")
	}
	return success()
}

func (g *Generator) capture(ctx context.Context, _ *Report) StageResult {
	tolerant := g.Options.TolerantRetry && len(g.Options.IgnoreErrors) > 0
	code := g.exec(ctx, g.captureCommand(tolerant))
	if code == 0 {
		return StageResult{Outcome: OutcomeSuccess, Attempts: 1}
	}
	g.toolError(ctx, "lcov capture failed", code)
	if !tolerant {
		return StageResult{Outcome: OutcomeFailed, ExitCode: code, Attempts: 1, Message: "capture failed"}
	}

	g.printf("Retrying without --ignore-errors...\n")
	code = g.exec(ctx, g.captureCommand(false))
	if code != 0 {
		g.toolError(ctx, "lcov capture failed again", code)
		return StageResult{Outcome: OutcomeFailed, ExitCode: code, Attempts: 2, Message: "capture failed after retry"}
	}
	return StageResult{Outcome: OutcomeSuccess, Attempts: 2}
}

func (g *Generator) captureCommand(tolerant bool) toolexec.Command {
	o := g.Options
	args := []string{
		"--capture",
		"--directory", o.Directory,
		"--base-directory", o.BaseDirectory,
		"--output-file", o.RawFile,
	}
	if tolerant {
		args = append(args, "--ignore-errors", strings.Join(o.IgnoreErrors, ","))
	}
	return toolexec.Command{Name: o.LcovBinary, Args: args, Dir: o.WorkDir}
}

func (g *Generator) filter(ctx context.Context, _ *Report) StageResult {
	o := g.Options
	patterns := o.removePatterns()
	args := make([]string, 0, len(patterns)+4)
	args = append(args, "--remove", o.RawFile)
	args = append(args, patterns...)
	args = append(args, "--output-file", o.FilteredFile)

	if code := g.exec(ctx, toolexec.Command{Name: o.LcovBinary, Args: args, Dir: o.WorkDir}); code != 0 {
		g.toolError(ctx, "lcov filter failed", code)
		return failed(code, "filter failed")
	}
	return success()
}

func (g *Generator) render(ctx context.Context, _ *Report) StageResult {
	o := g.Options
	cmd := toolexec.Command{
		Name: o.GenhtmlBinary,
		Args: []string{o.FilteredFile, "--output-directory", o.ReportDir},
		Dir:  o.WorkDir,
	}
	if code := g.exec(ctx, cmd); code != 0 {
		g.toolError(ctx, "genhtml failed", code)
		return failed(code, "render failed")
	}
	return success()
}

// summary re-reads the filtered tracefile. The HTML report already exists, so problems
// here only downgrade the stage to a warning.
func (g *Generator) summary(ctx context.Context, rep *Report) StageResult {
	path := g.Options.resolve(g.Options.FilteredFile)
	tf, err := lcov.ParseFile(path)
	if err != nil {
		observability.WarnContext(ctx, "Could not summarise coverage", logfields.Path(path), logfields.Error(err))
		return warning("tracefile unreadable")
	}
	s := tf.Summary()
	rep.Summary = &s
	g.recorder().SetLineCoverage(s.LineRate())
	observability.InfoContext(ctx, "Coverage summary",
		slog.Int("files", s.Files),
		slog.String("lines", fmt.Sprintf("%.1f%%", s.LineRate()*100)),
		slog.String("functions", fmt.Sprintf("%.1f%%", s.FunctionRate()*100)),
		slog.String("branches", fmt.Sprintf("%.1f%%", s.BranchRate()*100)))

	patterns, err := lcov.CompilePatterns(g.Options.removePatterns())
	if err != nil {
		observability.WarnContext(ctx, "Invalid remove pattern", logfields.Error(err))
		return warning("invalid remove pattern")
	}
	rep.Leaked = tf.Matching(patterns)
	for _, f := range rep.Leaked {
		observability.WarnContext(ctx, "Filtered tracefile still contains excluded file", logfields.Path(f))
	}
	if len(rep.Leaked) > 0 {
		return warning("excluded files left in tracefile")
	}
	return success()
}

// exec prints and runs cmd, returning its exit code (-1 when it could not start).
func (g *Generator) exec(ctx context.Context, cmd toolexec.Command) int {
	g.printf("Executing: %s\n", cmd.String())
	res, err := g.Runner.Run(ctx, cmd)
	if err != nil {
		observability.WarnContext(ctx, "Tool invocation failed", logfields.Tool(cmd.Name), logfields.Error(err))
		if res.ExitCode == 0 {
			return -1
		}
	}
	return res.ExitCode
}

func (g *Generator) toolError(ctx context.Context, msg string, code int) {
	g.printf("Error: %s with return code %d\n", msg, code)
	observability.WarnContext(ctx, msg, logfields.ExitCode(code))
}

func (g *Generator) toolFor(s Stage) string {
	switch s {
	case StageToolcheck, StageCapture, StageFilter:
		return g.Options.LcovBinary
	case StageRender:
		return g.Options.GenhtmlBinary
	default:
		return ""
	}
}

func (g *Generator) record(res StageResult) {
	r := g.recorder()
	r.ObserveStageDuration(string(res.Stage), res.Duration)
	label := metrics.ResultSuccess
	switch res.Outcome {
	case OutcomeFailed:
		label = metrics.ResultFailed
	case OutcomeWarning:
		label = metrics.ResultWarning
	}
	r.IncStageResult(string(res.Stage), label)
}

func (g *Generator) recorder() metrics.Recorder {
	if g.Recorder == nil {
		return metrics.NoopRecorder{}
	}
	return g.Recorder
}

func (g *Generator) printf(format string, args ...any) {
	w := g.Stdout
	if w == nil {
		w = os.Stdout
	}
	_, _ = fmt.Fprintf(w, format, args...)
}
