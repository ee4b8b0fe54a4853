package coverage

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/fwbuild/internal/buildctx"
	fwerrors "git.home.luguber.info/inful/fwbuild/internal/errors"
	"git.home.luguber.info/inful/fwbuild/internal/metrics"
	"git.home.luguber.info/inful/fwbuild/internal/toolexec"
)

const (
	captureLine = "lcov --capture --directory . --base-directory . --output-file coverage.info --ignore-errors gcov,graph"
	strictLine  = "lcov --capture --directory . --base-directory . --output-file coverage.info"
	filterLine  = "lcov --remove coverage.info '/usr/*' '*/test/*' '*/.pio/*' '*/lib/*' --output-file coverage_filtered.info"
	renderLine  = "genhtml coverage_filtered.info --output-directory coverage_report"
)

const filteredTrace = `TN:
SF:/work/src/main.c
FNF:2
FNH:1
DA:1,4
DA:2,0
DA:3,1
end_of_record
`

func writeFileEffect(t *testing.T, name, content string) func(toolexec.Command) {
	t.Helper()
	return func(cmd toolexec.Command) {
		path := filepath.Join(cmd.Dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}
}

type stageRecorder struct {
	results  map[string]metrics.ResultLabel
	coverage float64
}

func (r *stageRecorder) ObserveStageDuration(string, time.Duration) {}
func (r *stageRecorder) IncStageResult(stage string, res metrics.ResultLabel) {
	r.results[stage] = res
}
func (r *stageRecorder) SetLineCoverage(ratio float64) { r.coverage = ratio }
func (r *stageRecorder) IncVersionSource(string)       {}

func newTestGenerator(t *testing.T, runner toolexec.Runner) (*Generator, *bytes.Buffer) {
	t.Helper()
	opts := DefaultOptions()
	opts.WorkDir = t.TempDir()
	g := NewGenerator(opts, runner)
	var out bytes.Buffer
	g.Stdout = &out
	return g, &out
}

// happyRunner produces every artifact the real tools would.
func happyRunner(t *testing.T) *toolexec.FakeRunner {
	return toolexec.NewFakeRunner().
		On(toolexec.FakeResponse{Prefix: "lcov --capture", Effect: writeFileEffect(t, "coverage.info", filteredTrace)}).
		On(toolexec.FakeResponse{Prefix: "lcov --remove", Effect: writeFileEffect(t, "coverage_filtered.info", filteredTrace)}).
		On(toolexec.FakeResponse{Prefix: "genhtml", Effect: writeFileEffect(t, "coverage_report/index.html", "<html></html>")})
}

func TestShouldRun(t *testing.T) {
	opts := DefaultOptions()
	tests := []struct {
		name string
		bc   *buildctx.Context
		want Decision
	}{
		{"native with flag", buildctx.New("native", "--coverage"), Decision{Run: true, Reason: ReasonEnabled}},
		{"compound flag", buildctx.New("native", "-O0 --coverage"), Decision{Run: true, Reason: ReasonEnabled}},
		{"flag missing", buildctx.New("native", "-O2"), Decision{Reason: ReasonFlagMissing}},
		{"other environment", buildctx.New("esp32", "--coverage"), Decision{Reason: ReasonWrongEnvironment}},
		{"nil context", nil, Decision{Reason: ReasonWrongEnvironment}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShouldRun(tt.bc, opts))
		})
	}
}

func TestRunGuarded_NonNativeDoesNothing(t *testing.T) {
	runner := toolexec.NewFakeRunner()
	g, out := newTestGenerator(t, runner)

	rep := g.RunGuarded(context.Background(), buildctx.New("esp32", "--coverage"))

	assert.True(t, rep.Skipped)
	assert.Equal(t, ReasonWrongEnvironment, rep.Reason)
	assert.Empty(t, runner.Calls)
	assert.Empty(t, out.String())
	entries, err := os.ReadDir(g.Options.WorkDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRun_MissingLcov(t *testing.T) {
	runner := toolexec.NewFakeRunner().WithMissing("lcov")
	g, out := newTestGenerator(t, runner)

	rep := g.Run(context.Background())

	assert.False(t, rep.Completed)
	assert.Equal(t, StageToolcheck, rep.FailedStage)
	assert.Equal(t, []string{"lcov --version"}, runner.CommandLines())
	assert.Empty(t, runner.CallsTo("genhtml"))
	assert.NoFileExists(t, filepath.Join(g.Options.WorkDir, "coverage.info"))
	assert.Contains(t, out.String(), "Warning: 'lcov' not found. Coverage report will not be generated.")
	assert.Contains(t, out.String(), "apt-get install lcov")
	assert.True(t, fwerrors.IsCategory(rep.Err(), fwerrors.CategoryTool))
}

func TestRun_FullPipeline(t *testing.T) {
	runner := happyRunner(t)
	g, out := newTestGenerator(t, runner)
	rec := &stageRecorder{results: map[string]metrics.ResultLabel{}}
	g.Recorder = rec

	gcda := filepath.Join(g.Options.WorkDir, ".pio", "build", "native", "main.gcda")
	require.NoError(t, os.MkdirAll(filepath.Dir(gcda), 0o750))
	require.NoError(t, os.WriteFile(gcda, nil, 0o600))

	rep := g.Run(context.Background())

	require.True(t, rep.Completed, "report: %+v", rep)
	require.NoError(t, rep.Err())
	assert.Equal(t, []string{"lcov --version", captureLine, filterLine, renderLine}, runner.CommandLines())
	assert.Equal(t, []string{gcda}, rep.DataFiles)
	require.NotNil(t, rep.Summary)
	assert.Equal(t, 3, rep.Summary.LinesFound)
	assert.Equal(t, 2, rep.Summary.LinesHit)
	assert.Empty(t, rep.Leaked)
	assert.InDelta(t, 2.0/3.0, rec.coverage, 0.0001)
	assert.Equal(t, metrics.ResultSuccess, rec.results["render"])

	stdout := out.String()
	assert.Contains(t, stdout, "Executing: "+captureLine+"\n")
	assert.Contains(t, stdout, "Listing .gcno and .gcda files:\n")
	assert.True(t, strings.HasSuffix(stdout, "Coverage report generated in coverage_report/index.html\n"), stdout)
}

func TestRun_CaptureRetriesWithoutIgnoreErrors(t *testing.T) {
	runner := toolexec.NewFakeRunner().
		On(toolexec.FakeResponse{Prefix: "lcov --capture", Result: toolexec.Result{ExitCode: 1}, Times: 1})
	g, out := newTestGenerator(t, runner)

	rep := g.Run(context.Background())

	captures := runner.CallsTo("lcov")
	require.GreaterOrEqual(t, len(captures), 3)
	assert.Equal(t, []string{"lcov --version", captureLine, strictLine, filterLine, renderLine}, runner.CommandLines())
	sr, ok := rep.Stage(StageCapture)
	require.True(t, ok)
	assert.Equal(t, OutcomeSuccess, sr.Outcome)
	assert.Equal(t, 2, sr.Attempts)
	assert.Contains(t, out.String(), "Error: lcov capture failed with return code 1\n")
	assert.Contains(t, out.String(), "Retrying without --ignore-errors...\n")
}

func TestRun_CaptureFailsTwice(t *testing.T) {
	runner := toolexec.NewFakeRunner().
		On(toolexec.FakeResponse{Prefix: "lcov --capture", Result: toolexec.Result{ExitCode: 255}})
	g, out := newTestGenerator(t, runner)

	rep := g.Run(context.Background())

	assert.Equal(t, StageCapture, rep.FailedStage)
	assert.Equal(t, []string{"lcov --version", captureLine, strictLine}, runner.CommandLines())
	assert.Contains(t, out.String(), "Error: lcov capture failed again with return code 255\n")
	assert.NotContains(t, out.String(), "Coverage report generated")
	ce, ok := fwerrors.As(rep.Err())
	require.True(t, ok)
	assert.Equal(t, 255, ce.Context["exit_code"])
}

func TestRun_StrictCaptureHasNoRetry(t *testing.T) {
	runner := toolexec.NewFakeRunner().
		On(toolexec.FakeResponse{Prefix: "lcov --capture", Result: toolexec.Result{ExitCode: 1}})
	g, _ := newTestGenerator(t, runner)
	g.Options.TolerantRetry = false

	rep := g.Run(context.Background())

	assert.Equal(t, StageCapture, rep.FailedStage)
	assert.Equal(t, []string{"lcov --version", strictLine}, runner.CommandLines())
}

func TestRun_FilterFailureStopsBeforeRender(t *testing.T) {
	runner := toolexec.NewFakeRunner().
		On(toolexec.FakeResponse{Prefix: "lcov --remove", Result: toolexec.Result{ExitCode: 2}})
	g, out := newTestGenerator(t, runner)

	rep := g.Run(context.Background())

	assert.Equal(t, StageFilter, rep.FailedStage)
	assert.Empty(t, runner.CallsTo("genhtml"))
	assert.Contains(t, out.String(), "Error: lcov filter failed with return code 2\n")
}

func TestRun_RenderFailureStops(t *testing.T) {
	runner := toolexec.NewFakeRunner().
		On(toolexec.FakeResponse{Prefix: "lcov --remove", Effect: writeFileEffect(t, "coverage_filtered.info", filteredTrace)}).
		On(toolexec.FakeResponse{Prefix: "genhtml", Result: toolexec.Result{ExitCode: 2}})
	g, out := newTestGenerator(t, runner)

	rep := g.Run(context.Background())

	assert.False(t, rep.Completed)
	assert.Equal(t, StageRender, rep.FailedStage)
	assert.Nil(t, rep.Summary)
	_, summarised := rep.Stage(StageSummary)
	assert.False(t, summarised)
	assert.Contains(t, out.String(), "Error: genhtml failed with return code 2\n")
	assert.NotContains(t, out.String(), "Coverage report generated in")
	assert.Equal(t, []string{"lcov --version", captureLine, filterLine, renderLine}, runner.CommandLines())

	require.NoError(t, g.Action()(context.Background(), buildctx.New("native", "--coverage")))
}

func TestRun_EmptyRemovePatternsUseDefaults(t *testing.T) {
	runner := toolexec.NewFakeRunner()
	g, _ := newTestGenerator(t, runner)
	g.Options.RemovePatterns = nil

	g.Run(context.Background())

	assert.Contains(t, runner.CommandLines(), filterLine)
}

func TestRun_FilterArgumentsExcludeTestsAndSystemHeaders(t *testing.T) {
	runner := toolexec.NewFakeRunner()
	g, _ := newTestGenerator(t, runner)
	g.Run(context.Background())

	var removeArgs []string
	for _, c := range runner.CallsTo("lcov") {
		if len(c.Args) > 0 && c.Args[0] == "--remove" {
			removeArgs = c.Args
		}
	}
	require.NotEmpty(t, removeArgs)
	for _, p := range []string{"/usr/*", "*/test/*", "*/.pio/*", "*/lib/*"} {
		assert.Contains(t, removeArgs, p)
	}
}

func TestRun_SummaryWarnsAboutLeakedFiles(t *testing.T) {
	leaky := filteredTrace + "SF:/usr/include/stdio.h\nDA:1,1\nend_of_record\n"
	runner := toolexec.NewFakeRunner().
		On(toolexec.FakeResponse{Prefix: "lcov --remove", Effect: writeFileEffect(t, "coverage_filtered.info", leaky)})
	g, _ := newTestGenerator(t, runner)

	rep := g.Run(context.Background())

	assert.True(t, rep.Completed)
	assert.Equal(t, []string{"/usr/include/stdio.h"}, rep.Leaked)
	sr, ok := rep.Stage(StageSummary)
	require.True(t, ok)
	assert.Equal(t, OutcomeWarning, sr.Outcome)
}

func TestRun_MissingFilteredFileOnlyWarns(t *testing.T) {
	g, _ := newTestGenerator(t, toolexec.NewFakeRunner())

	rep := g.Run(context.Background())

	assert.True(t, rep.Completed)
	assert.Nil(t, rep.Summary)
	sr, ok := rep.Stage(StageSummary)
	require.True(t, ok)
	assert.Equal(t, OutcomeWarning, sr.Outcome)
}

func TestAction_AlwaysNil(t *testing.T) {
	runner := toolexec.NewFakeRunner().WithMissing("lcov")
	g, _ := newTestGenerator(t, runner)
	act := g.Action()

	require.NoError(t, act(context.Background(), buildctx.New("esp32")))
	assert.Empty(t, runner.Calls)

	require.NoError(t, act(context.Background(), buildctx.New("native", "--coverage")))
	assert.Len(t, runner.Calls, 1)
}

func TestRun_CanceledContext(t *testing.T) {
	runner := toolexec.NewFakeRunner()
	g, _ := newTestGenerator(t, runner)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rep := g.Run(ctx)
	assert.False(t, rep.Completed)
	assert.Equal(t, StageToolcheck, rep.FailedStage)
	assert.Empty(t, runner.Calls)
}
