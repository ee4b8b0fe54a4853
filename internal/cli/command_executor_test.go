package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/fwbuild/internal/buildctx"
	"git.home.luguber.info/inful/fwbuild/internal/coverage"
	fwerrors "git.home.luguber.info/inful/fwbuild/internal/errors"
	"git.home.luguber.info/inful/fwbuild/internal/hooks"
	"git.home.luguber.info/inful/fwbuild/internal/stamp"
	"git.home.luguber.info/inful/fwbuild/internal/toolexec"
)

const exactMatch = "git describe --tags --exact-match"

func newTestExecutor(t *testing.T, runner toolexec.Runner, env map[string]string) (*DefaultCommandExecutor, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	e := NewCommandExecutor().
		WithRunner(runner).
		WithStdout(&out).
		WithGetenv(func(k string) string { return env[k] })
	return e, &out
}

// missingConfig points at a file that does not exist, so defaults apply.
func missingConfig(t *testing.T) string {
	return filepath.Join(t.TempDir(), "fwbuild.yaml")
}

func taggedRunner() *toolexec.FakeRunner {
	return toolexec.NewFakeRunner().
		On(toolexec.FakeResponse{Prefix: exactMatch, Result: toolexec.Result{Stdout: "v1.2.3\n"}})
}

func TestCommandExecutorInit(t *testing.T) {
	e, _ := newTestExecutor(t, toolexec.NewFakeRunner(), nil)
	configPath := filepath.Join(t.TempDir(), "fwbuild.yaml")

	result := e.ExecuteInit(context.Background(), InitRequest{ConfigPath: configPath})
	require.True(t, result.IsOk(), "init failed: %v", result)
	assert.Equal(t, configPath, result.Unwrap().ConfigPath)
	assert.FileExists(t, configPath)

	again := e.ExecuteInit(context.Background(), InitRequest{ConfigPath: configPath})
	require.True(t, again.IsErr())
	assert.True(t, fwerrors.IsCategory(again.UnwrapErr(), fwerrors.CategoryConfig))

	forced := e.ExecuteInit(context.Background(), InitRequest{ConfigPath: configPath, Force: true})
	assert.True(t, forced.IsOk())
}

func TestExecuteHook_InvalidEvent(t *testing.T) {
	e, _ := newTestExecutor(t, toolexec.NewFakeRunner(), nil)
	result := e.ExecuteHook(context.Background(), HookRequest{ConfigPath: missingConfig(t), Event: "pre:test"})
	require.True(t, result.IsErr())
	assert.True(t, fwerrors.IsCategory(result.UnwrapErr(), fwerrors.CategoryValidation))
}

func TestExecuteHook_InvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fwbuild.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: \"9.9\"\n"), 0o600))

	e, _ := newTestExecutor(t, toolexec.NewFakeRunner(), nil)
	result := e.ExecuteHook(context.Background(), HookRequest{ConfigPath: path, Event: "configure"})
	require.True(t, result.IsErr())
	assert.True(t, fwerrors.IsCategory(result.UnwrapErr(), fwerrors.CategoryConfig))
}

func TestExecuteHook_ConfigureStampsContextFile(t *testing.T) {
	e, out := newTestExecutor(t, taggedRunner(), nil)
	var progress bytes.Buffer
	e.WithStderr(&progress)
	ctxFile := filepath.Join(t.TempDir(), "build-context.yaml")

	result := e.ExecuteHook(context.Background(), HookRequest{
		ConfigPath:    missingConfig(t),
		Event:         "configure",
		ContextSource: ContextSource{ContextFile: ctxFile, Environment: "esp32dev"},
		PrintDefines:  true,
	})
	require.True(t, result.IsOk())
	resp := result.Unwrap()
	assert.Equal(t, hooks.Configure, resp.Event)
	assert.Equal(t, []string{hooks.ActionStampVersion}, resp.Ran)

	saved, err := buildctx.Load(ctxFile)
	require.NoError(t, err)
	assert.Equal(t, "esp32dev", saved.Environment)
	def, ok := saved.Define("FIRMWARE_VERSION")
	require.True(t, ok)
	assert.Equal(t, "v1.2.3", def.Unquoted())

	assert.Contains(t, progress.String(), "Firmware version: v1.2.3\n")
	assert.Equal(t, `FIRMWARE_VERSION=\"v1.2.3\"`+"\n", out.String())
}

func TestExecuteHook_PrintDefinesKeepsStdoutClean(t *testing.T) {
	e, out := newTestExecutor(t, taggedRunner(), map[string]string{
		buildctx.EnvEnvironment: "native",
		buildctx.EnvBuildFlags:  "--coverage",
	})
	var progress bytes.Buffer
	e.WithStderr(&progress)

	result := e.ExecuteHook(context.Background(), HookRequest{
		ConfigPath:   missingConfig(t),
		Event:        "configure",
		PrintDefines: true,
	})
	require.True(t, result.IsOk())

	assert.Equal(t, `FIRMWARE_VERSION=\"v1.2.3\"`+"\n", out.String())
	assert.Contains(t, progress.String(), "Registering coverage generation post-action...\n")
	assert.Contains(t, progress.String(), "Firmware version: v1.2.3\n")
}

func TestExecuteHook_ProgressOnStdoutWithoutPrintDefines(t *testing.T) {
	e, out := newTestExecutor(t, taggedRunner(), nil)
	var progress bytes.Buffer
	e.WithStderr(&progress)

	result := e.ExecuteHook(context.Background(), HookRequest{ConfigPath: missingConfig(t), Event: "configure"})
	require.True(t, result.IsOk())

	assert.Equal(t, "Firmware version: v1.2.3\n", out.String())
	assert.Empty(t, progress.String())
}

func TestExecuteHook_PostTestFromEnvironment(t *testing.T) {
	runner := toolexec.NewFakeRunner().WithMissing("lcov")
	e, out := newTestExecutor(t, runner, map[string]string{
		buildctx.EnvEnvironment: "native",
		buildctx.EnvBuildFlags:  "-O0 --coverage",
	})

	result := e.ExecuteHook(context.Background(), HookRequest{ConfigPath: missingConfig(t), Event: "post:test"})
	require.True(t, result.IsOk())
	resp := result.Unwrap()
	assert.True(t, resp.Coverage.Run)
	assert.Equal(t, []string{hooks.ActionGenerateCoverage}, resp.Ran)
	assert.Empty(t, resp.Failed)
	assert.Equal(t, []string{"lcov --version"}, runner.CommandLines())
	assert.Contains(t, out.String(), "Registering coverage generation post-action...")
}

func TestExecuteCoverage_GuardedSkip(t *testing.T) {
	runner := toolexec.NewFakeRunner()
	e, _ := newTestExecutor(t, runner, map[string]string{buildctx.EnvEnvironment: "esp32dev"})

	result := e.ExecuteCoverage(context.Background(), CoverageRequest{ConfigPath: missingConfig(t), WorkDir: t.TempDir()})
	require.True(t, result.IsOk())
	rep := result.Unwrap().Report
	assert.True(t, rep.Skipped)
	assert.Equal(t, coverage.ReasonWrongEnvironment, rep.Reason)
	assert.Empty(t, runner.Calls)
}

func TestExecuteCoverage_ManualIgnoresGuard(t *testing.T) {
	runner := toolexec.NewFakeRunner().WithMissing("lcov")
	e, _ := newTestExecutor(t, runner, nil)

	result := e.ExecuteCoverage(context.Background(), CoverageRequest{ConfigPath: missingConfig(t), Manual: true, WorkDir: t.TempDir()})
	require.True(t, result.IsOk())
	rep := result.Unwrap().Report
	assert.False(t, rep.Skipped)
	assert.Equal(t, coverage.StageToolcheck, rep.FailedStage)
}

func TestExecuteStamp_Formats(t *testing.T) {
	e, out := newTestExecutor(t, taggedRunner(), nil)

	result := e.ExecuteStamp(context.Background(), StampRequest{ConfigPath: missingConfig(t), Format: "json", Backend: "cli"})
	require.True(t, result.IsOk())
	resp := result.Unwrap()
	assert.Equal(t, stamp.Resolution{Version: "v1.2.3", Source: stamp.SourceExactTag}, resp.Resolution)
	assert.Contains(t, out.String(), `"version": "v1.2.3"`)
	assert.NotContains(t, out.String(), "Firmware version:")

	bad := e.ExecuteStamp(context.Background(), StampRequest{ConfigPath: missingConfig(t), Format: "toml"})
	require.True(t, bad.IsErr())
	assert.True(t, fwerrors.IsCategory(bad.UnwrapErr(), fwerrors.CategoryValidation))
}

func TestExecuteStamp_WritesOutputFile(t *testing.T) {
	e, out := newTestExecutor(t, taggedRunner(), nil)
	output := filepath.Join(t.TempDir(), "include", "version.h")

	result := e.ExecuteStamp(context.Background(), StampRequest{
		ConfigPath: missingConfig(t), Format: "header", Output: output, Backend: "cli",
	})
	require.True(t, result.IsOk())
	assert.Equal(t, output, result.Unwrap().Written)
	assert.Empty(t, out.String())

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(data), `#define FIRMWARE_VERSION "v1.2.3"`)
}

func TestExecuteStamp_FallbackWithoutRepository(t *testing.T) {
	e, out := newTestExecutor(t, toolexec.NewFakeRunner(), nil)

	result := e.ExecuteStamp(context.Background(), StampRequest{
		ConfigPath: missingConfig(t), Backend: "native", Repository: t.TempDir(),
	})
	require.True(t, result.IsOk())
	assert.Equal(t, stamp.SourceFallback, result.Unwrap().Resolution.Source)
	assert.Equal(t, "v0.0.0-dev\n", out.String())
}

func TestExecuteStamp_MetricsTextfile(t *testing.T) {
	dir := t.TempDir()
	textfile := filepath.Join(dir, "fwbuild.prom")
	configPath := filepath.Join(dir, "fwbuild.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("version: \"1.0\"\nmetrics:\n  textfile: "+textfile+"\nstamp:\n  backend: cli\n"), 0o600))

	e, _ := newTestExecutor(t, taggedRunner(), nil)
	result := e.ExecuteStamp(context.Background(), StampRequest{ConfigPath: configPath})
	require.True(t, result.IsOk())

	data, err := os.ReadFile(textfile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `fwbuild_version_resolutions_total{source="exact-tag"} 1`)
}
