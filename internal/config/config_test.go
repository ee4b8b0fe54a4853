package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "fwbuild.yaml"))
	require.NoError(t, err)

	assert.Equal(t, CurrentVersion, cfg.Version)
	assert.Equal(t, "native", cfg.Coverage.Environment)
	assert.Equal(t, "--coverage", cfg.Coverage.Flag)
	assert.Equal(t, []string{"test", "check"}, cfg.Coverage.Targets)
	assert.Equal(t, []string{"/usr/*", "*/test/*", "*/.pio/*", "*/lib/*"}, cfg.Coverage.RemovePatterns)
	assert.Equal(t, []string{"gcov", "graph"}, cfg.Coverage.IgnoreErrors)
	assert.True(t, cfg.Coverage.TolerantCapture())
	assert.Equal(t, "FIRMWARE_VERSION", cfg.Stamp.Macro)
	assert.Equal(t, "v0.0.0-dev", cfg.Stamp.Fallback)
	assert.Equal(t, GitBackendAuto, cfg.Stamp.Backend)
	assert.Equal(t, LogFormatText, cfg.Logging.Format)
}

func TestLoad_OverridesAndEnvExpansion(t *testing.T) {
	t.Setenv("FW_REPORT_DIR", "out/cov")
	path := filepath.Join(t.TempDir(), "fwbuild.yaml")
	content := `version: "1.0"
coverage:
  environment: host
  targets: [test]
  report_dir: ${FW_REPORT_DIR}
  tolerant_retry: false
  remove_patterns: ['/usr/*', '*/test/*', '*/.pio/*']
stamp:
  macro: APP_VERSION
  backend: Go-Git
logging:
  level: WARNING
  format: JSON
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "host", cfg.Coverage.Environment)
	assert.Equal(t, []string{"test"}, cfg.Coverage.Targets)
	assert.Equal(t, "out/cov", cfg.Coverage.ReportDir)
	assert.False(t, cfg.Coverage.TolerantCapture())
	assert.Len(t, cfg.Coverage.RemovePatterns, 3)
	assert.Equal(t, "APP_VERSION", cfg.Stamp.Macro)
	assert.Equal(t, GitBackendNative, cfg.Stamp.Backend)
	assert.Equal(t, LogLevelWarn, cfg.Logging.Level)
	assert.Equal(t, LogFormatJSON, cfg.Logging.Format)
	assert.Equal(t, "coverage.info", cfg.Coverage.RawFile, "unset fields still defaulted")
}

func TestLoad_EmptyRemovePatternsUseDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fwbuild.yaml")
	require.NoError(t, os.WriteFile(path, []byte("coverage:\n  remove_patterns: []\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultRemovePatterns(), cfg.Coverage.RemovePatterns)
}

func TestValidateConfig_RejectsEmptyRemovePatterns(t *testing.T) {
	cfg := Default()
	cfg.Coverage.RemovePatterns = []string{}
	err := ValidateConfig(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "remove_patterns")
}

func TestLoad_Errors(t *testing.T) {
	tests := map[string]string{
		"bad yaml":        "coverage: [",
		"bad version":     `version: "9.9"`,
		"bad backend":     "stamp:\n  backend: svn\n",
		"bad macro":       "stamp:\n  macro: 1VERSION\n",
		"bad flag":        "coverage:\n  flag: coverage\n",
		"same tracefiles": "coverage:\n  raw_file: a.info\n  filtered_file: a.info\n",
		"bad level":       "logging:\n  level: loud\n",
		"blank glob":      "coverage:\n  remove_patterns: ['*/test/*', ' ']\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "fwbuild.yaml")
			require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fwbuild.yaml")
	require.NoError(t, Init(path, false))

	err := Init(path, false)
	require.Error(t, err, "existing file is not overwritten without force")
	require.NoError(t, Init(path, true))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default().Coverage.RemovePatterns, cfg.Coverage.RemovePatterns)
}

func TestResolveLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ResolveLogLevel(true, LogLevelError))

	t.Setenv(EnvLogLevel, "error")
	assert.Equal(t, slog.LevelError, ResolveLogLevel(false, LogLevelDebug))

	t.Setenv(EnvLogLevel, "")
	assert.Equal(t, slog.LevelWarn, ResolveLogLevel(false, LogLevelWarn))
}

func TestNormalizers(t *testing.T) {
	assert.Equal(t, GitBackendCLI, NormalizeGitBackend(" GIT "))
	assert.Equal(t, GitBackendAuto, NormalizeGitBackend("unknown"))
	assert.Equal(t, LogFormatText, NormalizeLogFormat("xml"))
	assert.Equal(t, LogLevelDebug, NormalizeLogLevel("Debug"))
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	require.Error(t, loadEnvFile())

	t.Setenv("FWBUILD_TEST_PRESET", "kept")
	require.NoError(t, os.WriteFile(".env", []byte("FWBUILD_TEST_FROM_DOTENV=loaded\nFWBUILD_TEST_PRESET=replaced\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("FWBUILD_TEST_FROM_DOTENV") })

	require.NoError(t, loadEnvFile())
	assert.Equal(t, "loaded", os.Getenv("FWBUILD_TEST_FROM_DOTENV"))
	assert.Equal(t, "kept", os.Getenv("FWBUILD_TEST_PRESET"))
}
