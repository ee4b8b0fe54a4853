package config

// Default values mirror the PlatformIO native test setup the tool was written for.
const (
	DefaultCoverageEnvironment = "native"
	DefaultCoverageFlag        = "--coverage"
	DefaultRawFile             = "coverage.info"
	DefaultFilteredFile        = "coverage_filtered.info"
	DefaultReportDir           = "coverage_report"
	DefaultLcovBinary          = "lcov"
	DefaultGenhtmlBinary       = "genhtml"
	DefaultInstallHint         = "To enable coverage, please install 'lcov' (e.g., 'brew install lcov' on macOS, 'apt-get install lcov' on Debian/Ubuntu)."

	DefaultMacro     = "FIRMWARE_VERSION"
	DefaultFallback  = "v0.0.0-dev"
	DefaultGitBinary = "git"
)

// DefaultTargets are the build targets that receive the coverage post-action.
func DefaultTargets() []string { return []string{"test", "check"} }

// DefaultIgnoreErrors are the lcov error classes tolerated on the first capture attempt.
func DefaultIgnoreErrors() []string { return []string{"gcov", "graph"} }

// DefaultRemovePatterns drop system headers, tests, PlatformIO build output and vendored libraries.
func DefaultRemovePatterns() []string {
	return []string{"/usr/*", "*/test/*", "*/.pio/*", "*/lib/*"}
}

// DefaultDataExtensions are the gcov note/data file suffixes listed before capture.
func DefaultDataExtensions() []string { return []string{".gcno", ".gcda"} }

// applyDefaults fills every unset field.
func applyDefaults(cfg *Config) {
	if cfg.Version == "" {
		cfg.Version = CurrentVersion
	}

	cov := &cfg.Coverage
	setString(&cov.Environment, DefaultCoverageEnvironment)
	setString(&cov.Flag, DefaultCoverageFlag)
	setString(&cov.Directory, ".")
	setString(&cov.BaseDirectory, ".")
	setString(&cov.RawFile, DefaultRawFile)
	setString(&cov.FilteredFile, DefaultFilteredFile)
	setString(&cov.ReportDir, DefaultReportDir)
	setString(&cov.LcovBinary, DefaultLcovBinary)
	setString(&cov.GenhtmlBinary, DefaultGenhtmlBinary)
	setString(&cov.InstallHint, DefaultInstallHint)
	if len(cov.Targets) == 0 {
		cov.Targets = DefaultTargets()
	}
	if cov.IgnoreErrors == nil {
		cov.IgnoreErrors = DefaultIgnoreErrors()
	}
	if len(cov.RemovePatterns) == 0 {
		cov.RemovePatterns = DefaultRemovePatterns()
	}
	if len(cov.DataExtensions) == 0 {
		cov.DataExtensions = DefaultDataExtensions()
	}
	if cov.TolerantRetry == nil {
		enabled := true
		cov.TolerantRetry = &enabled
	}

	st := &cfg.Stamp
	setString(&st.Macro, DefaultMacro)
	setString(&st.Fallback, DefaultFallback)
	setString(&st.Repository, ".")
	setString(&st.GitBinary, DefaultGitBinary)
	if st.Backend == "" {
		st.Backend = GitBackendAuto
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = LogLevelInfo
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = LogFormatText
	}
}

func setString(field *string, def string) {
	if *field == "" {
		*field = def
	}
}
