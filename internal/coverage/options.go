package coverage

import (
	"path/filepath"
	"slices"

	"git.home.luguber.info/inful/fwbuild/internal/config"
)

// Options configure the guard and the pipeline. Relative paths are resolved against
// WorkDir, which is also the working directory of every tool.
type Options struct {
	Environment    string
	Flag           string
	Targets        []string
	WorkDir        string
	Directory      string
	BaseDirectory  string
	RawFile        string
	FilteredFile   string
	ReportDir      string
	IgnoreErrors   []string
	TolerantRetry  bool
	RemovePatterns []string
	DataExtensions []string
	LcovBinary     string
	GenhtmlBinary  string
	InstallHint    string
}

// OptionsFromConfig copies a defaulted coverage configuration.
func OptionsFromConfig(c config.CoverageConfig) Options {
	return Options{
		Environment:    c.Environment,
		Flag:           c.Flag,
		Targets:        slices.Clone(c.Targets),
		Directory:      c.Directory,
		BaseDirectory:  c.BaseDirectory,
		RawFile:        c.RawFile,
		FilteredFile:   c.FilteredFile,
		ReportDir:      c.ReportDir,
		IgnoreErrors:   slices.Clone(c.IgnoreErrors),
		TolerantRetry:  c.TolerantCapture(),
		RemovePatterns: slices.Clone(c.RemovePatterns),
		DataExtensions: slices.Clone(c.DataExtensions),
		LcovBinary:     c.LcovBinary,
		GenhtmlBinary:  c.GenhtmlBinary,
		InstallHint:    c.InstallHint,
	}
}

// DefaultOptions are the options of an empty fwbuild.yaml.
func DefaultOptions() Options {
	return OptionsFromConfig(config.Default().Coverage)
}

// ReportIndex is the path of the generated index page as printed to the user.
func (o Options) ReportIndex() string {
	return filepath.ToSlash(filepath.Join(o.ReportDir, "index.html"))
}

// removePatterns never returns an empty list: lcov --remove without a glob is an error.
func (o Options) removePatterns() []string {
	if len(o.RemovePatterns) == 0 {
		return config.DefaultRemovePatterns()
	}
	return o.RemovePatterns
}

func (o Options) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || o.WorkDir == "" {
		return p
	}
	return filepath.Join(o.WorkDir, p)
}
