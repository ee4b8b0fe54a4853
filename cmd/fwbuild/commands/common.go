package commands

import (
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/fwbuild/internal/cli"
	"git.home.luguber.info/inful/fwbuild/internal/config"
)

// Global carries shared state into every command's Run.
type Global struct {
	Logger   *slog.Logger
	Executor cli.CommandExecutor
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"fwbuild.yaml" env:"FWBUILD_CONFIG"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Hook     HookCmd     `cmd:"" help:"Fire a build lifecycle event (configure, post:<target>)"`
	Coverage CoverageCmd `cmd:"" help:"Generate the HTML coverage report"`
	Stamp    StampCmd    `cmd:"" help:"Resolve and print the firmware version"`
	Init     InitCmd     `cmd:"" help:"Write an example fwbuild.yaml"`
}

// AfterApply runs after flag parsing; setup logging once. The logging section of the
// configuration is honoured when the file parses; load errors surface later from the command.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	slog.SetDefault(NewLogger(os.Stderr, c.Verbose, c.Config))
	return nil
}

// NewLogger builds the process logger from --verbose, FWBUILD_LOG_LEVEL and the config file.
func NewLogger(w io.Writer, verbose bool, configPath string) *slog.Logger {
	logging := config.LoggingConfig{}
	if cfg, err := config.Load(configPath); err == nil {
		logging = cfg.Logging
	}
	opts := &slog.HandlerOptions{Level: config.ResolveLogLevel(verbose, logging.Level)}
	if logging.Format == config.LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// ContextFlags select and override the build context.
type ContextFlags struct {
	Context    string   `help:"Build context file (YAML); PIOENV/BUILD_FLAGS are used when empty" type:"path"`
	Env        string   `help:"Override the build environment name"`
	BuildFlags []string `name:"build-flag" sep:"none" help:"Additional build flag (repeatable, use --build-flag=--coverage for dashed values)"`
}

func (f ContextFlags) source() cli.ContextSource {
	return cli.ContextSource{ContextFile: f.Context, Environment: f.Env, BuildFlags: f.BuildFlags}
}
