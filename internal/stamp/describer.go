package stamp

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"git.home.luguber.info/inful/fwbuild/internal/config"
	"git.home.luguber.info/inful/fwbuild/internal/git"
	"git.home.luguber.info/inful/fwbuild/internal/logfields"
	"git.home.luguber.info/inful/fwbuild/internal/toolexec"
)

// Describer answers the two git describe queries used for version resolution.
type Describer interface {
	ExactTag(ctx context.Context) (string, error)
	Describe(ctx context.Context) (string, error)
}

// CLIDescriber shells out to the git binary.
type CLIDescriber struct {
	Runner toolexec.Runner
	Binary string
	Dir    string
}

// ExactTag runs `git describe --tags --exact-match`.
func (d *CLIDescriber) ExactTag(ctx context.Context) (string, error) {
	return d.describe(ctx, "--tags", "--exact-match")
}

// Describe runs `git describe --tags --always`.
func (d *CLIDescriber) Describe(ctx context.Context) (string, error) {
	return d.describe(ctx, "--tags", "--always")
}

func (d *CLIDescriber) describe(ctx context.Context, flags ...string) (string, error) {
	bin := d.Binary
	if bin == "" {
		bin = config.DefaultGitBinary
	}
	// Capture keeps git's stderr ("fatal: no tag exactly matches") off the terminal.
	res, err := d.Runner.Run(ctx, toolexec.Command{
		Name:    bin,
		Args:    append([]string{"describe"}, flags...),
		Dir:     d.Dir,
		Capture: true,
	})
	if err != nil {
		return "", err
	}
	if !res.OK() {
		return "", fmt.Errorf("git describe %s exited with code %d", strings.Join(flags, " "), res.ExitCode)
	}
	return strings.TrimSpace(res.Stdout), nil
}

// NewDescriber selects the describer for backend. With GitBackendAuto the git binary is
// used when it is on PATH and the native reader otherwise.
func NewDescriber(backend config.GitBackend, runner toolexec.Runner, gitBinary, repoDir string) Describer {
	if gitBinary == "" {
		gitBinary = config.DefaultGitBinary
	}
	cli := &CLIDescriber{Runner: runner, Binary: gitBinary, Dir: repoDir}
	switch backend {
	case config.GitBackendCLI:
		return cli
	case config.GitBackendNative:
		return git.NewNativeDescriber(repoDir)
	default:
		if _, err := runner.LookPath(gitBinary); err == nil {
			return cli
		}
		slog.Debug("git binary not found, using native describer", logfields.Tool(gitBinary))
		return git.NewNativeDescriber(repoDir)
	}
}
