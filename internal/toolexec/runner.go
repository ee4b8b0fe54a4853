package toolexec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"git.home.luguber.info/inful/fwbuild/internal/logfields"
)

// ErrToolNotFound is returned when the requested binary is not on PATH.
var ErrToolNotFound = errors.New("tool not found")

// Command describes a single external process invocation.
type Command struct {
	Name string
	Args []string
	Dir  string
	// Quiet discards both output streams (used for availability probes).
	Quiet bool
	// Capture collects stdout/stderr into the Result instead of streaming them.
	Capture bool
}

// String renders the command line the way a shell user would type it.
func (c Command) String() string {
	parts := make([]string, 0, len(c.Args)+1)
	parts = append(parts, c.Name)
	for _, a := range c.Args {
		parts = append(parts, shellQuote(a))
	}
	return strings.Join(parts, " ")
}

// Result is the outcome of a process that was started.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// OK reports whether the process exited with status zero.
func (r Result) OK() bool { return r.ExitCode == 0 }

// Runner executes external commands.
type Runner interface {
	Run(ctx context.Context, cmd Command) (Result, error)
	LookPath(name string) (string, error)
}

// ExecRunner runs commands with os/exec, streaming tool output to Stdout/Stderr.
type ExecRunner struct {
	Stdout io.Writer
	Stderr io.Writer
}

// NewExecRunner returns a runner wired to the process' standard streams.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{Stdout: os.Stdout, Stderr: os.Stderr}
}

// LookPath resolves name on PATH.
func (r *ExecRunner) LookPath(name string) (string, error) {
	p, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrToolNotFound, name, err)
	}
	return p, nil
}

// Run starts the command and waits for it. No timeout is applied beyond ctx.
func (r *ExecRunner) Run(ctx context.Context, c Command) (Result, error) {
	path, err := r.LookPath(c.Name)
	if err != nil {
		return Result{ExitCode: -1}, err
	}

	// #nosec G204 -- binaries come from configuration, arguments are built internally
	cmd := exec.CommandContext(ctx, path, c.Args...)
	cmd.Dir = c.Dir

	var stdout, stderr bytes.Buffer
	switch {
	case c.Quiet:
		cmd.Stdout = io.Discard
		cmd.Stderr = io.Discard
	case c.Capture:
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
	default:
		cmd.Stdout = r.out()
		cmd.Stderr = r.errOut()
	}

	slog.Debug("Running external tool", logfields.Tool(c.Name), slog.String("command", c.String()), logfields.Path(c.Dir))

	runErr := cmd.Run()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if runErr == nil {
		return res, nil
	}

	var ee *exec.ExitError
	if errors.As(runErr, &ee) {
		res.ExitCode = ee.ExitCode()
		if res.ExitCode < 0 {
			// killed by a signal
			res.ExitCode = 1
		}
		if ctx.Err() != nil {
			return res, fmt.Errorf("%s interrupted: %w", c.Name, ctx.Err())
		}
		return res, nil
	}
	res.ExitCode = -1
	return res, fmt.Errorf("start %s: %w", c.Name, runErr)
}

func (r *ExecRunner) out() io.Writer {
	if r.Stdout == nil {
		return os.Stdout
	}
	return r.Stdout
}

func (r *ExecRunner) errOut() io.Writer {
	if r.Stderr == nil {
		return os.Stderr
	}
	return r.Stderr
}

// shellQuote single-quotes arguments containing glob or shell metacharacters.
func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	if !strings.ContainsAny(s, " \t\n*?[]'\"$`\\|&;<>(){}#~!") {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
