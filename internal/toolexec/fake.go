package toolexec

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// FakeResponse scripts the outcome of a command whose rendered line starts with Prefix.
type FakeResponse struct {
	Prefix string
	Result Result
	Err    error
	// Times limits how often the response is used; 0 means unlimited.
	Times int
	// Effect runs when the response is selected (e.g. to create an output file).
	Effect func(cmd Command)
}

// FakeRunner is an in-memory Runner for tests. Unscripted commands succeed with exit code 0.
type FakeRunner struct {
	mu        sync.Mutex
	Missing   map[string]bool
	responses []*FakeResponse
	used      map[*FakeResponse]int
	Calls     []Command
}

// NewFakeRunner creates an empty fake.
func NewFakeRunner() *FakeRunner {
	return &FakeRunner{Missing: map[string]bool{}, used: map[*FakeResponse]int{}}
}

// On registers a scripted response. Earlier registrations win.
func (f *FakeRunner) On(resp FakeResponse) *FakeRunner {
	f.mu.Lock()
	defer f.mu.Unlock()
	r := resp
	f.responses = append(f.responses, &r)
	return f
}

// WithMissing marks tools as absent from PATH.
func (f *FakeRunner) WithMissing(names ...string) *FakeRunner {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, n := range names {
		f.Missing[n] = true
	}
	return f
}

// LookPath fails for tools marked missing.
func (f *FakeRunner) LookPath(name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Missing[name] {
		return "", fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}
	return "/usr/bin/" + name, nil
}

// Run records the call and returns the first matching scripted response.
func (f *FakeRunner) Run(_ context.Context, cmd Command) (Result, error) {
	f.mu.Lock()
	f.Calls = append(f.Calls, cmd)
	if f.Missing[cmd.Name] {
		f.mu.Unlock()
		return Result{ExitCode: -1}, fmt.Errorf("%w: %s", ErrToolNotFound, cmd.Name)
	}
	line := cmd.String()
	var match *FakeResponse
	for _, r := range f.responses {
		if !strings.HasPrefix(line, r.Prefix) {
			continue
		}
		if r.Times > 0 && f.used[r] >= r.Times {
			continue
		}
		f.used[r]++
		match = r
		break
	}
	f.mu.Unlock()

	if match == nil {
		return Result{}, nil
	}
	if match.Effect != nil {
		match.Effect(cmd)
	}
	return match.Result, match.Err
}

// CommandLines returns the rendered command lines in call order.
func (f *FakeRunner) CommandLines() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.Calls))
	for _, c := range f.Calls {
		out = append(out, c.String())
	}
	return out
}

// CallsTo returns the recorded invocations of the named tool.
func (f *FakeRunner) CallsTo(name string) []Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Command
	for _, c := range f.Calls {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}
