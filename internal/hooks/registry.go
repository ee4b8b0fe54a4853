package hooks

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	"git.home.luguber.info/inful/fwbuild/internal/buildctx"
	"git.home.luguber.info/inful/fwbuild/internal/logfields"
	"git.home.luguber.info/inful/fwbuild/internal/observability"
)

// Action runs at a lifecycle event and may append defines to the build context.
type Action func(ctx context.Context, bc *buildctx.Context) error

type registration struct {
	name   string
	action Action
}

// Registry holds the actions per event in registration order.
type Registry struct {
	mu      sync.Mutex
	actions map[Event][]registration
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{actions: map[Event][]registration{}}
}

// AddConfigureAction registers a configure-time action.
func (r *Registry) AddConfigureAction(name string, a Action) {
	r.add(Configure, name, a)
}

// AddPostAction registers an action that runs after target.
func (r *Registry) AddPostAction(target, name string, a Action) {
	r.add(PostAction(target), name, a)
}

func (r *Registry) add(e Event, name string, a Action) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions[e] = append(r.actions[e], registration{name: name, action: a})
}

// Registered returns the action names for e in firing order.
func (r *Registry) Registered(e Event) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	regs := r.actions[e]
	names := make([]string, 0, len(regs))
	for _, reg := range regs {
		names = append(names, reg.name)
	}
	return names
}

// FireResult lists what happened to each action.
type FireResult struct {
	Event  Event
	Ran    []string
	Failed []string
}

// Fire runs the actions for e sequentially. Errors and panics are logged and absorbed so
// later actions still run and the build is never aborted.
func (r *Registry) Fire(ctx context.Context, e Event, bc *buildctx.Context) FireResult {
	r.mu.Lock()
	regs := append([]registration(nil), r.actions[e]...)
	r.mu.Unlock()

	ctx = observability.WithEvent(ctx, string(e))
	res := FireResult{Event: e}
	if len(regs) == 0 {
		observability.DebugContext(ctx, "No actions registered for event")
		return res
	}
	for _, reg := range regs {
		res.Ran = append(res.Ran, reg.name)
		if err := runAction(ctx, reg, bc); err != nil {
			res.Failed = append(res.Failed, reg.name)
			observability.WarnContext(ctx, "Build hook action failed",
				logfields.Action(reg.name), logfields.Error(err))
		}
	}
	return res
}

func runAction(ctx context.Context, reg registration, bc *buildctx.Context) (err error) {
	defer func() {
		if p := recover(); p != nil {
			slog.Debug("Recovered hook panic", logfields.Action(reg.name), slog.String("stack", string(debug.Stack())))
			err = fmt.Errorf("action %s panicked: %v", reg.name, p)
		}
	}()
	return reg.action(ctx, bc)
}
