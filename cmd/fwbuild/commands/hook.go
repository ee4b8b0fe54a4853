package commands

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/fwbuild/internal/cli"
	"git.home.luguber.info/inful/fwbuild/internal/logfields"
	"git.home.luguber.info/inful/fwbuild/internal/observability"
)

// HookCmd implements the 'hook' command.
type HookCmd struct {
	Event        string `arg:"" help:"Lifecycle event: configure or post:<target>"`
	PrintDefines bool   `help:"Print the build context defines after the event"`
	ContextFlags
}

func (h *HookCmd) Run(g *Global, root *CLI) error {
	ctx := observability.WithRunID(context.Background(), observability.NewRunID())
	result := g.Executor.ExecuteHook(ctx, cli.HookRequest{
		ConfigPath:    root.Config,
		Event:         h.Event,
		ContextSource: h.source(),
		PrintDefines:  h.PrintDefines,
	})
	if result.IsErr() {
		return result.UnwrapErr()
	}
	resp := result.Unwrap()
	g.Logger.Debug("Hook event handled",
		logfields.Event(string(resp.Event)),
		slog.Int("actions", len(resp.Ran)),
		slog.Int("failed", len(resp.Failed)))
	return nil
}
