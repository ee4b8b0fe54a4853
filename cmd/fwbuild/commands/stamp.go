package commands

import (
	"context"

	"git.home.luguber.info/inful/fwbuild/internal/cli"
	"git.home.luguber.info/inful/fwbuild/internal/logfields"
	"git.home.luguber.info/inful/fwbuild/internal/observability"
)

// StampCmd implements the 'stamp' command.
type StampCmd struct {
	Format  string `short:"f" help:"Output format (plain, define, shell, json, header)" default:"plain" enum:"plain,define,shell,json,header"`
	Output  string `short:"o" help:"Write to this file instead of stdout" type:"path"`
	Repo    string `help:"Repository directory to describe" type:"path"`
	Backend string `help:"Git backend (auto, cli, native); overrides stamp.backend"`
}

func (s *StampCmd) Run(g *Global, root *CLI) error {
	ctx := observability.WithRunID(context.Background(), observability.NewRunID())
	resp, err := g.Executor.ExecuteStamp(ctx, cli.StampRequest{
		ConfigPath: root.Config,
		Format:     s.Format,
		Output:     s.Output,
		Repository: s.Repo,
		Backend:    s.Backend,
	}).ToTuple()
	if err != nil {
		return err
	}
	g.Logger.Debug("Version resolved",
		logfields.Version(resp.Resolution.Version),
		logfields.Source(string(resp.Resolution.Source)))
	return nil
}
