package commands

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/fwbuild/internal/cli"
	"git.home.luguber.info/inful/fwbuild/internal/logfields"
	"git.home.luguber.info/inful/fwbuild/internal/observability"
)

// CoverageCmd implements the 'coverage' command.
type CoverageCmd struct {
	Manual  bool   `help:"Generate the report regardless of the build environment and flags"`
	WorkDir string `name:"workdir" help:"Directory the coverage tools run in" type:"path"`
	ContextFlags
}

func (c *CoverageCmd) Run(g *Global, root *CLI) error {
	ctx := observability.WithRunID(context.Background(), observability.NewRunID())
	resp, err := g.Executor.ExecuteCoverage(ctx, cli.CoverageRequest{
		ConfigPath:    root.Config,
		Manual:        c.Manual,
		WorkDir:       c.WorkDir,
		ContextSource: c.source(),
	}).ToTuple()
	if err != nil {
		return err
	}
	g.Logger.Debug("Coverage run finished",
		slog.Bool("completed", resp.Report.Completed),
		slog.Bool("skipped", resp.Report.Skipped),
		logfields.Stage(string(resp.Report.FailedStage)))
	return nil
}
