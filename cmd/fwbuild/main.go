package main

import (
	"log/slog"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/fwbuild/cmd/fwbuild/commands"
	"git.home.luguber.info/inful/fwbuild/internal/cli"
	fwerrors "git.home.luguber.info/inful/fwbuild/internal/errors"
	"git.home.luguber.info/inful/fwbuild/internal/version"
)

func main() {
	root := &commands.CLI{}
	parser := kong.Parse(root,
		kong.Name("fwbuild"),
		kong.Description("Firmware build helpers: version stamping and coverage reports."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	)

	global := &commands.Global{
		Logger:   slog.Default(),
		Executor: cli.NewCommandExecutor(),
	}
	err := parser.Run(global, root)
	fwerrors.NewCLIErrorAdapter(root.Verbose, slog.Default()).HandleError(err)
}
