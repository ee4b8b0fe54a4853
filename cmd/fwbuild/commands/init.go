package commands

import (
	"context"
	"fmt"
	"path/filepath"

	"git.home.luguber.info/inful/fwbuild/internal/cli"
	"git.home.luguber.info/inful/fwbuild/internal/config"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force  bool   `help:"Overwrite existing configuration file"`
	Output string `short:"o" name:"output" help:"Output directory for generated config file"`
}

func (i *InitCmd) Run(g *Global, root *CLI) error {
	cfgPath := root.Config
	if i.Output != "" {
		cfgPath = filepath.Join(i.Output, config.DefaultPath)
	}

	fmt.Printf("Writing configuration to %s\n", cfgPath)
	result := g.Executor.ExecuteInit(context.Background(), cli.InitRequest{ConfigPath: cfgPath, Force: i.Force})
	if result.IsErr() {
		fmt.Println("Initialization failed")
		return result.UnwrapErr()
	}
	fmt.Println("initialized successfully")
	return nil
}
