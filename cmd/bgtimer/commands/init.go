package commands

import (
	"fmt"

	"git.home.luguber.info/inful/bgtimer/internal/config"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force bool `help:"Overwrite existing configuration file"`
}

func (i *InitCmd) Run(g *Global, root *CLI) error {
	return RunInit(g, root.Config, i.Force)
}

func RunInit(g *Global, configPath string, force bool) error {
	fmt.Fprintf(g.Out, "Writing configuration to %s\n", configPath)
	if err := config.Init(configPath, force); err != nil {
		fmt.Fprintln(g.Out, "Initialization failed")
		return err
	}
	fmt.Fprintln(g.Out, "initialized successfully")
	return nil
}
