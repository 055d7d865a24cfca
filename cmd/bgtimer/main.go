package main

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/bgtimer/cmd/bgtimer/commands"
	"git.home.luguber.info/inful/bgtimer/internal/config"
	foundationerrors "git.home.luguber.info/inful/bgtimer/internal/foundation/errors"
	"git.home.luguber.info/inful/bgtimer/internal/version"
)

func main() {
	cli := &commands.CLI{}
	parser := kong.Parse(cli,
		kong.Name("bgtimer"),
		kong.Description("A persistent stopwatch that keeps counting while it is not on screen."),
		kong.UsageOnError(),
		kong.Vars{
			"version":     version.String(),
			"config_path": config.DefaultPath(),
		},
	)

	err := parser.Run(commands.NewGlobal(os.Stdin, os.Stdout), cli)
	foundationerrors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
}
