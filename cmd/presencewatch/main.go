package main

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/presencewatch/cmd/presencewatch/commands"
	ferrors "git.home.luguber.info/inful/presencewatch/internal/foundation/errors"
	"git.home.luguber.info/inful/presencewatch/internal/version"
)

func main() {
	cli := &commands.CLI{}
	parser := kong.Parse(cli,
		kong.Name("presencewatch"),
		kong.Description("Watch Xbox Live presence and notify when players change state."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	)

	if err := parser.Run(&commands.Global{Out: os.Stdout}, cli); err != nil {
		ferrors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
	}
}
