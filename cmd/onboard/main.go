package main

import (
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/onboard/cmd/onboard/commands"
	"git.home.luguber.info/inful/onboard/internal/foundation/errors"
	"git.home.luguber.info/inful/onboard/internal/version"
)

func main() {
	cli := &commands.CLI{}
	ctx := kong.Parse(cli,
		kong.Name("onboard"),
		kong.Description("Device onboarding and liveness-reporting agent"),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	)

	global := &commands.Global{Out: os.Stdout}
	if err := ctx.Run(global, cli); err != nil {
		errors.NewCLIErrorAdapter(cli.Verbose, nil).HandleError(err)
	}
}
