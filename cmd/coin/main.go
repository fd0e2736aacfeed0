package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	coincli "github.com/robinvdvleuten/coin/cli"
)

var (
	// Version contains the application version number. It's set via ldflags
	// when building.
	Version = ""

	// CommitSHA contains the SHA of the commit that this application was built
	// against. It's set via ldflags when building.
	CommitSHA = ""

	cli struct {
		Version kong.VersionFlag `help:"Show version information"`
		coincli.Commands
	}
)

func main() {
	if err := coincli.LoadEnv(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	coincli.Version = Version
	coincli.CommitSHA = CommitSHA

	ctx := kong.Parse(&cli,
		kong.Vars{
			"version": buildVersion(),
		},
		kong.Name("coin"),
		kong.Description("Reports over multi-commodity ledger snapshots."),
		kong.UsageOnError(),
		kong.Configuration(coincli.TOML, coincli.ConfigPaths...),
		kong.Bind(&cli.Globals),
	)

	err := ctx.Run()
	var cmdErr *coincli.CommandError
	if errors.As(err, &cmdErr) {
		os.Exit(cmdErr.ExitCode())
	}
	ctx.FatalIfErrorf(err)
}

func buildVersion() string {
	if Version == "" {
		Version = "dev"
	}
	if CommitSHA == "" {
		return Version
	}
	return fmt.Sprintf("%s (%s)", Version, CommitSHA)
}
