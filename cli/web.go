package cli

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/alecthomas/kong"

	"github.com/robinvdvleuten/coin/web"
)

type WebCmd struct {
	File  string `help:"Ledger snapshot file to serve." arg:"" type:"existingfile"`
	Port  int    `help:"Port to listen on." default:"8080" env:"COIN_PORT"`
	Host  string `help:"Address to bind to." default:"127.0.0.1" env:"COIN_HOST"`
	Watch bool   `help:"Reload the snapshot when the file changes." default:"true" negatable:""`
}

func (cmd *WebCmd) Run(ctx *kong.Context, globals *Globals) error {
	runCtx, reportTelemetry := startTelemetry(ctx, globals, "web")
	defer reportTelemetry()

	runCtx, stop := signal.NotifyContext(runCtx, os.Interrupt)
	defer stop()

	ledgerFile, err := filepath.Abs(cmd.File)
	if err != nil {
		return fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	version := Version
	if version == "" {
		version = "dev"
	}
	commitSHA := CommitSHA
	if commitSHA == "" {
		commitSHA = "local"
	}

	server := web.NewWithVersion(cmd.Port, ledgerFile, version, commitSHA)
	server.Host = cmd.Host
	server.WatchEnabled = cmd.Watch

	printInfof(ctx.Stdout, "Starting server on %s:%d", server.Host, cmd.Port)
	printInfof(ctx.Stdout, "Serving ledger: %s", pathStyle.Render(ledgerFile))
	if cmd.Watch {
		printInfof(ctx.Stdout, "Watching for changes")
	}

	return server.Start(runCtx)
}
