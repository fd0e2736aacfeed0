package cli

import (
	stdErrors "errors"
	"fmt"
	"path/filepath"

	"github.com/alecthomas/kong"

	"github.com/robinvdvleuten/coin/ledger"
	"github.com/robinvdvleuten/coin/loader"
)

type CheckCmd struct {
	File LedgerFile `help:"Ledger snapshot filename (use '-' for stdin)." arg:""`
}

func (cmd *CheckCmd) Run(ctx *kong.Context, globals *Globals) error {
	runCtx, reportTelemetry := startTelemetry(ctx, globals, fmt.Sprintf("check %s", filepath.Base(cmd.File.Filename)))
	defer reportTelemetry()

	renderer := NewErrorRenderer()

	l, err := cmd.File.Load(runCtx, loader.New())
	if err != nil {
		_, _ = fmt.Fprintln(ctx.Stderr, renderer.Render(err))
		_, _ = fmt.Fprintln(ctx.Stderr)
		printError(ctx.Stderr, "load error")
		return NewCommandError(1)
	}

	if err := l.Verify(runCtx); err != nil {
		var validationErrors *ledger.ValidationErrors
		if stdErrors.As(err, &validationErrors) {
			_, _ = fmt.Fprintln(ctx.Stderr, renderer.RenderAll(validationErrors.Errors))
			_, _ = fmt.Fprintln(ctx.Stderr)
			printError(ctx.Stderr, fmt.Sprintf("%d validation error(s) found", len(validationErrors.Errors)))
			return NewCommandError(1)
		}
		return err
	}

	printSuccess(ctx.Stdout, fmt.Sprintf("Check passed: %d commodities, %d accounts, %d transactions",
		l.Commodities().Len(), len(l.Accounts()), len(l.Transactions())))

	return nil
}
