package cli

import (
	"fmt"
	"time"

	"github.com/alecthomas/kong"

	"github.com/robinvdvleuten/coin/ledger"
	"github.com/robinvdvleuten/coin/output"
)

type ConvertCmd struct {
	File   LedgerFile `help:"Ledger snapshot filename (use '-' for stdin)." arg:""`
	Amount string     `help:"Amount to convert, e.g. \"100.00 USD\" or \"(1200 / 12) USD\"." arg:""`
	To     string     `help:"Target commodity id." arg:""`
	Date   string     `help:"Conversion date (YYYY-MM-DD), defaults to today." placeholder:"DATE"`
}

func (cmd *ConvertCmd) Run(ctx *kong.Context, globals *Globals) error {
	runCtx, reportTelemetry := startTelemetry(ctx, globals, commandName("convert", &cmd.File))
	defer reportTelemetry()

	l, err := loadLedger(ctx, runCtx, &cmd.File)
	if err != nil {
		return err
	}
	today := time.Now().UTC().Truncate(24 * time.Hour)
	date, err := parseDateFlag(cmd.Date, today)
	if err != nil {
		return err
	}

	amount, err := l.Commodities().EvaluateAmount(cmd.Amount)
	if err != nil {
		return err
	}
	converted, err := l.Convert(runCtx, amount, cmd.To, date)
	if err != nil {
		return err
	}

	styles := output.NewStyles(ctx.Stdout)
	_, _ = fmt.Fprintf(ctx.Stdout, "%s = %s @ %s\n",
		styles.Amount(amount.String(), amount.Sign()),
		styles.Amount(converted.String(), converted.Sign()),
		styles.Date(date.Format(ledger.DateFormat)))
	return nil
}
