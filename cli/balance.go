package cli

import (
	"fmt"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/robinvdvleuten/coin/ledger"
	"github.com/robinvdvleuten/coin/output"
)

type BalanceCmd struct {
	File    LedgerFile `help:"Ledger snapshot filename (use '-' for stdin)." arg:""`
	Account string     `help:"Account to report on, all root accounts when omitted." arg:"" optional:""`
	Date    string     `help:"Balance date (YYYY-MM-DD), defaults to the end of the window." placeholder:"DATE"`
	Level   int        `help:"Print accounts up to this depth, 0 means all." short:"l" default:"0"`
	Zero    bool       `help:"List accounts with a zero total." short:"z"`
	WindowFlags
}

func (cmd *BalanceCmd) Run(ctx *kong.Context, globals *Globals) error {
	runCtx, reportTelemetry := startTelemetry(ctx, globals, commandName("balance", &cmd.File))
	defer reportTelemetry()

	l, err := loadLedger(ctx, runCtx, &cmd.File)
	if err != nil {
		return err
	}
	cfg, err := config(cmd.WindowFlags, nil)
	if err != nil {
		return err
	}
	v, err := cmd.view(l, cfg)
	if err != nil {
		return err
	}
	date, err := parseDateFlag(cmd.Date, v.End)
	if err != nil {
		return err
	}

	roots := liveRoots(l, v)
	if cmd.Account != "" {
		account, err := resolveAccount(l, cmd.Account)
		if err != nil {
			return err
		}
		roots = []*ledger.Account{account}
	}

	styles := output.NewStyles(ctx.Stdout)
	tbl := newTable(alignLeft, alignRight, alignRight)
	tbl.setHeader("Account", "Balance", "Total")
	tbl.styleColumn(1, amountStyle(styles))
	tbl.styleColumn(2, amountStyle(styles))

	for _, root := range roots {
		balances, err := root.WithAllChildBalances(v, date)
		if err != nil {
			return err
		}
		for _, b := range balances {
			depth := b.Account.DepthFrom(root)
			if cmd.Level > 0 && depth >= cmd.Level {
				continue
			}
			if !cmd.Zero && b.Total.IsZero() {
				continue
			}
			name := b.Account.Name
			if depth == 0 {
				name = b.Account.FullName
			}
			tbl.addRow(strings.Repeat("  ", depth)+name, b.Balance.String(), b.Total.String())
		}
	}

	_, _ = fmt.Fprintf(ctx.Stdout, "Balances as of %s\n", styles.Date(date.Format(ledger.DateFormat)))
	tbl.render(ctx.Stdout)
	return nil
}
