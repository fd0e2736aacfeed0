package cli

import (
	"strings"

	"github.com/alecthomas/kong"

	"github.com/robinvdvleuten/coin/ledger"
)

type AccountsCmd struct {
	File    LedgerFile `help:"Ledger snapshot filename (use '-' for stdin)." arg:""`
	Pattern string     `help:"Only list accounts whose full name contains this text." arg:"" optional:""`
	WindowFlags
}

func (cmd *AccountsCmd) Run(ctx *kong.Context, globals *Globals) error {
	runCtx, reportTelemetry := startTelemetry(ctx, globals, commandName("accounts", &cmd.File))
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

	tbl := newTable(alignLeft, alignLeft, alignLeft)
	tbl.setHeader("Account", "Commodity", "Closed")
	addRow := func(name string, a *ledger.Account) {
		closed := ""
		if !a.Closed.IsZero() {
			closed = a.Closed.Format(ledger.DateFormat)
		}
		tbl.addRow(name, a.Commodity.ID, closed)
	}

	if cmd.Pattern != "" {
		for _, a := range l.MatchAccounts(cmd.Pattern) {
			if !hidden(v, a) {
				addRow(a.FullName, a)
			}
		}
	} else {
		for _, root := range liveRoots(l, v) {
			for _, a := range root.WithAllChildren(v) {
				addRow(strings.Repeat("  ", a.DepthFrom(root))+a.Name, a)
			}
		}
	}

	tbl.render(ctx.Stdout)
	return nil
}
