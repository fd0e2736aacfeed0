package cli

import (
	"github.com/alecthomas/kong"
	"github.com/mattn/go-runewidth"

	"github.com/robinvdvleuten/coin/ledger"
	"github.com/robinvdvleuten/coin/output"
)

type TopCmd struct {
	File    LedgerFile `help:"Ledger snapshot filename (use '-' for stdin)." arg:""`
	Account string     `help:"Account full name or a unique part of it. Prompts when omitted on a terminal." arg:"" optional:""`
	Count   int        `help:"Number of postings to show." short:"n" default:"10"`
	MaxDesc int        `help:"Maximum description width." default:"50" env:"COIN_MAX_DESC"`
	WindowFlags
}

func (cmd *TopCmd) Run(ctx *kong.Context, globals *Globals) error {
	runCtx, reportTelemetry := startTelemetry(ctx, globals, commandName("top", &cmd.File))
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
	account, err := resolveAccount(l, cmd.Account)
	if err != nil {
		return err
	}

	postings := account.WithAllChildPostings(v, v.Start, v.End)
	top, err := ledger.TopPostings(postings, cmd.Count, account.Commodity)
	if err != nil {
		return err
	}

	styles := output.NewStyles(ctx.Stdout)
	tbl := newTable(alignLeft, alignLeft, alignLeft, alignRight, alignRight)
	tbl.setHeader("Date", "Description", "Account", "Amount", account.Commodity.ID)
	tbl.styleColumn(3, amountStyle(styles))
	tbl.styleColumn(4, amountStyle(styles))
	for _, p := range top {
		t := p.Transaction()
		converted, err := account.Commodity.Convert(p.Quantity(), t.Posted)
		if err != nil {
			return err
		}
		tbl.addRow(
			t.Posted.Format(ledger.DateFormat),
			runewidth.Truncate(t.Description, cmd.MaxDesc, "…"),
			subName(account, p.Account()),
			p.Quantity().String(),
			converted.String(),
		)
	}
	tbl.render(ctx.Stdout)
	return nil
}
