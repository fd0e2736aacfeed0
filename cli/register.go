package cli

import (
	"fmt"

	"github.com/alecthomas/kong"
	"github.com/mattn/go-runewidth"

	"github.com/robinvdvleuten/coin/ledger"
	"github.com/robinvdvleuten/coin/output"
)

type RegisterCmd struct {
	File     LedgerFile `help:"Ledger snapshot filename (use '-' for stdin)." arg:""`
	Account  string     `help:"Account full name or a unique part of it. Prompts when omitted on a terminal." arg:"" optional:""`
	Recurse  bool       `help:"Include postings of sub-accounts." short:"r"`
	Interval string     `help:"Aggregate postings by interval: weekly, monthly, quarterly or yearly." short:"i"`
	Location bool       `help:"Show where each transaction was loaded from."`
	Notes    bool       `help:"Show posting and transaction notes."`
	MaxDesc  int        `help:"Maximum description width." default:"50" env:"COIN_MAX_DESC"`
	MaxAcct  int        `help:"Maximum account name width." default:"15" env:"COIN_MAX_ACCT"`
	WindowFlags
}

func (cmd *RegisterCmd) Run(ctx *kong.Context, globals *Globals) error {
	runCtx, reportTelemetry := startTelemetry(ctx, globals, commandName("register", &cmd.File))
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

	postings := ledger.TrimToDateRange(account.Postings(), v.Start, v.End)
	if cmd.Recurse {
		postings = account.WithAllChildPostings(v, v.Start, v.End)
	}

	styles := output.NewStyles(ctx.Stdout)
	_, _ = fmt.Fprintf(ctx.Stdout, "%s %s\n", styles.Account(account.FullName), styles.Commodity(account.Commodity.ID))

	if cmd.Interval != "" {
		interval, err := ledger.ParseInterval(cmd.Interval)
		if err != nil {
			return err
		}
		return cmd.aggregated(ctx, styles, account, postings, interval, v)
	}
	return cmd.full(ctx, styles, account, postings)
}

func (cmd *RegisterCmd) aggregated(ctx *kong.Context, styles *output.Styles, account *ledger.Account, postings []*ledger.Posting, interval ledger.Interval, v ledger.View) error {
	groups, err := ledger.GroupBy(postings, interval, ledger.PostedDate, account.Commodity, v)
	if err != nil {
		return err
	}

	tbl := newTable(alignLeft, alignRight, alignRight)
	tbl.styleColumn(1, amountStyle(styles))
	tbl.styleColumn(2, amountStyle(styles))
	for _, g := range groups {
		tbl.addRow(g.Date.Format(ledger.DateFormat), g.Sum.String(), g.Total.String())
	}
	tbl.render(ctx.Stdout)
	return nil
}

func (cmd *RegisterCmd) full(ctx *kong.Context, styles *output.Styles, account *ledger.Account, postings []*ledger.Posting) error {
	prefix := account.FullName + ":"
	shorten := func(a *ledger.Account) string {
		name := a.FullName
		if cmd.Recurse && account.IsParentOf(a) {
			name = name[len(prefix):]
		}
		return ShortenAccountName(name, cmd.MaxAcct)
	}

	aligns := []align{alignLeft, alignLeft}
	if cmd.Recurse {
		aligns = append(aligns, alignLeft)
	}
	aligns = append(aligns, alignLeft, alignRight, alignRight, alignLeft)
	if cmd.Location {
		aligns = append(aligns, alignLeft)
	}
	tbl := newTable(aligns...)
	amountColumn := len(aligns) - 3
	if cmd.Location {
		amountColumn--
	}
	tbl.styleColumn(amountColumn, amountStyle(styles))
	tbl.styleColumn(amountColumn+1, amountStyle(styles))

	// leave room for the date, account and amount columns
	maxDesc := min(cmd.MaxDesc, max(10, terminalWidth(120)-70))

	total := ledger.NewZeroAmount(account.Commodity)
	for _, p := range postings {
		t := p.Transaction()
		if err := total.AddIn(p.Quantity(), t.Posted); err != nil {
			return err
		}

		o, err := t.Other(p)
		if err != nil {
			return err
		}
		other := shorten(o.Account())
		reconciled := " "
		if p.BalanceAsserted() {
			reconciled = "*"
		}

		row := []string{t.Posted.Format(ledger.DateFormat), runewidth.Truncate(t.Description, maxDesc, "…")}
		if cmd.Recurse {
			row = append(row, shorten(p.Account()))
		}
		row = append(row, other, p.Quantity().String(), total.String(), reconciled)
		if cmd.Location {
			row = append(row, t.Location)
		}
		tbl.addRow(row...)

		if cmd.Notes {
			for _, note := range append(append([]string{}, p.Notes()...), t.Notes...) {
				tbl.addRow("", "; "+note)
			}
		}
	}
	tbl.render(ctx.Stdout)
	return nil
}
