package cli

import (
	"fmt"

	"github.com/alecthomas/kong"

	"github.com/robinvdvleuten/coin/ledger"
	"github.com/robinvdvleuten/coin/output"
)

type GroupsCmd struct {
	File    LedgerFile `help:"Ledger snapshot filename (use '-' for stdin)." arg:""`
	Account string     `help:"Account full name or a unique part of it. Prompts when omitted on a terminal." arg:"" optional:""`
	MaxName int        `help:"Maximum column header width." default:"15"`
	GroupFlags
	WindowFlags
}

func (cmd *GroupsCmd) Run(ctx *kong.Context, globals *Globals) error {
	runCtx, reportTelemetry := startTelemetry(ctx, globals, commandName("groups", &cmd.File))
	defer reportTelemetry()

	l, err := loadLedger(ctx, runCtx, &cmd.File)
	if err != nil {
		return err
	}
	cfg, err := config(cmd.WindowFlags, &cmd.GroupFlags)
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

	groups, err := ledger.GroupWithSubAccounts(account, cfg.Interval, cfg.MaxAccounts, v, ledger.GroupOptions{Negated: cfg.Negated})
	if err != nil {
		return err
	}
	styles := output.NewStyles(ctx.Stdout)
	if len(groups) == 0 {
		printInfof(ctx.Stdout, "No postings under %s", styles.Account(account.FullName))
		return nil
	}

	aligns := []align{alignLeft}
	header := []string{"Date"}
	for _, g := range groups {
		name := g.Name()
		if g.Account != nil {
			name = subName(account, g.Account)
		}
		aligns = append(aligns, alignRight)
		header = append(header, ShortenAccountName(name, cmd.MaxName))
	}
	aligns = append(aligns, alignRight)
	header = append(header, "Total")

	tbl := newTable(aligns...)
	tbl.setHeader(header...)
	for i := 1; i < len(aligns); i++ {
		tbl.styleColumn(i, amountStyle(styles))
	}

	for i, bucket := range groups[0].Groups {
		total := ledger.NewZeroAmount(account.Commodity)
		row := []string{bucket.Date.Format(ledger.DateFormat)}
		for _, g := range groups {
			sum := g.Groups[i].Sum
			if err := total.AddIn(sum, bucket.Date); err != nil {
				return err
			}
			row = append(row, sum.String())
		}
		tbl.addRow(append(row, total.String())...)
	}

	_, _ = fmt.Fprintf(ctx.Stdout, "%s %s by %s\n", styles.Account(account.FullName), styles.Commodity(account.Commodity.ID), cfg.Interval)
	tbl.render(ctx.Stdout)
	return nil
}
