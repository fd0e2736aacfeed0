package cli

import (
	"fmt"

	"github.com/alecthomas/kong"
	"github.com/alecthomas/repr"

	"github.com/robinvdvleuten/coin/ledger"
	"github.com/robinvdvleuten/coin/output"
)

// DoctorCmd provides doctor utilities for debugging ledger snapshots.
type DoctorCmd struct {
	Dump        DumpCmd        `cmd:"" help:"Dump the loaded account tree."`
	Conversions ConversionsCmd `cmd:"" help:"Show the prices and derived conversions of a commodity."`
}

// DumpCmd dumps the account tree as the loader built it.
type DumpCmd struct {
	File    LedgerFile `help:"Ledger snapshot filename (use '-' for stdin)." arg:""`
	Account string     `help:"Only dump this account and its descendants." arg:"" optional:""`
}

type dumpedAccount struct {
	FullName  string
	Commodity string
	Closed    string
	Location  string
	Postings  int
	Balance   string
	Children  []dumpedAccount
}

func dumpAccount(a *ledger.Account) dumpedAccount {
	d := dumpedAccount{
		FullName:  a.FullName,
		Commodity: a.Commodity.ID,
		Location:  a.Location,
		Postings:  len(a.Postings()),
	}
	if !a.Closed.IsZero() {
		d.Closed = a.Closed.Format(ledger.DateFormat)
	}
	if postings := a.Postings(); len(postings) > 0 {
		d.Balance = postings[len(postings)-1].Balance().String()
	}
	for _, child := range a.Children() {
		d.Children = append(d.Children, dumpAccount(child))
	}
	return d
}

// Run executes the dump command.
func (cmd *DumpCmd) Run(ctx *kong.Context, globals *Globals) error {
	runCtx, reportTelemetry := startTelemetry(ctx, globals, commandName("doctor.dump", &cmd.File))
	defer reportTelemetry()

	l, err := loadLedger(ctx, runCtx, &cmd.File)
	if err != nil {
		return err
	}

	roots := l.Roots()
	if cmd.Account != "" {
		account, err := resolveAccount(l, cmd.Account)
		if err != nil {
			return err
		}
		roots = []*ledger.Account{account}
	}

	dump := make([]dumpedAccount, len(roots))
	for i, root := range roots {
		dump[i] = dumpAccount(root)
	}
	repr.New(ctx.Stdout, repr.Indent("  "), repr.OmitEmpty(true)).Println(dump)
	return nil
}

// ConversionsCmd lists a commodity's prices and every conversion reachable
// from it.
type ConversionsCmd struct {
	File      LedgerFile `help:"Ledger snapshot filename (use '-' for stdin)." arg:""`
	Commodity string     `help:"Commodity id." arg:""`
	To        []string   `help:"Resolve conversions to these commodities before listing." placeholder:"ID"`
	Date      string     `help:"Show the price each conversion applies on this date (YYYY-MM-DD)." placeholder:"DATE"`
}

// Run executes the conversions command.
func (cmd *ConversionsCmd) Run(ctx *kong.Context, globals *Globals) error {
	runCtx, reportTelemetry := startTelemetry(ctx, globals, commandName("doctor.conversions", &cmd.File))
	defer reportTelemetry()

	l, err := loadLedger(ctx, runCtx, &cmd.File)
	if err != nil {
		return err
	}
	c, err := l.Commodities().Find(cmd.Commodity)
	if err != nil {
		return err
	}
	date, err := parseDateFlag(cmd.Date, l.MaxDate())
	if err != nil {
		return err
	}

	styles := output.NewStyles(ctx.Stdout)
	_, _ = fmt.Fprintf(ctx.Stdout, "%s prices\n", styles.Keyword(c.ID))
	for _, p := range c.Prices() {
		_, _ = fmt.Fprintf(ctx.Stdout, "  %s %s\n", p, styles.Dim(p.Location()))
	}

	for _, id := range cmd.To {
		target, err := l.Commodities().Find(id)
		if err != nil {
			return err
		}
		if _, ok, err := c.FindConversion(target); err != nil {
			return err
		} else if !ok {
			printError(ctx.Stdout, fmt.Sprintf("no conversion %s => %s", c.ID, target.ID))
		}
	}

	conversions, err := c.Conversions()
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(ctx.Stdout, "%s conversions @ %s\n", styles.Keyword(c.ID), styles.Date(date.Format(ledger.DateFormat)))
	tbl := newTable(alignLeft, alignRight, alignLeft)
	for _, conv := range conversions {
		tbl.addRow("  "+conv.String(), fmt.Sprintf("%d step(s)", conv.Steps), conv.At(date).Value().String())
	}
	tbl.render(ctx.Stdout)
	return nil
}
