package cli

import (
	"strconv"
	"time"

	"github.com/robinvdvleuten/coin/ledger"
)

var (
	Version   = ""
	CommitSHA = ""
)

// Globals defines global flags available to all commands.
type Globals struct {
	Telemetry bool `help:"Show timing telemetry for operations." env:"COIN_TELEMETRY"`
}

type Commands struct {
	Globals

	Check    CheckCmd    `cmd:"" help:"Load a ledger snapshot and verify its recorded balances."`
	Accounts AccountsCmd `cmd:"" help:"List accounts."`
	Balance  BalanceCmd  `cmd:"" help:"Show account balances and subtree totals."`
	Register RegisterCmd `cmd:"" help:"List the postings of an account."`
	Groups   GroupsCmd   `cmd:"" help:"Show per-interval totals of an account and its largest sub-accounts."`
	Top      TopCmd      `cmd:"" help:"Show the largest postings of an account."`
	Convert  ConvertCmd  `cmd:"" help:"Convert an amount into another commodity."`
	Doctor   DoctorCmd   `cmd:"" help:"Doctor utilities for debugging ledger snapshots."`
	Web      WebCmd      `cmd:"" help:"Start a read-only web API server."`
}

// WindowFlags select the report date window.
type WindowFlags struct {
	From       string `help:"Start of the report window (YYYY-MM-DD), defaults to January 1st of the first transaction year." placeholder:"DATE"`
	To         string `help:"End of the report window (YYYY-MM-DD), defaults to December 31st of the last transaction year." placeholder:"DATE"`
	ShowClosed bool   `help:"Include accounts closed before the window ends." name:"show-closed-accounts" env:"COIN_SHOW_CLOSED_ACCOUNTS"`
}

// GroupFlags control bucketing and ranking of grouped reports.
type GroupFlags struct {
	Interval    string `help:"Bucket interval: weekly, monthly, quarterly or yearly." default:"monthly" env:"COIN_INTERVAL"`
	MaxAccounts int    `help:"Accounts to show before merging the rest into Other." default:"5" env:"COIN_MAX_ACCOUNTS"`
	Negated     bool   `help:"Rank the most negative accounts first." env:"COIN_NEGATED"`
}

// config parses the flags the same way the web API parses its query string.
func config(window WindowFlags, group *GroupFlags) (*ledger.Config, error) {
	options := map[string][]string{
		"show_closed_accounts": {strconv.FormatBool(window.ShowClosed)},
	}
	if group != nil {
		options["interval"] = []string{group.Interval}
		options["max_accounts"] = []string{strconv.Itoa(group.MaxAccounts)}
		options["negated"] = []string{strconv.FormatBool(group.Negated)}
	}
	return ledger.ConfigFromOptions(options)
}

// view applies the window flags to the ledger's default view.
func (f WindowFlags) view(l *ledger.Ledger, cfg *ledger.Config) (ledger.View, error) {
	v := cfg.View(l)
	var err error
	if v.Start, err = parseDateFlag(f.From, v.Start); err != nil {
		return v, err
	}
	if v.End, err = parseDateFlag(f.To, v.End); err != nil {
		return v, err
	}
	return v, nil
}

func parseDateFlag(s string, def time.Time) (time.Time, error) {
	if s == "" {
		return def, nil
	}
	return ledger.ParseDate(s)
}
