// Package ledger holds an in-memory snapshot of multi-commodity accounting
// data and the reporting algorithms over it.
//
// A snapshot is built once, in dependency order: commodities, then prices,
// then accounts (parents before children), then transactions with their
// postings. After that it is read-only, apart from the lazily derived
// conversion cache each Commodity keeps.
//
// Amounts are fixed-point integers scaled by their commodity's decimals.
// Amounts of different commodities are only ever combined through a
// conversion derived from the recorded prices:
//
//	l := ledger.New()
//	_ = l.AddCommodity(ledger.NewCommodity("CAD", "Canadian Dollar", 2, ""))
//	_ = l.AddCommodity(ledger.NewCommodity("USD", "US Dollar", 2, ""))
//	_, _ = l.AddPrice("CAD", "0.75 USD", day, "")
//
//	usd, _ := l.Commodities().Find("USD")
//	amt, _ := l.Commodities().ParseAmount("100 CAD")
//	converted, err := usd.Convert(amt, day) // 75.00 USD
package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/robinvdvleuten/coin/telemetry"
)

// RootAccountName is the name of the synthetic forest root some exporters
// emit. Records with this name are not real accounts.
const RootAccountName = "Root"

// Ledger is a loaded snapshot: the commodity registry, the chart of accounts
// and the transactions posting into it.
type Ledger struct {
	commodities  *Commodities
	accounts     map[string]*Account
	accountOrder []*Account
	roots        []*Account
	transactions []*Transaction

	minDate time.Time
	maxDate time.Time
}

// New creates an empty ledger.
func New() *Ledger {
	return &Ledger{
		commodities: NewCommodities(),
		accounts:    make(map[string]*Account),
	}
}

// Commodities returns the commodity registry.
func (l *Ledger) Commodities() *Commodities {
	return l.commodities
}

// AddCommodity registers a commodity.
func (l *Ledger) AddCommodity(c *Commodity) error {
	return l.commodities.Add(c)
}

// AddPrice parses value as an amount text and records that one unit of
// commodity was worth it on date. The reverse price is recorded on the value's
// commodity. The value text must survive a parse/format round trip.
func (l *Ledger) AddPrice(commodity, value string, date time.Time, location string) (*Price, error) {
	c, err := l.commodities.Find(commodity)
	if err != nil {
		return nil, err
	}
	amt, err := l.commodities.ParseAmount(value)
	if err != nil {
		return nil, err
	}
	if amt.String() != value {
		return nil, &RoundTripError{Text: value, Parsed: amt.String()}
	}
	p := NewPrice(c, date, amt, location)
	reverse, err := p.Reverse()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p, err)
	}
	c.AddPrice(p)
	amt.commodity.AddPrice(reverse)
	return p, nil
}

// AddAccount creates an account under parent, which must already be
// registered. An empty parent makes a root account. Records named "Root" are
// skipped and reported as (nil, nil).
func (l *Ledger) AddAccount(name, fullName, commodity, parent string, closed time.Time, location string) (*Account, error) {
	if name == RootAccountName {
		return nil, nil
	}
	if _, exists := l.accounts[fullName]; exists {
		return nil, &DuplicateError{Kind: "account", Name: fullName}
	}
	c, err := l.commodities.Find(commodity)
	if err != nil {
		return nil, err
	}
	var p *Account
	if parent != "" && parent != RootAccountName {
		var ok bool
		if p, ok = l.accounts[parent]; !ok {
			return nil, &UnknownAccountError{Name: parent, Location: location}
		}
	}
	a := NewAccount(name, fullName, c, p, closed, location)
	l.accounts[fullName] = a
	l.accountOrder = append(l.accountOrder, a)
	if p == nil {
		l.roots = append(l.roots, a)
	}
	return a, nil
}

// PostingInput describes one leg of a transaction being added.
type PostingInput struct {
	Account         string
	Quantity        string
	Balance         string
	BalanceAsserted bool
	Notes           []string
	Tags            Tags
}

// AddTransaction creates a transaction and its postings. Quantities and
// balances are amount texts; accounts are full names. Every leg is resolved
// before any is attached, so a failing leg leaves the ledger unchanged.
func (l *Ledger) AddTransaction(posted time.Time, description string, notes []string, code, location string, postings []PostingInput) (*Transaction, error) {
	t := NewTransaction(posted, description, notes, code, location)

	type resolved struct {
		account           *Account
		quantity, balance Amount
	}
	legs := make([]resolved, len(postings))
	for i, in := range postings {
		a, ok := l.accounts[in.Account]
		if !ok {
			return nil, &UnknownAccountError{Name: in.Account, Location: location}
		}
		quantity, err := l.commodities.ParseAmount(in.Quantity)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", t, err)
		}
		balance, err := l.commodities.ParseAmount(in.Balance)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", t, err)
		}
		legs[i] = resolved{account: a, quantity: quantity, balance: balance}
	}

	for i, in := range postings {
		NewPosting(t, legs[i].account, legs[i].quantity, legs[i].balance, in.BalanceAsserted, in.Notes, in.Tags)
	}
	l.transactions = append(l.transactions, t)
	l.extendDates(posted)
	return t, nil
}

func (l *Ledger) extendDates(date time.Time) {
	if l.minDate.IsZero() || date.Before(l.minDate) {
		l.minDate = date
	}
	if l.maxDate.IsZero() || date.After(l.maxDate) {
		l.maxDate = date
	}
}

// Account returns an account by full name.
func (l *Ledger) Account(fullName string) (*Account, bool) {
	a, ok := l.accounts[fullName]
	return a, ok
}

// FindAccount returns an account by full name or an UnknownAccountError.
func (l *Ledger) FindAccount(fullName string) (*Account, error) {
	a, ok := l.accounts[fullName]
	if !ok {
		return nil, &UnknownAccountError{Name: fullName}
	}
	return a, nil
}

// MatchAccounts returns accounts whose full name contains pattern,
// case-insensitively, in registration order.
func (l *Ledger) MatchAccounts(pattern string) []*Account {
	pattern = strings.ToLower(pattern)
	var matches []*Account
	for _, a := range l.accountOrder {
		if strings.Contains(strings.ToLower(a.FullName), pattern) {
			matches = append(matches, a)
		}
	}
	return matches
}

// Roots returns the top-level accounts in registration order.
func (l *Ledger) Roots() []*Account {
	return l.roots
}

// Accounts returns every account in registration order.
func (l *Ledger) Accounts() []*Account {
	return l.accountOrder
}

// Transactions returns the transactions in load order.
func (l *Ledger) Transactions() []*Transaction {
	return l.transactions
}

// MinDate returns January 1st of the year of the earliest transaction, or the
// zero time for a ledger without transactions.
func (l *Ledger) MinDate() time.Time {
	if l.minDate.IsZero() {
		return time.Time{}
	}
	return Yearly.Floor(l.minDate)
}

// MaxDate returns December 31st of the year of the latest transaction, or the
// zero time for a ledger without transactions.
func (l *Ledger) MaxDate() time.Time {
	if l.maxDate.IsZero() {
		return time.Time{}
	}
	return Yearly.Next(Yearly.Floor(l.maxDate)).AddDate(0, 0, -1)
}

// DefaultView spans the whole snapshot, hiding closed accounts.
func (l *Ledger) DefaultView() View {
	return View{Start: l.MinDate(), End: l.MaxDate()}
}

// Convert converts amount into the commodity with the given id as of date.
func (l *Ledger) Convert(ctx context.Context, amount Amount, to string, date time.Time) (Amount, error) {
	timer := telemetry.StartTimer(ctx, fmt.Sprintf("ledger.convert %s => %s", amount.commodity, to))
	defer timer.End()

	c, err := l.commodities.Find(to)
	if err != nil {
		return Amount{}, err
	}
	return c.Convert(amount, date)
}
