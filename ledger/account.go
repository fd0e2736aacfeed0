package ledger

import (
	"strings"
	"time"

	"golang.org/x/exp/slices"
)

// Account is a node in the chart of accounts. Accounts form a forest: each
// account has at most one parent, which must exist before the child is created.
type Account struct {
	Name      string
	FullName  string
	Commodity *Commodity
	Parent    *Account
	Closed    time.Time // zero if the account is open
	Location  string

	children []*Account
	postings []*Posting
}

// NewAccount creates an account and attaches it to its parent, if any.
func NewAccount(name, fullName string, commodity *Commodity, parent *Account, closed time.Time, location string) *Account {
	a := &Account{
		Name:      name,
		FullName:  fullName,
		Commodity: commodity,
		Parent:    parent,
		Closed:    closed,
		Location:  location,
	}
	if parent != nil {
		parent.children = append(parent.children, a)
	}
	return a
}

func (a *Account) String() string {
	return a.FullName
}

// Children returns the direct children in insertion order.
func (a *Account) Children() []*Account {
	return a.children
}

// Postings returns the account's own postings in append order.
func (a *Account) Postings() []*Posting {
	return a.postings
}

// AllChildren returns all descendants in depth-first pre-order. Accounts
// closed before the view's end are skipped unless the view shows closed
// accounts; excluded accounts are skipped with their subtrees.
func (a *Account) AllChildren(v View, exclude ...*Account) []*Account {
	var all []*Account
	for _, child := range a.children {
		if v.Hides(child) {
			continue
		}
		if slices.Contains(exclude, child) {
			continue
		}
		all = append(all, child)
		all = append(all, child.AllChildren(v, exclude...)...)
	}
	return all
}

// WithAllChildren returns the account followed by AllChildren.
func (a *Account) WithAllChildren(v View, exclude ...*Account) []*Account {
	return append([]*Account{a}, a.AllChildren(v, exclude...)...)
}

// WithAllParents returns the path from the root down to this account.
func (a *Account) WithAllParents() []*Account {
	if a.Parent == nil {
		return []*Account{a}
	}
	return append(a.Parent.WithAllParents(), a)
}

// RootAccount returns the top-most ancestor.
func (a *Account) RootAccount() *Account {
	for a.Parent != nil {
		a = a.Parent
	}
	return a
}

// IsParentOf reports whether a is a proper ancestor of other.
func (a *Account) IsParentOf(other *Account) bool {
	for p := other.Parent; p != nil; p = p.Parent {
		if p == a {
			return true
		}
	}
	return false
}

// IsClosed reports whether the account or any of its ancestors is closed as of date.
func (a *Account) IsClosed(date time.Time) bool {
	for acc := a; acc != nil; acc = acc.Parent {
		if !acc.Closed.IsZero() && !acc.Closed.After(date) {
			return true
		}
	}
	return false
}

// DepthFrom returns the number of levels between ancestor and this account:
// 0 for the account itself, -1 if ancestor is not on the parent chain.
func (a *Account) DepthFrom(ancestor *Account) int {
	depth := 0
	for acc := a; acc != nil; acc = acc.Parent {
		if acc == ancestor {
			return depth
		}
		depth++
	}
	return -1
}

// RelativeName returns the descendant's full name with this account's full
// name prefix stripped.
func (a *Account) RelativeName(descendant *Account) string {
	return strings.TrimPrefix(descendant.FullName, a.FullName)
}

func (a *Account) insert(p *Posting) {
	p.seq = len(a.postings)
	posted := p.transaction.Posted
	if n := len(a.postings); n == 0 || !a.postings[n-1].transaction.Posted.After(posted) {
		a.postings = append(a.postings, p)
		return
	}
	i := slices.IndexFunc(a.postings, func(q *Posting) bool {
		return q.transaction.Posted.After(posted)
	})
	a.postings = slices.Insert(a.postings, i, p)
}

// BalanceAt returns the recorded balance of the last posting on or before
// date, or zero if there is none.
func (a *Account) BalanceAt(date time.Time) Amount {
	for i := len(a.postings) - 1; i >= 0; i-- {
		if !a.postings[i].transaction.Posted.After(date) {
			return a.postings[i].balance
		}
	}
	return NewZeroAmount(a.Commodity)
}

// WithAllChildPostings returns the postings of this account and its
// descendants within [from, to], sorted by transaction date.
func (a *Account) WithAllChildPostings(v View, from, to time.Time, exclude ...*Account) []*Posting {
	var postings []*Posting
	for _, acc := range a.WithAllChildren(v, exclude...) {
		postings = append(postings, TrimToDateRange(acc.postings, from, to)...)
	}
	slices.SortStableFunc(postings, func(x, y *Posting) int {
		return x.transaction.Posted.Compare(y.transaction.Posted)
	})
	return postings
}

// AccountBalance pairs an account's own balance with the total of its subtree.
type AccountBalance struct {
	Account *Account
	Balance Amount
	Total   Amount
}

// WithAllChildBalances returns the balances of this account and every live
// descendant as of date, in pre-order. Each Total is the account's balance
// plus the totals of its children converted into the account's commodity.
func (a *Account) WithAllChildBalances(v View, date time.Time, exclude ...*Account) ([]AccountBalance, error) {
	balance := a.BalanceAt(date)
	total := balance
	var balances []AccountBalance
	for _, child := range a.children {
		if !v.ShowClosedAccounts && child.IsClosed(date) {
			continue
		}
		if slices.Contains(exclude, child) {
			continue
		}
		childBalances, err := child.WithAllChildBalances(v, date, exclude...)
		if err != nil {
			return nil, err
		}
		balances = append(balances, childBalances...)
		if err := total.AddIn(childBalances[0].Total, date); err != nil {
			return nil, err
		}
	}
	return append([]AccountBalance{{Account: a, Balance: balance, Total: total}}, balances...), nil
}

// WithAllChildPostingGroups groups the postings of this account and each live
// descendant that has postings, one AccountPostingGroups per account.
func (a *Account) WithAllChildPostingGroups(v View, interval Interval, exclude ...*Account) ([]AccountPostingGroups, error) {
	var groups []AccountPostingGroups
	for _, acc := range a.WithAllChildren(v, exclude...) {
		if len(acc.postings) == 0 {
			continue
		}
		g, err := GroupBy(TrimToDateRange(acc.postings, v.Start, v.End), interval, PostedDate, acc.Commodity, v)
		if err != nil {
			return nil, err
		}
		groups = append(groups, AccountPostingGroups{Account: acc, Groups: g})
	}
	return groups, nil
}

// TrimToDateRange returns the sub-slice of postings posted within [from, to].
// Postings must be in date order, as Account.Postings are.
func TrimToDateRange(postings []*Posting, from, to time.Time) []*Posting {
	start := slices.IndexFunc(postings, func(p *Posting) bool {
		return !p.transaction.Posted.Before(from)
	})
	if start < 0 {
		return nil
	}
	end := slices.IndexFunc(postings, func(p *Posting) bool {
		return p.transaction.Posted.After(to)
	})
	if end < 0 {
		return postings[start:]
	}
	if end < start {
		return nil
	}
	return postings[start:end]
}
