package ledger

import (
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/exp/slices"
)

// PostingGroup is a single time bucket of postings.
type PostingGroup struct {
	Date     time.Time
	Postings []*Posting
	Sum      Amount // flow within the bucket
	Total    Amount // running flow up to and including the bucket
	Balance  Amount // balance at the end of the bucket
}

// AccountPostingGroups is the bucket list of one account. Account is nil for
// the synthetic group merging accounts that did not make the cut.
type AccountPostingGroups struct {
	Account *Account
	Groups  []PostingGroup
}

// Name returns the account full name, or "Other" for a merged group.
func (g AccountPostingGroups) Name() string {
	if g.Account == nil {
		return "Other"
	}
	return g.Account.FullName
}

// GroupBy buckets postings by interval over the view's whole date range,
// emitting one group per bucket including empty ones. Sums and totals are
// accumulated in commodity; balances carry forward through empty buckets.
func GroupBy(postings []*Posting, interval Interval, dateOf func(*Posting) time.Time, commodity *Commodity, v View) ([]PostingGroup, error) {
	buckets := make(map[string][]*Posting)
	for _, p := range postings {
		k := interval.Floor(dateOf(p)).Format(DateFormat)
		buckets[k] = append(buckets[k], p)
	}

	dates := interval.Range(v.Start, v.End)
	groups := make([]PostingGroup, 0, len(dates))
	total := NewZeroAmount(commodity)
	balance := NewZeroAmount(commodity)
	for _, date := range dates {
		bucket := buckets[date.Format(DateFormat)]
		sum := NewZeroAmount(commodity)
		if len(bucket) > 0 {
			for _, p := range bucket {
				if err := sum.AddIn(p.quantity, date); err != nil {
					return nil, err
				}
			}
			if err := total.AddIn(sum, date); err != nil {
				return nil, err
			}
			balance = bucket[len(bucket)-1].balance
		}
		groups = append(groups, PostingGroup{
			Date:     date,
			Postings: bucket,
			Sum:      sum,
			Total:    total,
			Balance:  balance,
		})
	}
	return groups, nil
}

// GroupOptions tune GroupWithSubAccounts.
type GroupOptions struct {
	// Negated ranks the most negative accounts first.
	Negated bool
}

// GroupWithSubAccounts groups the postings of account and each live
// descendant and keeps the maxAccounts largest by average total. When there
// are more accounts than that, the last slot is taken by a merged "Other"
// group summing everything below the cut.
func GroupWithSubAccounts(account *Account, interval Interval, maxAccounts int, v View, opts GroupOptions) ([]AccountPostingGroups, error) {
	groups, err := account.WithAllChildPostingGroups(v, interval)
	if err != nil {
		return nil, err
	}

	type ranked struct {
		index int
		avg   decimal.Decimal
	}
	averages := make([]ranked, len(groups))
	for i, g := range groups {
		averages[i] = ranked{index: i, avg: decimal.Zero}
		if len(g.Groups) == 0 {
			continue
		}
		last := g.Groups[len(g.Groups)-1]
		total, err := account.Commodity.Convert(last.Total, last.Date)
		if err != nil {
			return nil, err
		}
		averages[i].avg = total.Decimal().Div(decimal.NewFromInt(int64(len(g.Groups))))
	}
	slices.SortStableFunc(averages, func(a, b ranked) int {
		if opts.Negated {
			return a.avg.Cmp(b.avg)
		}
		return b.avg.Cmp(a.avg)
	})

	if maxAccounts < 1 {
		maxAccounts = 1
	}
	if len(averages) <= maxAccounts {
		top := make([]AccountPostingGroups, len(averages))
		for i, avg := range averages {
			top[i] = groups[avg.index]
		}
		return top, nil
	}

	top := make([]AccountPostingGroups, 0, maxAccounts)
	for _, avg := range averages[:maxAccounts-1] {
		top = append(top, groups[avg.index])
	}
	rest := make([]AccountPostingGroups, 0, len(averages)-maxAccounts+1)
	for _, avg := range averages[maxAccounts-1:] {
		rest = append(rest, groups[avg.index])
	}
	other, err := MergeGroups(rest, account.Commodity)
	if err != nil {
		return nil, err
	}
	return append(top, other), nil
}

// MergeGroups sums bucket lists element-wise into a new list in commodity.
// All lists must share the same bucket dates.
func MergeGroups(lists []AccountPostingGroups, commodity *Commodity) (AccountPostingGroups, error) {
	if len(lists) == 0 {
		return AccountPostingGroups{}, nil
	}
	first := lists[0].Groups
	merged := make([]PostingGroup, len(first))
	for i, g := range first {
		m := PostingGroup{
			Date:    g.Date,
			Sum:     NewZeroAmount(commodity),
			Total:   NewZeroAmount(commodity),
			Balance: NewZeroAmount(commodity),
		}
		for _, list := range lists {
			if len(list.Groups) != len(first) {
				return AccountPostingGroups{}, &StructuralMismatchError{Index: len(list.Groups), Expected: first[len(first)-1].Date}
			}
			g2 := list.Groups[i]
			if !g2.Date.Equal(m.Date) {
				return AccountPostingGroups{}, &StructuralMismatchError{Index: i, Expected: m.Date, Actual: g2.Date}
			}
			m.Postings = append(m.Postings, g2.Postings...)
			if err := m.Sum.AddIn(g2.Sum, m.Date); err != nil {
				return AccountPostingGroups{}, err
			}
			if err := m.Total.AddIn(g2.Total, m.Date); err != nil {
				return AccountPostingGroups{}, err
			}
			if err := m.Balance.AddIn(g2.Balance, m.Date); err != nil {
				return AccountPostingGroups{}, err
			}
		}
		merged[i] = m
	}
	return AccountPostingGroups{Groups: merged}, nil
}

// TopPostings returns the n postings with the largest absolute quantity,
// compared in commodity as of each posting's date, largest first.
func TopPostings(postings []*Posting, n int, commodity *Commodity) ([]*Posting, error) {
	type sized struct {
		posting *Posting
		size    int64
	}
	sizes := make([]sized, len(postings))
	for i, p := range postings {
		amt, err := commodity.Convert(p.quantity, p.transaction.Posted)
		if err != nil {
			return nil, err
		}
		sizes[i] = sized{posting: p, size: abs64(amt.value)}
	}
	slices.SortStableFunc(sizes, func(a, b sized) int {
		switch {
		case a.size > b.size:
			return -1
		case a.size < b.size:
			return 1
		}
		return 0
	})
	if n > len(sizes) {
		n = len(sizes)
	}
	top := make([]*Posting, n)
	for i := range top {
		top[i] = sizes[i].posting
	}
	return top, nil
}
