package ledger

import (
	"context"
	"fmt"

	"golang.org/x/exp/slices"

	"github.com/robinvdvleuten/coin/telemetry"
)

// Verify checks the recorded posting data of every account:
//   - postings were loaded in chronological order
//   - each posting's balance equals the previous balance plus its quantity,
//     walking the postings in date order
//
// Checking continues from the recorded balance after a mismatch so one bad
// posting is reported once. All problems are returned together as
// ValidationErrors.
func (l *Ledger) Verify(ctx context.Context) error {
	timer := telemetry.StartTimer(ctx, fmt.Sprintf("ledger.verify (%d accounts)", len(l.accountOrder)))
	defer timer.End()

	var errs []error
	for _, a := range l.accountOrder {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		errs = append(errs, verifyAccount(a)...)
	}
	if len(errs) > 0 {
		return &ValidationErrors{Errors: errs}
	}
	return nil
}

func verifyAccount(a *Account) []error {
	var errs []error
	loaded := slices.Clone(a.postings)
	slices.SortFunc(loaded, func(x, y *Posting) int { return x.seq - y.seq })
	for i := 1; i < len(loaded); i++ {
		date, last := loaded[i].transaction.Posted, loaded[i-1].transaction.Posted
		if date.Before(last) {
			errs = append(errs, &PostingOrderError{Account: a.FullName, Date: date, Prev: last, Posting: loaded[i]})
		}
	}

	prev := NewZeroAmount(a.Commodity)
	for _, p := range a.postings {
		date := p.transaction.Posted

		expected := prev
		if err := expected.AddIn(p.quantity, date); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", p.transaction, err))
			prev = p.balance
			continue
		}
		if cmp, err := expected.Cmp(p.balance, false); err != nil || cmp != 0 {
			errs = append(errs, &BalanceMismatchError{
				Account:  a.FullName,
				Date:     date,
				Expected: expected,
				Actual:   p.balance,
				Posting:  p,
			})
		}
		prev = p.balance
	}
	return errs
}
