package ledger_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
	"github.com/robinvdvleuten/coin/ledger"
)

func TestAccountTree(t *testing.T) {
	l := newTestLedger(t)
	expenses := account(t, l, "Expenses")
	food := account(t, l, "Expenses:Food")
	bank := account(t, l, "Assets:Bank")

	assert.True(t, food.RootAccount() == expenses)
	assert.True(t, expenses.RootAccount().Parent == nil)
	assert.True(t, expenses.IsParentOf(food))
	assert.False(t, food.IsParentOf(expenses))
	assert.False(t, expenses.IsParentOf(bank))
	assert.False(t, expenses.IsParentOf(expenses))

	assert.Equal(t, 0, food.DepthFrom(food))
	assert.Equal(t, 1, food.DepthFrom(expenses))
	assert.Equal(t, -1, food.DepthFrom(bank))

	assert.Equal(t, ":Food", expenses.RelativeName(food))
	assert.Equal(t, "", food.RelativeName(food))

	assert.Equal(t, []string{"Expenses", "Expenses:Food"}, names(food.WithAllParents()))
	assert.Equal(t, []string{"Expenses:Food", "Expenses:Rent", "Expenses:Fun", "Expenses:Travel"}, names(expenses.Children()))
}

func TestAccountAllChildren(t *testing.T) {
	l := newTestLedger(t)
	assets := account(t, l, "Assets")
	expenses := account(t, l, "Expenses")

	v := l.DefaultView()
	assert.Equal(t, []string{"Assets:Bank"}, names(assets.AllChildren(v)))
	assert.Equal(t, []string{"Assets", "Assets:Bank"}, names(assets.WithAllChildren(v)))

	v.ShowClosedAccounts = true
	assert.Equal(t, []string{"Assets:Bank", "Assets:Cash"}, names(assets.AllChildren(v)))

	// closing after the window keeps the account visible
	early := ledger.View{Start: l.MinDate(), End: date(t, "2000-02-15")}
	assert.Equal(t, []string{"Assets:Bank", "Assets:Cash"}, names(assets.AllChildren(early)))

	food := account(t, l, "Expenses:Food")
	assert.Equal(t, []string{"Expenses:Rent", "Expenses:Fun", "Expenses:Travel"}, names(expenses.AllChildren(v, food)))
}

func TestAccountIsClosed(t *testing.T) {
	l := newTestLedger(t)
	cash := account(t, l, "Assets:Cash")
	assert.False(t, cash.IsClosed(date(t, "2000-02-28")))
	assert.True(t, cash.IsClosed(date(t, "2000-03-01")))
	assert.False(t, account(t, l, "Assets").IsClosed(date(t, "2000-12-31")))
}

func TestAccountBalanceAt(t *testing.T) {
	l := newTestLedger(t)
	bank := account(t, l, "Assets:Bank")

	tests := []struct {
		date string
		want string
	}{
		{"2000-01-01", "0.00 CAD"},
		{"2000-01-02", "1,000.00 CAD"},
		{"2000-02-15", "400.00 CAD"},
		{"2000-12-31", "-240.00 CAD"},
	}
	for _, tt := range tests {
		t.Run(tt.date, func(t *testing.T) {
			assert.Equal(t, tt.want, bank.BalanceAt(date(t, tt.date)).String())
		})
	}
}

func TestAccountWithAllChildBalances(t *testing.T) {
	l := newTestLedger(t)
	v := l.DefaultView()
	v.ShowClosedAccounts = true

	balances, err := account(t, l, "Assets").WithAllChildBalances(v, date(t, "2000-02-28"))
	assert.NoError(t, err)
	got := make([][3]string, len(balances))
	for i, b := range balances {
		got[i] = [3]string{b.Account.FullName, b.Balance.String(), b.Total.String()}
	}
	assert.Equal(t, [][3]string{
		{"Assets", "0.00 CAD", "300.00 CAD"},
		{"Assets:Bank", "260.00 CAD", "260.00 CAD"},
		{"Assets:Cash", "40.00 CAD", "40.00 CAD"},
	}, got)

	t.Run("ConvertsChildTotals", func(t *testing.T) {
		balances, err := account(t, l, "Expenses").WithAllChildBalances(v, date(t, "2000-02-28"))
		assert.NoError(t, err)
		// 80 + 500 + 20 + 75 USD at 1.33
		assert.Equal(t, "699.75 CAD", balances[0].Total.String())
		assert.Equal(t, "75.00 USD", balances[len(balances)-1].Total.String())
	})

	t.Run("SkipsClosed", func(t *testing.T) {
		balances, err := account(t, l, "Assets").WithAllChildBalances(l.DefaultView(), date(t, "2000-03-01"))
		assert.NoError(t, err)
		assert.Equal(t, 2, len(balances))
		assert.Equal(t, "-240.00 CAD", balances[0].Total.String())
	})
}

func TestAccountWithAllChildPostings(t *testing.T) {
	l := newTestLedger(t)
	v := l.DefaultView()

	postings := account(t, l, "Expenses").WithAllChildPostings(v, date(t, "2000-02-01"), date(t, "2000-02-28"))
	got := []string{}
	for _, p := range postings {
		got = append(got, p.String())
	}
	assert.Equal(t, []string{
		"Expenses:Fun 20.00 CAD",
		"Expenses:Food 30.00 CAD",
		"Expenses:Travel 75.00 USD",
	}, got)
}

func TestTrimToDateRange(t *testing.T) {
	l := newTestLedger(t)
	postings := account(t, l, "Assets:Bank").Postings()

	tests := []struct {
		name     string
		from, to string
		want     int
	}{
		{"Inside", "2000-01-10", "2000-02-12", 4},
		{"All", "1999-01-01", "2001-01-01", 8},
		{"Before", "1999-01-01", "1999-12-31", 0},
		{"After", "2001-01-01", "2001-12-31", 0},
		{"Inverted", "2000-02-01", "2000-01-01", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ledger.TrimToDateRange(postings, date(t, tt.from), date(t, tt.to))
			assert.Equal(t, tt.want, len(got))
		})
	}
}

func TestTransactionOther(t *testing.T) {
	l := newTestLedger(t)
	txn := l.Transactions()[1]
	bank, food := txn.Postings()[0], txn.Postings()[1]

	other, err := txn.Other(bank)
	assert.NoError(t, err)
	assert.True(t, other == food)

	other, err = txn.Other(food)
	assert.NoError(t, err)
	assert.True(t, other == bank)
	assert.Equal(t, "2000-01-10 Groceries", txn.String())

	t.Run("SameSign", func(t *testing.T) {
		split := addTransaction(t, l, "2000-04-01", "Split",
			leg{"Expenses:Food", "5.00 CAD", "85.00 CAD"},
			leg{"Expenses:Fun", "5.00 CAD", "25.00 CAD"})
		_, err := split.Other(split.Postings()[0])
		var nerr *ledger.NoCounterpartyPostingError
		assert.True(t, errors.As(err, &nerr))
	})

	t.Run("Zero", func(t *testing.T) {
		zero := addTransaction(t, l, "2000-04-02", "Zero",
			leg{"Expenses:Food", "0.00 CAD", "85.00 CAD"},
			leg{"Expenses:Fun", "5.00 CAD", "30.00 CAD"})
		other, err := zero.Other(zero.Postings()[0])
		assert.NoError(t, err)
		assert.True(t, other == zero.Postings()[1])
	})
}

func TestAccountPostingsLoadedOutOfOrder(t *testing.T) {
	l := newPricedLedger(t)
	for _, a := range [][3]string{
		{"Root", "Root", ""},
		{"Assets", "Assets", "Root"},
		{"Bank", "Assets:Bank", "Assets"},
		{"Expenses", "Expenses", "Root"},
		{"Food", "Expenses:Food", "Expenses"},
	} {
		_, err := l.AddAccount(a[0], a[1], "CAD", a[2], time.Time{}, "")
		assert.NoError(t, err)
	}
	addTransaction(t, l, "2000-03-10", "Market",
		leg{"Assets:Bank", "-30.00 CAD", "-60.00 CAD"},
		leg{"Expenses:Food", "30.00 CAD", "60.00 CAD"})
	addTransaction(t, l, "2000-01-10", "Bakery",
		leg{"Assets:Bank", "-10.00 CAD", "-10.00 CAD"},
		leg{"Expenses:Food", "10.00 CAD", "10.00 CAD"})
	addTransaction(t, l, "2000-02-10", "Butcher",
		leg{"Assets:Bank", "-20.00 CAD", "-30.00 CAD"},
		leg{"Expenses:Food", "20.00 CAD", "30.00 CAD"})

	v := ledger.View{Start: date(t, "2000-01-01"), End: date(t, "2000-03-31")}
	food := account(t, l, "Expenses:Food")

	t.Run("Postings", func(t *testing.T) {
		got := []string{}
		for _, p := range food.Postings() {
			got = append(got, p.Transaction().Posted.Format(ledger.DateFormat))
		}
		assert.Equal(t, []string{"2000-01-10", "2000-02-10", "2000-03-10"}, got)
	})

	t.Run("WithAllChildPostings", func(t *testing.T) {
		postings := account(t, l, "Expenses").WithAllChildPostings(v, date(t, "2000-01-01"), date(t, "2000-02-28"))
		assert.Equal(t, 2, len(postings))
		assert.Equal(t, "Expenses:Food 10.00 CAD", postings[0].String())
		assert.Equal(t, "Expenses:Food 20.00 CAD", postings[1].String())
	})

	t.Run("TrimToDateRange", func(t *testing.T) {
		got := ledger.TrimToDateRange(food.Postings(), date(t, "2000-02-01"), date(t, "2000-03-31"))
		assert.Equal(t, 2, len(got))
	})

	t.Run("BalanceAt", func(t *testing.T) {
		assert.Equal(t, "10.00 CAD", food.BalanceAt(date(t, "2000-01-31")).String())
		assert.Equal(t, "30.00 CAD", food.BalanceAt(date(t, "2000-02-28")).String())
		assert.Equal(t, "60.00 CAD", food.BalanceAt(date(t, "2000-03-31")).String())
	})

	t.Run("GroupBy", func(t *testing.T) {
		groups, err := ledger.GroupBy(food.Postings(), ledger.Monthly, ledger.PostedDate, food.Commodity, v)
		assert.NoError(t, err)
		assert.Equal(t, []string{
			"2000-01-01 10.00 CAD/10.00 CAD/10.00 CAD",
			"2000-02-01 20.00 CAD/30.00 CAD/30.00 CAD",
			"2000-03-01 30.00 CAD/60.00 CAD/60.00 CAD",
		}, summary(groups))
	})

	t.Run("Verify", func(t *testing.T) {
		// balances chain in date order; only the load order is reported
		err := l.Verify(context.Background())
		var verrs *ledger.ValidationErrors
		assert.True(t, errors.As(err, &verrs))
		assert.Equal(t, 2, len(verrs.Errors))
		for _, e := range verrs.Errors {
			var oerr *ledger.PostingOrderError
			assert.True(t, errors.As(e, &oerr))
			assert.Equal(t, date(t, "2000-03-10"), oerr.Prev)
		}
	})
}
