package ledger_test

import (
	"errors"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
	"github.com/robinvdvleuten/coin/ledger"
)

var day = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

func parsePrice(t *testing.T, cs *ledger.Commodities, text string) *ledger.Price {
	t.Helper()
	p, err := cs.ParsePrice(text)
	assert.NoError(t, err)
	return p
}

func conversion(t *testing.T, cs *ledger.Commodities, texts ...string) *ledger.Conversion {
	t.Helper()
	prices := make([]*ledger.Price, len(texts))
	for i, text := range texts {
		prices[i] = parsePrice(t, cs, text)
	}
	conv, err := ledger.NewConversion(prices)
	assert.NoError(t, err)
	return conv
}

func TestPriceString(t *testing.T) {
	cs := newCommodities(t)
	for _, text := range []string{
		"CAD: 0.75 USD @ 2000-01-01",
		"USD: 1.33 CAD @ 2000-01-01",
		"USD: 0.99 EUR @ 2010-01-01",
	} {
		t.Run(text, func(t *testing.T) {
			assert.Equal(t, text, parsePrice(t, cs, text).String())
		})
	}
}

func TestPriceReverse(t *testing.T) {
	cs := newCommodities(t)
	p := parsePrice(t, cs, "CAD: 0.75 USD @ 2000-01-01")

	r, err := p.Reverse()
	assert.NoError(t, err)
	assert.Equal(t, "USD: 1.33 CAD @ 2000-01-01", r.String())

	rr, err := r.Reverse()
	assert.NoError(t, err)
	assert.Equal(t, "CAD: 0.75 USD @ 2000-01-01", rr.String())
}

func TestParsePriceErrors(t *testing.T) {
	cs := newCommodities(t)
	for _, text := range []string{
		"CAD 0.75 USD",
		"XXX: 0.75 USD",
		"CAD: 0.75 USD @ yesterday",
	} {
		t.Run(text, func(t *testing.T) {
			_, err := cs.ParsePrice(text)
			assert.Error(t, err)
		})
	}
}

func TestNewConversionEmpty(t *testing.T) {
	_, err := ledger.NewConversion(nil)
	assert.Error(t, err)
}

func TestNewConversionWeekly(t *testing.T) {
	cs := newCommodities(t)
	conv := conversion(t, cs,
		"CAD: 0.75 USD @ 2000-01-01",
		"CAD: 0.80 USD @ 2000-01-20",
		"CAD: 0.90 USD @ 2000-02-15",
	)
	assert.Equal(t, "CAD => USD", conv.Direction)
	assert.Equal(t, 1, conv.Steps)

	tests := []struct {
		date string
		want string
	}{
		{"1999-06-01", "0.75 USD"}, // clamped to first week
		{"2000-01-01", "0.75 USD"},
		{"2000-01-10", "0.75 USD"},
		{"2000-01-25", "0.80 USD"},
		{"2010-01-01", "0.80 USD"}, // clamped to last week
	}
	for _, tt := range tests {
		t.Run(tt.date, func(t *testing.T) {
			date, err := ledger.ParseDate(tt.date)
			assert.NoError(t, err)
			assert.Equal(t, tt.want, conv.At(date).Value().String())
		})
	}
}

func TestNewConversionWithinOneWeek(t *testing.T) {
	cs := newCommodities(t)
	conv := conversion(t, cs,
		"CAD: 0.75 USD @ 2000-01-03",
		"CAD: 0.80 USD @ 2000-01-05",
	)
	later := time.Date(2001, time.January, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "0.75 USD", conv.At(later).Value().String())
}

func TestComposeConversions(t *testing.T) {
	cs := newCommodities(t)
	cu := conversion(t, cs, "CAD: 0.75 USD @ 2000-01-01")
	ue := conversion(t, cs, "USD: 0.90 EUR @ 2000-01-01")
	ez := conversion(t, cs, "EUR: 25.00 CZK @ 2000-01-01")

	ce, err := ledger.ComposeConversions(cu, ue)
	assert.NoError(t, err)
	assert.Equal(t, "CAD => USD => EUR", ce.Direction)
	assert.Equal(t, 2, ce.Steps)
	assert.Equal(t, "CAD: 0.68 EUR @ 2000-01-01", ce.At(day).String())

	_, err = ledger.ComposeConversions(ue, cu)
	var cerr *ledger.CompositionError
	assert.True(t, errors.As(err, &cerr))

	_, err = ledger.ComposeConversions(ce, ez)
	assert.True(t, errors.As(err, &cerr))

	uz, err := ledger.ComposeConversions(ue, ez)
	assert.NoError(t, err)
	cz, err := ledger.ComposeConversions(cu, uz)
	assert.NoError(t, err)
	assert.Equal(t, "CAD => USD => EUR => CZK", cz.Direction)
	assert.Equal(t, 3, cz.Steps)
	assert.Equal(t, "CAD: 16.88 CZK @ 2000-01-01", cz.At(day).String())
}
