package ledger_test

import (
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/robinvdvleuten/coin/ledger"
)

func TestIntervalFloor(t *testing.T) {
	tests := []struct {
		interval ledger.Interval
		date     string
		want     string
	}{
		{ledger.Weekly, "2000-01-01", "1999-12-26"},
		{ledger.Weekly, "2000-01-02", "2000-01-02"},
		{ledger.Monthly, "2000-02-29", "2000-02-01"},
		{ledger.Quarterly, "2000-06-30", "2000-04-01"},
		{ledger.Quarterly, "2000-10-01", "2000-10-01"},
		{ledger.Yearly, "2000-07-04", "2000-01-01"},
	}
	for _, tt := range tests {
		t.Run(tt.interval.String()+"/"+tt.date, func(t *testing.T) {
			assert.Equal(t, date(t, tt.want), tt.interval.Floor(date(t, tt.date)))
		})
	}
}

func TestIntervalRange(t *testing.T) {
	got := ledger.Quarterly.Range(date(t, "2000-02-15"), date(t, "2000-10-01"))
	want := []string{"2000-01-01", "2000-04-01", "2000-07-01", "2000-10-01"}
	assert.Equal(t, len(want), len(got))
	for i, d := range got {
		assert.Equal(t, want[i], d.Format(ledger.DateFormat))
	}
	assert.Equal(t, date(t, "2000-02-01"), ledger.Monthly.Next(date(t, "2000-01-01")))
	assert.Equal(t, date(t, "2000-02-01"), ledger.Monthly.Ceil(date(t, "2000-01-15")))
}

func TestParseInterval(t *testing.T) {
	for text, want := range map[string]ledger.Interval{
		"weekly":    ledger.Weekly,
		"Month":     ledger.Monthly,
		"QUARTERLY": ledger.Quarterly,
		" yearly ":  ledger.Yearly,
	} {
		got, err := ledger.ParseInterval(text)
		assert.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ledger.ParseInterval("daily")
	assert.Error(t, err)

	var i ledger.Interval
	assert.NoError(t, i.UnmarshalText([]byte("quarterly")))
	b, err := i.MarshalText()
	assert.NoError(t, err)
	assert.Equal(t, "quarterly", string(b))
}
