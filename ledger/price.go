package ledger

import (
	"fmt"
	"strings"
	"time"
)

// DateFormat is the layout used for dates in texts and transport records.
const DateFormat = "2006-01-02"

// Price records that one unit of a commodity was worth value as of date.
type Price struct {
	commodity *Commodity
	date      time.Time
	value     Amount
	location  string
}

// NewPrice creates a price observation. It does not register the price with
// the commodity; see Commodity.AddPrice.
func NewPrice(c *Commodity, date time.Time, value Amount, location string) *Price {
	return &Price{commodity: c, date: date, value: value, location: location}
}

// Commodity returns the priced commodity.
func (p *Price) Commodity() *Commodity { return p.commodity }

// Date returns the observation date.
func (p *Price) Date() time.Time { return p.date }

// Value returns the worth of one unit of the commodity.
func (p *Price) Value() Amount { return p.value }

// Location returns where the price was recorded.
func (p *Price) Location() string { return p.location }

// Reverse returns the reciprocal price: one unit of the value's commodity
// expressed in this price's commodity, on the same date.
func (p *Price) Reverse() (*Price, error) {
	v, err := p.value.Reciprocal(p.commodity.Decimals)
	if err != nil {
		return nil, err
	}
	return NewPrice(p.value.commodity, p.date, NewAmount(v, p.commodity), p.location), nil
}

func (p *Price) String() string {
	return fmt.Sprintf("%s: %s @ %s", p.commodity.ID, p.value, p.date.Format(DateFormat))
}

// ParsePrice parses `CAD: 0.75 USD @ 2000-01-01`. The date suffix is optional
// and defaults to the zero time.
func (cs *Commodities) ParsePrice(text string) (*Price, error) {
	head, rest, ok := strings.Cut(text, ":")
	if !ok {
		return nil, &ParseError{Text: text, Reason: "expected <commodity>: <amount> [@ <date>]"}
	}
	c, err := cs.Find(strings.TrimSpace(head))
	if err != nil {
		return nil, err
	}
	amountText, dateText, hasDate := strings.Cut(rest, "@")
	value, err := cs.ParseAmount(amountText)
	if err != nil {
		return nil, err
	}
	var date time.Time
	if hasDate {
		if date, err = ParseDate(strings.TrimSpace(dateText)); err != nil {
			return nil, &ParseError{Text: text, Reason: err.Error()}
		}
	}
	return NewPrice(c, date, value, ""), nil
}

// ParseDate parses a YYYY-MM-DD or YYYY/MM/DD date, or an RFC 3339 timestamp.
func ParseDate(s string) (time.Time, error) {
	for _, layout := range []string{DateFormat, "2006/01/02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date: %s", s)
	}
	return t.UTC(), nil
}
