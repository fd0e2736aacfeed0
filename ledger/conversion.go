package ledger

import (
	"math"
	"time"
)

// Conversion turns a date into the price of one unit of From in To.
//
// Direct conversions (Steps == 1) are derived from a run of prices for a
// single commodity pair and resolve dates with weekly resolution. Composed
// conversions chain a direct conversion with another conversion.
type Conversion struct {
	From      *Commodity
	To        *Commodity
	Direction string
	Steps     int

	at func(time.Time) *Price
}

// At returns the price applicable on date.
func (c *Conversion) At(date time.Time) *Price {
	return c.at(date)
}

// Convert applies the conversion to an amount of From.
func (c *Conversion) Convert(amount Amount, date time.Time) (Amount, error) {
	return amount.ConvertTo(c.At(date))
}

func (c *Conversion) String() string {
	return c.Direction
}

// NewConversion builds a direct conversion from prices of one commodity pair
// sorted by date.
//
// One price is materialized per week start between the first and the last
// price: the latest price dated on or before that week start. A query date is
// mapped linearly onto the week index and rounded to the nearest week, with
// dates outside the price range clamped to the ends. When the prices do not
// span a week start the conversion is constant.
func NewConversion(prices []*Price) (*Conversion, error) {
	if len(prices) == 0 {
		return nil, &CompositionError{Reason: "cannot create conversion from empty price list"}
	}
	first := prices[0]
	conv := &Conversion{
		From:      first.commodity,
		To:        first.value.commodity,
		Direction: first.commodity.ID + " => " + first.value.commodity.ID,
		Steps:     1,
	}

	from, to := first.date, prices[len(prices)-1].date
	dates := Weekly.points(from, to)
	if len(dates) == 0 {
		conv.at = func(time.Time) *Price { return first }
		return conv, nil
	}

	weeks := make([]*Price, len(dates))
	cursor := 0
	for i, d := range dates {
		for cursor+1 < len(prices) && !prices[cursor+1].date.After(d) {
			cursor++
		}
		weeks[i] = prices[cursor]
	}

	span := to.Sub(from).Seconds()
	last := float64(len(weeks) - 1)
	conv.at = func(date time.Time) *Price {
		pos := date.Sub(from).Seconds() / span * last
		idx := int(math.Round(math.Max(0, math.Min(last, pos))))
		return weeks[idx]
	}
	return conv, nil
}

// ComposeConversions chains ab and bc into a conversion from ab.From to bc.To.
// ab must be a direct conversion ending where bc starts.
func ComposeConversions(ab, bc *Conversion) (*Conversion, error) {
	if ab.Steps != 1 {
		return nil, &CompositionError{First: ab.Direction, Second: bc.Direction, Reason: "first conversion must be direct"}
	}
	if ab.To != bc.From {
		return nil, &CompositionError{First: ab.Direction, Second: bc.Direction, Reason: "conversions are not adjacent"}
	}
	return &Conversion{
		From:      ab.From,
		To:        bc.To,
		Direction: ab.From.ID + " => " + bc.Direction,
		Steps:     ab.Steps + bc.Steps,
		at: func(date time.Time) *Price {
			value := ab.At(date).value.convertTo(bc.At(date).value)
			return NewPrice(ab.From, date, value, "")
		},
	}, nil
}
