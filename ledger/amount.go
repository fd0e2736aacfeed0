package ledger

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// amountREX matches the numeral part of an amount text: optional minus sign,
// digits optionally grouped by commas, optional fraction.
var amountREX = regexp.MustCompile(`^-?\d+(,\d+)*(\.\d+)?$`)

// Amount is a signed integer quantity scaled by 10^Decimals of its commodity.
//
// Amounts are values. Ledger entities (postings, prices) hand out copies, so
// the only way to accumulate into an Amount is through a variable the caller
// owns:
//
//	total := ledger.NewZeroAmount(usd)
//	for _, p := range postings {
//	    if err := total.AddIn(p.Quantity(), p.Transaction().Posted); err != nil {
//	        return err
//	    }
//	}
type Amount struct {
	value     int64
	commodity *Commodity
}

// NewAmount creates an amount from a raw scaled value.
func NewAmount(value int64, c *Commodity) Amount {
	return Amount{value: value, commodity: c}
}

// NewZeroAmount creates an accumulator for the given commodity.
func NewZeroAmount(c *Commodity) Amount {
	return Amount{commodity: c}
}

// ParseAmountIn parses the numeral part of an amount text in the given commodity.
// Fractional digits beyond the commodity's decimals are dropped, missing ones
// are zero-padded; commas grouping the integer part are ignored.
func ParseAmountIn(numeral string, c *Commodity) (Amount, error) {
	if !amountREX.MatchString(numeral) {
		return Amount{}, &ParseError{Text: numeral, Reason: "malformed number"}
	}
	negative := strings.HasPrefix(numeral, "-")
	digits := strings.ReplaceAll(strings.TrimPrefix(numeral, "-"), ",", "")

	whole, frac, _ := strings.Cut(digits, ".")
	if len(frac) > c.Decimals {
		frac = frac[:c.Decimals]
	} else {
		frac += strings.Repeat("0", c.Decimals-len(frac))
	}

	v, err := strconv.ParseInt(whole+frac, 10, 64)
	if err != nil {
		return Amount{}, &ParseError{Text: numeral, Reason: err.Error()}
	}
	if negative {
		v = -v
	}
	return NewAmount(v, c), nil
}

// Value returns the raw scaled integer.
func (a Amount) Value() int64 { return a.value }

// Commodity returns the commodity the amount is denominated in.
func (a Amount) Commodity() *Commodity { return a.commodity }

// Sign returns -1, 0 or 1.
func (a Amount) Sign() int {
	switch {
	case a.value < 0:
		return -1
	case a.value > 0:
		return 1
	}
	return 0
}

// IsZero reports whether the raw value is zero.
func (a Amount) IsZero() bool { return a.value == 0 }

// Neg returns the negated amount.
func (a Amount) Neg() Amount { return NewAmount(-a.value, a.commodity) }

// Abs returns the absolute amount.
func (a Amount) Abs() Amount {
	if a.value < 0 {
		return a.Neg()
	}
	return a
}

// Decimal returns the unscaled decimal value, e.g. 1.25 for "1.25 USD".
func (a Amount) Decimal() decimal.Decimal {
	return decimal.New(a.value, -int32(a.commodity.Decimals))
}

// AddIn adds other into a, converting it into a's commodity as of date when
// the commodities differ. It is the accumulation primitive for running totals.
func (a *Amount) AddIn(other Amount, date time.Time) error {
	if other.commodity == a.commodity {
		a.value += other.value
		return nil
	}
	converted, err := a.commodity.Convert(other, date)
	if err != nil {
		return err
	}
	return a.AddIn(converted, date)
}

// ConvertTo applies a price to the amount. The price must be quoted for the
// amount's commodity; the result is in the price value's commodity, rounded
// half up: -0.675 becomes -0.67.
func (a Amount) ConvertTo(p *Price) (Amount, error) {
	if p.commodity != a.commodity {
		return Amount{}, &InvalidOperationError{Op: "convert", Left: a.commodity.ID, Right: p.commodity.ID}
	}
	return a.convertTo(p.value), nil
}

// convertTo computes round(a * price / 10^a.decimals) in price's commodity.
func (a Amount) convertTo(price Amount) Amount {
	product := decimal.NewFromInt(a.value).Mul(decimal.NewFromInt(price.value))
	scaled := roundHalfUp(product.Shift(-int32(a.commodity.Decimals)))
	return NewAmount(scaled.IntPart(), price.commodity)
}

// Cmp compares two amounts of the same commodity, optionally by absolute value.
func (a Amount) Cmp(other Amount, absolute bool) (int, error) {
	if a.commodity != other.commodity {
		return 0, &InvalidOperationError{Op: "compare", Left: a.commodity.ID, Right: other.commodity.ID}
	}
	x, y := a.value, other.value
	if absolute {
		x, y = abs64(x), abs64(y)
	}
	switch {
	case x < y:
		return -1, nil
	case x > y:
		return 1, nil
	}
	return 0, nil
}

// Reciprocal returns round(10^commodity.decimals / value * 10^decimals), the
// raw value of one unit of this commodity expressed with the given decimals.
func (a Amount) Reciprocal(decimals int) (int64, error) {
	if a.value == 0 {
		return 0, &InvalidOperationError{Op: "reciprocal", Left: a.String()}
	}
	num := decimal.New(1, int32(a.commodity.Decimals+decimals))
	return divRoundHalfUp(num, decimal.NewFromInt(a.value)).IntPart(), nil
}

var (
	half = decimal.New(5, -1)
	one  = decimal.NewFromInt(1)
	two  = decimal.NewFromInt(2)
)

// roundHalfUp returns floor(d + 0.5), rounding halves towards positive
// infinity.
func roundHalfUp(d decimal.Decimal) decimal.Decimal {
	return d.Add(half).Floor()
}

// divRoundHalfUp returns floor(num/den + 0.5) without inexact division.
func divRoundHalfUp(num, den decimal.Decimal) decimal.Decimal {
	if den.IsNegative() {
		num, den = num.Neg(), den.Neg()
	}
	// floor((2num + den) / 2den); QuoRem truncates towards zero
	q, r := num.Mul(two).Add(den).QuoRem(den.Mul(two), 0)
	if r.IsNegative() {
		q = q.Sub(one)
	}
	return q
}

// ToString renders the amount, optionally grouping the integer part in triplets.
func (a Amount) ToString(thousands bool) string {
	var b strings.Builder
	if a.value < 0 {
		b.WriteByte('-')
	}
	digits := strconv.FormatUint(uint64(abs64(a.value)), 10)
	decimals := a.commodity.Decimals
	if len(digits) <= decimals {
		digits = strings.Repeat("0", decimals-len(digits)+1) + digits
	}
	whole, frac := digits[:len(digits)-decimals], digits[len(digits)-decimals:]
	if thousands {
		whole = groupThousands(whole)
	}
	b.WriteString(whole)
	if decimals > 0 {
		b.WriteByte('.')
		b.WriteString(frac)
	}
	b.WriteByte(' ')
	b.WriteString(a.commodity.ID)
	return b.String()
}

func (a Amount) String() string {
	if a.commodity == nil {
		return strconv.FormatInt(a.value, 10)
	}
	return a.ToString(true)
}

// Format implements fmt.Formatter. The '#' flag drops thousands separators.
func (a Amount) Format(f fmt.State, verb rune) {
	switch verb {
	case 'd':
		_, _ = fmt.Fprintf(f, "%d", a.value)
	default:
		if f.Flag('#') && a.commodity != nil {
			_, _ = fmt.Fprint(f, a.ToString(false))
			return
		}
		_, _ = fmt.Fprint(f, a.String())
	}
}

func groupThousands(s string) string {
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	head := len(s) % 3
	if head > 0 {
		b.WriteString(s[:head])
	}
	for i := head; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
