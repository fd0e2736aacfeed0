package ledger

import (
	"fmt"
	"time"
)

// Error types for ledger construction, conversion and aggregation failures.

// ParseError is returned when an amount, price or date text is malformed.
type ParseError struct {
	Text   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse %q: %s", e.Text, e.Reason)
}

// UnknownCommodityError is returned when a commodity id is not registered.
type UnknownCommodityError struct {
	ID string
}

func (e *UnknownCommodityError) Error() string {
	return fmt.Sprintf("unknown commodity: %s", e.ID)
}

// UnknownAccountError is returned when an account full name is not registered.
type UnknownAccountError struct {
	Name     string
	Location string // where the reference was made, if known
}

func (e *UnknownAccountError) Error() string {
	if e.Location != "" {
		return fmt.Sprintf("%s: unknown account: %s", e.Location, e.Name)
	}
	return fmt.Sprintf("unknown account: %s", e.Name)
}

// DuplicateError is returned when a commodity or account is registered twice.
type DuplicateError struct {
	Kind string
	Name string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate %s: %s", e.Kind, e.Name)
}

// ConversionNotFoundError is returned when no chain of prices connects two commodities.
type ConversionNotFoundError struct {
	From   string
	To     string
	Amount string
}

func (e *ConversionNotFoundError) Error() string {
	return fmt.Sprintf("cannot convert %s to %s: no conversion %s => %s", e.Amount, e.To, e.From, e.To)
}

// CompositionError is returned when two conversions cannot be chained.
type CompositionError struct {
	First  string
	Second string
	Reason string
}

func (e *CompositionError) Error() string {
	if e.First == "" {
		return e.Reason
	}
	return fmt.Sprintf("cannot compose %q with %q: %s", e.First, e.Second, e.Reason)
}

// InvalidOperationError is returned when an operation mixes incompatible amounts.
type InvalidOperationError struct {
	Op    string
	Left  string
	Right string
}

func (e *InvalidOperationError) Error() string {
	if e.Right == "" {
		return fmt.Sprintf("invalid %s of %s", e.Op, e.Left)
	}
	return fmt.Sprintf("invalid %s of %s with %s", e.Op, e.Left, e.Right)
}

// NoCounterpartyPostingError is returned when a transaction has no posting
// with a sign opposite to the given one.
type NoCounterpartyPostingError struct {
	Posting *Posting
}

func (e *NoCounterpartyPostingError) Error() string {
	return fmt.Sprintf("%s: no other posting for %s", e.Posting.transaction, e.Posting)
}

// StructuralMismatchError is returned when merged posting groups disagree on
// bucket dates. It indicates an internal inconsistency, not bad data.
type StructuralMismatchError struct {
	Index    int
	Expected time.Time
	Actual   time.Time
}

func (e *StructuralMismatchError) Error() string {
	return fmt.Sprintf("date mismatch totaling groups at %d: %s != %s",
		e.Index, e.Expected.Format(DateFormat), e.Actual.Format(DateFormat))
}

// RoundTripError is returned by loaders when an amount text does not survive
// parsing and formatting unchanged.
type RoundTripError struct {
	Text   string
	Parsed string
}

func (e *RoundTripError) Error() string {
	return fmt.Sprintf("parsed amount %q doesn't match imported %q", e.Parsed, e.Text)
}

// BalanceMismatchError is returned by Verify when a posting's balance is not
// the previous balance plus its quantity.
type BalanceMismatchError struct {
	Account  string
	Date     time.Time
	Expected Amount
	Actual   Amount
	Posting  *Posting
}

func (e *BalanceMismatchError) Error() string {
	return fmt.Sprintf("%s: balance mismatch in %s: expected %s, recorded %s",
		e.Date.Format(DateFormat), e.Account, e.Expected, e.Actual)
}

// PostingOrderError is returned by Verify when an account's postings are not
// in chronological order.
type PostingOrderError struct {
	Account string
	Date    time.Time
	Prev    time.Time
	Posting *Posting
}

func (e *PostingOrderError) Error() string {
	return fmt.Sprintf("%s: posting in %s precedes previous posting dated %s",
		e.Date.Format(DateFormat), e.Account, e.Prev.Format(DateFormat))
}

// ValidationErrors wraps multiple validation errors
type ValidationErrors struct {
	Errors []error
}

func (e *ValidationErrors) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%d validation errors occurred", len(e.Errors))
}

// Unwrap returns the underlying errors for error unwrapping
func (e *ValidationErrors) Unwrap() []error {
	return e.Errors
}
