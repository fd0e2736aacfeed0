package ledger

import (
	"time"
)

// Tags are key/value annotations attached to a posting.
type Tags map[string]string

// Transaction is a dated group of postings.
type Transaction struct {
	Posted      time.Time
	Description string
	Notes       []string
	Code        string
	Location    string

	postings []*Posting
}

// NewTransaction creates a transaction without postings.
func NewTransaction(posted time.Time, description string, notes []string, code, location string) *Transaction {
	return &Transaction{
		Posted:      posted,
		Description: description,
		Notes:       notes,
		Code:        code,
		Location:    location,
	}
}

func (t *Transaction) String() string {
	return t.Posted.Format(DateFormat) + " " + t.Description
}

// Postings returns the legs of the transaction in the order they were added.
func (t *Transaction) Postings() []*Posting {
	return t.postings
}

// Other returns the first other posting with a sign opposite to p's, or any
// other posting when p's quantity is zero. Transactions with several legs of
// the same sign are ambiguous; the first match wins.
func (t *Transaction) Other(p *Posting) (*Posting, error) {
	sign := p.quantity.Sign()
	for _, other := range t.postings {
		if other != p && (other.quantity.Sign() != sign || sign == 0) {
			return other, nil
		}
	}
	return nil, &NoCounterpartyPostingError{Posting: p}
}

// Posting is one leg of a transaction affecting one account.
type Posting struct {
	transaction     *Transaction
	account         *Account
	quantity        Amount
	balance         Amount
	balanceAsserted bool
	notes           []string
	tags            Tags

	// seq is the load position within the account.
	seq int

	// Index is scratch space for presentation code restoring display order.
	Index int
}

// NewPosting creates a posting and appends it to the transaction. The
// account keeps its postings in date order, so a posting dated before
// earlier-loaded ones is inserted after the last posting on or before its date.
func NewPosting(t *Transaction, a *Account, quantity, balance Amount, balanceAsserted bool, notes []string, tags Tags) *Posting {
	p := &Posting{
		transaction:     t,
		account:         a,
		quantity:        quantity,
		balance:         balance,
		balanceAsserted: balanceAsserted,
		notes:           notes,
		tags:            tags,
	}
	t.postings = append(t.postings, p)
	a.insert(p)
	return p
}

// Transaction returns the owning transaction.
func (p *Posting) Transaction() *Transaction { return p.transaction }

// Account returns the account the posting affects.
func (p *Posting) Account() *Account { return p.account }

// Quantity returns the movement of the posting.
func (p *Posting) Quantity() Amount { return p.quantity }

// Balance returns the account balance recorded right after this posting.
func (p *Posting) Balance() Amount { return p.balance }

// BalanceAsserted reports whether the source data asserted the balance.
func (p *Posting) BalanceAsserted() bool { return p.balanceAsserted }

// Notes returns the posting notes.
func (p *Posting) Notes() []string { return p.notes }

// Tags returns the posting tags.
func (p *Posting) Tags() Tags { return p.tags }

func (p *Posting) String() string {
	s := p.account.FullName + " " + p.quantity.String()
	if p.balanceAsserted {
		s += " = " + p.balance.String()
	}
	return s
}

// PostedDate returns the posting's transaction date. It is the usual date
// accessor for GroupBy.
func PostedDate(p *Posting) time.Time {
	return p.transaction.Posted
}
