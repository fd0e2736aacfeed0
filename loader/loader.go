// Package loader builds a ledger from a snapshot document.
//
// A snapshot holds four sections, read in dependency order: commodities,
// prices, accounts and transactions. Documents are JSON by default, YAML
// when the file name ends in .yaml or .yml:
//
//	{
//	  "commodities": {"CAD": {"id": "CAD", "name": "Canadian Dollar", "decimals": 2}},
//	  "prices": [{"commodity": "USD", "currency": "CAD", "time": "2000/01/01", "value": "1.33 CAD"}],
//	  "accounts": {"Assets": {"name": "Assets", "fullName": "Assets", "commodity": "CAD", "parent": "Root"}},
//	  "transactions": [{"posted": "2000-01-02T00:00:00Z", "description": "Opening", "postings": [...]}]
//	}
//
// Loading stops at the first error.
//
// Example usage:
//
//	ldr := loader.New()
//	l, err := ldr.Load(ctx, "ledger.json")
package loader

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/robinvdvleuten/coin/ledger"
	"github.com/robinvdvleuten/coin/telemetry"
	"gopkg.in/yaml.v3"
)

// Format is a snapshot encoding.
type Format int

const (
	// FormatAuto picks the format from the file extension.
	FormatAuto Format = iota
	FormatJSON
	FormatYAML
)

// Loader reads snapshot documents into ledgers.
//
// Configure the loader using functional options passed to New:
//
//	loader := New(WithFormat(FormatYAML), WithoutReversePrices())
type Loader struct {
	// Format of the documents, FormatAuto by default.
	Format Format

	// ReversePrices records each price's reciprocal on the quoted commodity.
	ReversePrices bool
}

// Option configures how snapshots are loaded.
type Option func(*Loader)

// WithFormat forces the document format instead of guessing it from the file name.
func WithFormat(f Format) Option {
	return func(l *Loader) {
		l.Format = f
	}
}

// WithoutReversePrices keeps prices one-directional. Use it for snapshots that
// already list both directions of every price.
func WithoutReversePrices() Option {
	return func(l *Loader) {
		l.ReversePrices = false
	}
}

// New creates a new Loader with the given options.
func New(opts ...Option) *Loader {
	l := &Loader{
		Format:        FormatAuto,
		ReversePrices: true,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Load reads and builds the snapshot stored in filename.
func (l *Loader) Load(ctx context.Context, filename string) (*ledger.Ledger, error) {
	timer := telemetry.StartTimer(ctx, "loader.load "+filepath.Base(filename))
	defer timer.End()
	ctx = telemetry.WithTimer(ctx, timer)

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filename, err)
	}
	return l.LoadBytes(ctx, filename, data)
}

// LoadBytes builds the snapshot in data. filename is used for format
// detection and error locations only.
func (l *Loader) LoadBytes(ctx context.Context, filename string, data []byte) (*ledger.Ledger, error) {
	snapshot, err := l.decode(ctx, filename, data)
	if err != nil {
		return nil, err
	}
	return l.Build(ctx, filename, snapshot)
}

func (l *Loader) format(filename string) Format {
	if l.Format != FormatAuto {
		return l.Format
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatJSON
}

func (l *Loader) decode(ctx context.Context, filename string, data []byte) (*Snapshot, error) {
	timer := telemetry.StartTimer(ctx, "loader.decode")
	defer timer.End()

	var snapshot Snapshot
	switch l.format(filename) {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &snapshot); err != nil {
			return nil, fmt.Errorf("%s: %w", filename, err)
		}
	default:
		if err := json.Unmarshal(data, &snapshot); err != nil {
			return nil, fmt.Errorf("%s: %w", filename, err)
		}
	}
	return &snapshot, nil
}

// Build creates a ledger from a decoded snapshot.
func (l *Loader) Build(ctx context.Context, filename string, s *Snapshot) (*ledger.Ledger, error) {
	led := ledger.New()
	b := &builder{loader: l, ledger: led, filename: filename}

	phases := []struct {
		name string
		run  func(context.Context) error
	}{
		{fmt.Sprintf("loader.commodities (%d)", len(s.Commodities)), func(ctx context.Context) error { return b.commodities(ctx, s.Commodities) }},
		{fmt.Sprintf("loader.prices (%d)", len(s.Prices)), func(ctx context.Context) error { return b.prices(ctx, s.Prices) }},
		{fmt.Sprintf("loader.accounts (%d)", len(s.Accounts)), func(ctx context.Context) error { return b.accounts(ctx, s.Accounts) }},
		{fmt.Sprintf("loader.transactions (%d)", len(s.Transactions)), func(ctx context.Context) error { return b.transactions(ctx, s.Transactions) }},
	}
	for _, phase := range phases {
		timer := telemetry.StartTimer(ctx, phase.name)
		err := phase.run(ctx)
		timer.End()
		if err != nil {
			return nil, err
		}
	}
	return led, nil
}

// builder feeds records into a ledger, attributing errors to their record.
type builder struct {
	loader   *Loader
	ledger   *ledger.Ledger
	filename string
}

// location returns the record's own location or a path into the document.
func (b *builder) location(own, section string, i int) string {
	if own != "" {
		return own
	}
	return fmt.Sprintf("%s:%s[%d]", b.filename, section, i)
}

// wrap prefixes err with loc unless the error already names it.
func wrap(loc string, err error) error {
	if strings.HasPrefix(err.Error(), loc) {
		return err
	}
	return fmt.Errorf("%s: %w", loc, err)
}

func (b *builder) commodities(ctx context.Context, records []CommodityRecord) error {
	for i, r := range records {
		if err := ctx.Err(); err != nil {
			return err
		}
		loc := b.location(r.Location, "commodities", i)
		if r.ID == "" || r.Decimals < 0 {
			return fmt.Errorf("%s: invalid commodity %q with %d decimals", loc, r.ID, r.Decimals)
		}
		if err := b.ledger.AddCommodity(ledger.NewCommodity(r.ID, r.Name, r.Decimals, loc)); err != nil {
			return wrap(loc, err)
		}
	}
	return nil
}

func (b *builder) prices(ctx context.Context, records []PriceRecord) error {
	for i, r := range records {
		if err := ctx.Err(); err != nil {
			return err
		}
		loc := b.location(r.Location, "prices", i)
		date, err := ledger.ParseDate(r.Time)
		if err != nil {
			return wrap(loc, err)
		}
		if _, id, _ := strings.Cut(r.Value, " "); r.Currency != "" && id != r.Currency {
			return wrap(loc, &ledger.ParseError{Text: r.Value, Reason: "price value is not in " + r.Currency})
		}
		r.Location = loc
		if err := b.addPrice(r, date); err != nil {
			return wrap(loc, err)
		}
	}
	return nil
}

func (b *builder) addPrice(r PriceRecord, date time.Time) error {
	if b.loader.ReversePrices {
		_, err := b.ledger.AddPrice(r.Commodity, r.Value, date, r.Location)
		return err
	}
	c, err := b.ledger.Commodities().Find(r.Commodity)
	if err != nil {
		return err
	}
	value, err := b.ledger.Commodities().ParseAmount(r.Value)
	if err != nil {
		return err
	}
	if value.String() != r.Value {
		return &ledger.RoundTripError{Text: r.Value, Parsed: value.String()}
	}
	c.AddPrice(ledger.NewPrice(c, date, value, r.Location))
	return nil
}

func (b *builder) accounts(ctx context.Context, records []AccountRecord) error {
	for i, r := range records {
		if err := ctx.Err(); err != nil {
			return err
		}
		loc := b.location(r.Location, "accounts", i)
		var closed time.Time
		if r.Closed != "" {
			var err error
			if closed, err = ledger.ParseDate(r.Closed); err != nil {
				return wrap(loc, err)
			}
		}
		if _, err := b.ledger.AddAccount(r.Name, r.FullName, r.Commodity, r.Parent, closed, loc); err != nil {
			return wrap(loc, err)
		}
	}
	return nil
}

func (b *builder) transactions(ctx context.Context, records []TransactionRecord) error {
	for i, r := range records {
		if err := ctx.Err(); err != nil {
			return err
		}
		loc := b.location(r.Location, "transactions", i)
		posted, err := ledger.ParseDate(r.Posted)
		if err != nil {
			return wrap(loc, err)
		}
		postings := make([]ledger.PostingInput, len(r.Postings))
		for j, p := range r.Postings {
			postings[j] = ledger.PostingInput{
				Account:         p.Account,
				Quantity:        p.Quantity,
				Balance:         p.Balance,
				BalanceAsserted: p.BalanceAsserted,
				Notes:           p.Notes,
				Tags:            ledger.Tags(p.Tags),
			}
		}
		if _, err := b.ledger.AddTransaction(posted, r.Description, r.Notes, r.Code, loc, postings); err != nil {
			return wrap(loc, err)
		}
	}
	return nil
}

// MustLoadBytes is like LoadBytes but panics on error. It simplifies fixtures
// in tests.
func (l *Loader) MustLoadBytes(ctx context.Context, filename string, data []byte) *ledger.Ledger {
	led, err := l.LoadBytes(ctx, filename, data)
	if err != nil {
		panic(err)
	}
	return led
}
