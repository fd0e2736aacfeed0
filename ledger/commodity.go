package ledger

import (
	"strings"
	"sync"
	"time"

	"golang.org/x/exp/slices"
)

// Commodity is a currency or another tradable unit with a fixed decimal precision.
//
// A commodity owns its price observations and lazily derives conversions to
// other commodities from them. The conversion cache is built on first use and
// is only invalidated by ResetConversions, so all prices must be added before
// the first conversion lookup.
type Commodity struct {
	ID       string
	Name     string
	Decimals int
	Location string

	prices []*Price

	mu          sync.Mutex
	conversions map[*Commodity]*Conversion
	// order keeps conversions in the order they were derived or discovered
	order []*Conversion
}

// NewCommodity creates a commodity. Decimals must not be negative.
func NewCommodity(id, name string, decimals int, location string) *Commodity {
	if decimals < 0 {
		decimals = 0
	}
	return &Commodity{ID: id, Name: name, Decimals: decimals, Location: location}
}

func (c *Commodity) String() string {
	return c.ID
}

// AddPrice appends a price observation quoted for this commodity.
func (c *Commodity) AddPrice(p *Price) {
	c.prices = append(c.prices, p)
}

// Prices returns the price observations in insertion order.
func (c *Commodity) Prices() []*Price {
	return c.prices
}

// ResetConversions drops all derived conversions, direct and composed.
func (c *Commodity) ResetConversions() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conversions = nil
	c.order = nil
}

// Conversions returns every conversion known for this commodity, direct ones
// first in order of their first price, followed by composed conversions in
// the order they were discovered.
func (c *Commodity) Conversions() ([]*Conversion, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.buildConversions(); err != nil {
		return nil, err
	}
	return slices.Clone(c.order), nil
}

// directConversions returns the single-step conversions of this commodity.
func (c *Commodity) directConversions() ([]*Conversion, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.buildConversions(); err != nil {
		return nil, err
	}
	direct := make([]*Conversion, 0, len(c.order))
	for _, conv := range c.order {
		if conv.Steps == 1 {
			direct = append(direct, conv)
		}
	}
	return direct, nil
}

// buildConversions groups prices by the quoted commodity and derives one
// direct conversion per group. Caller must hold c.mu.
func (c *Commodity) buildConversions() error {
	if c.conversions != nil {
		return nil
	}
	var targets []*Commodity
	groups := make(map[*Commodity][]*Price)
	for _, p := range c.prices {
		target := p.value.commodity
		if _, ok := groups[target]; !ok {
			targets = append(targets, target)
		}
		groups[target] = append(groups[target], p)
	}

	conversions := make(map[*Commodity]*Conversion, len(targets))
	order := make([]*Conversion, 0, len(targets))
	for _, target := range targets {
		prices := slices.Clone(groups[target])
		slices.SortStableFunc(prices, func(a, b *Price) int {
			return a.date.Compare(b.date)
		})
		conv, err := NewConversion(prices)
		if err != nil {
			return err
		}
		conversions[target] = conv
		order = append(order, conv)
	}
	c.conversions = conversions
	c.order = order
	return nil
}

// lookupConversion returns a cached conversion to target, if any.
func (c *Commodity) lookupConversion(target *Commodity) (*Conversion, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.buildConversions(); err != nil {
		return nil, false, err
	}
	conv, ok := c.conversions[target]
	return conv, ok, nil
}

// storeConversion caches a composed conversion unless one already exists.
func (c *Commodity) storeConversion(conv *Conversion) *Conversion {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.buildConversions(); err != nil {
		return conv
	}
	if existing, ok := c.conversions[conv.To]; ok {
		return existing
	}
	c.conversions[conv.To] = conv
	c.order = append(c.order, conv)
	return conv
}

// FindConversion resolves a conversion from this commodity to target.
//
// Direct conversions are returned as is. Otherwise a breadth-first search over
// direct conversions finds the path with the fewest hops (ties go to the path
// discovered first); the path is composed into a single conversion and cached.
// The boolean is false when target is unreachable.
func (c *Commodity) FindConversion(target *Commodity) (*Conversion, bool, error) {
	if conv, ok, err := c.lookupConversion(target); err != nil || ok {
		return conv, ok, err
	}

	direct, err := c.directConversions()
	if err != nil {
		return nil, false, err
	}
	visited := map[*Commodity]bool{c: true}
	queue := make([][]*Conversion, 0, len(direct))
	for _, conv := range direct {
		visited[conv.To] = true
		queue = append(queue, []*Conversion{conv})
	}

	for len(queue) > 0 {
		path := queue[0]
		queue = queue[1:]

		next, err := path[len(path)-1].To.directConversions()
		if err != nil {
			return nil, false, err
		}
		for _, conv := range next {
			if conv.To == target {
				composed, err := composePath(append(slices.Clone(path), conv))
				if err != nil {
					return nil, false, err
				}
				return c.storeConversion(composed), true, nil
			}
			if visited[conv.To] {
				continue
			}
			visited[conv.To] = true
			queue = append(queue, append(slices.Clone(path), conv))
		}
	}
	return nil, false, nil
}

// composePath folds a path of direct conversions from the right so that each
// composition step has a direct conversion on its left.
func composePath(path []*Conversion) (*Conversion, error) {
	composed := path[len(path)-1]
	for i := len(path) - 2; i >= 0; i-- {
		var err error
		if composed, err = ComposeConversions(path[i], composed); err != nil {
			return nil, err
		}
	}
	return composed, nil
}

// Convert converts amount into this commodity using prices as of date.
// Zero amounts convert to zero without requiring a conversion path.
func (c *Commodity) Convert(amount Amount, date time.Time) (Amount, error) {
	if amount.commodity == c {
		return amount, nil
	}
	if amount.IsZero() {
		return NewZeroAmount(c), nil
	}
	conv, ok, err := amount.commodity.FindConversion(c)
	if err != nil {
		return Amount{}, err
	}
	if !ok {
		return Amount{}, &ConversionNotFoundError{From: amount.commodity.ID, To: c.ID, Amount: amount.String()}
	}
	return amount.convertTo(conv.At(date).value), nil
}

// Commodities is the registry of commodities keyed by id.
type Commodities struct {
	byID  map[string]*Commodity
	order []*Commodity
}

// NewCommodities creates an empty registry.
func NewCommodities() *Commodities {
	return &Commodities{byID: make(map[string]*Commodity)}
}

// Add registers a commodity. Ids must be unique.
func (cs *Commodities) Add(c *Commodity) error {
	if _, exists := cs.byID[c.ID]; exists {
		return &DuplicateError{Kind: "commodity", Name: c.ID}
	}
	cs.byID[c.ID] = c
	cs.order = append(cs.order, c)
	return nil
}

// Get returns the commodity with the given id.
func (cs *Commodities) Get(id string) (*Commodity, bool) {
	c, ok := cs.byID[id]
	return c, ok
}

// Find returns the commodity with the given id or an UnknownCommodityError.
func (cs *Commodities) Find(id string) (*Commodity, error) {
	c, ok := cs.byID[id]
	if !ok {
		return nil, &UnknownCommodityError{ID: id}
	}
	return c, nil
}

// All returns commodities in registration order.
func (cs *Commodities) All() []*Commodity {
	return cs.order
}

// Len returns the number of registered commodities.
func (cs *Commodities) Len() int {
	return len(cs.order)
}

// ParseAmount parses text of the form `-1,234.56 USD`.
func (cs *Commodities) ParseAmount(text string) (Amount, error) {
	numeral, id, ok := strings.Cut(strings.TrimSpace(text), " ")
	if !ok || strings.Contains(id, " ") {
		return Amount{}, &ParseError{Text: text, Reason: "expected <number> <commodity>"}
	}
	c, err := cs.Find(id)
	if err != nil {
		return Amount{}, err
	}
	amt, err := ParseAmountIn(numeral, c)
	if err != nil {
		return Amount{}, &ParseError{Text: text, Reason: "malformed number"}
	}
	return amt, nil
}

// ResetConversions clears the conversion cache of every commodity.
func (cs *Commodities) ResetConversions() {
	for _, c := range cs.order {
		c.ResetConversions()
	}
}
