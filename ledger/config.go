package ledger

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Config holds report options shared by the CLI and the web server.
type Config struct {
	Interval           Interval
	MaxAccounts        int
	ShowClosedAccounts bool
	Negated            bool
}

// NewConfig creates a Config with the default report options.
func NewConfig() *Config {
	return &Config{
		Interval:    Monthly,
		MaxAccounts: 5,
	}
}

// ConfigFromOptions parses an option map into a Config. Unknown keys are
// ignored and the first value of a key wins, so url.Values can be passed as is.
// Supports:
//   - interval: weekly|monthly|quarterly|yearly
//   - max_accounts: positive integer
//   - show_closed_accounts: boolean
//   - negated: boolean
func ConfigFromOptions(options map[string][]string) (*Config, error) {
	cfg := NewConfig()

	if vals := options["interval"]; len(vals) > 0 {
		interval, err := ParseInterval(vals[0])
		if err != nil {
			return nil, err
		}
		cfg.Interval = interval
	}

	if vals := options["max_accounts"]; len(vals) > 0 {
		n, err := strconv.Atoi(strings.TrimSpace(vals[0]))
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid max_accounts %q, expected a positive integer", vals[0])
		}
		cfg.MaxAccounts = n
	}

	var err error
	if cfg.ShowClosedAccounts, err = boolOption(options, "show_closed_accounts"); err != nil {
		return nil, err
	}
	if cfg.Negated, err = boolOption(options, "negated"); err != nil {
		return nil, err
	}
	return cfg, nil
}

func boolOption(options map[string][]string, name string) (bool, error) {
	vals := options[name]
	if len(vals) == 0 {
		return false, nil
	}
	if vals[0] == "" {
		return true, nil
	}
	b, err := strconv.ParseBool(vals[0])
	if err != nil {
		return false, fmt.Errorf("invalid %s %q, expected true or false", name, vals[0])
	}
	return b, nil
}

// View returns the ledger's default date window with the config's closed
// account setting applied.
func (c *Config) View(l *Ledger) View {
	v := l.DefaultView()
	v.ShowClosedAccounts = c.ShowClosedAccounts
	return v
}

// View is the date window reports are computed over.
type View struct {
	Start              time.Time
	End                time.Time
	ShowClosedAccounts bool
}

// Contains reports whether date falls within the window, inclusively.
func (v View) Contains(date time.Time) bool {
	return !date.Before(v.Start) && !date.After(v.End)
}

// Hides reports whether a is left out of reports over the window: it was
// closed before the window ends and closed accounts are not shown.
func (v View) Hides(a *Account) bool {
	return !v.ShowClosedAccounts && !a.Closed.IsZero() && a.Closed.Before(v.End)
}

// contextKey is a private type to avoid key collisions in context.
type contextKey struct{}

// WithContext returns a new context with the Config attached.
func (c *Config) WithContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, c)
}

// ConfigFromContext retrieves the Config from context.
// Returns a default Config if not found.
func ConfigFromContext(ctx context.Context) *Config {
	if cfg, ok := ctx.Value(contextKey{}).(*Config); ok {
		return cfg
	}
	return NewConfig()
}
