package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"

	"github.com/robinvdvleuten/coin/ledger"
)

func writeJSONResponse(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// requestError marks an invalid query parameter.
type requestError struct {
	err error
}

func (e *requestError) Error() string { return e.err.Error() }
func (e *requestError) Unwrap() error { return e.err }

func badRequest(format string, args ...any) error {
	return &requestError{err: fmt.Errorf(format, args...)}
}

// writeError maps ledger errors onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	var (
		reqErr           *requestError
		parseErr         *ledger.ParseError
		unknownAccount   *ledger.UnknownAccountError
		unknownCommodity *ledger.UnknownCommodityError
		notFound         *ledger.ConversionNotFoundError
		composition      *ledger.CompositionError
		noCounterparty   *ledger.NoCounterpartyPostingError
	)
	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &reqErr), errors.As(err, &parseErr):
		status = http.StatusBadRequest
	case errors.As(err, &unknownAccount), errors.As(err, &unknownCommodity):
		status = http.StatusNotFound
	case errors.As(err, &notFound), errors.As(err, &composition), errors.As(err, &noCounterparty):
		status = http.StatusUnprocessableEntity
	}
	http.Error(w, err.Error(), status)
}

// reportFunc computes a response payload from a request against a snapshot.
type reportFunc func(r *http.Request, l *ledger.Ledger) (any, error)

// cached serves report responses from the response cache, computing and
// storing them on a miss. The read lock is held across compute and store so
// a reload cannot interleave and leave a stale entry behind.
func (s *Server) cached(report reportFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.RLock()
		defer s.mu.RUnlock()

		if s.ledger == nil {
			http.Error(w, "ledger not loaded", http.StatusServiceUnavailable)
			return
		}

		key := cacheKey(r)
		if body, ok := s.responses.Get(key); ok {
			writeCachedBody(w, body.([]byte), "hit")
			return
		}

		data, err := report(r, s.ledger)
		if err != nil {
			writeError(w, err)
			return
		}
		body, err := json.Marshal(data)
		if err != nil {
			http.Error(w, "Failed to encode response", http.StatusInternalServerError)
			return
		}
		s.responses.Set(key, body, cache.DefaultExpiration)
		writeCachedBody(w, body, "miss")
	}
}

// queryParams lists every parameter a report reads. Anything else in the
// query string does not change the response and is left out of cache keys.
var queryParams = []string{
	"account", "amount", "date", "from", "interval", "max_accounts",
	"n", "negated", "show_closed_accounts", "to",
}

func cacheKey(r *http.Request) string {
	values := r.URL.Query()
	known := make(url.Values, len(queryParams))
	for _, name := range queryParams {
		if vals, ok := values[name]; ok {
			known[name] = vals
		}
	}
	return r.URL.Path + "?" + known.Encode()
}

func writeCachedBody(w http.ResponseWriter, body []byte, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Cache", status)
	_, _ = w.Write(body)
	_, _ = w.Write([]byte("\n"))
}

// AmountResponse is an amount with an exact decimal value.
type AmountResponse struct {
	Value     decimal.Decimal `json:"value"`
	Commodity string          `json:"commodity"`
	Text      string          `json:"text"`
}

func newAmountResponse(a ledger.Amount) AmountResponse {
	resp := AmountResponse{Value: decimal.NewFromInt(a.Value()), Text: a.String()}
	if c := a.Commodity(); c != nil {
		resp.Value = a.Decimal()
		resp.Commodity = c.ID
	}
	return resp
}

// query holds the report options shared by every endpoint.
type query struct {
	ledger *ledger.Ledger
	config *ledger.Config
	view   ledger.View
	values url.Values
}

// parseQuery reads report options and the optional from/to window.
func parseQuery(r *http.Request, l *ledger.Ledger) (*query, error) {
	values := r.URL.Query()
	cfg, err := ledger.ConfigFromOptions(values)
	if err != nil {
		return nil, &requestError{err: err}
	}
	q := &query{ledger: l, config: cfg, view: cfg.View(l), values: values}
	if q.view.Start, err = q.date("from", q.view.Start); err != nil {
		return nil, err
	}
	if q.view.End, err = q.date("to", q.view.End); err != nil {
		return nil, err
	}
	if q.view.End.Before(q.view.Start) {
		return nil, badRequest("from %s is after to %s", q.view.Start.Format(ledger.DateFormat), q.view.End.Format(ledger.DateFormat))
	}
	return q, nil
}

func (q *query) date(name string, def time.Time) (time.Time, error) {
	v := q.values.Get(name)
	if v == "" {
		return def, nil
	}
	d, err := ledger.ParseDate(v)
	if err != nil {
		return time.Time{}, badRequest("invalid %s %q (expected YYYY-MM-DD)", name, v)
	}
	return d, nil
}

func (q *query) positiveInt(name string, def int) (int, error) {
	v := q.values.Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, badRequest("invalid %s %q, expected a positive integer", name, v)
	}
	return n, nil
}

// account returns the account named by the account parameter.
func (q *query) account() (*ledger.Account, error) {
	name := q.values.Get("account")
	if name == "" {
		return nil, badRequest("account is required")
	}
	return q.ledger.FindAccount(name)
}

// accounts returns the account named by the account parameter, or every live
// root account when it is omitted.
func (q *query) accounts() ([]*ledger.Account, error) {
	if q.values.Get("account") != "" {
		a, err := q.account()
		if err != nil {
			return nil, err
		}
		return []*ledger.Account{a}, nil
	}
	var roots []*ledger.Account
	for _, root := range q.ledger.Roots() {
		if q.view.Hides(root) {
			continue
		}
		roots = append(roots, root)
	}
	return roots, nil
}
