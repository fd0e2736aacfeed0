package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"

	"github.com/robinvdvleuten/coin/ledger"
)

const householdJSON = `{
	"commodities": {
		"CAD": {"id": "CAD", "name": "Canadian Dollar", "decimals": 2},
		"USD": {"id": "USD", "name": "US Dollar", "decimals": 2}
	},
	"prices": [
		{"commodity": "USD", "currency": "CAD", "time": "2000/01/01", "value": "1.33 CAD"}
	],
	"accounts": {
		"Assets": {"name": "Assets", "fullName": "Assets", "commodity": "CAD", "parent": ""},
		"Assets:Bank": {"name": "Bank", "fullName": "Assets:Bank", "commodity": "CAD", "parent": "Assets"},
		"Expenses": {"name": "Expenses", "fullName": "Expenses", "commodity": "CAD", "parent": ""},
		"Expenses:Food": {"name": "Food", "fullName": "Expenses:Food", "commodity": "CAD", "parent": "Expenses"},
		"Expenses:Travel": {"name": "Travel", "fullName": "Expenses:Travel", "commodity": "USD", "parent": "Expenses", "closed": "2000-06-30"}
	},
	"transactions": [
		{
			"posted": "2000-01-15T00:00:00Z",
			"description": "Groceries",
			"postings": [
				{"account": "Assets:Bank", "quantity": "-50.00 CAD", "balance": "-50.00 CAD"},
				{"account": "Expenses:Food", "quantity": "50.00 CAD", "balance": "50.00 CAD"}
			]
		},
		{
			"posted": "2000-02-25T00:00:00Z",
			"description": "Flight",
			"postings": [
				{"account": "Assets:Bank", "quantity": "-100.00 CAD", "balance": "-150.00 CAD"},
				{"account": "Expenses:Travel", "quantity": "75.00 USD", "balance": "75.00 USD", "tags": {"trip": "Paris"}}
			]
		},
		{
			"posted": "2000-03-10T00:00:00Z",
			"description": "Groceries",
			"postings": [
				{"account": "Assets:Bank", "quantity": "-20.00 CAD", "balance": "-170.00 CAD"},
				{"account": "Expenses:Food", "quantity": "20.00 CAD", "balance": "70.00 CAD"}
			]
		}
	]
}`

func newTestServer(t *testing.T) (*Server, *http.ServeMux, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ledger.json")
	assert.NoError(t, os.WriteFile(path, []byte(householdJSON), 0o600))

	server := NewWithVersion(8080, path, "1.2.3", "abc123")
	assert.NoError(t, server.reloadLedger(context.Background()))
	return server, server.setupRouter(), path
}

func get(t *testing.T, mux http.Handler, target string, into any) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if into != nil && rec.Code == http.StatusOK {
		assert.NoError(t, json.NewDecoder(rec.Body).Decode(into))
	}
	return rec
}

func TestAPIAccounts(t *testing.T) {
	_, mux, _ := newTestServer(t)

	t.Run("HidesClosedAccounts", func(t *testing.T) {
		var resp AccountsResponse
		rec := get(t, mux, "/api/accounts", &resp)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		var names []string
		for _, a := range resp.Accounts {
			names = append(names, a.FullName)
		}
		assert.Equal(t, []string{"Assets", "Assets:Bank", "Expenses", "Expenses:Food"}, names)
		assert.Equal(t, "2000-01-01", resp.Start)
		assert.Equal(t, "2000-12-31", resp.End)

		bank := resp.Accounts[1]
		assert.Equal(t, "Bank", bank.Name)
		assert.Equal(t, "Assets", bank.Parent)
		assert.Equal(t, 1, bank.Depth)
		assert.Equal(t, "CAD", bank.Commodity)
	})

	t.Run("ShowClosedAccounts", func(t *testing.T) {
		var resp AccountsResponse
		get(t, mux, "/api/accounts?show_closed_accounts", &resp)
		assert.Equal(t, 5, len(resp.Accounts))
		travel := resp.Accounts[4]
		assert.Equal(t, "Expenses:Travel", travel.FullName)
		assert.Equal(t, "2000-06-30", travel.Closed)
	})

	t.Run("SingleSubtree", func(t *testing.T) {
		var resp AccountsResponse
		get(t, mux, "/api/accounts?account=Assets", &resp)
		assert.Equal(t, 2, len(resp.Accounts))
	})

	t.Run("InvalidWindow", func(t *testing.T) {
		rec := get(t, mux, "/api/accounts?from=2000-06-01&to=2000-01-01", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestAPIPostings(t *testing.T) {
	_, mux, _ := newTestServer(t)

	t.Run("Account", func(t *testing.T) {
		var resp PostingsResponse
		rec := get(t, mux, "/api/postings?account=Assets:Bank", &resp)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Assets:Bank", resp.Account)
		assert.Equal(t, 3, len(resp.Postings))

		first := resp.Postings[0]
		assert.Equal(t, "2000-01-15", first.Date)
		assert.Equal(t, "Groceries", first.Description)
		assert.Equal(t, "-50.00 CAD", first.Quantity.Text)
		assert.Equal(t, "CAD", first.Quantity.Commodity)
		assert.Equal(t, "-50", first.Quantity.Value.String())
		assert.Equal(t, "Expenses:Food", first.Counterparty)
		assert.Equal(t, "-170.00 CAD", resp.Postings[2].Balance.Text)
	})

	t.Run("IncludesChildren", func(t *testing.T) {
		var resp PostingsResponse
		get(t, mux, "/api/postings?account=Expenses&show_closed_accounts=true", &resp)
		assert.Equal(t, 3, len(resp.Postings))
		assert.Equal(t, "Expenses:Travel", resp.Postings[1].Account)
		assert.Equal(t, "Paris", resp.Postings[1].Tags["trip"])
	})

	t.Run("DateWindow", func(t *testing.T) {
		var resp PostingsResponse
		get(t, mux, "/api/postings?account=Assets:Bank&from=2000-02-01&to=2000-02-29", &resp)
		assert.Equal(t, 1, len(resp.Postings))
		assert.Equal(t, "Flight", resp.Postings[0].Description)
	})

	t.Run("MissingAccount", func(t *testing.T) {
		rec := get(t, mux, "/api/postings", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "account is required")
	})

	t.Run("UnknownAccount", func(t *testing.T) {
		rec := get(t, mux, "/api/postings?account=Income", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestAPIPostingsNoCounterparty(t *testing.T) {
	server, mux, path := newTestServer(t)
	cashback := strings.Replace(householdJSON, `
	]
}`, `,
		{
			"posted": "2000-04-01T00:00:00Z",
			"description": "Cashback",
			"postings": [
				{"account": "Assets:Bank", "quantity": "5.00 CAD", "balance": "-165.00 CAD"},
				{"account": "Expenses:Food", "quantity": "5.00 CAD", "balance": "75.00 CAD"}
			]
		}
	]
}`, 1)
	assert.NoError(t, os.WriteFile(path, []byte(cashback), 0o600))
	assert.NoError(t, server.reloadLedger(context.Background()))

	for _, target := range []string{"/api/postings?account=Assets:Bank", "/api/top?account=Expenses"} {
		rec := get(t, mux, target, nil)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, rec.Body.String(), "Cashback")
	}
}

func TestAPIGroups(t *testing.T) {
	_, mux, _ := newTestServer(t)

	t.Run("RankedByAverage", func(t *testing.T) {
		var resp GroupsResponse
		rec := get(t, mux, "/api/groups?account=Expenses&show_closed_accounts", &resp)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "CAD", resp.Commodity)
		assert.Equal(t, ledger.Monthly, resp.Interval)
		assert.Equal(t, 2, len(resp.Accounts))

		travel, food := resp.Accounts[0], resp.Accounts[1]
		assert.Equal(t, "Expenses:Travel", travel.Account)
		assert.Equal(t, "Expenses:Food", food.Account)
		assert.Equal(t, 12, len(food.Buckets))
		assert.Equal(t, "2000-02-01", travel.Buckets[1].Date)
		assert.Equal(t, "75.00 USD", travel.Buckets[1].Sum.Text)
		assert.Equal(t, "50.00 CAD", food.Buckets[0].Sum.Text)
		assert.Equal(t, 1, food.Buckets[0].Postings)
		assert.Equal(t, "70.00 CAD", food.Buckets[2].Total.Text)
		assert.Equal(t, "70.00 CAD", food.Buckets[11].Balance.Text)
	})

	t.Run("MergesOther", func(t *testing.T) {
		var resp GroupsResponse
		get(t, mux, "/api/groups?account=Expenses&show_closed_accounts&max_accounts=1", &resp)
		assert.Equal(t, 1, len(resp.Accounts))
		other := resp.Accounts[0]
		assert.Equal(t, "Other", other.Account)
		assert.Equal(t, "99.75 CAD", other.Buckets[1].Sum.Text)
		assert.Equal(t, "149.75 CAD", other.Buckets[1].Total.Text)
	})

	t.Run("HidesClosedAccounts", func(t *testing.T) {
		var resp GroupsResponse
		get(t, mux, "/api/groups?account=Expenses&interval=quarterly", &resp)
		assert.Equal(t, 1, len(resp.Accounts))
		assert.Equal(t, "Expenses:Food", resp.Accounts[0].Account)
		assert.Equal(t, 4, len(resp.Accounts[0].Buckets))
		assert.Equal(t, "70.00 CAD", resp.Accounts[0].Buckets[0].Sum.Text)
	})

	t.Run("InvalidOptions", func(t *testing.T) {
		for _, target := range []string{
			"/api/groups?account=Expenses&interval=daily",
			"/api/groups?account=Expenses&max_accounts=0",
			"/api/groups?account=Expenses&negated=maybe",
		} {
			rec := get(t, mux, target, nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code, target)
		}
	})
}

func TestAPIBalances(t *testing.T) {
	_, mux, _ := newTestServer(t)

	t.Run("AllRoots", func(t *testing.T) {
		var resp BalancesResponse
		rec := get(t, mux, "/api/balances", &resp)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "2000-12-31", resp.Date)
		assert.Equal(t, 4, len(resp.Balances))
		assert.Equal(t, "Assets", resp.Balances[0].Account)
		assert.Equal(t, "0.00 CAD", resp.Balances[0].Balance.Text)
		assert.Equal(t, "-170.00 CAD", resp.Balances[0].Total.Text)
		assert.Equal(t, 1, resp.Balances[1].Depth)
		assert.Equal(t, "70.00 CAD", resp.Balances[2].Total.Text)
	})

	t.Run("ConvertsChildTotals", func(t *testing.T) {
		var resp BalancesResponse
		get(t, mux, "/api/balances?account=Expenses&show_closed_accounts", &resp)
		assert.Equal(t, 3, len(resp.Balances))
		assert.Equal(t, "169.75 CAD", resp.Balances[0].Total.Text)
		assert.Equal(t, "75.00 USD", resp.Balances[2].Balance.Text)
	})

	t.Run("PointInTime", func(t *testing.T) {
		var resp BalancesResponse
		get(t, mux, "/api/balances?account=Assets:Bank&date=2000-02-28", &resp)
		assert.Equal(t, 1, len(resp.Balances))
		assert.Equal(t, "-150.00 CAD", resp.Balances[0].Balance.Text)
	})

	t.Run("InvalidDate", func(t *testing.T) {
		rec := get(t, mux, "/api/balances?date=yesterday", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestAPITop(t *testing.T) {
	_, mux, _ := newTestServer(t)

	var resp PostingsResponse
	rec := get(t, mux, "/api/top?account=Expenses&show_closed_accounts&n=2", &resp)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, len(resp.Postings))
	// 75.00 USD is 99.75 CAD, larger than any grocery run
	assert.Equal(t, "75.00 USD", resp.Postings[0].Quantity.Text)
	assert.Equal(t, "50.00 CAD", resp.Postings[1].Quantity.Text)

	rec = get(t, mux, "/api/top?account=Expenses&n=none", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPIConvert(t *testing.T) {
	_, mux, _ := newTestServer(t)

	t.Run("Converts", func(t *testing.T) {
		var resp ConvertResponse
		target := "/api/convert?" + url.Values{"amount": {"100.00 USD"}, "to": {"CAD"}, "date": {"2000-06-01"}}.Encode()
		rec := get(t, mux, target, &resp)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "2000-06-01", resp.Date)
		assert.Equal(t, "100.00 USD", resp.Amount.Text)
		assert.Equal(t, "133.00 CAD", resp.Converted.Text)
	})

	t.Run("Expression", func(t *testing.T) {
		var resp ConvertResponse
		target := "/api/convert?" + url.Values{"amount": {"(300 / 3) USD"}, "to": {"CAD"}, "date": {"2000-06-01"}}.Encode()
		rec := get(t, mux, target, &resp)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "100.00 USD", resp.Amount.Text)
		assert.Equal(t, "133.00 CAD", resp.Converted.Text)
	})

	t.Run("Errors", func(t *testing.T) {
		tests := []struct {
			name   string
			values url.Values
			status int
		}{
			{"MissingTarget", url.Values{"amount": {"1.00 USD"}}, http.StatusBadRequest},
			{"MalformedAmount", url.Values{"amount": {"lots USD"}, "to": {"CAD"}}, http.StatusBadRequest},
			{"UnknownCommodity", url.Values{"amount": {"1.00 USD"}, "to": {"EUR"}}, http.StatusNotFound},
			{"DivisionByZero", url.Values{"amount": {"(1 / 0) USD"}, "to": {"CAD"}}, http.StatusBadRequest},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				rec := get(t, mux, "/api/convert?"+tt.values.Encode(), nil)
				assert.Equal(t, tt.status, rec.Code)
			})
		}
	})
}

func TestAPIVersion(t *testing.T) {
	_, mux, _ := newTestServer(t)

	var resp VersionResponse
	get(t, mux, "/api/version", &resp)
	assert.Equal(t, "1.2.3", resp.Version)
	assert.Equal(t, "abc123", resp.CommitSHA)
}

func TestResponseCache(t *testing.T) {
	server, mux, _ := newTestServer(t)

	rec := get(t, mux, "/api/accounts", nil)
	assert.Equal(t, "miss", rec.Header().Get("X-Cache"))
	rec = get(t, mux, "/api/accounts", nil)
	assert.Equal(t, "hit", rec.Header().Get("X-Cache"))

	// parameters no report reads share the entry
	rec = get(t, mux, "/api/accounts?cachebuster=42&utm_source=feed", nil)
	assert.Equal(t, "hit", rec.Header().Get("X-Cache"))

	// different options are different entries
	rec = get(t, mux, "/api/accounts?show_closed_accounts", nil)
	assert.Equal(t, "miss", rec.Header().Get("X-Cache"))
	rec = get(t, mux, "/api/accounts?junk=1&show_closed_accounts", nil)
	assert.Equal(t, "hit", rec.Header().Get("X-Cache"))

	// errors are not cached
	get(t, mux, "/api/postings", nil)
	assert.Equal(t, 2, server.responses.ItemCount())

	// entries expire
	for key, item := range server.responses.Items() {
		assert.True(t, item.Expiration > 0, "%s never expires", key)
	}

	assert.NoError(t, server.reloadLedger(context.Background()))
	assert.Equal(t, 0, server.responses.ItemCount())
	rec = get(t, mux, "/api/accounts", nil)
	assert.Equal(t, "miss", rec.Header().Get("X-Cache"))
}

func TestNotLoaded(t *testing.T) {
	server := New(8080, "ledger.json")
	rec := get(t, server.setupRouter(), "/api/accounts", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func subscribe(server *Server) chan string {
	events := make(chan string, 10)
	server.sseMu.Lock()
	server.sseClients[events] = struct{}{}
	server.sseMu.Unlock()
	return events
}

func TestHandleFileChange(t *testing.T) {
	server, mux, path := newTestServer(t)
	events := subscribe(server)

	t.Run("Reloads", func(t *testing.T) {
		updated := strings.Replace(householdJSON, `"description": "Flight"`, `"description": "Train"`, 1)
		assert.NoError(t, os.WriteFile(path, []byte(updated), 0o600))

		server.handleFileChange(context.Background())
		assert.Equal(t, "reload", <-events)

		var resp PostingsResponse
		get(t, mux, "/api/postings?account=Assets:Bank", &resp)
		assert.Equal(t, "Train", resp.Postings[1].Description)
	})

	t.Run("KeepsSnapshotOnError", func(t *testing.T) {
		assert.NoError(t, os.WriteFile(path, []byte(`{"accounts": [`), 0o600))

		server.handleFileChange(context.Background())
		assert.Equal(t, "error", <-events)

		var resp AccountsResponse
		rec := get(t, mux, "/api/accounts", &resp)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 4, len(resp.Accounts))
	})
}

func TestWatcherReloadsOnWrite(t *testing.T) {
	server, mux, path := newTestServer(t)
	events := subscribe(server)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	assert.NoError(t, server.startWatcher(ctx))

	updated := strings.Replace(householdJSON, `"description": "Flight"`, `"description": "Bus"`, 1)
	assert.NoError(t, os.WriteFile(path, []byte(updated), 0o600))

	select {
	case event := <-events:
		assert.Equal(t, "reload", event)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload")
	}

	var resp PostingsResponse
	get(t, mux, "/api/postings?account=Assets:Bank", &resp)
	assert.Equal(t, "Bus", resp.Postings[1].Description)
}
