package web

import (
	"net/http"

	"github.com/robinvdvleuten/coin/ledger"
)

// BalanceResponse is one account's balance as of the requested date.
type BalanceResponse struct {
	Account string         `json:"account"`
	Depth   int            `json:"depth"`
	Balance AmountResponse `json:"balance"`
	Total   AmountResponse `json:"total"`
}

// BalancesResponse is the JSON response structure for the balances endpoint.
type BalancesResponse struct {
	Date     string            `json:"date"`
	Balances []BalanceResponse `json:"balances"`
}

// handleGetBalances handles GET requests to /api/balances.
//
// Query parameters:
//   - account: full account name. If omitted, every root account is listed.
//   - date: balance date in YYYY-MM-DD format (defaults to the end of the window).
//
// Each total is the account's own balance plus the totals of its live
// children, converted into the account's commodity as of the date.
func (s *Server) handleGetBalances(r *http.Request, l *ledger.Ledger) (any, error) {
	q, err := parseQuery(r, l)
	if err != nil {
		return nil, err
	}
	date, err := q.date("date", q.view.End)
	if err != nil {
		return nil, err
	}
	roots, err := q.accounts()
	if err != nil {
		return nil, err
	}

	resp := &BalancesResponse{Date: date.Format(ledger.DateFormat), Balances: []BalanceResponse{}}
	for _, root := range roots {
		balances, err := root.WithAllChildBalances(q.view, date)
		if err != nil {
			return nil, err
		}
		for _, b := range balances {
			resp.Balances = append(resp.Balances, BalanceResponse{
				Account: b.Account.FullName,
				Depth:   b.Account.DepthFrom(root),
				Balance: newAmountResponse(b.Balance),
				Total:   newAmountResponse(b.Total),
			})
		}
	}
	return resp, nil
}
