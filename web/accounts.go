package web

import (
	"net/http"

	"github.com/robinvdvleuten/coin/ledger"
)

// AccountInfo represents basic information about a ledger account.
type AccountInfo struct {
	Name      string `json:"name"`
	FullName  string `json:"fullName"`
	Commodity string `json:"commodity"`
	Parent    string `json:"parent,omitempty"`
	Depth     int    `json:"depth"`
	Closed    string `json:"closed,omitempty"`
	Location  string `json:"location,omitempty"`
}

// AccountsResponse is the JSON response structure for the accounts endpoint.
type AccountsResponse struct {
	Accounts []AccountInfo `json:"accounts"`
	Start    string        `json:"start"`
	End      string        `json:"end"`
}

// handleGetAccounts handles GET requests to /api/accounts.
// Returns the chart of accounts in depth-first order. Accounts closed before
// the window ends are left out unless show_closed_accounts is set.
func (s *Server) handleGetAccounts(r *http.Request, l *ledger.Ledger) (any, error) {
	q, err := parseQuery(r, l)
	if err != nil {
		return nil, err
	}
	roots, err := q.accounts()
	if err != nil {
		return nil, err
	}

	accounts := make([]AccountInfo, 0, len(l.Accounts()))
	for _, root := range roots {
		for _, a := range root.WithAllChildren(q.view) {
			info := AccountInfo{
				Name:      a.Name,
				FullName:  a.FullName,
				Commodity: a.Commodity.ID,
				Depth:     a.DepthFrom(a.RootAccount()),
				Location:  a.Location,
			}
			if a.Parent != nil {
				info.Parent = a.Parent.FullName
			}
			if !a.Closed.IsZero() {
				info.Closed = a.Closed.Format(ledger.DateFormat)
			}
			accounts = append(accounts, info)
		}
	}

	return &AccountsResponse{
		Accounts: accounts,
		Start:    q.view.Start.Format(ledger.DateFormat),
		End:      q.view.End.Format(ledger.DateFormat),
	}, nil
}
