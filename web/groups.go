package web

import (
	"net/http"

	"github.com/robinvdvleuten/coin/ledger"
)

// BucketResponse is one time bucket of an account's postings.
type BucketResponse struct {
	Date     string         `json:"date"`
	Postings int            `json:"postings"`
	Sum      AmountResponse `json:"sum"`
	Total    AmountResponse `json:"total"`
	Balance  AmountResponse `json:"balance"`
}

// AccountGroupsResponse is the bucket list of one account, or of the merged
// "Other" accounts.
type AccountGroupsResponse struct {
	Account string           `json:"account"`
	Buckets []BucketResponse `json:"buckets"`
}

// GroupsResponse is the JSON response structure for the groups endpoint.
type GroupsResponse struct {
	Account   string                  `json:"account"`
	Commodity string                  `json:"commodity"`
	Interval  ledger.Interval         `json:"interval"`
	Accounts  []AccountGroupsResponse `json:"accounts"`
}

// handleGetGroups handles GET requests to /api/groups.
//
// Query parameters:
//   - account: full account name (required).
//   - interval: weekly|monthly|quarterly|yearly (default monthly).
//   - max_accounts: number of accounts before the rest is merged into "Other" (default 5).
//   - negated: rank the most negative accounts first.
//   - show_closed_accounts: include accounts closed before the window ends.
func (s *Server) handleGetGroups(r *http.Request, l *ledger.Ledger) (any, error) {
	q, err := parseQuery(r, l)
	if err != nil {
		return nil, err
	}
	account, err := q.account()
	if err != nil {
		return nil, err
	}

	groups, err := ledger.GroupWithSubAccounts(account, q.config.Interval, q.config.MaxAccounts, q.view, ledger.GroupOptions{Negated: q.config.Negated})
	if err != nil {
		return nil, err
	}

	resp := &GroupsResponse{
		Account:   account.FullName,
		Commodity: account.Commodity.ID,
		Interval:  q.config.Interval,
		Accounts:  make([]AccountGroupsResponse, len(groups)),
	}
	for i, g := range groups {
		buckets := make([]BucketResponse, len(g.Groups))
		for j, b := range g.Groups {
			buckets[j] = BucketResponse{
				Date:     b.Date.Format(ledger.DateFormat),
				Postings: len(b.Postings),
				Sum:      newAmountResponse(b.Sum),
				Total:    newAmountResponse(b.Total),
				Balance:  newAmountResponse(b.Balance),
			}
		}
		resp.Accounts[i] = AccountGroupsResponse{Account: g.Name(), Buckets: buckets}
	}
	return resp, nil
}
