package web

import (
	"net/http"

	"github.com/robinvdvleuten/coin/ledger"
)

// PostingResponse is one posting as listed by the postings and top endpoints.
type PostingResponse struct {
	Date            string         `json:"date"`
	Description     string         `json:"description"`
	Code            string         `json:"code,omitempty"`
	Account         string         `json:"account"`
	Quantity        AmountResponse `json:"quantity"`
	Balance         AmountResponse `json:"balance"`
	BalanceAsserted bool           `json:"balanceAsserted"`
	Notes           []string       `json:"notes,omitempty"`
	Tags            ledger.Tags    `json:"tags,omitempty"`
	Counterparty    string         `json:"counterparty,omitempty"`
}

// PostingsResponse is the JSON response structure for the postings and top
// endpoints.
type PostingsResponse struct {
	Account  string            `json:"account"`
	Postings []PostingResponse `json:"postings"`
}

func newPostingResponse(p *ledger.Posting) (PostingResponse, error) {
	t := p.Transaction()
	other, err := t.Other(p)
	if err != nil {
		return PostingResponse{}, err
	}
	return PostingResponse{
		Date:            t.Posted.Format(ledger.DateFormat),
		Description:     t.Description,
		Code:            t.Code,
		Account:         p.Account().FullName,
		Quantity:        newAmountResponse(p.Quantity()),
		Balance:         newAmountResponse(p.Balance()),
		BalanceAsserted: p.BalanceAsserted(),
		Notes:           p.Notes(),
		Tags:            p.Tags(),
		Counterparty:    other.Account().FullName,
	}, nil
}

// handleGetPostings handles GET requests to /api/postings.
//
// Query parameters:
//   - account: full account name (required). Postings of live descendants are included.
//   - from, to: date window in YYYY-MM-DD format (defaults to the whole snapshot).
func (s *Server) handleGetPostings(r *http.Request, l *ledger.Ledger) (any, error) {
	q, err := parseQuery(r, l)
	if err != nil {
		return nil, err
	}
	account, err := q.account()
	if err != nil {
		return nil, err
	}

	postings := account.WithAllChildPostings(q.view, q.view.Start, q.view.End)
	resp := &PostingsResponse{Account: account.FullName, Postings: make([]PostingResponse, len(postings))}
	for i, p := range postings {
		if resp.Postings[i], err = newPostingResponse(p); err != nil {
			return nil, err
		}
	}
	return resp, nil
}

// handleGetTop handles GET requests to /api/top.
// Returns the n (default 10) largest postings of the account and its live
// descendants within the window, compared in the account's commodity.
func (s *Server) handleGetTop(r *http.Request, l *ledger.Ledger) (any, error) {
	q, err := parseQuery(r, l)
	if err != nil {
		return nil, err
	}
	account, err := q.account()
	if err != nil {
		return nil, err
	}
	n, err := q.positiveInt("n", 10)
	if err != nil {
		return nil, err
	}

	postings := account.WithAllChildPostings(q.view, q.view.Start, q.view.End)
	top, err := ledger.TopPostings(postings, n, account.Commodity)
	if err != nil {
		return nil, err
	}
	resp := &PostingsResponse{Account: account.FullName, Postings: make([]PostingResponse, len(top))}
	for i, p := range top {
		if resp.Postings[i], err = newPostingResponse(p); err != nil {
			return nil, err
		}
	}
	return resp, nil
}
