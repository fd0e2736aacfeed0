package web

import (
	"net/http"

	"github.com/robinvdvleuten/coin/ledger"
)

// ConvertResponse is the JSON response structure for the convert endpoint.
type ConvertResponse struct {
	Date      string         `json:"date"`
	Amount    AmountResponse `json:"amount"`
	Converted AmountResponse `json:"converted"`
}

// handleGetConvert handles GET requests to /api/convert.
//
// Query parameters:
//   - amount: amount text such as "100.00 CAD" (required).
//   - to: target commodity id (required).
//   - date: conversion date in YYYY-MM-DD format (defaults to the end of the window).
func (s *Server) handleGetConvert(r *http.Request, l *ledger.Ledger) (any, error) {
	q, err := parseQuery(r, l)
	if err != nil {
		return nil, err
	}
	text, to := q.values.Get("amount"), q.values.Get("to")
	if text == "" || to == "" {
		return nil, badRequest("amount and to are required")
	}
	date, err := q.date("date", q.view.End)
	if err != nil {
		return nil, err
	}

	amount, err := l.Commodities().EvaluateAmount(text)
	if err != nil {
		return nil, err
	}
	converted, err := l.Convert(r.Context(), amount, to, date)
	if err != nil {
		return nil, err
	}
	return &ConvertResponse{
		Date:      date.Format(ledger.DateFormat),
		Amount:    newAmountResponse(amount),
		Converted: newAmountResponse(converted),
	}, nil
}

// VersionResponse identifies the running build.
type VersionResponse struct {
	Version   string `json:"version"`
	CommitSHA string `json:"commitSHA"`
}

func (s *Server) handleGetVersion(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, &VersionResponse{Version: s.Version, CommitSHA: s.CommitSHA})
}
