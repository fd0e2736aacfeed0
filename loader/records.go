package loader

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Snapshot is the transport document a ledger is built from.
type Snapshot struct {
	Commodities  Records[CommodityRecord] `json:"commodities" yaml:"commodities"`
	Prices       Records[PriceRecord]     `json:"prices" yaml:"prices"`
	Accounts     Records[AccountRecord]   `json:"accounts" yaml:"accounts"`
	Transactions []TransactionRecord      `json:"transactions" yaml:"transactions"`
}

// CommodityRecord describes one commodity.
type CommodityRecord struct {
	ID       string `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	Decimals int    `json:"decimals" yaml:"decimals"`
	Location string `json:"location,omitempty" yaml:"location,omitempty"`
}

// PriceRecord states that one unit of Commodity was worth Value, an amount
// text in Currency, at Time.
type PriceRecord struct {
	Commodity string `json:"commodity" yaml:"commodity"`
	Currency  string `json:"currency" yaml:"currency"`
	Time      string `json:"time" yaml:"time"`
	Value     string `json:"value" yaml:"value"`
	Location  string `json:"location,omitempty" yaml:"location,omitempty"`
}

// AccountRecord describes one account. Parent is the parent's full name.
type AccountRecord struct {
	Name      string `json:"name" yaml:"name"`
	FullName  string `json:"fullName" yaml:"fullName"`
	Commodity string `json:"commodity" yaml:"commodity"`
	Parent    string `json:"parent" yaml:"parent"`
	Closed    string `json:"closed,omitempty" yaml:"closed,omitempty"`
	Location  string `json:"location,omitempty" yaml:"location,omitempty"`
}

// TransactionRecord describes a transaction and its postings.
type TransactionRecord struct {
	Posted      string          `json:"posted" yaml:"posted"`
	Description string          `json:"description" yaml:"description"`
	Notes       []string        `json:"notes,omitempty" yaml:"notes,omitempty"`
	Code        string          `json:"code,omitempty" yaml:"code,omitempty"`
	Location    string          `json:"location,omitempty" yaml:"location,omitempty"`
	Postings    []PostingRecord `json:"postings" yaml:"postings"`
}

// PostingRecord describes one leg. Quantity and Balance are amount texts.
type PostingRecord struct {
	Account         string            `json:"account" yaml:"account"`
	Balance         string            `json:"balance" yaml:"balance"`
	BalanceAsserted bool              `json:"balance_asserted" yaml:"balance_asserted"`
	Quantity        string            `json:"quantity" yaml:"quantity"`
	Notes           []string          `json:"notes,omitempty" yaml:"notes,omitempty"`
	Tags            map[string]string `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// Records is a list of records that may be encoded either as an array or as
// an object keyed by record id. Objects are read in document order, which
// matters for accounts: parents must come before their children.
type Records[T any] []T

// UnmarshalJSON implements json.Unmarshaler.
func (r *Records[T]) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	var records Records[T]
	switch tok {
	case nil:
		*r = nil
		return nil
	case json.Delim('['):
		for dec.More() {
			var v T
			if err := dec.Decode(&v); err != nil {
				return err
			}
			records = append(records, v)
		}
	case json.Delim('{'):
		for dec.More() {
			if _, err := dec.Token(); err != nil {
				return err
			}
			var v T
			if err := dec.Decode(&v); err != nil {
				return err
			}
			records = append(records, v)
		}
	default:
		return fmt.Errorf("expected array or object, got %v", tok)
	}
	*r = records
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (r *Records[T]) UnmarshalYAML(node *yaml.Node) error {
	var values []*yaml.Node
	switch node.Kind {
	case yaml.SequenceNode:
		values = node.Content
	case yaml.MappingNode:
		for i := 1; i < len(node.Content); i += 2 {
			values = append(values, node.Content[i])
		}
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			*r = nil
			return nil
		}
		fallthrough
	default:
		return fmt.Errorf("line %d: expected sequence or mapping", node.Line)
	}

	records := make(Records[T], 0, len(values))
	for _, n := range values {
		var v T
		if err := n.Decode(&v); err != nil {
			return err
		}
		records = append(records, v)
	}
	*r = records
	return nil
}
