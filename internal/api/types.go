package api

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tallybook-dev/tallybook/internal/model"
)

// The server wraps every successful response body in {"data": ...}.
type envelope[T any] struct {
	Data T `json:"data"`
}

// Amount is the wire form of a monetary quantity: a decimal string plus
// a currency code. Numbers travel as strings so precision survives JSON.
type Amount struct {
	Number   string `json:"number"`
	Currency string `json:"currency"`
}

func (d Amount) toMoney() (model.Money, error) {
	return model.NewMoney(d.Number, d.Currency)
}

type accountDTO struct {
	Name        string            `json:"name"`
	Category    string            `json:"category"`
	Status      string            `json:"status"`
	Commodities map[string]string `json:"commodities"`
}

func (d accountDTO) toModel() (model.Account, error) {
	category := model.Category(d.Category)
	if category == "" {
		derived, ok := model.CategoryOf(d.Name)
		if !ok {
			return model.Account{}, fmt.Errorf("account %q: no category and underivable name", d.Name)
		}
		category = derived
	}

	a := model.Account{
		Name:     d.Name,
		Category: category,
		Status:   model.Status(d.Status),
	}
	if len(d.Commodities) > 0 {
		a.Balances = make(map[string]decimal.Decimal, len(d.Commodities))
		for currency, number := range d.Commodities {
			n, err := decimal.NewFromString(number)
			if err != nil {
				return model.Account{}, fmt.Errorf("account %q balance %s: %w", d.Name, currency, err)
			}
			a.Balances[currency] = n
		}
	}
	return a, nil
}

type postingDTO struct {
	Account accountDTO `json:"account"`
	Unit    *Amount `json:"unit"`
}

type transactionDTO struct {
	ID        string       `json:"id"`
	Datetime  time.Time    `json:"datetime"`
	Payee     string       `json:"payee"`
	Narration string       `json:"narration"`
	Tags      []string     `json:"tags"`
	Links     []string     `json:"links"`
	Postings  []postingDTO `json:"postings"`
}

func (d transactionDTO) toModel() (model.Transaction, error) {
	tx := model.Transaction{
		ID:        d.ID,
		Timestamp: d.Datetime,
		Payee:     d.Payee,
		Narration: d.Narration,
		Tags:      d.Tags,
		Links:     d.Links,
		Postings:  make([]model.Posting, 0, len(d.Postings)),
	}
	for _, p := range d.Postings {
		account, err := p.Account.toModel()
		if err != nil {
			return model.Transaction{}, fmt.Errorf("transaction %s: %w", d.ID, err)
		}
		posting := model.Posting{Account: account}
		if p.Unit != nil {
			m, err := p.Unit.toMoney()
			if err != nil {
				return model.Transaction{}, fmt.Errorf("transaction %s posting %s: %w", d.ID, account.Name, err)
			}
			posting.Amount = &m
		}
		tx.Postings = append(tx.Postings, posting)
	}
	return tx, nil
}

type journalDTO struct {
	CurrentPage int              `json:"current_page"`
	TotalPages  int              `json:"total_pages"`
	Records     []transactionDTO `json:"records"`
}

// JournalPage is one page of compiled transactions.
type JournalPage struct {
	CurrentPage  int
	TotalPages   int
	Transactions []model.Transaction
}

// Commodity is a currency the ledger knows about.
type Commodity struct {
	Name      string `json:"name"`
	Precision int    `json:"precision"`
	Prefix    string `json:"prefix"`
	Suffix    string `json:"suffix"`
}

// LedgerError is one compile error reported by the server.
type LedgerError struct {
	Type    string `json:"error_type"`
	Message string `json:"message"`
	File    string `json:"file"`
	Line    int    `json:"line"`
}

// BasicInfo is the server's identity block, refreshed on connect.
type BasicInfo struct {
	Title   string `json:"title"`
	Version string `json:"version"`
}

// NewTransactionMeta is the autocomplete data for composing a
// transaction: every payee and account name the ledger has seen.
type NewTransactionMeta struct {
	Payees       []string `json:"payees"`
	AccountNames []string `json:"account_names"`
}

// NewTransactionRequest is the command payload for creating a transaction.
type NewTransactionRequest struct {
	Datetime  time.Time        `json:"datetime"`
	Payee     string           `json:"payee"`
	Narration string           `json:"narration"`
	Tags      []string         `json:"tags"`
	Links     []string         `json:"links"`
	Postings  []PostingRequest `json:"postings"`
}

// PostingRequest is one leg of a NewTransactionRequest. A nil Unit elides
// the amount and lets the server infer it.
type PostingRequest struct {
	Account string     `json:"account"`
	Unit    *Amount `json:"unit"`
}

// NewPostingRequest builds a posting leg with an explicit amount.
func NewPostingRequest(account string, amount model.Money) PostingRequest {
	return PostingRequest{
		Account: account,
		Unit:    &Amount{Number: amount.Number.String(), Currency: amount.Currency},
	}
}

// NewElidedPostingRequest builds a posting leg whose amount the server
// will infer.
func NewElidedPostingRequest(account string) PostingRequest {
	return PostingRequest{Account: account}
}

type balanceAssertionDTO struct {
	Account string    `json:"account_name"`
	Amount  Amount `json:"amount"`
}

type batchBalanceRequest struct {
	Balances []balanceAssertionDTO `json:"balances"`
}
