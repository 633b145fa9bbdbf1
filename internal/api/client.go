// Package api is the REST client for the ledger server's query and
// command interfaces.
package api

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/carlmjohnson/requests"
	"github.com/rs/zerolog"

	"github.com/tallybook-dev/tallybook/internal/model"
)

// Client talks to one ledger server.
type Client struct {
	baseURL string
	hc      *http.Client
	log     zerolog.Logger
}

// NewClient creates a Client. hc may be nil to use http.DefaultClient.
func NewClient(baseURL string, hc *http.Client, log zerolog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		hc:      hc,
		log:     log.With().Str("component", "api").Logger(),
	}
}

// BaseURL returns the server base URL the client was built with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	var errBody bytes.Buffer
	err := requests.URL(c.baseURL).
		Path(path).
		Client(c.hc).
		AddValidator(requests.ValidatorHandler(requests.DefaultValidator, requests.ToBytesBuffer(&errBody))).
		ToJSON(out).
		Fetch(ctx)
	if err != nil {
		return fmt.Errorf("GET %s: %w - %v", path, err, errBody.String())
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, body any) error {
	var errBody bytes.Buffer
	rb := requests.URL(c.baseURL).
		Path(path).
		Client(c.hc).
		Method(http.MethodPost).
		AddValidator(requests.ValidatorHandler(requests.DefaultValidator, requests.ToBytesBuffer(&errBody)))
	if body != nil {
		rb = rb.BodyJSON(body)
	}
	if err := rb.Fetch(ctx); err != nil {
		return fmt.Errorf("POST %s: %w - %v", path, err, errBody.String())
	}
	return nil
}

// Accounts fetches the flat account collection. The server replaces the
// collection wholesale on each call; nothing is patched client-side.
func (c *Client) Accounts(ctx context.Context) ([]model.Account, error) {
	var resp envelope[[]accountDTO]
	if err := c.get(ctx, "/api/accounts", &resp); err != nil {
		return nil, err
	}
	accounts := make([]model.Account, 0, len(resp.Data))
	for _, dto := range resp.Data {
		a, err := dto.toModel()
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, nil
}

// Journal fetches one page of compiled transactions.
func (c *Client) Journal(ctx context.Context, page int) (JournalPage, error) {
	var resp envelope[journalDTO]
	err := requests.URL(c.baseURL).
		Path("/api/journals").
		Param("page", fmt.Sprint(page)).
		Client(c.hc).
		ToJSON(&resp).
		Fetch(ctx)
	if err != nil {
		return JournalPage{}, fmt.Errorf("GET /api/journals: %w", err)
	}

	out := JournalPage{
		CurrentPage:  resp.Data.CurrentPage,
		TotalPages:   resp.Data.TotalPages,
		Transactions: make([]model.Transaction, 0, len(resp.Data.Records)),
	}
	for _, dto := range resp.Data.Records {
		tx, err := dto.toModel()
		if err != nil {
			return JournalPage{}, err
		}
		out.Transactions = append(out.Transactions, tx)
	}
	return out, nil
}

// Commodities fetches the currencies the ledger defines.
func (c *Client) Commodities(ctx context.Context) ([]Commodity, error) {
	var resp envelope[[]Commodity]
	if err := c.get(ctx, "/api/commodities", &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// Errors fetches the ledger's current compile errors.
func (c *Client) Errors(ctx context.Context) ([]LedgerError, error) {
	var resp envelope[[]LedgerError]
	if err := c.get(ctx, "/api/errors", &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// BasicInfo fetches the server's title and version.
func (c *Client) BasicInfo(ctx context.Context) (BasicInfo, error) {
	var resp envelope[BasicInfo]
	if err := c.get(ctx, "/api/info", &resp); err != nil {
		return BasicInfo{}, err
	}
	return resp.Data, nil
}

// NewTransactionMeta fetches payee and account-name autocompletion data.
func (c *Client) NewTransactionMeta(ctx context.Context) (NewTransactionMeta, error) {
	var resp envelope[NewTransactionMeta]
	if err := c.get(ctx, "/api/for-new-transaction", &resp); err != nil {
		return NewTransactionMeta{}, err
	}
	return resp.Data, nil
}

// CreateTransaction submits a new transaction to the command interface.
func (c *Client) CreateTransaction(ctx context.Context, req NewTransactionRequest) error {
	return c.post(ctx, "/api/transactions", req)
}

// SubmitBalances submits a batch of balance assertions.
func (c *Client) SubmitBalances(ctx context.Context, assertions []model.BalanceAssertion) error {
	req := batchBalanceRequest{Balances: make([]balanceAssertionDTO, 0, len(assertions))}
	for _, a := range assertions {
		req.Balances = append(req.Balances, balanceAssertionDTO{
			Account: a.Account,
			Amount:  Amount{Number: a.Amount.Number.String(), Currency: a.Amount.Currency},
		})
	}
	return c.post(ctx, "/api/accounts/batch-balances", req)
}

// Reload asks the server to recompile its ledger source. Dependent views
// are not refreshed here; the server broadcasts a reload event once the
// recompile lands and the coordinator reacts to that.
func (c *Client) Reload(ctx context.Context) error {
	return c.post(ctx, "/api/reload", nil)
}
