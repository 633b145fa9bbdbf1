package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tallybook-dev/tallybook/internal/model"
)

func mockClient(t *testing.T) (*Client, *httpmock.MockTransport) {
	t.Helper()
	transport := httpmock.NewMockTransport()
	c := NewClient("http://ledger.test", &http.Client{Transport: transport}, zerolog.Nop())
	return c, transport
}

func TestAccounts(t *testing.T) {
	c, transport := mockClient(t)
	transport.RegisterResponder(http.MethodGet, "/api/accounts",
		httpmock.NewStringResponder(http.StatusOK, `{"data": [
			{"name": "Assets:Bank", "status": "Open", "commodities": {"USD": "120.50"}},
			{"name": "Expenses:Food", "category": "Expenses", "status": "Open"}
		]}`),
	)

	accounts, err := c.Accounts(context.Background())
	require.NoError(t, err)
	require.Len(t, accounts, 2)

	assert.Equal(t, "Assets:Bank", accounts[0].Name)
	assert.Equal(t, model.CategoryAssets, accounts[0].Category, "category derived from name when omitted")
	assert.Equal(t, "120.5", accounts[0].Balances["USD"].String())
	assert.Equal(t, model.CategoryExpenses, accounts[1].Category)
}

func TestAccounts_BadBalance(t *testing.T) {
	c, transport := mockClient(t)
	transport.RegisterResponder(http.MethodGet, "/api/accounts",
		httpmock.NewStringResponder(http.StatusOK, `{"data": [
			{"name": "Assets:Bank", "status": "Open", "commodities": {"USD": "not-a-number"}}
		]}`),
	)

	_, err := c.Accounts(context.Background())
	assert.Error(t, err)
}

func TestJournal(t *testing.T) {
	c, transport := mockClient(t)
	transport.RegisterResponder(http.MethodGet, "/api/journals",
		httpmock.NewStringResponder(http.StatusOK, `{"data": {
			"current_page": 1,
			"total_pages": 3,
			"records": [{
				"id": "trx-1",
				"datetime": "2026-08-01T12:00:00Z",
				"payee": "Cafe",
				"narration": "lunch",
				"postings": [
					{"account": {"name": "Assets:Cash", "status": "Open"}, "unit": {"number": "-12.50", "currency": "USD"}},
					{"account": {"name": "Expenses:Food", "status": "Open"}, "unit": null}
				]
			}]
		}}`),
	)

	page, err := c.Journal(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 3, page.TotalPages)
	require.Len(t, page.Transactions, 1)

	tx := page.Transactions[0]
	assert.Equal(t, "Cafe", tx.Payee)
	require.Len(t, tx.Postings, 2)
	require.NotNil(t, tx.Postings[0].Amount)
	assert.Equal(t, "-12.5", tx.Postings[0].Amount.Number.String())
	assert.Nil(t, tx.Postings[1].Amount, "null unit is an elided posting")
}

func TestBasicInfo(t *testing.T) {
	c, transport := mockClient(t)
	transport.RegisterResponder(http.MethodGet, "/api/info",
		httpmock.NewStringResponder(http.StatusOK, `{"data": {"title": "my ledger", "version": "1.2.3"}}`),
	)

	info, err := c.BasicInfo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "my ledger", info.Title)
	assert.Equal(t, "1.2.3", info.Version)
}

func TestCreateTransaction(t *testing.T) {
	c, transport := mockClient(t)

	var body NewTransactionRequest
	transport.RegisterResponder(http.MethodPost, "/api/transactions",
		func(req *http.Request) (*http.Response, error) {
			raw, err := io.ReadAll(req.Body)
			if err != nil {
				return nil, err
			}
			if err := json.Unmarshal(raw, &body); err != nil {
				return nil, err
			}
			return httpmock.NewStringResponse(http.StatusOK, `{"data": "ok"}`), nil
		},
	)

	req := NewTransactionRequest{
		Payee:     "Cafe",
		Narration: "lunch",
		Postings: []PostingRequest{
			NewPostingRequest("Assets:Cash", model.MustMoney("-12.50", "USD")),
			NewElidedPostingRequest("Expenses:Food"),
		},
	}
	require.NoError(t, c.CreateTransaction(context.Background(), req))

	require.Len(t, body.Postings, 2)
	require.NotNil(t, body.Postings[0].Unit)
	assert.Equal(t, "-12.5", body.Postings[0].Unit.Number)
	assert.Nil(t, body.Postings[1].Unit)
}

func TestSubmitBalances(t *testing.T) {
	c, transport := mockClient(t)
	transport.RegisterResponder(http.MethodPost, "/api/accounts/batch-balances",
		httpmock.NewStringResponder(http.StatusOK, `{"data": "ok"}`),
	)

	err := c.SubmitBalances(context.Background(), []model.BalanceAssertion{
		{Account: "Assets:Bank", Amount: model.MustMoney("100", "USD")},
	})
	assert.NoError(t, err)
}

func TestErrorResponseSurfaced(t *testing.T) {
	c, transport := mockClient(t)
	transport.RegisterResponder(http.MethodGet, "/api/errors",
		httpmock.NewStringResponder(http.StatusInternalServerError, `recompile in progress`),
	)

	_, err := c.Errors(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "recompile in progress")
}
