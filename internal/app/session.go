// Package app assembles the client core: REST client, cached views,
// account index and the live synchronization coordinator, wired the same
// way for the CLI and for tests.
package app

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/tallybook-dev/tallybook/internal/api"
	"github.com/tallybook-dev/tallybook/internal/config"
	"github.com/tallybook-dev/tallybook/internal/live"
	"github.com/tallybook-dev/tallybook/internal/metrics"
	"github.com/tallybook-dev/tallybook/internal/model"
	"github.com/tallybook-dev/tallybook/internal/notify"
	"github.com/tallybook-dev/tallybook/internal/trie"
	"github.com/tallybook-dev/tallybook/internal/view"
)

// Views holds every cached projection of backend data.
type Views struct {
	BasicInfo      *view.View[api.BasicInfo]
	Accounts       *view.View[[]model.Account]
	Errors         *view.View[[]api.LedgerError]
	Commodities    *view.View[[]api.Commodity]
	Journal        *view.View[api.JournalPage]
	NewTransaction *view.View[api.NewTransactionMeta]
}

// Session is one open client session against one ledger server.
type Session struct {
	Client      *api.Client
	Views       Views
	Index       *trie.Index
	Coordinator *live.Coordinator
	Metrics     *metrics.Metrics
}

// NewSession wires a session from configuration. reg may be nil to skip
// metrics registration.
func NewSession(cfg *config.Config, log zerolog.Logger, notifier notify.Notifier, reg prometheus.Registerer) (*Session, error) {
	m := metrics.New(reg)
	hc := &http.Client{Timeout: cfg.Server.Timeout.Std()}
	client := api.NewClient(cfg.Server.URL, hc, log)

	views := Views{
		BasicInfo: view.New(view.KeyBasicInfo, func(ctx context.Context) (api.BasicInfo, error) {
			return client.BasicInfo(ctx)
		}, log, notifier, m),
		Accounts: view.New(view.KeyAccounts, func(ctx context.Context) ([]model.Account, error) {
			return client.Accounts(ctx)
		}, log, notifier, m),
		Errors: view.New(view.KeyErrors, func(ctx context.Context) ([]api.LedgerError, error) {
			return client.Errors(ctx)
		}, log, notifier, m),
		Commodities: view.New(view.KeyCommodities, func(ctx context.Context) ([]api.Commodity, error) {
			return client.Commodities(ctx)
		}, log, notifier, m),
		Journal: view.New(view.KeyJournal, func(ctx context.Context) (api.JournalPage, error) {
			return client.Journal(ctx, 1)
		}, log, notifier, m),
		NewTransaction: view.New(view.KeyNewTransaction, func(ctx context.Context) (api.NewTransactionMeta, error) {
			return client.NewTransactionMeta(ctx)
		}, log, notifier, m),
	}

	// The trie always follows the freshest account snapshot.
	index := trie.NewIndex()
	views.Accounts.Subscribe(func(accounts []model.Account) {
		index.Rebuild(accounts)
	})

	dialer, err := live.NewWebsocketDialer(cfg.Server.URL)
	if err != nil {
		return nil, err
	}

	coordinator := live.NewCoordinator(live.Config{
		Dialer:    dialer,
		BasicInfo: views.BasicInfo,
		ReloadViews: []view.Refresher{
			views.Accounts,
			views.Errors,
			views.Commodities,
			views.Journal,
			views.NewTransaction,
		},
		Notifier:       notifier,
		Metrics:        m,
		Log:            log,
		InitialBackoff: cfg.Sync.InitialBackoff.Std(),
		MaxBackoff:     cfg.Sync.MaxBackoff.Std(),
	})

	return &Session{
		Client:      client,
		Views:       views,
		Index:       index,
		Coordinator: coordinator,
		Metrics:     m,
	}, nil
}
