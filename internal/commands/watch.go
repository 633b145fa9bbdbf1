package commands

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/tallybook-dev/tallybook/internal/api"
	"github.com/tallybook-dev/tallybook/internal/app"
	"github.com/tallybook-dev/tallybook/internal/model"
	"github.com/tallybook-dev/tallybook/internal/notify"
)

func newWatchCommand(r *root) *cobra.Command {
	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow the server's push channel and keep cached views fresh",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			registry := prometheus.NewRegistry()
			sess, err := app.NewSession(r.cfg, r.log, notify.LogNotifier{Log: r.log}, registry)
			if err != nil {
				return err
			}

			sess.Views.Accounts.Subscribe(func(accounts []model.Account) {
				r.log.Info().Int("count", len(accounts)).Msg("accounts refreshed")
			})
			sess.Views.Errors.Subscribe(func(errs []api.LedgerError) {
				r.log.Info().Int("count", len(errs)).Msg("ledger errors refreshed")
			})
			sess.Views.Journal.Subscribe(func(page api.JournalPage) {
				r.log.Info().Int("transactions", len(page.Transactions)).Msg("journal refreshed")
			})
			sess.Coordinator.OnReload(func() {
				r.log.Info().Msg("reload handled")
			})

			if metricsAddr != "" {
				mux := http.NewServeMux()
				mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
				srv := &http.Server{Addr: metricsAddr, Handler: mux}
				go func() {
					if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						r.log.Error().Err(err).Msg("metrics server failed")
					}
				}()
				defer srv.Close()
			}

			err = sess.Coordinator.Run(ctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "expose Prometheus metrics on this address (e.g. :9120)")

	return cmd
}
