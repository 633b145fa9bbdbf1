package commands

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tallybook-dev/tallybook/internal/api"
	"github.com/tallybook-dev/tallybook/internal/model"
)

func newBalanceCommand(r *root) *cobra.Command {
	var assertions []string

	cmd := &cobra.Command{
		Use:   "balance",
		Short: "Submit a batch of balance assertions",
		Long: `Submit balance assertions to the ledger server.

Each --assert is "ACCOUNT AMOUNT CURRENCY", e.g.:

  tallybook balance --assert "Assets:Bank:Checking 1024.00 USD"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(assertions) == 0 {
				return fmt.Errorf("nothing to assert, pass --assert at least once")
			}

			batch := make([]model.BalanceAssertion, 0, len(assertions))
			for _, raw := range assertions {
				fields := strings.Fields(raw)
				if len(fields) != 3 {
					return fmt.Errorf("assertion %q: want \"ACCOUNT AMOUNT CURRENCY\"", raw)
				}
				amount, err := model.NewMoney(fields[1], fields[2])
				if err != nil {
					return fmt.Errorf("assertion %q: %w", raw, err)
				}
				batch = append(batch, model.BalanceAssertion{Account: fields[0], Amount: amount})
			}

			client := api.NewClient(r.cfg.Server.URL, &http.Client{Timeout: r.cfg.Server.Timeout.Std()}, r.log)
			if err := client.SubmitBalances(cmd.Context(), batch); err != nil {
				return fmt.Errorf("submitting balances: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "submitted %d balance assertion(s)\n", len(batch))
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&assertions, "assert", nil, "balance assertion (repeatable)")

	return cmd
}

func newReloadCommand(r *root) *cobra.Command {
	return &cobra.Command{
		Use:   "reload",
		Short: "Ask the server to recompile its ledger source",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(r.cfg.Server.URL, &http.Client{Timeout: r.cfg.Server.Timeout.Std()}, r.log)
			if err := client.Reload(cmd.Context()); err != nil {
				return fmt.Errorf("requesting reload: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "reload requested")
			return nil
		},
	}
}
