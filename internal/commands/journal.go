package commands

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tallybook-dev/tallybook/internal/api"
	"github.com/tallybook-dev/tallybook/internal/netting"
)

func newJournalCommand(r *root) *cobra.Command {
	var page int

	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Print a page of transactions with their net currency effect",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(r.cfg.Server.URL, &http.Client{Timeout: r.cfg.Server.Timeout.Std()}, r.log)

			result, err := client.Journal(cmd.Context(), page)
			if err != nil {
				return fmt.Errorf("fetching journal: %w", err)
			}

			out := cmd.OutOrStdout()
			for _, tx := range result.Transactions {
				title := tx.Payee
				if tx.Narration != "" {
					title += " | " + tx.Narration
				}

				net := netting.NetEffect(tx)
				parts := make([]string, 0, len(net))
				for _, m := range net {
					parts = append(parts, m.String())
				}
				effect := "no net movement"
				if len(parts) > 0 {
					effect = strings.Join(parts, ", ")
				}

				fmt.Fprintf(out, "%s  %-40s  %s\n", tx.Timestamp.Format("2006-01-02"), title, effect)
			}
			fmt.Fprintf(out, "page %d of %d\n", result.CurrentPage, result.TotalPages)
			return nil
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "journal page to fetch")

	return cmd
}
