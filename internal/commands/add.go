package commands

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tallybook-dev/tallybook/internal/api"
	"github.com/tallybook-dev/tallybook/internal/model"
)

func newAddCommand(r *root) *cobra.Command {
	var (
		payee     string
		narration string
		date      string
		tags      []string
		links     []string
		postings  []string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Submit a new transaction",
		Long: `Submit a new transaction to the ledger server.

Each --posting is either "ACCOUNT AMOUNT CURRENCY" or just "ACCOUNT" to let
the server infer the amount, e.g.:

  tallybook add --payee Cafe --posting "Assets:Cash -12.50 USD" --posting "Expenses:Food"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(postings) < 2 {
				return fmt.Errorf("a transaction needs at least 2 postings, got %d", len(postings))
			}

			when := time.Now()
			if date != "" {
				parsed, err := time.Parse("2006-01-02", date)
				if err != nil {
					return fmt.Errorf("parsing date: %w", err)
				}
				when = parsed
			}

			req := api.NewTransactionRequest{
				Datetime:  when,
				Payee:     payee,
				Narration: narration,
				Tags:      tags,
				Links:     links,
			}
			for _, raw := range postings {
				p, err := parsePosting(raw)
				if err != nil {
					return err
				}
				req.Postings = append(req.Postings, p)
			}

			client := api.NewClient(r.cfg.Server.URL, &http.Client{Timeout: r.cfg.Server.Timeout.Std()}, r.log)
			if err := client.CreateTransaction(cmd.Context(), req); err != nil {
				return fmt.Errorf("submitting transaction: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "transaction submitted")
			return nil
		},
	}

	cmd.Flags().StringVar(&payee, "payee", "", "payee (required)")
	_ = cmd.MarkFlagRequired("payee")
	cmd.Flags().StringVar(&narration, "narration", "", "narration")
	cmd.Flags().StringVar(&date, "date", "", "date as YYYY-MM-DD (default today)")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "tag (repeatable)")
	cmd.Flags().StringSliceVar(&links, "link", nil, "link (repeatable)")
	cmd.Flags().StringArrayVar(&postings, "posting", nil, "posting leg (repeatable, required)")

	return cmd
}

// parsePosting accepts "ACCOUNT AMOUNT CURRENCY" or "ACCOUNT".
func parsePosting(raw string) (api.PostingRequest, error) {
	fields := strings.Fields(raw)
	switch len(fields) {
	case 1:
		return api.NewElidedPostingRequest(fields[0]), nil
	case 3:
		amount, err := model.NewMoney(fields[1], fields[2])
		if err != nil {
			return api.PostingRequest{}, fmt.Errorf("posting %q: %w", raw, err)
		}
		return api.NewPostingRequest(fields[0], amount), nil
	default:
		return api.PostingRequest{}, fmt.Errorf("posting %q: want \"ACCOUNT AMOUNT CURRENCY\" or \"ACCOUNT\"", raw)
	}
}
