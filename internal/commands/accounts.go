package commands

import (
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tallybook-dev/tallybook/internal/api"
	"github.com/tallybook-dev/tallybook/internal/model"
	"github.com/tallybook-dev/tallybook/internal/trie"
)

func newAccountsCommand(r *root) *cobra.Command {
	var includeClosed bool

	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Fetch accounts and print the hierarchy with subtree balances",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(r.cfg.Server.URL, &http.Client{Timeout: r.cfg.Server.Timeout.Std()}, r.log)

			accounts, err := client.Accounts(cmd.Context())
			if err != nil {
				return fmt.Errorf("fetching accounts: %w", err)
			}
			if !includeClosed {
				open := accounts[:0]
				for _, a := range accounts {
					if a.Status != model.StatusClosed {
						open = append(open, a)
					}
				}
				accounts = open
			}

			root := trie.Build(accounts)
			if err := root.Validate(); err != nil {
				return fmt.Errorf("building account tree: %w", err)
			}
			printTree(cmd.OutOrStdout(), root, 0)
			return nil
		},
	}

	cmd.Flags().BoolVar(&includeClosed, "closed", false, "include closed accounts")

	return cmd
}

func printTree(w io.Writer, node *trie.Node, depth int) {
	children := node.Children()
	sort.Slice(children, func(i, j int) bool {
		return children[i].Segment < children[j].Segment
	})
	for _, c := range children {
		fmt.Fprintf(w, "%s%s%s\n", strings.Repeat("  ", depth), c.Segment, formatBalances(c))
		printTree(w, c, depth+1)
	}
}

func formatBalances(node *trie.Node) string {
	balances := node.Balances()
	currencies := make([]string, 0, len(balances))
	for currency := range balances {
		if balances[currency].IsZero() {
			continue
		}
		currencies = append(currencies, currency)
	}
	if len(currencies) == 0 {
		return ""
	}
	sort.Strings(currencies)

	parts := make([]string, 0, len(currencies))
	for _, currency := range currencies {
		parts = append(parts, balances[currency].String()+" "+currency)
	}
	return "  [" + strings.Join(parts, ", ") + "]"
}
