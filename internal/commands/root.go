package commands

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/tallybook-dev/tallybook/internal/buildinfo"
	"github.com/tallybook-dev/tallybook/internal/config"
	"github.com/tallybook-dev/tallybook/internal/logging"
)

// root carries the flags and loaded configuration shared by all
// subcommands.
type root struct {
	cfgPath   string
	serverURL string
	logLevel  string

	cfg *config.Config
	log zerolog.Logger
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	r := &root{}

	rootCmd := &cobra.Command{
		Use:     "tallybook",
		Short:   "Client for a double-entry ledger server",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return r.load()
		},
	}

	rootCmd.PersistentFlags().StringVar(&r.cfgPath, "config", "", "path to tallybook.yaml (optional)")
	rootCmd.PersistentFlags().StringVar(&r.serverURL, "server", "", "ledger server base URL (overrides config)")
	rootCmd.PersistentFlags().StringVar(&r.logLevel, "log-level", "", "log level (overrides config)")

	rootCmd.AddCommand(newAccountsCommand(r))
	rootCmd.AddCommand(newJournalCommand(r))
	rootCmd.AddCommand(newWatchCommand(r))
	rootCmd.AddCommand(newAddCommand(r))
	rootCmd.AddCommand(newBalanceCommand(r))
	rootCmd.AddCommand(newReloadCommand(r))

	return rootCmd
}

// load resolves configuration: file if given or present, defaults
// otherwise, then flag overrides.
func (r *root) load() error {
	cfg := config.Default()
	path := r.cfgPath
	if path == "" {
		if _, err := os.Stat("tallybook.yaml"); err == nil {
			path = "tallybook.yaml"
		}
	}
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	if r.serverURL != "" {
		cfg.Server.URL = r.serverURL
	}
	if r.logLevel != "" {
		cfg.Log.Level = r.logLevel
	}

	r.cfg = cfg
	r.log = logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Console)
	return nil
}
