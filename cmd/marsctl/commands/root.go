package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/use-agent/marsscrape/config"
	"github.com/use-agent/marsscrape/store"
)

var (
	storeDriver string
	storePath   string
	verbose     bool
)

var rootCmd = &cobra.Command{
	Use:           "marsctl",
	Short:         "marsctl scrapes Mars facts into the local snapshot store and prints it.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelDebug})))
		}
	},
}

func init() {
	cfg := config.Load()
	rootCmd.PersistentFlags().StringVar(&storeDriver, "driver", cfg.Store.Driver, "Snapshot store driver (memory or sqlite).")
	rootCmd.PersistentFlags().StringVar(&storePath, "db", cfg.Store.Path, "Path to the sqlite snapshot database.")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log every scrape step to stderr.")
}

// loadConfig returns the environment config with flag overrides applied.
func loadConfig() *config.Config {
	cfg := config.Load()
	cfg.Store.Driver = storeDriver
	cfg.Store.Path = storePath
	return cfg
}

func openStore(cfg *config.Config) (store.Store, error) {
	st, err := store.Open(cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return st, nil
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
