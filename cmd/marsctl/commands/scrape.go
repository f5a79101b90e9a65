package commands

import (
	"encoding/json"

	"github.com/spf13/cobra"
	"github.com/use-agent/marsscrape/pipeline"
)

func init() {
	rootCmd.AddCommand(scrapeCmd)
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape [--db <path/to/marsscrape.db>]",
	Short: "Runs the scraping pipeline once, stores the snapshot and prints it as JSON.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		st, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		svc := pipeline.NewFromConfig(cfg, st)
		rec, err := svc.Scrape(cmd.Context())
		if err != nil {
			return err
		}
		// Wait for the webhook before the process exits.
		if err := svc.Drain(cmd.Context()); err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(rec)
	},
}
