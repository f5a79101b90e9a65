package commands

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"github.com/use-agent/marsscrape/models"
	"github.com/use-agent/marsscrape/render"
	"github.com/use-agent/marsscrape/store"
)

var showMarkdown bool

func init() {
	showCmd.Flags().BoolVar(&showMarkdown, "markdown", false, "Print the snapshot as Markdown.")
	rootCmd.AddCommand(showCmd)
}

var showCmd = &cobra.Command{
	Use:   "show [--markdown]",
	Short: "Prints the stored snapshot.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(loadConfig())
		if err != nil {
			return err
		}
		defer st.Close()

		rec, err := st.Latest(cmd.Context())
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("no snapshot stored yet, run `marsctl scrape` first")
		}
		if err != nil {
			return err
		}

		if showMarkdown {
			md, err := render.Markdown(rec)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), md)
			return err
		}
		return printRecord(cmd.OutOrStdout(), rec)
	},
}

func printRecord(w io.Writer, rec *models.Record) error {
	fmt.Fprintf(w, "%s\n%s\n\n", rec.NewsTitle, rec.NewsSummary)
	fmt.Fprintf(w, "Featured image: %s\n\n", rec.FeaturedImageURL)
	fmt.Fprintln(w, render.FactsText(rec.Facts))
	fmt.Fprintln(w)
	for _, h := range rec.Hemispheres {
		fmt.Fprintf(w, "%s\n  %s\n", h.Title, h.ImageURL)
	}
	_, err := fmt.Fprintf(w, "\nScraped at %s\n", rec.ScrapedAt.Format(time.RFC3339))
	return err
}
