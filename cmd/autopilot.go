package cmd

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"equipflow/sei/internal/autopilot"
)

var (
	autopilotCSV   string
	autopilotLimit int
)

var autopilotCmd = &cobra.Command{
	Use:   "autopilot",
	Short: "Run the full pipeline over a keyword CSV or the keyword queue",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		limit := autopilotLimit
		if limit <= 0 {
			limit = a.cfg.Autopilot.Limit
		}

		var keywords []autopilot.Keyword
		if autopilotCSV != "" {
			keywords, err = autopilot.LoadCSV(autopilotCSV)
		} else {
			keywords, err = autopilot.FromQueue(a.db, limit)
		}
		if err != nil {
			return err
		}
		if len(keywords) == 0 {
			fmt.Println("  No keywords to process.")
			return nil
		}

		report, err := a.runner().Run(cmd.Context(), keywords, limit)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(report)
		}
		printAutopilot(report)
		return nil
	},
}

func printAutopilot(r *autopilot.Report) {
	fmt.Println("\n  AUTOPILOT COMPLETE")
	fmt.Println("  ────────────────────────────────────────")
	printRow("keywords", humanize.Comma(int64(r.KeywordsProcessed)))
	printRow("pages created", humanize.Comma(int64(r.PagesCreated)))
	printRow("content generated", humanize.Comma(int64(r.ContentGenerated)))
	printRow("blocked by gates", humanize.Comma(int64(r.Blocked)))
	printRow("images", humanize.Comma(int64(r.ImagesGenerated)))
	printRow("links added", humanize.Comma(int64(r.LinksGenerated)))
	printRow("published", humanize.Comma(int64(r.Published)))
	printRow("indexed", humanize.Comma(int64(r.Indexed)))
	if r.SitemapURLs > 0 {
		printRow("sitemap urls", humanize.Comma(int64(r.SitemapURLs)))
	}
	printRow("duration", r.Duration.Round(1e6).String())
	if r.Stopped != "" {
		fmt.Printf("\n  Stopped early: %s\n", r.Stopped)
	}
	if len(r.Errors) > 0 {
		fmt.Printf("\n  %d error(s):\n", len(r.Errors))
		for _, e := range r.Errors {
			fmt.Printf("    ! %s\n", e)
		}
	}
	printCosts(r.Costs)
	fmt.Println()
}

var importKeywordsCmd = &cobra.Command{
	Use:   "import-keywords <csv>",
	Short: "Add keywords from a CSV export to the queue",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		keywords, err := autopilot.LoadCSV(args[0])
		if err != nil {
			return err
		}
		n, err := autopilot.Enqueue(a.db, keywords, autopilot.SourceCSVImport)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(map[string]int{"read": len(keywords), "queued": n})
		}
		fmt.Printf("  Queued %d of %d keywords from %s\n", n, len(keywords), args[0])
		return nil
	},
}

func init() {
	autopilotCmd.Flags().StringVar(&autopilotCSV, "csv", "", "Keyword CSV (keyword, volume, kd); default reads the queue")
	autopilotCmd.Flags().IntVar(&autopilotLimit, "limit", 0, "Maximum keywords to process (default autopilot.limit)")
	rootCmd.AddCommand(autopilotCmd, importKeywordsCmd)
}
