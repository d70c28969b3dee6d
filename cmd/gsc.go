package cmd

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var gscDiscoverCmd = &cobra.Command{
	Use:   "gsc-discover",
	Short: "List queries with impressions but no page yet",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		svc, err := a.feedback(cmd.Context())
		if err != nil {
			return err
		}
		opps, err := svc.Discover(cmd.Context())
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(opps)
		}
		if len(opps) == 0 {
			fmt.Println("  No new keyword opportunities.")
			return nil
		}
		fmt.Printf("\n  %d keyword opportunities\n", len(opps))
		fmt.Println("  ────────────────────────────────────────")
		limit := 20
		if len(opps) < limit {
			limit = len(opps)
		}
		for _, o := range opps[:limit] {
			fmt.Printf("    %8s impr  pos %5.1f  %s\n",
				humanize.Comma(int64(o.Impressions)), o.Position, truncTitle(o.Keyword, 50))
		}
		if len(opps) > limit {
			fmt.Printf("    ... and %d more (use --json for all)\n", len(opps)-limit)
		}
		return nil
	},
}

var gscQueueCmd = &cobra.Command{
	Use:   "gsc-queue",
	Short: "Discover opportunities and add them to the keyword queue",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		svc, err := a.feedback(cmd.Context())
		if err != nil {
			return err
		}
		n, err := svc.QueueOpportunities(cmd.Context())
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(map[string]int{"queued": n})
		}
		fmt.Printf("  Queued %d keyword(s)\n", n)
		return nil
	},
}

var gscRankingsCmd = &cobra.Command{
	Use:   "gsc-rankings",
	Short: "Record current positions of published pages and report content insights",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		svc, err := a.feedback(cmd.Context())
		if err != nil {
			return err
		}
		rankings, err := svc.TrackRankings(cmd.Context())
		if err != nil {
			return err
		}
		insights, err := svc.Insights()
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(map[string]any{"rankings": rankings, "insights": insights})
		}
		fmt.Printf("\n  Tracked %d page(s)\n", len(rankings))
		fmt.Println("  ────────────────────────────────────────")
		for _, r := range rankings {
			fmt.Printf("    %s pos %5.1f  %6s clicks  %s\n",
				truncID(r.NodeID), r.Position, humanize.Comma(int64(r.Clicks)), truncTitle(r.Keyword, 40))
		}
		fmt.Printf("\n  Published pages: %d  avg words: %.0f  recommended: %.0f\n\n",
			insights.TotalPages, insights.AvgWordCount, insights.RecommendedWordCount)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(gscDiscoverCmd, gscQueueCmd, gscRankingsCmd)
}
