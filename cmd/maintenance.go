package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	refreshLimit int
	relinkLimit  int
)

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Regenerate, relink and republish stale published pages",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		report, err := a.scheduler().RefreshStale(cmd.Context(), refreshLimit)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(report)
		}
		fmt.Printf("\n  Stale pages checked: %d  refreshed: %d  failed: %d\n", report.Checked, report.Refreshed, report.Failed)
		for _, p := range report.Pages {
			if p.Error != "" {
				fmt.Printf("    ! %s (%s): %s\n", p.Keyword, p.Stage, p.Error)
			} else {
				fmt.Printf("    + %s\n", p.Keyword)
			}
		}
		if report.Aborted != "" {
			fmt.Printf("  Stopped early: %s\n", report.Aborted)
		}
		printCosts(a.sess.Budget.Report())
		return nil
	},
}

var relinkCmd = &cobra.Command{
	Use:   "relink",
	Short: "Rebuild internal links of published pages",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		pages, links, err := a.scheduler().Relink(relinkLimit)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(map[string]int{"pages": pages, "links_added": links})
		}
		fmt.Printf("  Updated %d pages with %d new links\n", pages, links)
		return nil
	},
}

var maintenanceCmd = &cobra.Command{
	Use:   "maintenance",
	Short: "Full maintenance cycle: refresh stale pages, regenerate the sitemap, relink recent pages",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		report, err := a.scheduler().Cycle(cmd.Context())
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(report)
		}
		fmt.Println("\n  MAINTENANCE COMPLETE")
		fmt.Println("  ────────────────────────────────────────")
		fmt.Printf("  Stale pages refreshed: %d (failed %d)\n", report.Refresh.Refreshed, report.Refresh.Failed)
		fmt.Printf("  Sitemap updated:       %v (%d urls)\n", report.SitemapUpdated, report.SitemapURLs)
		fmt.Printf("  Pages relinked:        %d (%d new links)\n", report.Relinked, report.LinksAdded)
		printCosts(a.sess.Budget.Report())
		return nil
	},
}

var sitemapCmd = &cobra.Command{
	Use:   "sitemap",
	Short: "Write sitemap.xml for every published page",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.sitemap().Generate()
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(res)
		}
		fmt.Printf("  Wrote %d urls to %s\n", res.URLs, res.Path)
		return nil
	},
}

var indexNowCmd = &cobra.Command{
	Use:   "indexnow <url>...",
	Short: "Submit URLs to IndexNow",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.indexNow().Notify(cmd.Context(), args); err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(map[string]any{"submitted": args, "accepted": true})
		}
		fmt.Printf("  IndexNow accepted %d url(s)\n", len(args))
		return nil
	},
}

func init() {
	refreshCmd.Flags().IntVar(&refreshLimit, "limit", 0, "Maximum pages to refresh (default maintenance.refresh_limit)")
	relinkCmd.Flags().IntVar(&relinkLimit, "limit", 0, "Only relink the N most recently updated pages (0 = all)")
	rootCmd.AddCommand(refreshCmd, relinkCmd, maintenanceCmd, sitemapCmd, indexNowCmd)
}
