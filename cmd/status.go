package cmd

import (
	"fmt"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"equipflow/sei/internal/db"
	"equipflow/sei/internal/session"
)

type statusReport struct {
	Pages             map[string]int  `json:"pages"`
	Queue             map[string]int  `json:"queue"`
	PublishingEnabled bool            `json:"publishing_enabled"`
	Features          map[string]bool `json:"features"`
	LastPublished     *int64          `json:"last_published,omitempty"`
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show page counts, keyword queue, kill switch and enabled stages",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		pages, err := a.db.StatusCounts()
		if err != nil {
			return err
		}
		queue, err := a.db.KeywordCounts()
		if err != nil {
			return err
		}
		enabled, err := a.db.PublishingEnabled()
		if err != nil {
			return err
		}
		report := statusReport{
			Pages:             pages,
			Queue:             queue,
			PublishingEnabled: enabled,
			Features: map[string]bool{
				"intel":   a.cfg.Intel.Enabled,
				"images":  a.cfg.Images.Enabled,
				"linking": a.cfg.Linking.Enabled,
				"publish": a.cfg.Publish.Enabled,
			},
		}
		recent, err := a.db.RecentlyUpdated(db.StatusPublished, 1)
		if err != nil {
			return err
		}
		if len(recent) > 0 {
			report.LastPublished = &recent[0].UpdatedAt
		}

		if jsonOutput {
			return printJSON(report)
		}
		printStatus(report)
		return nil
	},
}

func printStatus(r statusReport) {
	fmt.Println("\n  PAGES")
	fmt.Println("  ────────────────────────────────────────")
	for _, s := range []string{db.StatusDiscovery, db.StatusReady, db.StatusBlocked, db.StatusPublished} {
		printRow(s, humanize.Comma(int64(r.Pages[s])))
	}
	if r.LastPublished != nil {
		printRow("last update", humanize.Time(time.UnixMilli(*r.LastPublished)))
	}

	fmt.Println("\n  KEYWORD QUEUE")
	fmt.Println("  ────────────────────────────────────────")
	printRow(db.QueueUnprocessed, humanize.Comma(int64(r.Queue[db.QueueUnprocessed])))
	printRow(db.QueueProcessed, humanize.Comma(int64(r.Queue[db.QueueProcessed])))

	fmt.Println("\n  CONTROLS")
	fmt.Println("  ────────────────────────────────────────")
	printRow("kill switch", onOff(!r.PublishingEnabled))
	names := make([]string, 0, len(r.Features))
	for n := range r.Features {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		printRow(n, onOff(r.Features[n]))
	}
	fmt.Println()
}

func printRow(label, value string) {
	fmt.Printf("  %s %s\n", runewidth.FillRight(label, 20), value)
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

// printCosts prints the session spend per service.
func printCosts(r session.CostReport) {
	if len(r.Services) == 0 {
		return
	}
	fmt.Println("\n  COSTS (this session)")
	fmt.Println("  ────────────────────────────────────────")
	for _, s := range r.Services {
		fmt.Printf("  %s %8s  $%s\n", runewidth.FillRight(s.Service, 16), humanize.Comma(int64(s.Units)), s.CostUSD.StringFixed(4))
	}
	fmt.Printf("  %s %8s  $%s\n", runewidth.FillRight("total", 16), "", r.TotalUSD.StringFixed(4))
}

var killOnCmd = &cobra.Command{
	Use:   "kill-on",
	Short: "Engage the kill switch: stop all publishing",
	RunE: func(cmd *cobra.Command, args []string) error {
		return setPublishing(false)
	},
}

var killOffCmd = &cobra.Command{
	Use:   "kill-off",
	Short: "Release the kill switch: allow publishing",
	RunE: func(cmd *cobra.Command, args []string) error {
		return setPublishing(true)
	},
}

func setPublishing(enabled bool) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.db.SetPublishingEnabled(enabled); err != nil {
		return err
	}
	a.log.Info("publishing toggled", "enabled", enabled)
	if jsonOutput {
		return printJSON(map[string]bool{"publishing_enabled": enabled})
	}
	if enabled {
		fmt.Println("  Kill switch released. Publishing enabled.")
	} else {
		fmt.Println("  Kill switch engaged. Publishing disabled.")
	}
	return nil
}

func init() {
	rootCmd.AddCommand(statusCmd, killOnCmd, killOffCmd)
}
