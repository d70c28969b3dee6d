package cmd

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"equipflow/sei/internal/graph"
)

var (
	analyzeCluster   string
	analyzeTopN      int
	analyzeStaleDays int
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze the internal link graph: topology, staleness, hub coverage, health score",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		snap, err := graph.SnapshotFromDB(a.db)
		if err != nil {
			return fmt.Errorf("loading graph: %w", err)
		}

		if analyzeCluster != "" {
			etID, err := a.resolveEquipmentType(analyzeCluster)
			if err != nil {
				return err
			}
			snap = snap.FilterToCluster(etID)
		}

		config := &graph.AnalyzerConfig{
			TopN:      analyzeTopN,
			StaleDays: analyzeStaleDays,
		}

		report := graph.Analyze(snap, config, time.Now())

		if jsonOutput {
			return printJSON(report)
		}

		printHumanReadable(report, snap)
		return nil
	},
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeCluster, "cluster", "", "Scope analysis to one equipment type (slug or ID)")
	analyzeCmd.Flags().IntVar(&analyzeTopN, "top-n", 10, "Number of top items to show per section")
	analyzeCmd.Flags().IntVar(&analyzeStaleDays, "stale-days", 30, "Days since update to consider a published page stale")
	rootCmd.AddCommand(analyzeCmd)
}

// resolveEquipmentType accepts an equipment type ID or slug.
func (a *app) resolveEquipmentType(ref string) (string, error) {
	types, err := a.db.ListEquipmentTypes()
	if err != nil {
		return "", err
	}
	for _, et := range types {
		if et.ID == ref || et.Slug == ref || strings.EqualFold(et.Name, ref) {
			return et.ID, nil
		}
	}
	return "", fmt.Errorf("equipment type not found: %s", ref)
}

func printHumanReadable(report *graph.AnalysisReport, snap *graph.Snapshot) {
	// Health bar
	barLen := int(report.HealthScore * 20)
	if barLen > 20 {
		barLen = 20
	}
	bar := strings.Repeat("█", barLen) + strings.Repeat("░", 20-barLen)
	fmt.Printf("\n  Link Graph Health: %.0f%%  [%s]\n", report.HealthScore*100, bar)
	fmt.Printf("  breakdown: connectivity=%.2f components=%.2f freshness=%.2f hub_coverage=%.2f\n\n",
		report.HealthBreakdown.Connectivity,
		report.HealthBreakdown.Components,
		report.HealthBreakdown.Freshness,
		report.HealthBreakdown.HubCoverage)

	// Topology
	t := report.Topology
	fmt.Println("  TOPOLOGY")
	fmt.Println("  ────────────────────────────────────────")
	fmt.Printf("  Pages: %s  Links: %s  Components: %d\n",
		humanize.Comma(int64(t.TotalPages)), humanize.Comma(int64(t.TotalLinks)), t.NumComponents)
	fmt.Printf("  Largest component: %d pages\n", t.LargestComponent)

	printPageList(fmt.Sprintf("Orphans: %d pages with no links at all", t.OrphanCount), t.OrphanIDs, t.OrphanCount, snap)
	printPageList(fmt.Sprintf("Unlinked: %d pages nothing links to", t.UnlinkedCount), t.UnlinkedIDs, t.UnlinkedCount, snap)
	printPageList(fmt.Sprintf("Detached spokes: %d spokes not linking to their hub", len(t.DetachedSpokes)), t.DetachedSpokes, len(t.DetachedSpokes), snap)

	// Inbound distribution
	fmt.Println("\n  Inbound link distribution:")
	for _, b := range t.InboundHistogram {
		if b.Count > 0 {
			barWidth := int(math.Log2(float64(b.Count))) + 2
			fmt.Printf("    %5s: %4d  %s\n", b.Label, b.Count, strings.Repeat("=", barWidth))
		}
	}

	if len(t.MostLinked) > 0 {
		fmt.Println("\n  Most linked pages:")
		for _, p := range t.MostLinked {
			fmt.Printf("    %s in=%d out=%d  %s\n",
				truncID(p.ID), p.InDegree, p.OutDegree, truncTitle(p.Keyword, 40))
		}
	}

	// Staleness
	s := report.Staleness
	fmt.Println("\n  STALENESS")
	fmt.Println("  ────────────────────────────────────────")
	fmt.Printf("  %d of %d published pages untouched for more than %d days\n", s.StaleCount, s.PublishedCount, s.StaleDays)
	limit := 10
	if len(s.StalePages) < limit {
		limit = len(s.StalePages)
	}
	for _, p := range s.StalePages[:limit] {
		fmt.Printf("    %s %dd old, %d inbound  %s\n",
			truncID(p.ID), p.DaysSinceUpdate, p.InboundLinks, truncTitle(p.Keyword, 40))
	}
	if s.StaleCount > limit {
		fmt.Printf("    ... and %d more\n", s.StaleCount-limit)
	}

	fmt.Println()
}

func printPageList(header string, ids []string, count int, snap *graph.Snapshot) {
	if count == 0 {
		return
	}
	fmt.Printf("  %s\n", header)
	limit := 5
	if len(ids) < limit {
		limit = len(ids)
	}
	for _, id := range ids[:limit] {
		title := "?"
		if p := snap.Pages[id]; p != nil {
			title = truncTitle(p.Keyword, 50)
		}
		fmt.Printf("    - %s (%s)\n", truncID(id), title)
	}
	if count > limit {
		fmt.Printf("    ... and %d more\n", count-limit)
	}
}
