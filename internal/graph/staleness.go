package graph

import (
	"sort"
	"time"

	"equipflow/sei/internal/db"
)

const dayMs = int64(24 * time.Hour / time.Millisecond)

// StalePage is a published page whose content has not been touched for a while
type StalePage struct {
	ID              string `json:"id"`
	Keyword         string `json:"keyword"`
	Slug            string `json:"slug"`
	DaysSinceUpdate int64  `json:"days_since_update"`
	InboundLinks    int    `json:"inbound_links"`
}

// StalenessReport contains staleness results
type StalenessReport struct {
	StaleDays      int         `json:"stale_days"`
	PublishedCount int         `json:"published_count"`
	StalePages     []StalePage `json:"stale_pages"`
	StaleCount     int         `json:"stale_count"`
}

// ComputeStaleness finds published pages not updated within staleDays of now,
// most linked first
func ComputeStaleness(snap *Snapshot, staleDays int, now time.Time) *StalenessReport {
	nowMs := now.UnixMilli()
	thresholdMs := int64(staleDays) * dayMs

	report := &StalenessReport{StaleDays: staleDays}
	for _, id := range snap.PageIDs() {
		p := snap.Pages[id]
		if p.Status != db.StatusPublished {
			continue
		}
		report.PublishedCount++
		age := nowMs - p.UpdatedAt
		if age <= thresholdMs {
			continue
		}
		report.StalePages = append(report.StalePages, StalePage{
			ID:              id,
			Keyword:         p.Keyword,
			Slug:            p.Slug,
			DaysSinceUpdate: age / dayMs,
			InboundLinks:    len(snap.InAdj[id]),
		})
	}
	sort.SliceStable(report.StalePages, func(i, j int) bool {
		a, b := report.StalePages[i], report.StalePages[j]
		if a.InboundLinks != b.InboundLinks {
			return a.InboundLinks > b.InboundLinks
		}
		return a.DaysSinceUpdate > b.DaysSinceUpdate
	})
	report.StaleCount = len(report.StalePages)
	return report
}
