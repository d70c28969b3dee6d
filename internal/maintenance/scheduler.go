// Package maintenance keeps published pages fresh: stale pages are
// regenerated, relinked and republished, and the sitemap is rebuilt.
package maintenance

import (
	"context"
	"time"

	"equipflow/sei/internal/config"
	"equipflow/sei/internal/content"
	"equipflow/sei/internal/db"
	"equipflow/sei/internal/failure"
	"equipflow/sei/internal/linking"
	"equipflow/sei/internal/logger"
	"equipflow/sei/internal/publish"
	"equipflow/sei/internal/sitemap"
)

// Generator regenerates the body of a page.
type Generator interface {
	Generate(ctx context.Context, nodeID string) (*content.Result, error)
}

// Linker rebuilds the internal links of a page.
type Linker interface {
	Generate(nodeID string) (*linking.Result, error)
}

// Publisher pushes a page to the CMS.
type Publisher interface {
	Publish(ctx context.Context, nodeID string) (*publish.Result, error)
}

// SitemapWriter rewrites the sitemap artifact.
type SitemapWriter interface {
	Generate() (*sitemap.Result, error)
}

// PageOutcome is the refresh result of one page.
type PageOutcome struct {
	NodeID  string `json:"node_id"`
	Keyword string `json:"keyword"`
	Stage   string `json:"stage,omitempty"` // stage that failed
	Error   string `json:"error,omitempty"`
}

// RefreshReport aggregates one refresh pass.
type RefreshReport struct {
	Checked   int           `json:"checked"`
	Refreshed int           `json:"refreshed"`
	Failed    int           `json:"failed"`
	Aborted   string        `json:"aborted,omitempty"`
	Pages     []PageOutcome `json:"pages"`
}

// CycleReport aggregates a full maintenance cycle.
type CycleReport struct {
	Refresh        *RefreshReport `json:"refresh"`
	SitemapURLs    int            `json:"sitemap_urls"`
	SitemapUpdated bool           `json:"sitemap_updated"`
	Relinked       int            `json:"relinked"`
	LinksAdded     int            `json:"links_added"`
}

// Scheduler drives stale pages back through generate, link and publish.
type Scheduler struct {
	db        *db.DB
	generator Generator
	linker    Linker
	publisher Publisher
	sitemap   SitemapWriter
	cfg       config.MaintenanceConfig
	log       *logger.Logger
	now       func() time.Time
}

// NewScheduler creates a maintenance scheduler. linker and sm may be nil to
// skip relinking or sitemap regeneration.
func NewScheduler(d *db.DB, gen Generator, linker Linker, pub Publisher, sm SitemapWriter, cfg config.MaintenanceConfig, log *logger.Logger) *Scheduler {
	return &Scheduler{
		db:        d,
		generator: gen,
		linker:    linker,
		publisher: pub,
		sitemap:   sm,
		cfg:       cfg,
		log:       log.Component("maintenance"),
		now:       time.Now,
	}
}

// RefreshStale regenerates up to limit published pages whose updated_at is
// older than the stale threshold, oldest first. A failing page is counted and
// skipped; a batch-fatal error (kill switch, open breaker) ends the pass.
// limit <= 0 uses the configured refresh limit.
func (s *Scheduler) RefreshStale(ctx context.Context, limit int) (*RefreshReport, error) {
	if limit <= 0 {
		limit = s.cfg.RefreshLimit
	}
	cutoff := s.now().Add(-time.Duration(s.cfg.StaleDays) * 24 * time.Hour).UnixMilli()
	pages, err := s.db.StalePublished(cutoff, limit)
	if err != nil {
		return nil, err
	}

	report := &RefreshReport{Pages: []PageOutcome{}}
	if len(pages) == 0 {
		s.log.Info("no stale pages found", "stale_days", s.cfg.StaleDays)
		return report, nil
	}
	s.log.Info("refreshing stale pages", "count", len(pages), "stale_days", s.cfg.StaleDays)

	for _, page := range pages {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Checked++
		outcome := PageOutcome{NodeID: page.ID, Keyword: page.PrimaryKeyword}

		stage, err := s.refreshOne(ctx, page.ID)
		if err != nil {
			outcome.Stage, outcome.Error = stage, err.Error()
			report.Failed++
			report.Pages = append(report.Pages, outcome)
			s.log.Warn("refresh failed", "node", page.ID, "keyword", page.PrimaryKeyword, "stage", stage, "kind", failure.Kind(err), "error", err)
			if failure.IsBatchFatal(err) {
				report.Aborted = err.Error()
				break
			}
			continue
		}
		report.Refreshed++
		report.Pages = append(report.Pages, outcome)
		s.log.Info("refreshed", "node", page.ID, "keyword", page.PrimaryKeyword)
	}
	return report, nil
}

func (s *Scheduler) refreshOne(ctx context.Context, id string) (string, error) {
	if _, err := s.generator.Generate(ctx, id); err != nil {
		return "generate", err
	}
	if s.cfg.Relink && s.linker != nil {
		if _, err := s.linker.Generate(id); err != nil {
			return "links", err
		}
	}
	if _, err := s.publisher.Publish(ctx, id); err != nil {
		return "publish", err
	}
	return "", nil
}

// Relink rebuilds the links of the limit most recently updated published
// pages so they pick up pages created since their last run. limit <= 0
// relinks every published page.
func (s *Scheduler) Relink(limit int) (pages, linksAdded int, err error) {
	if s.linker == nil {
		return 0, 0, nil
	}
	var nodes []db.Node
	if limit > 0 {
		nodes, err = s.db.RecentlyUpdated(db.StatusPublished, limit)
	} else {
		nodes, err = s.db.NodesByStatus(db.StatusPublished)
	}
	if err != nil {
		return 0, 0, err
	}
	for _, n := range nodes {
		res, err := s.linker.Generate(n.ID)
		if err != nil {
			s.log.Warn("relink failed", "node", n.ID, "error", err)
			continue
		}
		pages++
		linksAdded += res.LinksAdded
	}
	return pages, linksAdded, nil
}

// Cycle runs the full maintenance pass: refresh stale pages, regenerate the
// sitemap, then relink recently updated pages.
func (s *Scheduler) Cycle(ctx context.Context) (*CycleReport, error) {
	refresh, err := s.RefreshStale(ctx, 0)
	if err != nil {
		return nil, err
	}
	report := &CycleReport{Refresh: refresh}

	if s.sitemap != nil {
		sm, err := s.sitemap.Generate()
		if err != nil {
			s.log.Error("sitemap regeneration failed", "error", err)
		} else {
			report.SitemapUpdated = true
			report.SitemapURLs = sm.URLs
		}
	}

	if s.cfg.Relink {
		report.Relinked, report.LinksAdded, err = s.Relink(s.cfg.RelinkLimit)
		if err != nil {
			return report, err
		}
	}

	s.log.Info("maintenance complete",
		"refreshed", refresh.Refreshed, "failed", refresh.Failed,
		"sitemap", report.SitemapUpdated, "links_added", report.LinksAdded)
	return report, nil
}
