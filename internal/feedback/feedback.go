// Package feedback turns search performance data into new keywords, ranking
// history and content targets.
package feedback

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"sort"
	"strings"
	"time"

	"equipflow/sei/internal/config"
	"equipflow/sei/internal/db"
	"equipflow/sei/internal/failure"
	"equipflow/sei/internal/logger"
)

const (
	rowLimit          = 1000
	minImpressions    = 50
	minPosition       = 10
	maxOpportunities  = 50
	fallbackWordCount = 1000
	floorWordCount    = 800
	sourceGSC         = "gsc_discovery"
)

var equipmentTerms = []string{
	"financing", "for sale", "rental", "lease", "loan",
	"excavator", "crane", "forklift", "truck", "equipment",
}

// Opportunity is a query the site is seen for but has no page for.
type Opportunity struct {
	Keyword     string  `json:"keyword"`
	Impressions float64 `json:"impressions"`
	Position    float64 `json:"position"`
	Score       float64 `json:"opportunity_score"`
}

// Insights summarises published content.
type Insights struct {
	TotalPages           int     `json:"total_pages"`
	AvgWordCount         float64 `json:"avg_word_count"`
	RecommendedWordCount float64 `json:"recommended_word_count"`
}

// Service runs the search-console feedback loop against the registry.
type Service struct {
	db     *db.DB
	source Source
	cfg    config.SearchConsoleConfig
	site   config.SiteConfig
	log    *logger.Logger
	now    func() time.Time
}

// NewService creates a feedback service. source may be nil when search
// console is not configured; only Insights works then.
func NewService(d *db.DB, source Source, cfg *config.Config, log *logger.Logger) *Service {
	return &Service{
		db:     d,
		source: source,
		cfg:    cfg.SearchConsole,
		site:   cfg.Site,
		log:    log.Component("feedback"),
		now:    time.Now,
	}
}

func (s *Service) query(ctx context.Context, days int) ([]Row, error) {
	if s.source == nil {
		return nil, fmt.Errorf("search console: %w", failure.ErrNotConfigured)
	}
	end := s.now()
	rows, err := s.source.Query(ctx, end.AddDate(0, 0, -days), end, []string{"query", "page"}, rowLimit)
	if err != nil {
		return nil, err
	}
	s.log.Info("fetched search performance", "days", days, "rows", len(rows))
	return rows, nil
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// Qualifies reports whether a row is a keyword opportunity.
func Qualifies(r Row) bool {
	if r.Impressions <= minImpressions || r.Position <= minPosition {
		return false
	}
	q := strings.ToLower(r.Query)
	for _, term := range equipmentTerms {
		if strings.Contains(q, term) {
			return true
		}
	}
	return false
}

// Discover returns the best-scoring queries with impressions but no page,
// scored by impressions / position. A query seen on several pages is
// counted once, by its best row.
func (s *Service) Discover(ctx context.Context) ([]Opportunity, error) {
	rows, err := s.query(ctx, s.cfg.DiscoveryDays)
	if err != nil {
		return nil, err
	}
	known, err := s.db.KnownKeywords()
	if err != nil {
		return nil, err
	}

	best := map[string]Opportunity{}
	for _, r := range rows {
		kw := normalize(r.Query)
		if kw == "" || known[kw] || !Qualifies(r) {
			continue
		}
		o := Opportunity{
			Keyword:     kw,
			Impressions: r.Impressions,
			Position:    r.Position,
			Score:       r.Impressions / math.Max(r.Position, 1),
		}
		if prev, ok := best[kw]; !ok || o.Score > prev.Score {
			best[kw] = o
		}
	}

	out := make([]Opportunity, 0, len(best))
	for _, o := range best {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Keyword < out[j].Keyword
	})
	if len(out) > maxOpportunities {
		out = out[:maxOpportunities]
	}
	s.log.Info("keyword opportunities found", "count", len(out))
	return out, nil
}

// QueueOpportunities discovers opportunities and upserts them into the
// keyword queue as unprocessed, with impressions as volume.
func (s *Service) QueueOpportunities(ctx context.Context) (int, error) {
	opps, err := s.Discover(ctx)
	if err != nil {
		return 0, err
	}
	queued := 0
	for _, o := range opps {
		ok, err := s.db.EnqueueKeyword(db.QueuedKeyword{
			Keyword: o.Keyword,
			Volume:  int(o.Impressions),
			Source:  sourceGSC,
		}, true)
		if err != nil {
			s.log.Warn("queueing opportunity failed", "keyword", o.Keyword, "error", err)
			continue
		}
		if ok {
			queued++
		}
	}
	s.log.Info("queued search console opportunities", "count", queued)
	return queued, nil
}

// TrackRankings records, for each published page seen in the last ranking
// window, its highest-impression query.
func (s *Service) TrackRankings(ctx context.Context) ([]db.Ranking, error) {
	rows, err := s.query(ctx, s.cfg.RankingDays)
	if err != nil {
		return nil, err
	}
	published, err := s.db.NodesByStatus(db.StatusPublished)
	if err != nil {
		return nil, err
	}
	byPath := make(map[string]string, len(published))
	for _, n := range published {
		byPath[n.PublicPath()] = n.ID
	}

	best := map[string]db.Ranking{}
	var order []string
	for _, r := range rows {
		id, ok := byPath[s.pagePath(r.Page)]
		if !ok {
			continue
		}
		rk := db.Ranking{
			NodeID:      id,
			Keyword:     r.Query,
			Position:    r.Position,
			Clicks:      int(r.Clicks),
			Impressions: int(r.Impressions),
		}
		prev, seen := best[id]
		if !seen {
			order = append(order, id)
		}
		if !seen || rk.Impressions > prev.Impressions {
			best[id] = rk
		}
	}

	out := make([]db.Ranking, 0, len(order))
	for _, id := range order {
		if err := s.db.RecordRanking(best[id]); err != nil {
			return nil, err
		}
		out = append(out, best[id])
	}
	s.log.Info("tracked page rankings", "pages", len(out))
	return out, nil
}

// pagePath reduces a reported page URL to its site-relative path.
func (s *Service) pagePath(page string) string {
	if rest, ok := strings.CutPrefix(page, strings.TrimRight(s.site.URL, "/")); ok {
		return rest
	}
	if u, err := url.Parse(page); err == nil && u.Path != "" {
		return u.Path
	}
	return page
}

// Insights reports the average word count of published pages and the
// recommended target, never below 800.
func (s *Service) Insights() (*Insights, error) {
	published, err := s.db.NodesByStatus(db.StatusPublished)
	if err != nil {
		return nil, err
	}
	total, counted := 0, 0
	for _, n := range published {
		if n.WordCount > 0 {
			total += n.WordCount
			counted++
		}
	}
	avg := float64(fallbackWordCount)
	if counted > 0 {
		avg = float64(total) / float64(counted)
	}
	return &Insights{
		TotalPages:           len(published),
		AvgWordCount:         avg,
		RecommendedWordCount: math.Max(avg, floorWordCount),
	}, nil
}
