// Package autopilot drives batches of keywords through the whole pipeline:
// classify, decide, then generate, image, link and publish every new page.
package autopilot

import (
	"context"
	"errors"
	"time"

	"equipflow/sei/internal/classify"
	"equipflow/sei/internal/config"
	"equipflow/sei/internal/content"
	"equipflow/sei/internal/db"
	"equipflow/sei/internal/decision"
	"equipflow/sei/internal/failure"
	"equipflow/sei/internal/linking"
	"equipflow/sei/internal/logger"
	"equipflow/sei/internal/media"
	"equipflow/sei/internal/publish"
	"equipflow/sei/internal/session"
	"equipflow/sei/internal/sitemap"
)

// Classifier reads a keyword into a page classification.
type Classifier interface {
	Classify(ctx context.Context, keyword string, volume, kd int) (*classify.Classification, error)
}

// Decider creates the pages a classification calls for.
type Decider interface {
	Decide(c *classify.Classification, volume, kd int) (*decision.Decision, error)
}

// Generator writes the body of a page.
type Generator interface {
	Generate(ctx context.Context, nodeID string) (*content.Result, error)
}

// ImageAttacher gives a page its hero image.
type ImageAttacher interface {
	Attach(ctx context.Context, nodeID string) (*media.Result, error)
}

// Linker builds the internal links of a page.
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

// Stages are the pipeline steps of a run. Images, Linker, Publisher and
// Sitemap may be nil to skip that step.
type Stages struct {
	Classifier Classifier
	Decider    Decider
	Generator  Generator
	Images     ImageAttacher
	Linker     Linker
	Publisher  Publisher
	Sitemap    SitemapWriter
}

// KeywordResult is the outcome of one keyword.
type KeywordResult struct {
	Keyword          string   `json:"keyword"`
	PagesCreated     int      `json:"pages_created"`
	ContentGenerated int      `json:"content_generated"`
	Blocked          int      `json:"blocked"`
	ImagesGenerated  int      `json:"images_generated"`
	LinksGenerated   int      `json:"links_generated"`
	Published        int      `json:"published"`
	Indexed          int      `json:"indexed"`
	PublishedURLs    []string `json:"published_urls,omitempty"`
	Errors           []string `json:"errors,omitempty"`
}

// Report summarizes a full run.
type Report struct {
	KeywordsProcessed int                `json:"keywords_processed"`
	PagesCreated      int                `json:"pages_created"`
	ContentGenerated  int                `json:"content_generated"`
	Blocked           int                `json:"blocked"`
	ImagesGenerated   int                `json:"images_generated"`
	LinksGenerated    int                `json:"links_generated"`
	Published         int                `json:"published"`
	Indexed           int                `json:"indexed"`
	Errors            []string           `json:"errors"`
	Stopped           string             `json:"stopped,omitempty"`
	SitemapURLs       int                `json:"sitemap_urls,omitempty"`
	Keywords          []KeywordResult    `json:"keywords"`
	Costs             session.CostReport `json:"costs"`
	Duration          time.Duration      `json:"duration"`
}

func (r *Report) add(k *KeywordResult) {
	r.KeywordsProcessed++
	r.PagesCreated += k.PagesCreated
	r.ContentGenerated += k.ContentGenerated
	r.Blocked += k.Blocked
	r.ImagesGenerated += k.ImagesGenerated
	r.LinksGenerated += k.LinksGenerated
	r.Published += k.Published
	r.Indexed += k.Indexed
	r.Errors = append(r.Errors, k.Errors...)
	r.Keywords = append(r.Keywords, *k)
}

// Runner processes keyword batches one keyword at a time.
type Runner struct {
	db     *db.DB
	stages Stages
	sess   *session.Session
	cfg    config.AutopilotConfig
	log    *logger.Logger
}

// New creates a runner.
func New(d *db.DB, stages Stages, sess *session.Session, cfg config.AutopilotConfig, log *logger.Logger) *Runner {
	return &Runner{db: d, stages: stages, sess: sess, cfg: cfg, log: log.Component("autopilot")}
}

// Run processes up to limit keywords in order (limit <= 0 uses the configured
// limit). The run stops early when the kill switch is set, when the circuit
// breaker opens, or when the canary batch exceeds the tolerated error rate.
// Every attempted keyword is marked processed in the intake queue.
func (r *Runner) Run(ctx context.Context, keywords []Keyword, limit int) (*Report, error) {
	start := time.Now()
	report := &Report{Errors: []string{}, Keywords: []KeywordResult{}}
	defer func() {
		report.Costs = r.sess.Budget.Report()
		report.Duration = time.Since(start)
	}()

	if err := r.sess.CheckKillSwitch(); err != nil {
		r.log.Warn("kill switch active, aborting run")
		report.Stopped = failure.Kind(err)
		return report, nil
	}
	if limit <= 0 {
		limit = r.cfg.Limit
	}
	if len(keywords) > limit {
		keywords = keywords[:limit]
	}
	if len(keywords) == 0 {
		r.log.Info("no keywords to process")
		return report, nil
	}
	r.log.Info("starting run", "keywords", len(keywords), "canary_batch", r.cfg.CanaryBatch)

	failedKeywords := 0
	for _, kw := range keywords {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if err := r.sess.Breaker.Allow(); err != nil {
			r.log.Warn("circuit breaker open, stopping")
			report.Stopped = failure.Kind(err)
			break
		}

		res, fatal := r.ProcessKeyword(ctx, kw)
		report.add(res)
		if len(res.Errors) > 0 {
			failedKeywords++
		}
		if err := r.db.MarkKeywordProcessed(kw.Keyword); err != nil && !errors.Is(err, db.ErrNotFound) {
			r.log.Warn("marking keyword processed failed", "keyword", kw.Keyword, "error", err)
		}

		if fatal != nil {
			r.log.Warn("stopping run", "keyword", kw.Keyword, "reason", failure.Kind(fatal), "error", fatal)
			report.Stopped = failure.Kind(fatal)
			break
		}
		if report.KeywordsProcessed == r.cfg.CanaryBatch {
			rate := float64(failedKeywords) / float64(report.KeywordsProcessed)
			if rate > r.cfg.CanaryErrorRate {
				r.log.Warn("canary batch error rate too high, stopping", "rate", rate, "max", r.cfg.CanaryErrorRate)
				report.Stopped = "canary"
				break
			}
			r.log.Info("canary batch ok, continuing", "rate", rate)
		}
	}

	if report.Published > 0 && r.stages.Sitemap != nil {
		sm, err := r.stages.Sitemap.Generate()
		if err != nil {
			r.log.Error("sitemap regeneration failed", "error", err)
		} else {
			report.SitemapURLs = sm.URLs
		}
	}

	r.log.Info("run complete",
		"keywords", report.KeywordsProcessed, "pages_created", report.PagesCreated,
		"published", report.Published, "errors", len(report.Errors), "stopped", report.Stopped)
	return report, nil
}

// ProcessKeyword drives one keyword through the pipeline. Recoverable
// failures are recorded on the result; a batch-fatal error is also returned
// so the caller can stop.
func (r *Runner) ProcessKeyword(ctx context.Context, kw Keyword) (*KeywordResult, error) {
	res := &KeywordResult{Keyword: kw.Keyword}
	log := r.log.With("keyword", kw.Keyword)

	c, err := r.stages.Classifier.Classify(ctx, kw.Keyword, kw.Volume, kw.KD)
	if err != nil {
		log.Warn("classification failed", "error", err)
		res.Errors = append(res.Errors, "classify: "+err.Error())
		return res, fatalOrNil(err)
	}

	dec, err := r.stages.Decider.Decide(c, kw.Volume, kw.KD)
	if err != nil {
		log.Warn("decision failed", "error", err)
		res.Errors = append(res.Errors, "decide: "+err.Error())
		return res, nil
	}
	res.PagesCreated = dec.PagesCreated

	pages, err := r.db.NodesForEquipment(dec.EquipmentTypeID, db.StatusDiscovery)
	if err != nil {
		res.Errors = append(res.Errors, "listing pages: "+err.Error())
		return res, nil
	}

	for _, page := range pages {
		if err := r.processPage(ctx, page, res, log.With("node", page.ID)); err != nil {
			res.Errors = append(res.Errors, page.URLSlug+": "+err.Error())
			if failure.IsBatchFatal(err) {
				return res, err
			}
		}
	}
	return res, nil
}

// processPage runs generate, image, link and publish for one page. A page
// blocked by the quality gates stops there without an error.
func (r *Runner) processPage(ctx context.Context, page db.Node, res *KeywordResult, log *logger.Logger) error {
	gen, err := r.stages.Generator.Generate(ctx, page.ID)
	var gate *failure.QualityGateFailure
	switch {
	case errors.As(err, &gate):
		res.Blocked++
		log.Info("blocked by quality gates", "reasons", gate.Reasons)
		return nil
	case err != nil:
		return err
	case !gen.GatePassed:
		res.Blocked++
		return nil
	}
	res.ContentGenerated++

	if r.stages.Images != nil {
		if _, err := r.stages.Images.Attach(ctx, page.ID); err != nil {
			log.Warn("hero image failed", "error", err)
		} else {
			res.ImagesGenerated++
		}
	}

	if r.stages.Linker != nil {
		lr, err := r.stages.Linker.Generate(page.ID)
		if err != nil {
			log.Warn("linking failed", "error", err)
		} else {
			res.LinksGenerated += lr.LinksAdded
		}
	}

	if r.stages.Publisher == nil {
		return nil
	}
	pr, err := r.stages.Publisher.Publish(ctx, page.ID)
	if err != nil {
		return err
	}
	res.Published++
	if pr.URL != "" {
		res.PublishedURLs = append(res.PublishedURLs, pr.URL)
	}
	if pr.Indexed {
		res.Indexed++
	}
	return nil
}

func fatalOrNil(err error) error {
	if failure.IsBatchFatal(err) {
		return err
	}
	return nil
}
