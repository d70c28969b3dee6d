// Package publish pushes finished pages to the CMS and pings IndexNow.
package publish

import (
	"context"
	"errors"
	"fmt"
	"time"

	"equipflow/sei/internal/config"
	"equipflow/sei/internal/db"
	"equipflow/sei/internal/failure"
	"equipflow/sei/internal/logger"
	"equipflow/sei/internal/session"
)

// Result reports one publish call.
type Result struct {
	NodeID  string `json:"node_id"`
	Success bool   `json:"success"`
	ItemID  string `json:"item_id,omitempty"`
	URL     string `json:"url,omitempty"`
	Created bool   `json:"created"`
	Indexed bool   `json:"indexed"`
}

// Publisher validates a page, upserts it into the CMS and records the outcome
// on the session circuit breaker.
type Publisher struct {
	db       *db.DB
	cms      CMS
	notifier Notifier
	sess     *session.Session
	site     config.SiteConfig
	delay    time.Duration
	log      *logger.Logger
	sleep    func(time.Duration)
}

// NewPublisher creates a publisher. notifier may be nil.
func NewPublisher(d *db.DB, cms CMS, notifier Notifier, sess *session.Session, cfg *config.Config, log *logger.Logger) *Publisher {
	return &Publisher{
		db:       d,
		cms:      cms,
		notifier: notifier,
		sess:     sess,
		site:     cfg.Site,
		delay:    cfg.Publish.RateLimitDelay,
		log:      log.Component("publish"),
		sleep:    time.Sleep,
	}
}

// Validate returns a *failure.ValidationError naming every field that keeps n
// from being published.
func Validate(n *db.Node) error {
	var reasons []string
	if n.Content == nil || n.Content.MainContent == "" {
		reasons = append(reasons, "missing generated_content")
	}
	if n.HeroImageURL == "" {
		reasons = append(reasons, "missing hero_image_url")
	}
	if n.ShortDescription == "" {
		reasons = append(reasons, "missing short_description")
	}
	if n.PageCategory == "" {
		reasons = append(reasons, "missing page_category")
	}
	if n.IsSpoke() && n.SpokeTypeOr("") == "" {
		reasons = append(reasons, "missing spoke_type")
	}
	if n.Status == db.StatusBlocked {
		reasons = append(reasons, "status blocked_quality")
	}
	if len(reasons) > 0 {
		return &failure.ValidationError{Op: "publish", NodeID: n.ID, Reasons: reasons}
	}
	return nil
}

// Publish creates or updates the CMS item of nodeID. The kill switch, the
// breaker and validation are all checked before any network call.
func (p *Publisher) Publish(ctx context.Context, nodeID string) (*Result, error) {
	if err := p.sess.CheckPublish(); err != nil {
		return nil, err
	}
	n, err := p.db.GetNode(nodeID)
	if err != nil {
		return nil, err
	}
	if err := Validate(n); err != nil {
		p.log.Warn("publish validation failed", "id", n.ID, "error", err)
		return nil, err
	}
	fields, err := Fields(n)
	if err != nil {
		return nil, err
	}

	res := &Result{NodeID: n.ID, URL: p.site.PageURL(n.URLSlug)}
	if n.WebflowItemID != nil && *n.WebflowItemID != "" {
		res.ItemID = *n.WebflowItemID
		err = p.cms.UpdateItem(ctx, res.ItemID, fields)
	} else {
		res.ItemID, err = p.cms.CreateItem(ctx, fields)
		res.Created = true
	}
	if errors.Is(err, failure.ErrNotConfigured) {
		return nil, err
	}
	p.throttle()

	if err != nil {
		if p.sess.Breaker.RecordFailure() {
			p.log.Error("circuit breaker opened", "failures", p.sess.Breaker.Failures())
		}
		p.log.Error("publish failed", "id", n.ID, "error", err)
		return nil, fmt.Errorf("publishing %s: %w", n.URLSlug, err)
	}
	p.sess.Breaker.RecordSuccess()

	if res.Created {
		// The item id is written first; a rerun must update, never create.
		if err := p.db.SetWebflowItemID(n.ID, res.ItemID); err != nil {
			p.log.Error("cms item created but id not stored", "id", n.ID, "item", res.ItemID, "error", err)
			return nil, fmt.Errorf("storing item %s of %s: %w", res.ItemID, n.URLSlug, err)
		}
	}
	if err := p.db.MarkPublished(n.ID, res.ItemID); err != nil {
		p.log.Error("marking published failed", "id", n.ID, "item", res.ItemID, "error", err)
		return nil, err
	}
	res.Success = true
	p.log.Info("published", "slug", n.URLSlug, "item", res.ItemID, "created", res.Created)

	res.Indexed = p.ping(ctx, res.URL)
	return res, nil
}

// ping notifies IndexNow of url. Failures are logged and never returned.
func (p *Publisher) ping(ctx context.Context, url string) bool {
	if p.notifier == nil {
		return false
	}
	err := p.notifier.Notify(ctx, []string{url})
	switch {
	case errors.Is(err, failure.ErrNotConfigured):
		p.log.Debug("indexnow not configured")
		return false
	case err != nil:
		p.log.Warn("indexnow ping failed", "url", url, "error", err)
		return false
	}
	p.log.Debug("indexnow accepted", "url", url)
	return true
}

func (p *Publisher) throttle() {
	if p.delay > 0 && p.sleep != nil {
		p.sleep(p.delay)
	}
}
