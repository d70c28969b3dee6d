package media

import (
	"context"
	"fmt"
	"time"

	"equipflow/sei/internal/db"
	"equipflow/sei/internal/logger"
	"equipflow/sei/internal/session"
)

// Result reports one attached image.
type Result struct {
	NodeID string `json:"node_id"`
	URL    string `json:"url"`
	Alt    string `json:"alt"`
	Prompt string `json:"prompt"`
}

// Attacher generates a hero image for a page and stores it on the node.
type Attacher struct {
	db    *db.DB
	gen   Generator
	store Store
	sess  *session.Session
	brand string
	log   *logger.Logger
	now   func() time.Time
}

// NewAttacher creates an attacher. store may be nil to keep generator URLs.
func NewAttacher(d *db.DB, gen Generator, store Store, sess *session.Session, brand string, log *logger.Logger) *Attacher {
	return &Attacher{db: d, gen: gen, store: store, sess: sess, brand: brand, log: log.Component("media"), now: time.Now}
}

// Attach generates and stores the hero image of nodeID. The dalle budget is
// checked before the request and charged one image after it.
func (a *Attacher) Attach(ctx context.Context, nodeID string) (*Result, error) {
	if err := a.sess.Budget.Check(session.ServiceDalle, 1); err != nil {
		return nil, err
	}
	n, err := a.db.GetNode(nodeID)
	if err != nil {
		return nil, err
	}
	et, err := a.db.GetEquipmentType(n.EquipmentTypeID)
	if err != nil {
		return nil, fmt.Errorf("loading equipment type of %s: %w", n.ID, err)
	}

	geo := ""
	if n.Geo != nil {
		geo = *n.Geo
	}
	res := &Result{NodeID: n.ID, Prompt: Prompt(et.Name, geo), Alt: AltText(et.Name, a.brand)}
	a.log.Info("generating hero image", "id", n.ID, "equipment", et.Name)

	url, err := a.gen.Generate(ctx, res.Prompt)
	if err != nil {
		return nil, fmt.Errorf("generating image for %s: %w", n.URLSlug, err)
	}
	a.sess.Budget.Add(session.ServiceDalle, 1)

	if a.store != nil {
		name := fmt.Sprintf("%s-%d.png", n.URLSlug, a.now().Unix())
		if url, err = a.store.Save(ctx, name, url); err != nil {
			return nil, fmt.Errorf("storing image for %s: %w", n.URLSlug, err)
		}
	}
	res.URL = url

	if err := a.db.SetHeroImage(n.ID, res.URL, res.Alt); err != nil {
		return nil, err
	}
	a.log.Info("hero image attached", "id", n.ID, "url", res.URL)
	return res, nil
}
