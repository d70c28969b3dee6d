// Package classify maps raw keywords to a structured page classification.
package classify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"equipflow/sei/internal/db"
	"equipflow/sei/internal/failure"
	"equipflow/sei/internal/logger"
	"equipflow/sei/internal/reasoning"
	"equipflow/sei/internal/session"
)

// GeneralEquipment is the equipment type of keywords that name no equipment.
const GeneralEquipment = "general-equipment"

// SpokeHub is the spoke_type value the classifier uses for hub keywords.
const SpokeHub = "hub"

const defaultCommercialScore = 7.0

// Classification is the structured reading of one keyword.
type Classification struct {
	Keyword         string  `json:"keyword"`
	EquipmentType   string  `json:"equipment_type"`
	Geo             *string `json:"geo,omitempty"`
	Modifier        *string `json:"modifier,omitempty"`
	Brand           *string `json:"brand,omitempty"`
	SpokeType       string  `json:"spoke_type"`
	PageCategory    string  `json:"page_category"`
	CommercialScore float64 `json:"commercial_score"`
	PriorityScore   float64 `json:"priority_score"`
}

// IsHub reports whether the keyword names the hub page itself.
func (c *Classification) IsHub() bool { return c.PageCategory == db.CategoryHub }

// Classifier asks the reasoning backend to classify keywords.
type Classifier struct {
	backend   reasoning.Backend
	sess      *session.Session
	log       *logger.Logger
	maxTokens int
}

// New creates a classifier. sess may be nil when no budget applies.
func New(backend reasoning.Backend, sess *session.Session, log *logger.Logger) *Classifier {
	return &Classifier{
		backend:   backend,
		sess:      sess,
		log:       log.Component("classify"),
		maxTokens: 500,
	}
}

// Classify returns the classification of keyword. Backend failures and
// unusable responses are returned as *failure.ClassificationError; a budget
// veto is returned as is.
func (c *Classifier) Classify(ctx context.Context, keyword string, volume, kd int) (*Classification, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, &failure.ClassificationError{Keyword: keyword, Err: errors.New("empty keyword")}
	}
	c.log.Info("classifying keyword", "keyword", keyword, "volume", volume, "kd", kd)

	if c.sess != nil {
		if err := c.sess.Budget.Check(session.ServiceClaude, c.maxTokens); err != nil {
			return nil, err
		}
	}

	resp, err := c.backend.Complete(ctx, buildPrompt(keyword, volume, kd), c.maxTokens)
	if err != nil {
		return nil, &failure.ClassificationError{Keyword: keyword, Err: err}
	}
	if c.sess != nil {
		c.sess.Budget.Add(session.ServiceClaude, resp.BilledTokens(c.maxTokens))
		c.sess.Budget.AddSpend(session.ServiceClaude, resp.CostUSD)
	}

	var raw rawClassification
	if err := reasoning.ExtractJSON(resp.Text, &raw); err != nil {
		return nil, &failure.ClassificationError{Keyword: keyword, Err: err}
	}

	result, err := interpret(keyword, raw, volume, kd)
	if err != nil {
		return nil, &failure.ClassificationError{Keyword: keyword, Err: err}
	}
	c.log.Debug("classified",
		"keyword", keyword,
		"equipment", result.EquipmentType,
		"spoke_type", result.SpokeType,
		"priority", result.PriorityScore,
	)
	return result, nil
}

// rawClassification is the JSON document the backend is asked for.
type rawClassification struct {
	EquipmentType   string `json:"equipment_type"`
	Geo             string `json:"geo"`
	Modifier        string `json:"modifier"`
	Brand           string `json:"brand"`
	SpokeType       string `json:"spoke_type"`
	CommercialScore *score `json:"commercial_score"`
}

// score accepts both 8.5 and "8.5".
type score float64

func (s *score) UnmarshalJSON(b []byte) error {
	text := strings.Trim(string(b), `"`)
	if text == "" || text == "null" {
		*s = defaultCommercialScore
		return nil
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return fmt.Errorf("commercial_score %s: %w", b, err)
	}
	*s = score(v)
	return nil
}

var _ json.Unmarshaler = (*score)(nil)

// interpret normalises a raw backend document into a Classification.
func interpret(keyword string, raw rawClassification, volume, kd int) (*Classification, error) {
	equipment := strings.ToLower(strings.TrimSpace(raw.EquipmentType))
	switch equipment {
	case "", "none", "general", "n/a":
		equipment = GeneralEquipment
	}

	spokeType := strings.ToLower(strings.TrimSpace(raw.SpokeType))
	if spokeType == "" {
		spokeType = db.SpokeFinancing
	}
	category := db.CategorySpoke
	switch {
	case spokeType == SpokeHub:
		category = db.CategoryHub
	case !db.ValidSpokeType(spokeType):
		return nil, fmt.Errorf("unknown spoke_type %q", raw.SpokeType)
	}

	commercial := defaultCommercialScore
	if raw.CommercialScore != nil {
		commercial = float64(*raw.CommercialScore)
	}
	commercial = clamp(commercial, 0, 10)

	return &Classification{
		Keyword:         keyword,
		EquipmentType:   equipment,
		Geo:             discriminator(raw.Geo),
		Modifier:        discriminator(raw.Modifier),
		Brand:           discriminator(raw.Brand),
		SpokeType:       spokeType,
		PageCategory:    category,
		CommercialScore: commercial,
		PriorityScore:   PriorityScore(volume, kd, commercial),
	}, nil
}

// PriorityScore rewards high volume, low difficulty and high commercial intent.
func PriorityScore(volume, kd int, commercial float64) float64 {
	return (float64(volume) / float64(max(kd, 1))) * (commercial / 10)
}

func discriminator(s string) *string {
	v := strings.ToLower(strings.TrimSpace(s))
	switch v {
	case "", "none", "null", "n/a":
		return nil
	}
	return &v
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
