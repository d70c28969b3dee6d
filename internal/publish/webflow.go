package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"equipflow/sei/internal/failure"
)

// CMS creates and updates collection items.
type CMS interface {
	CreateItem(ctx context.Context, fields map[string]any) (string, error)
	UpdateItem(ctx context.Context, itemID string, fields map[string]any) error
}

// Webflow is a client for the Webflow v2 collection items API.
type Webflow struct {
	BaseURL      string
	Token        string
	CollectionID string
	Client       *http.Client
}

// NewWebflow returns a Webflow client with a bounded HTTP timeout.
func NewWebflow(baseURL, token, collectionID string, timeout time.Duration) *Webflow {
	return &Webflow{
		BaseURL:      strings.TrimRight(baseURL, "/"),
		Token:        token,
		CollectionID: collectionID,
		Client:       &http.Client{Timeout: timeout},
	}
}

type itemRequest struct {
	IsArchived bool           `json:"isArchived"`
	IsDraft    bool           `json:"isDraft"`
	FieldData  map[string]any `json:"fieldData"`
}

type itemResponse struct {
	ID string `json:"id"`
}

// CreateItem creates a live-ready item and returns its id.
func (w *Webflow) CreateItem(ctx context.Context, fields map[string]any) (string, error) {
	var resp itemResponse
	if err := w.do(ctx, http.MethodPost, "/items", itemRequest{FieldData: fields}, &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", &failure.TransportError{Service: "webflow", StatusCode: http.StatusOK, Body: "response has no item id"}
	}
	return resp.ID, nil
}

// UpdateItem replaces the fields of an existing item.
func (w *Webflow) UpdateItem(ctx context.Context, itemID string, fields map[string]any) error {
	return w.do(ctx, http.MethodPatch, "/items/"+itemID, itemRequest{FieldData: fields}, nil)
}

// PublishLive pushes staged items to the live site.
func (w *Webflow) PublishLive(ctx context.Context, itemIDs []string) error {
	if len(itemIDs) == 0 {
		return nil
	}
	return w.do(ctx, http.MethodPost, "/items/publish", map[string]any{"itemIds": itemIDs}, nil)
}

func (w *Webflow) do(ctx context.Context, method, path string, payload, out any) error {
	if w.Token == "" || w.CollectionID == "" {
		return fmt.Errorf("webflow token and collection id: %w", failure.ErrNotConfigured)
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding webflow request: %w", err)
	}
	url := w.BaseURL + "/collections/" + w.CollectionID + path
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building webflow request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+w.Token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	client := w.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return &failure.TransportError{Service: "webflow", Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return &failure.TransportError{Service: "webflow", Err: err}
	}
	if resp.StatusCode/100 != 2 {
		return &failure.TransportError{Service: "webflow", StatusCode: resp.StatusCode, Body: string(data)}
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding webflow response: %w", err)
	}
	return nil
}
