package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"equipflow/sei/internal/failure"
)

// Notifier asks search engines to recrawl URLs.
type Notifier interface {
	Notify(ctx context.Context, urls []string) error
}

// IndexNow pings the IndexNow endpoint shared by Bing, Yandex, Seznam and
// Naver.
type IndexNow struct {
	Endpoint    string
	Host        string
	Key         string
	KeyLocation string
	Client      *http.Client
}

// NewIndexNow returns an IndexNow client with a bounded HTTP timeout.
func NewIndexNow(endpoint, host, key, keyLocation string, timeout time.Duration) *IndexNow {
	return &IndexNow{
		Endpoint:    endpoint,
		Host:        host,
		Key:         key,
		KeyLocation: keyLocation,
		Client:      &http.Client{Timeout: timeout},
	}
}

type indexNowRequest struct {
	Host        string   `json:"host"`
	Key         string   `json:"key"`
	KeyLocation string   `json:"keyLocation,omitempty"`
	URLList     []string `json:"urlList"`
}

// Notify submits urls. 200 and 202 mean accepted; any other status is a
// *failure.TransportError.
func (i *IndexNow) Notify(ctx context.Context, urls []string) error {
	if i.Key == "" || i.Host == "" {
		return fmt.Errorf("indexnow key and host: %w", failure.ErrNotConfigured)
	}
	if len(urls) == 0 {
		return nil
	}
	body, err := json.Marshal(indexNowRequest{Host: i.Host, Key: i.Key, KeyLocation: i.KeyLocation, URLList: urls})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, i.Endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building indexnow request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	client := i.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return &failure.TransportError{Service: "indexnow", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusAccepted {
		return nil
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return &failure.TransportError{Service: "indexnow", StatusCode: resp.StatusCode, Body: string(data)}
}
