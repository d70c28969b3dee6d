package media

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"equipflow/sei/internal/failure"
)

// maxImageBytes bounds a downloaded image.
const maxImageBytes = 20 << 20

// Store keeps a copy of a generated image and returns its public URL.
type Store interface {
	Save(ctx context.Context, name, sourceURL string) (string, error)
}

// LocalStore downloads images into Dir, served under BaseURL.
type LocalStore struct {
	Dir     string
	BaseURL string
	Client  *http.Client
}

// NewLocalStore returns a store writing to dir.
func NewLocalStore(dir, baseURL string, timeout time.Duration) *LocalStore {
	return &LocalStore{Dir: dir, BaseURL: strings.TrimRight(baseURL, "/"), Client: &http.Client{Timeout: timeout}}
}

// Save downloads sourceURL to Dir/name.
func (s *LocalStore) Save(ctx context.Context, name, sourceURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return "", fmt.Errorf("building image download: %w", err)
	}
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", &failure.TransportError{Service: "image-download", Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", &failure.TransportError{Service: "image-download", StatusCode: resp.StatusCode}
	}

	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", fmt.Errorf("creating image dir: %w", err)
	}
	path := filepath.Join(s.Dir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", path, err)
	}
	if _, err := io.Copy(f, io.LimitReader(resp.Body, maxImageBytes)); err != nil {
		f.Close()
		os.Remove(path)
		return "", &failure.TransportError{Service: "image-download", Err: err}
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return s.BaseURL + "/" + name, nil
}
