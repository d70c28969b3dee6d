package media

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

// Generator turns a prompt into a downloadable image URL.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// OpenAIImages is a client for the OpenAI image generations endpoint.
type OpenAIImages struct {
	URL    string
	Key    string
	Model  string
	Size   string
	Client *http.Client
}

// NewOpenAIImages returns an image client with a bounded HTTP timeout.
func NewOpenAIImages(url, key, model, size string, timeout time.Duration) *OpenAIImages {
	return &OpenAIImages{URL: url, Key: key, Model: model, Size: size, Client: &http.Client{Timeout: timeout}}
}

type imageRequest struct {
	Model          string `json:"model"`
	Prompt         string `json:"prompt"`
	Size           string `json:"size"`
	Quality        string `json:"quality"`
	N              int    `json:"n"`
	ResponseFormat string `json:"response_format"`
}

type imageResponse struct {
	Data []struct {
		URL string `json:"url"`
	} `json:"data"`
}

// Generate requests one standard-quality image and returns its URL.
func (o *OpenAIImages) Generate(ctx context.Context, prompt string) (string, error) {
	if o.Key == "" {
		return "", fmt.Errorf("openai api key: %w", failure.ErrNotConfigured)
	}
	body, err := json.Marshal(imageRequest{
		Model:          o.Model,
		Prompt:         prompt,
		Size:           o.Size,
		Quality:        "standard",
		N:              1,
		ResponseFormat: "url",
	})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.URL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("building image request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+o.Key)
	req.Header.Set("Content-Type", "application/json")

	client := o.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", &failure.TransportError{Service: "openai", Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", &failure.TransportError{Service: "openai", Err: err}
	}
	if resp.StatusCode/100 != 2 {
		return "", &failure.TransportError{Service: "openai", StatusCode: resp.StatusCode, Body: string(data)}
	}
	var out imageResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return "", fmt.Errorf("decoding image response: %w", err)
	}
	if len(out.Data) == 0 || out.Data[0].URL == "" {
		return "", &failure.TransportError{Service: "openai", StatusCode: resp.StatusCode, Body: "response has no image url"}
	}
	return out.Data[0].URL, nil
}
