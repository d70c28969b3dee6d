package reasoning

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

const anthropicVersion = "2023-06-01"

// MessagesAPI calls the Anthropic Messages endpoint directly.
type MessagesAPI struct {
	URL    string
	Key    string
	Model  string
	Client *http.Client
}

// NewMessagesAPI returns a client with a bounded HTTP timeout.
func NewMessagesAPI(url, key, model string, timeout time.Duration) *MessagesAPI {
	return &MessagesAPI{
		URL:    url,
		Key:    key,
		Model:  model,
		Client: &http.Client{Timeout: timeout},
	}
}

type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	Messages  []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content []contentBlock `json:"content"`
	Usage   tokenUsage     `json:"usage"`
}

// Complete sends prompt as a single user message.
func (m *MessagesAPI) Complete(ctx context.Context, prompt string, maxTokens int) (*Completion, error) {
	if m.Key == "" {
		return nil, fmt.Errorf("anthropic api key: %w", failure.ErrNotConfigured)
	}

	body, err := json.Marshal(messagesRequest{
		Model:     m.Model,
		MaxTokens: maxTokens,
		Messages:  []message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", m.Key)
	req.Header.Set("anthropic-version", anthropicVersion)

	client := m.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, &failure.TransportError{Service: "anthropic", Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, &failure.TransportError{Service: "anthropic", Err: err}
	}
	if resp.StatusCode/100 != 2 {
		return nil, &failure.TransportError{Service: "anthropic", StatusCode: resp.StatusCode, Body: string(data)}
	}

	var out messagesResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	var parts []string
	for _, block := range out.Content {
		if block.Type == "text" {
			parts = append(parts, block.Text)
		}
	}
	return &Completion{
		Text:   strings.Join(parts, ""),
		Tokens: out.Usage.InputTokens + out.Usage.OutputTokens,
	}, nil
}
