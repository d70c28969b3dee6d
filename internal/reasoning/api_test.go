package reasoning

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"equipflow/sei/internal/failure"
)

func TestMessagesAPI_Complete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))

		var req messagesRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, 1234, req.MaxTokens)
		assert.Equal(t, "classify this", req.Messages[0].Content)

		w.Write([]byte(`{"content":[{"type":"text","text":"{\"ok\":true}"}],"usage":{"input_tokens":10,"output_tokens":5}}`))
	}))
	defer srv.Close()

	api := NewMessagesAPI(srv.URL, "secret", "model", 5*time.Second)
	c, err := api.Complete(context.Background(), "classify this", 1234)
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, c.Text)
	assert.Equal(t, 15, c.Tokens)
}

func TestMessagesAPI_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":"overloaded"}`))
	}))
	defer srv.Close()

	api := NewMessagesAPI(srv.URL, "secret", "model", 5*time.Second)
	_, err := api.Complete(context.Background(), "x", 10)

	var te *failure.TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, http.StatusTooManyRequests, te.StatusCode)
}

func TestMessagesAPI_NoKey(t *testing.T) {
	api := NewMessagesAPI("http://unused", "", "model", time.Second)
	_, err := api.Complete(context.Background(), "x", 10)
	assert.ErrorIs(t, err, failure.ErrNotConfigured)
}
