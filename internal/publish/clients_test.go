package publish

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"equipflow/sei/internal/failure"
)

func TestWebflow(t *testing.T) {
	var gotMethod, gotPath, gotAuth string
	var gotBody map[string]any
	status := http.StatusOK
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath, gotAuth = r.Method, r.URL.Path, r.Header.Get("Authorization")
		data, _ := io.ReadAll(r.Body)
		gotBody = nil
		_ = json.Unmarshal(data, &gotBody)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"id": "abc123"}`))
	}))
	defer srv.Close()

	w := NewWebflow(srv.URL+"/", "tok", "col1", 5*time.Second)
	ctx := context.Background()

	id, err := w.CreateItem(ctx, map[string]any{"name": "Excavator"})
	require.NoError(t, err)
	assert.Equal(t, "abc123", id)
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/collections/col1/items", gotPath)
	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Equal(t, false, gotBody["isDraft"])
	assert.Equal(t, false, gotBody["isArchived"])
	assert.Equal(t, map[string]any{"name": "Excavator"}, gotBody["fieldData"])

	require.NoError(t, w.UpdateItem(ctx, "abc123", map[string]any{"slug": "excavator"}))
	assert.Equal(t, http.MethodPatch, gotMethod)
	assert.Equal(t, "/collections/col1/items/abc123", gotPath)

	require.NoError(t, w.PublishLive(ctx, []string{"abc123"}))
	assert.Equal(t, "/collections/col1/items/publish", gotPath)
	assert.Equal(t, []any{"abc123"}, gotBody["itemIds"])

	status = http.StatusTooManyRequests
	err = w.UpdateItem(ctx, "abc123", map[string]any{})
	var te *failure.TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, http.StatusTooManyRequests, te.StatusCode)

	_, err = NewWebflow(srv.URL, "", "col1", time.Second).CreateItem(ctx, nil)
	assert.ErrorIs(t, err, failure.ErrNotConfigured)
}

func TestIndexNow(t *testing.T) {
	var got indexNowRequest
	status := http.StatusAccepted
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(status)
	}))
	defer srv.Close()

	n := NewIndexNow(srv.URL, "equipflow.co", "key1", "", 5*time.Second)
	require.NoError(t, n.Notify(context.Background(), []string{"https://equipflow.co/equipment/crane/"}))
	assert.Equal(t, "equipflow.co", got.Host)
	assert.Equal(t, "key1", got.Key)
	assert.Equal(t, []string{"https://equipflow.co/equipment/crane/"}, got.URLList)

	status = http.StatusForbidden
	err := n.Notify(context.Background(), []string{"https://equipflow.co/"})
	var te *failure.TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, http.StatusForbidden, te.StatusCode)

	err = NewIndexNow(srv.URL, "equipflow.co", "", "", time.Second).Notify(context.Background(), []string{"x"})
	assert.ErrorIs(t, err, failure.ErrNotConfigured)
}
