package anthropic

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/messages", r.URL.Path)
		assert.Equal(t, "key", r.Header.Get("x-api-key"))
		assert.Equal(t, apiVersion, r.Header.Get("anthropic-version"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "claude-3-5-sonnet", body["model"])
		assert.EqualValues(t, 4096, body["max_tokens"])

		_, _ = io.WriteString(w, `{"content":[{"type":"text","text":"Hello "},{"type":"tool_use"},{"type":"text","text":"world"}],"stop_reason":"end_turn"}`)
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "key", BaseURL: srv.URL}, nil)
	out, err := c.Complete(context.Background(), "claude-3-5-sonnet", "p")
	require.NoError(t, err)
	assert.Equal(t, "Hello world", out)
}
