package openai

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/jobapply/internal/llm"
)

func TestCompleteSendsChatRequest(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = io.WriteString(w, `{"choices":[{"message":{"content":"  Dear hiring team  "}}],"usage":{"prompt_tokens":5,"completion_tokens":3}}`)
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "sk-test", BaseURL: srv.URL, MaxTokens: 64}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	out, err := c.Complete(context.Background(), "gpt-4", "write a letter")
	require.NoError(t, err)
	assert.Equal(t, "Dear hiring team", out)

	assert.Equal(t, "gpt-4", got["model"])
	assert.EqualValues(t, 64, got["max_tokens"])
	msgs := got["messages"].([]any)
	require.Len(t, msgs, 1)
	assert.Equal(t, "write a letter", msgs[0].(map[string]any)["content"])
}

func TestCompleteStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, `{"error":"slow down"}`)
	}))
	defer srv.Close()

	c := NewClient(Config{Name: "groq", APIKey: "k", BaseURL: srv.URL}, nil)
	_, err := c.Complete(context.Background(), "llama", "p")
	require.Error(t, err)

	pe, ok := llm.AsProviderError(err)
	require.True(t, ok)
	assert.Equal(t, "groq", pe.Provider)
	var se *llm.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusTooManyRequests, se.Status)
}

func TestCompleteNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"choices":[]}`)
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "k", BaseURL: srv.URL}, nil)
	_, err := c.Complete(context.Background(), "gpt-4", "p")
	assert.ErrorIs(t, err, llm.ErrEmptyResponse)
}

func TestCompleteMissingKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	c := NewClient(Config{}, nil)
	_, err := c.Complete(context.Background(), "gpt-4", "p")
	assert.ErrorIs(t, err, llm.ErrMissingAPIKey)
}
