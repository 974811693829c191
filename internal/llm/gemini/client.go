package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/joseph-ayodele/jobapply/internal/llm"
)

const DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

type Config struct {
	APIKey      string
	BaseURL     string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
}

// Client calls generateContent. Templates refer to it as "google".
type Client struct {
	cfg    Config
	http   *resty.Client
	logger *slog.Logger
}

var _ llm.Provider = (*Client)(nil)

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:    cfg,
		http:   llm.NewHTTPClient(cfg.Timeout),
		logger: logger,
	}
}

func (c *Client) Name() string { return "google" }

func (c *Client) Complete(ctx context.Context, model, prompt string) (string, error) {
	if c.cfg.APIKey == "" {
		return "", &llm.ProviderError{Provider: c.Name(), Cause: llm.ErrMissingAPIKey}
	}
	start := time.Now()

	gen := map[string]any{"temperature": c.cfg.Temperature}
	if c.cfg.MaxTokens > 0 {
		gen["maxOutputTokens"] = c.cfg.MaxTokens
	}
	body := map[string]any{
		"contents": []map[string]any{
			{"role": "user", "parts": []map[string]any{{"text": prompt}}},
		},
		"generationConfig": gen,
	}
	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/models/" + url.PathEscape(model) + ":generateContent"
	headers := map[string]string{"x-goog-api-key": c.cfg.APIKey}
	raw, _, err := llm.PostJSON(ctx, c.http, endpoint, body, headers, c.logger)
	if err != nil {
		return "", &llm.ProviderError{Provider: c.Name(), Cause: err}
	}

	var resp struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
			FinishReason string `json:"finishReason"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", &llm.ProviderError{Provider: c.Name(), Cause: fmt.Errorf("decode response: %w", err)}
	}
	if len(resp.Candidates) == 0 {
		return "", &llm.ProviderError{Provider: c.Name(), Cause: llm.ErrEmptyResponse}
	}

	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	out := strings.TrimSpace(b.String())
	if out == "" {
		return "", &llm.ProviderError{Provider: c.Name(), Cause: llm.ErrEmptyResponse}
	}

	c.logger.Info("llm.gemini.ok",
		"model", model,
		"finish_reason", resp.Candidates[0].FinishReason,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}
