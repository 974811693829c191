package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/joseph-ayodele/jobapply/internal/llm"
)

const (
	DefaultBaseURL = "https://api.anthropic.com/v1"
	apiVersion     = "2023-06-01"
)

type Config struct {
	APIKey      string
	BaseURL     string
	Temperature float32
	MaxTokens   int // required by the messages API, default 4096
	Timeout     time.Duration
}

// Client talks to the messages API.
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
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 4096
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

func (c *Client) Name() string { return "anthropic" }

func (c *Client) Complete(ctx context.Context, model, prompt string) (string, error) {
	if c.cfg.APIKey == "" {
		return "", &llm.ProviderError{Provider: c.Name(), Cause: llm.ErrMissingAPIKey}
	}
	start := time.Now()

	body := map[string]any{
		"model":       model,
		"max_tokens":  c.cfg.MaxTokens,
		"temperature": c.cfg.Temperature,
		"messages": []map[string]any{
			{"role": "user", "content": prompt},
		},
	}
	headers := map[string]string{
		"x-api-key":         c.cfg.APIKey,
		"anthropic-version": apiVersion,
	}
	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/messages"
	raw, _, err := llm.PostJSON(ctx, c.http, endpoint, body, headers, c.logger)
	if err != nil {
		return "", &llm.ProviderError{Provider: c.Name(), Cause: err}
	}

	var resp struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
		StopReason string `json:"stop_reason"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", &llm.ProviderError{Provider: c.Name(), Cause: fmt.Errorf("decode response: %w", err)}
	}

	var b strings.Builder
	for _, part := range resp.Content {
		if part.Type == "text" {
			b.WriteString(part.Text)
		}
	}
	out := strings.TrimSpace(b.String())
	if out == "" {
		return "", &llm.ProviderError{Provider: c.Name(), Cause: llm.ErrEmptyResponse}
	}

	c.logger.Info("llm.anthropic.ok",
		"model", model,
		"stop_reason", resp.StopReason,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}
