package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/joseph-ayodele/jobapply/internal/llm"
)

var _ llm.Provider = (*Client)(nil)

func (c *Client) Name() string { return c.cfg.Name }

// Complete sends prompt as a single user message to chat/completions.
func (c *Client) Complete(ctx context.Context, model, prompt string) (string, error) {
	if c.cfg.APIKey == "" {
		return "", &llm.ProviderError{Provider: c.cfg.Name, Cause: llm.ErrMissingAPIKey}
	}
	start := time.Now()

	body := map[string]any{
		"model":       model,
		"temperature": c.cfg.Temperature,
		"messages": []map[string]any{
			{"role": "user", "content": prompt},
		},
	}
	if c.cfg.MaxTokens > 0 {
		body["max_tokens"] = c.cfg.MaxTokens
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	headers := map[string]string{"Authorization": "Bearer " + c.cfg.APIKey}
	raw, _, err := llm.PostJSON(ctx, c.http, endpoint, body, headers, c.logger)
	if err != nil {
		return "", &llm.ProviderError{Provider: c.cfg.Name, Cause: err}
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Usage struct {
			PromptTokens     int `json:"prompt_tokens"`
			CompletionTokens int `json:"completion_tokens"`
		} `json:"usage"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		c.logger.Error("llm.openai.decode_error", "provider", c.cfg.Name, "error", err, "raw_bytes", len(raw))
		return "", &llm.ProviderError{Provider: c.cfg.Name, Cause: fmt.Errorf("decode response: %w", err)}
	}
	if len(cc.Choices) == 0 {
		return "", &llm.ProviderError{Provider: c.cfg.Name, Cause: llm.ErrEmptyResponse}
	}
	content := strings.TrimSpace(cc.Choices[0].Message.Content)
	if content == "" {
		return "", &llm.ProviderError{Provider: c.cfg.Name, Cause: llm.ErrEmptyResponse}
	}

	c.logger.Info("llm.openai.ok",
		"provider", c.cfg.Name,
		"model", model,
		"prompt_tokens", cc.Usage.PromptTokens,
		"completion_tokens", cc.Usage.CompletionTokens,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return content, nil
}
