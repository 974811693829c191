// Package providers builds the LLM registry from configuration.
package providers

import (
	"log/slog"

	"github.com/joseph-ayodele/jobapply/internal/common"
	"github.com/joseph-ayodele/jobapply/internal/llm"
	"github.com/joseph-ayodele/jobapply/internal/llm/anthropic"
	"github.com/joseph-ayodele/jobapply/internal/llm/gemini"
	"github.com/joseph-ayodele/jobapply/internal/llm/openai"
)

// NewRegistry registers every provider. OpenAI is always present; the
// others only when their API key is configured.
func NewRegistry(cfg common.LLMConfig, logger *slog.Logger) *llm.Registry {
	reg := llm.NewRegistry(llm.BreakerSettings{
		MaxRequests: cfg.BreakerMaxRequests,
		Interval:    cfg.BreakerInterval,
		Timeout:     cfg.BreakerTimeout,
	}, logger)

	reg.Register(openai.NewClient(openai.Config{
		APIKey:      cfg.OpenAI.APIKey,
		BaseURL:     cfg.OpenAI.BaseURL,
		Temperature: cfg.OpenAI.Temperature,
		MaxTokens:   cfg.OpenAI.MaxTokens,
		Timeout:     cfg.Timeout,
	}, logger))

	if cfg.Groq.APIKey != "" {
		base := cfg.Groq.BaseURL
		if base == "" {
			base = openai.GroqBaseURL
		}
		reg.Register(openai.NewClient(openai.Config{
			Name:        "groq",
			APIKey:      cfg.Groq.APIKey,
			BaseURL:     base,
			Temperature: cfg.Groq.Temperature,
			MaxTokens:   cfg.Groq.MaxTokens,
			Timeout:     cfg.Timeout,
		}, logger))
	}

	if cfg.Anthropic.APIKey != "" {
		reg.Register(anthropic.NewClient(anthropic.Config{
			APIKey:      cfg.Anthropic.APIKey,
			BaseURL:     cfg.Anthropic.BaseURL,
			Temperature: cfg.Anthropic.Temperature,
			MaxTokens:   cfg.Anthropic.MaxTokens,
			Timeout:     cfg.Timeout,
		}, logger), "claude")
	}

	if cfg.Gemini.APIKey != "" {
		reg.Register(gemini.NewClient(gemini.Config{
			APIKey:      cfg.Gemini.APIKey,
			BaseURL:     cfg.Gemini.BaseURL,
			Temperature: cfg.Gemini.Temperature,
			MaxTokens:   cfg.Gemini.MaxTokens,
			Timeout:     cfg.Timeout,
		}, logger), "gemini")
	}

	logger.Info("llm.registry.ready", "providers", reg.Providers())
	return reg
}
