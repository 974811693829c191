package openai

import (
	"log/slog"
	"os"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/joseph-ayodele/jobapply/internal/llm"
)

const (
	DefaultBaseURL = "https://api.openai.com/v1"
	GroqBaseURL    = "https://api.groq.com/openai/v1"
)

// Config for a chat/completions compatible client. Groq speaks the same
// protocol and is configured with Name "groq" and GroqBaseURL.
type Config struct {
	Name        string        // provider name, default "openai"
	APIKey      string        // if empty, falls back to env OPENAI_API_KEY
	BaseURL     string        // default https://api.openai.com/v1
	Temperature float32       // 0..2
	MaxTokens   int           // 0 leaves the provider default
	Timeout     time.Duration // http client timeout
}

type Client struct {
	cfg    Config
	http   *resty.Client
	logger *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.Name == "" {
		cfg.Name = "openai"
	}
	if cfg.APIKey == "" && cfg.Name == "openai" {
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 90 * time.Second
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
