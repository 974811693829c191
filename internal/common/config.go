package common

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v9"
)

// Config holds all application configuration
type Config struct {
	Database   DatabaseConfig
	Server     ServerConfig
	LLM        LLMConfig
	Queue      QueueConfig
	Storage    StorageConfig
	Generation GenerationConfig
	Log        LogConfig
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Driver           string        `env:"DB_DRIVER" envDefault:"postgres"` // postgres | sqlite
	DSN              string        `env:"DB_URL"`
	MaxConns         int32         `env:"DB_MAX_CONNS" envDefault:"20"`
	MinConns         int32         `env:"DB_MIN_CONNS" envDefault:"5"`
	MaxConnLifetime  time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"30m"`
	MaxConnIdleTime  time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"5m"`
	DialTimeout      time.Duration `env:"DB_DIAL_TIMEOUT" envDefault:"3s"`
	StatementTimeout time.Duration `env:"DB_STATEMENT_TIMEOUT" envDefault:"0s"`
	AutoMigrate      bool          `env:"DB_AUTO_MIGRATE" envDefault:"true"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	HTTPAddr        string        `env:"HTTP_ADDR" envDefault:":8080"`
	GRPCAddr        string        `env:"GRPC_ADDR" envDefault:":9090"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`
	GinMode         string        `env:"GIN_MODE" envDefault:"release"`
}

// ProviderConfig is the per-provider slice of LLMConfig.
type ProviderConfig struct {
	APIKey      string  `env:"API_KEY"`
	BaseURL     string  `env:"BASE_URL"`
	Temperature float32 `env:"TEMPERATURE" envDefault:"0.7"`
	MaxTokens   int     `env:"MAX_TOKENS" envDefault:"4096"`
}

// LLMConfig holds LLM-related configuration
type LLMConfig struct {
	DefaultProvider string        `env:"LLM_DEFAULT_PROVIDER" envDefault:"openai"`
	DefaultModel    string        `env:"LLM_DEFAULT_MODEL" envDefault:"gpt-4"`
	ScoringModel    string        `env:"LLM_SCORING_MODEL" envDefault:"gpt-4o-mini"`
	Timeout         time.Duration `env:"LLM_TIMEOUT" envDefault:"90s"`

	BreakerMaxRequests uint32        `env:"LLM_BREAKER_MAX_REQUESTS" envDefault:"3"`
	BreakerInterval    time.Duration `env:"LLM_BREAKER_INTERVAL" envDefault:"60s"`
	BreakerTimeout     time.Duration `env:"LLM_BREAKER_TIMEOUT" envDefault:"30s"`

	OpenAI    ProviderConfig `envPrefix:"OPENAI_"`
	Groq      ProviderConfig `envPrefix:"GROQ_"`
	Anthropic ProviderConfig `envPrefix:"ANTHROPIC_"`
	Gemini    ProviderConfig `envPrefix:"GEMINI_"`
}

// QueueConfig selects and tunes the task execution substrate.
type QueueConfig struct {
	Backend        string        `env:"QUEUE_BACKEND" envDefault:"memory"` // memory | redis
	Workers        int           `env:"QUEUE_WORKERS" envDefault:"4"`
	Size           int           `env:"QUEUE_SIZE" envDefault:"256"`
	ProcessTimeout time.Duration `env:"QUEUE_PROCESS_TIMEOUT" envDefault:"15m"`
	MaxAttempts    uint          `env:"QUEUE_MAX_ATTEMPTS" envDefault:"3"`
	RetryDelay     time.Duration `env:"QUEUE_RETRY_DELAY" envDefault:"60s"`

	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
	RedisPrefix   string `env:"REDIS_QUEUE_PREFIX" envDefault:"jobapply:tasks"`

	// EmbeddedWorkers lets applyd consume the redis queue itself.
	EmbeddedWorkers bool `env:"QUEUE_EMBEDDED_WORKERS" envDefault:"true"`
}

// StorageConfig controls where generated documents are written.
type StorageConfig struct {
	Backend    string `env:"STORAGE_BACKEND" envDefault:"local"` // local | s3
	LocalDir   string `env:"STORAGE_LOCAL_DIR" envDefault:"generated"`
	S3Bucket   string `env:"STORAGE_S3_BUCKET"`
	S3Region   string `env:"STORAGE_S3_REGION" envDefault:"eu-central-1"`
	S3Prefix   string `env:"STORAGE_S3_PREFIX" envDefault:"generated"`
	S3Endpoint string `env:"STORAGE_S3_ENDPOINT"`
}

// GenerationConfig holds prompt-building knobs.
type GenerationConfig struct {
	PromptsFile     string `env:"PROMPTS_FILE"`
	DefaultLanguage string `env:"DEFAULT_LANGUAGE" envDefault:"en"`
	CVSummaryChars  int    `env:"CV_SUMMARY_CHARS" envDefault:"500"`
}

// LogConfig controls the slog handler built in main.
type LogConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"text"` // text | json
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, NewAppError("CONFIG_ERROR", "parse environment", err)
	}
	return cfg, nil
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return NewAppError("CONFIG_ERROR", "DB_URL is required", ErrInvalidInput)
	}
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return NewAppError("CONFIG_ERROR", fmt.Sprintf("DB_DRIVER %q is not supported", c.Database.Driver), ErrInvalidInput)
	}
	if c.Server.HTTPAddr == "" {
		return NewAppError("CONFIG_ERROR", "HTTP_ADDR is required", ErrInvalidInput)
	}
	switch c.Queue.Backend {
	case "memory":
	case "redis":
		if c.Queue.RedisAddr == "" {
			return NewAppError("CONFIG_ERROR", "REDIS_ADDR is required for the redis queue", ErrInvalidInput)
		}
	default:
		return NewAppError("CONFIG_ERROR", fmt.Sprintf("QUEUE_BACKEND %q is not supported", c.Queue.Backend), ErrInvalidInput)
	}
	if c.Queue.MaxAttempts == 0 {
		return NewAppError("CONFIG_ERROR", "QUEUE_MAX_ATTEMPTS must be at least 1", ErrInvalidInput)
	}
	switch c.Storage.Backend {
	case "local":
	case "s3":
		if c.Storage.S3Bucket == "" {
			return NewAppError("CONFIG_ERROR", "STORAGE_S3_BUCKET is required for the s3 backend", ErrInvalidInput)
		}
	default:
		return NewAppError("CONFIG_ERROR", fmt.Sprintf("STORAGE_BACKEND %q is not supported", c.Storage.Backend), ErrInvalidInput)
	}
	if c.Generation.CVSummaryChars <= 0 {
		return NewAppError("CONFIG_ERROR", "CV_SUMMARY_CHARS must be positive", ErrInvalidInput)
	}
	return nil
}
