package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker"
)

// BreakerSettings tunes the per-provider circuit breaker.
type BreakerSettings struct {
	MaxRequests uint32
	Interval    time.Duration
	Timeout     time.Duration
}

type registered struct {
	provider Provider
	breaker  *gobreaker.CircuitBreaker
}

// Registry dispatches prompts to named providers. Each provider is guarded
// by its own breaker so a failing vendor does not stall the others.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]*registered
	settings  BreakerSettings
	logger    *slog.Logger
}

func NewRegistry(settings BreakerSettings, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	if settings.MaxRequests == 0 {
		settings.MaxRequests = 3
	}
	if settings.Interval <= 0 {
		settings.Interval = 60 * time.Second
	}
	if settings.Timeout <= 0 {
		settings.Timeout = 30 * time.Second
	}
	return &Registry{
		providers: make(map[string]*registered),
		settings:  settings,
		logger:    logger,
	}
}

// Register adds p under its own name and any aliases. Names are case-insensitive.
func (r *Registry) Register(p Provider, aliases ...string) {
	name := strings.ToLower(p.Name())
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: r.settings.MaxRequests,
		Interval:    r.settings.Interval,
		Timeout:     r.settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			r.logger.Warn("llm.breaker.state", "provider", name, "from", from.String(), "to", to.String())
		},
		IsSuccessful: func(err error) bool {
			// caller cancellations say nothing about provider health
			return err == nil || errors.Is(err, context.Canceled)
		},
	})
	entry := &registered{provider: p, breaker: cb}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[name] = entry
	for _, a := range aliases {
		r.providers[strings.ToLower(a)] = entry
	}
}

// Providers lists the registered names, aliases included.
func (r *Registry) Providers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.providers))
	for name := range r.providers {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Has reports whether provider can be invoked.
func (r *Registry) Has(provider string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.providers[strings.ToLower(provider)]
	return ok
}

// Invoke sends prompt to provider using model and returns the generated text.
// Every failure, including an unknown provider or an open breaker, comes back as *ProviderError.
func (r *Registry) Invoke(ctx context.Context, provider, model, prompt string) (string, error) {
	r.mu.RLock()
	entry, ok := r.providers[strings.ToLower(provider)]
	r.mu.RUnlock()
	if !ok {
		return "", &ProviderError{Provider: provider, Cause: ErrUnknownProvider}
	}

	start := time.Now()
	out, err := entry.breaker.Execute(func() (interface{}, error) {
		return entry.provider.Complete(ctx, model, prompt)
	})
	if err != nil {
		r.logger.Error("llm.invoke.error",
			"provider", provider,
			"model", model,
			"error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		if pe, ok := AsProviderError(err); ok {
			return "", pe
		}
		return "", &ProviderError{Provider: provider, Cause: err}
	}

	text, _ := out.(string)
	if strings.TrimSpace(text) == "" {
		return "", &ProviderError{Provider: provider, Cause: ErrEmptyResponse}
	}
	r.logger.Info("llm.invoke.ok",
		"provider", provider,
		"model", model,
		"prompt_len", len(prompt),
		"output_len", len(text),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return text, nil
}

// Func adapts a plain function into a Provider. Used by tests and the offline echo provider.
type Func struct {
	ProviderName string
	Fn           func(ctx context.Context, model, prompt string) (string, error)
}

func (f Func) Name() string { return f.ProviderName }

func (f Func) Complete(ctx context.Context, model, prompt string) (string, error) {
	if f.Fn == nil {
		return "", fmt.Errorf("%s: no completion function", f.ProviderName)
	}
	return f.Fn(ctx, model, prompt)
}
