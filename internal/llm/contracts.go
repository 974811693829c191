package llm

import (
	"context"
	"errors"
	"fmt"
)

// Provider completes a single-turn prompt. Implementations hold no
// conversation state and do not stream.
type Provider interface {
	Name() string
	Complete(ctx context.Context, model, prompt string) (string, error)
}

var (
	ErrUnknownProvider = errors.New("unknown provider")
	ErrEmptyResponse   = errors.New("empty completion")
	ErrMissingAPIKey   = errors.New("api key not configured")
)

// ProviderError is the only error kind returned by Registry.Invoke.
type ProviderError struct {
	Provider string
	Cause    error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("llm provider %s: %v", e.Provider, e.Cause)
}

func (e *ProviderError) Unwrap() error { return e.Cause }

// AsProviderError unwraps err into a *ProviderError.
func AsProviderError(err error) (*ProviderError, bool) {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// MatchingResult is the structured CV-vs-job analysis returned by the scoring prompt.
type MatchingResult struct {
	OverallScore    int      `json:"overall_score"`
	Strengths       []string `json:"strengths"`
	Gaps            []string `json:"gaps"`
	Recommendations []string `json:"recommendations"`
	Story           string   `json:"story,omitempty"`
}
