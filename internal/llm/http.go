package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

// StatusError is a non-2xx provider response.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	body := e.Body
	if len(body) > 512 {
		body = body[:512] + "…"
	}
	return fmt.Sprintf("non-2xx status: %d: %s", e.Status, body)
}

// NewHTTPClient returns the resty client shared by provider implementations.
// Retries stay off; transient failures are handled by the task queue.
func NewHTTPClient(timeout time.Duration) *resty.Client {
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return resty.New().
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
}

// PostJSON sends a JSON request to a full URL with optional headers and returns the raw response body.
// It does not assume any provider. Callers decide the URL and headers.
func PostJSON(ctx context.Context, client *resty.Client, url string, body any, headers map[string]string, logger *slog.Logger) ([]byte, int, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if client == nil {
		client = NewHTTPClient(0)
	}

	reqID := uuid.New().String()
	start := time.Now()

	logger.Info("llm.http.request", "req_id", reqID, "url", url)

	resp, err := client.R().
		SetContext(ctx).
		SetHeaders(headers).
		SetBody(body).
		Post(url)
	if err != nil {
		logger.Error("llm.http.send_error", "req_id", reqID, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, 0, fmt.Errorf("send request: %w", err)
	}

	raw := resp.Body()
	logger.Info("llm.http.response",
		"req_id", reqID,
		"status", resp.StatusCode(),
		"bytes", len(raw),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	if !resp.IsSuccess() {
		return raw, resp.StatusCode(), &StatusError{Status: resp.StatusCode(), Body: string(raw)}
	}
	return raw, resp.StatusCode(), nil
}
