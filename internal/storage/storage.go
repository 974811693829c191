// Package storage writes generated documents somewhere durable.
package storage

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/jobapply/internal/common"
)

// Persister stores document content under key and returns where it ended up.
type Persister interface {
	Persist(ctx context.Context, key string, content []byte) (location string, err error)
	Remove(ctx context.Context, location string) error
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// Key is the relative key of a generated document: <user>/app_<application>_<doc_type>.txt.
func Key(userID, applicationID uuid.UUID, docType string) string {
	dt := unsafeChars.ReplaceAllString(strings.TrimSpace(docType), "_")
	return fmt.Sprintf("%s/app_%s_%s.txt", userID, applicationID, dt)
}

// New picks the backend named in cfg.
func New(ctx context.Context, cfg common.StorageConfig, logger *slog.Logger) (Persister, error) {
	switch cfg.Backend {
	case "", "local":
		return NewLocal(cfg.LocalDir, logger), nil
	case "s3":
		return NewS3(ctx, S3Config{
			Bucket:   cfg.S3Bucket,
			Region:   cfg.S3Region,
			Prefix:   cfg.S3Prefix,
			Endpoint: cfg.S3Endpoint,
		}, logger)
	default:
		return nil, common.NewAppError("CONFIG_ERROR", fmt.Sprintf("storage backend %q is not supported", cfg.Backend), common.ErrInvalidInput)
	}
}
