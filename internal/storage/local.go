package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Local writes documents below a root directory.
type Local struct {
	root   string
	logger *slog.Logger
}

func NewLocal(root string, logger *slog.Logger) *Local {
	if root == "" {
		root = "generated"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Local{root: root, logger: logger}
}

// Persist writes content atomically: a temp file in the target directory is renamed into place.
func (l *Local) Persist(ctx context.Context, key string, content []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	path, err := l.resolve(key)
	if err != nil {
		return "", err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".doc-*")
	if err != nil {
		return "", fmt.Errorf("create temp: %w", err)
	}
	cleanup := func() { _ = os.Remove(tmp.Name()) }
	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		cleanup()
		return "", fmt.Errorf("write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return "", fmt.Errorf("close: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		cleanup()
		return "", fmt.Errorf("rename: %w", err)
	}

	location := filepath.ToSlash(path)
	l.logger.Debug("storage.local.persisted", "location", location, "bytes", len(content))
	return location, nil
}

// Remove deletes a previously persisted file. A missing file is not an error.
func (l *Local) Remove(ctx context.Context, location string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path := filepath.FromSlash(location)
	if !l.within(path) {
		return fmt.Errorf("location %q is outside %s", location, l.root)
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (l *Local) resolve(key string) (string, error) {
	path := filepath.Join(l.root, filepath.FromSlash(key))
	if !l.within(path) {
		return "", fmt.Errorf("key %q escapes storage root", key)
	}
	return path, nil
}

func (l *Local) within(path string) bool {
	rel, err := filepath.Rel(filepath.Clean(l.root), filepath.Clean(path))
	return err == nil && rel != "." && !strings.HasPrefix(rel, "..")
}
