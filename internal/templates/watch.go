package templates

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatchPromptsFile reloads the catalog into r whenever the prompts file at
// path changes. The parent directory is watched so editors that replace the
// file by rename are picked up. A file that fails to parse leaves the current
// catalog in place. The watcher stops when ctx ends.
func WatchPromptsFile(ctx context.Context, path string, r *Resolver, debounce time.Duration, logger *slog.Logger) error {
	if path == "" {
		return errors.New("no prompts file configured")
	}
	if logger == nil {
		logger = slog.Default()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Error("failed to create fsnotify watcher", "error", err)
		return err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		_ = w.Close()
		logger.Error("failed to watch prompts directory", "dir", filepath.Dir(abs), "error", err)
		return err
	}

	reload := func() {
		c, err := LoadCatalog(abs)
		if err != nil {
			logger.Warn("templates.reload.failed", "path", abs, "error", err)
			return
		}
		r.SetCatalog(c)
		logger.Info("templates.reload.ok", "path", abs)
	}

	go func() {
		defer func() {
			if err := w.Close(); err != nil {
				logger.Warn("failed to close prompts watcher", "error", err)
			}
		}()

		var timer *time.Timer
		for {
			select {
			case <-ctx.Done():
				if timer != nil {
					timer.Stop()
				}
				return
			case e, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(e.Name) != abs || e.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
					continue
				}
				if debounce <= 0 {
					reload()
					continue
				}
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(debounce, reload)
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Error("watcher error", "error", err)
			}
		}
	}()
	return nil
}
