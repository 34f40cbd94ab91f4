package session

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// WaitGone blocks until the file at path no longer exists or ctx is done.
func WaitGone(ctx context.Context, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// Watch the directory containing the file (more reliable for renames)
	dir := filepath.Dir(path)
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := watcher.Add(dir); err != nil {
		return err
	}

	// The file may have gone before the watch was in place.
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}

	filename := filepath.Base(path)
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			// Only care about our file
			if filepath.Base(event.Name) != filename {
				continue
			}

			if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
					slog.Debug("session record removed", "file", path)
					return nil
				}
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("session watcher error", "error", err)

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
