package merchant

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads a Source whenever its backing file changes.
type Watcher struct {
	source   *Source
	onReload func(error)
}

// NewWatcher creates a watcher for source. onReload, if non-nil, is called
// after every reload attempt with its result.
func NewWatcher(source *Source, onReload func(error)) *Watcher {
	return &Watcher{source: source, onReload: onReload}
}

// Run watches until ctx is cancelled. The parent directory is watched so
// that editors replacing the file through a rename are noticed.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating file watcher: %w", err)
	}
	defer func() {
		if cerr := fw.Close(); cerr != nil {
			slog.Warn("closing file watcher", "error", cerr)
		}
	}()

	target := filepath.Clean(w.source.Path())
	if err := fw.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(target), err)
	}
	slog.Info("watching merchant directory", "path", target)

	for {
		select {
		case <-ctx.Done():
			return nil
		case evt, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(evt.Name) != target {
				continue
			}
			if !evt.Has(fsnotify.Write) && !evt.Has(fsnotify.Create) {
				continue
			}
			err := w.source.Reload()
			if err != nil {
				slog.Warn("reloading merchant directory", "path", target, "error", err)
			} else {
				slog.Info("merchant directory reloaded", "path", target, "merchants", w.source.Current().Len())
			}
			if w.onReload != nil {
				w.onReload(err)
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			slog.Warn("file watcher error", "error", err)
		}
	}
}
