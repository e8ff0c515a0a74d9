package intent

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// WatchVocabulary reloads the vocabulary file at path whenever it changes
// and passes each valid result to apply. Invalid files are logged and
// skipped, so the last good vocabulary stays active. It blocks until ctx is
// done.
//
// The parent directory is watched rather than the file itself so that
// editors which replace the file on save keep triggering reloads.
func WatchVocabulary(ctx context.Context, path string, apply func(Vocabulary), logger *zap.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", path, err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(abs), err)
	}

	logger.Info("watching vocabulary", zap.String("path", abs))

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			v, err := LoadVocabulary(abs)
			if err != nil {
				logger.Warn("ignoring vocabulary change", zap.Error(err))
				continue
			}
			apply(v)
			logger.Info("vocabulary reloaded",
				zap.Int("triggers", len(v.Triggers)),
				zap.Int("companies", len(v.Companies)),
			)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("vocabulary watcher error", zap.Error(err))
		}
	}
}
