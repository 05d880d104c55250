package sync_engine

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/jonboulle/clockwork"
	"github.com/meysamhadeli/imgsync/image_scanner"
	"github.com/meysamhadeli/imgsync/sync_engine/models"
	"github.com/meysamhadeli/imgsync/utils"
	log "github.com/sirupsen/logrus"
)

// Editors and copy tools emit bursts of events; wait for the folder to settle.
const watchDebounce = 2 * time.Second

// Watch runs once, then again every time an image in the folder changes, until
// ctx is canceled. A failed run is reported to onRun and the watch goes on; a
// run cut short by the cancellation itself is not reported.
func (engine *SyncEngine) Watch(ctx context.Context, options models.SyncOptions, onRun func(report *models.SyncReport, err error)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() {
		if err := watcher.Close(); err != nil {
			log.WithError(err).Warn("Failed to close file watcher")
		}
	}()

	if err := watcher.Add(engine.imageFolder); err != nil {
		return fmt.Errorf("failed to watch %q: %w", engine.imageFolder, err)
	}

	run := func() {
		report, err := engine.Run(ctx, options)
		if err != nil && ctx.Err() != nil && errors.Is(err, context.Canceled) {
			log.WithError(err).Debug("Sync run interrupted by shutdown")
			return
		}
		onRun(report, err)
	}

	run()

	go func() {
		for {
			select {
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.WithError(err).Warn("File watcher error")
			case <-ctx.Done():
				return
			}
		}
	}()

	log.WithField("folder", engine.imageFolder).Info("Watching for image changes")
	debounce(ctx, engine.clock, engine.debounceDelay, combineUpdates(watcher.Events), run)
	return nil
}

// isRelevantEvent filters out events for files a run never reads, such as a
// manifest kept inside the image folder.
func isRelevantEvent(event fsnotify.Event) bool {
	name := filepath.Base(event.Name)
	return image_scanner.IsImageFile(name) || name == utils.IgnoreFileName
}

// combineUpdates collapses relevant events into a single pending signal.
func combineUpdates(events <-chan fsnotify.Event) <-chan struct{} {
	combined := make(chan struct{}, 1)
	go func() {
		defer close(combined)
		for event := range events {
			if !isRelevantEvent(event) {
				continue
			}
			log.WithField("event", event.String()).Debug("Image folder changed")
			select {
			case combined <- struct{}{}:
			default:
			}
		}
	}()
	return combined
}

// debounce calls run once updates have been quiet for delay. Runs never overlap.
func debounce(ctx context.Context, clock clockwork.Clock, delay time.Duration, updates <-chan struct{}, run func()) {
	var timer <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-updates:
			if !ok {
				return
			}
			timer = clock.After(delay)
		case <-timer:
			timer = nil
			run()
		}
	}
}
