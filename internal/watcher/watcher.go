package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/nguyentantai21042004/recap-flow/internal/logger"
	"github.com/nguyentantai21042004/recap-flow/internal/session"
)

// settleDelay gives the producer time to finish copying track files into a
// dropped session directory before processing starts.
const settleDelay = 2 * time.Second

type implWatcher struct {
	intakeDir     string
	handler       SessionHandler
	logger        logger.Logger
	watcher       *fsnotify.Watcher
	maxConcurrent int
	semaphore     chan struct{}
	wg            sync.WaitGroup
}

// Start begins monitoring the intake directory for dropped session
// directories and reprocesses each through the post-capture pipeline.
func (w *implWatcher) Start(ctx context.Context) error {
	w.logger.Info(ctx, "Intake watcher started (max concurrent: %d). Monitoring: %s", w.maxConcurrent, w.intakeDir)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info(ctx, "Waiting for ongoing processing to complete...")
			w.wg.Wait()
			w.logger.Info(ctx, "Intake watcher stopped")
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}

			// Only process CREATE events
			if event.Op&fsnotify.Create == fsnotify.Create {
				if w.isSessionDir(event.Name) {
					w.logger.Info(ctx, "New session drop detected: %s", event.Name)

					// Let the drop finish before touching it
					time.Sleep(settleDelay)

					// Acquire semaphore slot (blocks if max concurrent reached)
					select {
					case w.semaphore <- struct{}{}:
						w.wg.Add(1)
						go func(dir string) {
							defer w.wg.Done()
							defer func() { <-w.semaphore }() // Release semaphore

							if err := w.handler(ctx, dir); err != nil {
								w.logger.Error(ctx, "Failed to process %s: %v", dir, err)
							}
						}(event.Name)
					case <-ctx.Done():
						return ctx.Err()
					}
				} else {
					w.logger.Debug(ctx, "Ignoring non-session entry: %s", event.Name)
				}
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Error(ctx, "Watcher error: %v", err)
		}
	}
}

// Stop closes the file watcher
func (w *implWatcher) Stop() error {
	return w.watcher.Close()
}

// isSessionDir accepts only directories whose name is a valid session id.
func (w *implWatcher) isSessionDir(path string) bool {
	if session.ValidateID(filepath.Base(path)) != nil {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
