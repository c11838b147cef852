// Package watcher monitors a directory and keeps its text files
// ingested: new and modified files are (re-)ingested, removed files are
// deleted from the corpus.
package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/custodia-labs/grounded/internal/core/domain"
	"github.com/custodia-labs/grounded/internal/core/ports/driving"
)

// debounceDelay coalesces the event bursts editors produce per save.
const debounceDelay = 500 * time.Millisecond

// watchedExts are the file extensions the watcher ingests.
var watchedExts = map[string]bool{
	".txt": true,
	".md":  true,
}

// Watcher keeps a directory synchronised with the ingested corpus.
type Watcher struct {
	dir      string
	ingester driving.IngestService
	logger   *zap.Logger

	watcher  *fsnotify.Watcher
	mu       sync.Mutex
	debounce map[string]*time.Timer
}

// New creates a watcher for the given directory.
func New(dir string, ingester driving.IngestService, logger *zap.Logger) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, err
	}

	return &Watcher{
		dir:      dir,
		ingester: ingester,
		logger:   logger,
		watcher:  fsw,
		debounce: make(map[string]*time.Timer),
	}, nil
}

// Run ingests the existing files and then processes filesystem events
// until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	if err := w.ingestExisting(ctx); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !watchedExts[filepath.Ext(event.Name)] {
				continue
			}
			w.handleEvent(ctx, event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", zap.Error(err))
		}
	}
}

// ingestExisting seeds the corpus from the files already present.
func (w *Watcher) ingestExisting(ctx context.Context) error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || !watchedExts[filepath.Ext(entry.Name())] {
			continue
		}
		w.ingestFile(ctx, filepath.Join(w.dir, entry.Name()))
	}
	return nil
}

// handleEvent debounces writes and reacts to removals immediately.
func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	switch {
	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		w.mu.Lock()
		if timer, exists := w.debounce[event.Name]; exists {
			timer.Stop()
		}
		w.debounce[event.Name] = time.AfterFunc(debounceDelay, func() {
			w.mu.Lock()
			delete(w.debounce, event.Name)
			w.mu.Unlock()
			w.ingestFile(ctx, event.Name)
		})
		w.mu.Unlock()

	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		w.removeFile(ctx, event.Name)
	}
}

// ingestFile reads and ingests one file, replacing any previous version.
func (w *Watcher) ingestFile(ctx context.Context, path string) {
	if ctx.Err() != nil {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		w.logger.Warn("read file", zap.String("path", path), zap.Error(err))
		return
	}

	sourceID := w.sourceID(path)
	metadata := map[string]any{"path": path, "origin": "watcher"}

	result, err := w.ingester.Ingest(ctx, sourceID, string(data), metadata)
	if errors.Is(err, domain.ErrConflict) {
		// Modified file: replace the stale document
		if err := w.ingester.DeleteBySourceID(ctx, sourceID); err != nil {
			w.logger.Warn("replace stale document", zap.String("source_id", sourceID), zap.Error(err))
			return
		}
		result, err = w.ingester.Ingest(ctx, sourceID, string(data), metadata)
	}
	switch {
	case errors.Is(err, domain.ErrNoChunks), errors.Is(err, domain.ErrInvalidInput):
		w.logger.Debug("skipping empty file", zap.String("path", path))
	case err != nil:
		w.logger.Warn("ingest failed", zap.String("path", path), zap.Error(err))
	default:
		w.logger.Info("file ingested",
			zap.String("source_id", sourceID),
			zap.Int("chunks", result.ChunkCount))
	}
}

// removeFile drops a deleted file's document from the corpus.
func (w *Watcher) removeFile(ctx context.Context, path string) {
	if ctx.Err() != nil {
		return
	}

	sourceID := w.sourceID(path)
	err := w.ingester.DeleteBySourceID(ctx, sourceID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		// Never ingested, nothing to do
	case err != nil:
		w.logger.Warn("delete failed", zap.String("source_id", sourceID), zap.Error(err))
	default:
		w.logger.Info("file removed", zap.String("source_id", sourceID))
	}
}

// sourceID derives a stable identifier from the file path.
func (w *Watcher) sourceID(path string) string {
	if rel, err := filepath.Rel(w.dir, path); err == nil {
		return rel
	}
	return filepath.Base(path)
}
