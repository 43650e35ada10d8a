// Package watcher keeps the corpus in sync with a directory of source
// files. Created or modified .txt/.md files are upserted as documents and a
// fresh ingestion run is triggered so they become searchable.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/trander-25/23521801-vuthevinh-lab06/internal/core/domain"
	"github.com/trander-25/23521801-vuthevinh-lab06/internal/core/ports/driving"
	"github.com/trander-25/23521801-vuthevinh-lab06/internal/logger"
)

// DefaultExtensions are the file types synced into the corpus.
var DefaultExtensions = []string{".txt", ".md"}

// DefaultSettleDelay batches rapid write events for the same save.
const DefaultSettleDelay = 500 * time.Millisecond

// Watcher mirrors a directory of text files into the document corpus.
type Watcher struct {
	docs        driving.DocumentService
	ingest      driving.IngestOrchestrator
	extensions  []string
	settleDelay time.Duration
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithExtensions overrides the watched file extensions.
func WithExtensions(exts []string) Option {
	return func(w *Watcher) {
		if len(exts) > 0 {
			w.extensions = exts
		}
	}
}

// WithSettleDelay overrides how long the watcher waits after the last event
// before syncing.
func WithSettleDelay(d time.Duration) Option {
	return func(w *Watcher) {
		w.settleDelay = d
	}
}

// New creates a watcher over the given document and ingestion services.
func New(docs driving.DocumentService, ingest driving.IngestOrchestrator, opts ...Option) *Watcher {
	w := &Watcher{
		docs:        docs,
		ingest:      ingest,
		extensions:  DefaultExtensions,
		settleDelay: DefaultSettleDelay,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run syncs the directory once, then watches it until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context, dir string) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	if err := w.SyncDir(ctx, dir); err != nil {
		return err
	}

	logger.Info("Watching %s for %v files", dir, w.extensions)

	var (
		pending = make(map[string]fsnotify.Op)
		settle  *time.Timer
		settled <-chan time.Time
	)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !w.isWatched(event.Name) {
				continue
			}
			pending[event.Name] |= event.Op
			if settle == nil {
				settle = time.NewTimer(w.settleDelay)
			} else {
				settle.Reset(w.settleDelay)
			}
			settled = settle.C

		case <-settled:
			settled = nil
			batch := pending
			pending = make(map[string]fsnotify.Op)
			w.applyBatch(ctx, batch)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error: %v", err)
		}
	}
}

// SyncDir upserts every watched file currently in dir and runs ingestion.
func (w *Watcher) SyncDir(ctx context.Context, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading %s: %w", dir, err)
	}

	var synced int
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if !w.isWatched(path) {
			continue
		}
		if err := w.upsertFile(ctx, path); err != nil {
			logger.Warn("Skipping %s: %v", path, err)
			continue
		}
		synced++
	}

	if synced > 0 {
		w.runIngest(ctx)
	}
	return nil
}

// applyBatch processes one settled batch of filesystem events.
func (w *Watcher) applyBatch(ctx context.Context, batch map[string]fsnotify.Op) {
	var changed bool
	for path, op := range batch {
		switch {
		case op&fsnotify.Remove != 0 || op&fsnotify.Rename != 0:
			if err := w.removeFile(ctx, path); err != nil {
				logger.Warn("Removing %s: %v", path, err)
				continue
			}
			changed = true
		case op&fsnotify.Create != 0 || op&fsnotify.Write != 0:
			if err := w.upsertFile(ctx, path); err != nil {
				logger.Warn("Syncing %s: %v", path, err)
				continue
			}
			changed = true
		}
	}

	if changed {
		w.runIngest(ctx)
	}
}

// upsertFile loads a file and adds or updates the matching document. The
// document slug is derived from the base filename, so "Getting Started.md"
// maps to "getting-started" regardless of later edits.
func (w *Watcher) upsertFile(ctx context.Context, path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	title := fileTitle(path)
	slug := domain.Slugify(title)

	existing, err := w.docs.Get(ctx, slug)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		_, err = w.docs.Add(ctx, title, slug, string(content))
		if err != nil {
			return err
		}
		logger.Debug("Added document %q from %s", slug, path)
	case err != nil:
		return err
	default:
		_, err = w.docs.Update(ctx, existing.ID, title, string(content))
		if err != nil {
			return err
		}
		logger.Debug("Updated document %q from %s", slug, path)
	}
	return nil
}

// removeFile deletes the document that tracks a removed file, if any.
func (w *Watcher) removeFile(ctx context.Context, path string) error {
	slug := domain.Slugify(fileTitle(path))

	doc, err := w.docs.Get(ctx, slug)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if err := w.docs.Delete(ctx, doc.ID); err != nil {
		return err
	}
	logger.Debug("Removed document %q for %s", slug, path)
	return nil
}

// runIngest indexes whatever the sync left pending. Ingestion problems are
// logged, not fatal; the watcher keeps running.
func (w *Watcher) runIngest(ctx context.Context) {
	report, err := w.ingest.IngestPending(ctx)
	if err != nil {
		logger.Warn("Ingestion failed: %v", err)
		return
	}
	if report.DocumentsProcessed > 0 || len(report.Failures) > 0 {
		logger.Info("Ingested %d document(s), %d chunk(s), %d failure(s)",
			report.DocumentsProcessed, report.ChunksCreated, len(report.Failures))
	}
}

// isWatched checks whether the file has a watched extension.
func (w *Watcher) isWatched(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range w.extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// fileTitle derives a document title from the filename without extension.
func fileTitle(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
