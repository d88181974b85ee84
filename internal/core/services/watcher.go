package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/logger"
)

// DefaultDebounce is how long the folder must stay quiet before a rebuild.
const DefaultDebounce = 2 * time.Second

// Watcher rebuilds the index after the document folder changes.
// Bursts of events collapse into one full rebuild.
type Watcher struct {
	source   driven.DocumentSource
	index    driving.IndexService
	debounce time.Duration

	// OnRebuild, when set, is called after every rebuild attempt.
	OnRebuild func(driving.IndexReport, error)

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
}

// NewWatcher creates a watcher. A zero debounce uses DefaultDebounce.
func NewWatcher(source driven.DocumentSource, index driving.IndexService, debounce time.Duration) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{source: source, index: index, debounce: debounce}
}

// Start watches until ctx is cancelled or Stop is called. It blocks.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.stopCh = make(chan struct{})
	stopCh := w.stopCh
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
	}()

	changes, err := w.source.Watch(ctx)
	if err != nil {
		return err
	}
	logger.Info("Watching %s", w.source.Root())
	return w.run(ctx, changes, stopCh)
}

// Stop ends a running Start.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running && w.stopCh != nil {
		close(w.stopCh)
		w.stopCh = nil
	}
}

func (w *Watcher) run(ctx context.Context, changes <-chan domain.RawDocumentChange, stopCh <-chan struct{}) error {
	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stopCh:
			return nil
		case change, ok := <-changes:
			if !ok {
				return nil
			}
			logger.Debug("Change %s: %s", change.Type, change.Document.URI)
			timer.Reset(w.debounce)
		case <-timer.C:
			report, err := w.index.Rebuild(ctx)
			if errors.Is(err, domain.ErrRebuildInProgress) {
				logger.Debug("Rebuild already running, retrying later")
				timer.Reset(w.debounce)
				continue
			}
			if err != nil {
				logger.Error("Rebuild after change failed: %v", err)
			}
			if w.OnRebuild != nil {
				w.OnRebuild(report, err)
			}
		}
	}
}
