package services

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"graphdesk-backend/application/ports"
	"graphdesk-backend/domain/entities"
)

// viewDebounce is how long the view writer waits for the viewport to settle
// before persisting. Pan/zoom emits a burst of updates per gesture.
const viewDebounce = 400 * time.Millisecond

// viewStateWriter persists viewport changes directly and immediately
// (debounced), bypassing the edit buffer. This asymmetry with filter state is
// part of the save/discard contract.
type viewStateWriter struct {
	mu      sync.Mutex
	timer   *time.Timer
	pending *entities.ViewState

	state  ports.StateRepository
	logger *zap.Logger
}

func newViewStateWriter(state ports.StateRepository, logger *zap.Logger) *viewStateWriter {
	return &viewStateWriter{state: state, logger: logger}
}

// Write schedules the given viewport for persistence, replacing any
// still-unwritten one.
func (w *viewStateWriter) Write(view entities.ViewState) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.pending = &view
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(viewDebounce, w.flushPending)
}

// Flush writes any pending viewport synchronously, for shutdown.
func (w *viewStateWriter) Flush() {
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.mu.Unlock()
	w.flushPending()
}

func (w *viewStateWriter) flushPending() {
	w.mu.Lock()
	view := w.pending
	w.pending = nil
	w.mu.Unlock()

	if view == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := w.state.SetViewState(ctx, *view); err != nil {
		w.logger.Error("failed to persist view state", zap.Error(err))
	}
}
