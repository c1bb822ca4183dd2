package ocr

import (
	"context"
	"fmt"
	"sync"
)

// Factory creates a Recognizer.
type Factory func() (Recognizer, error)

// Worker creates its Recognizer on first use and keeps it until Release.
type Worker struct {
	mu      sync.Mutex
	factory Factory
	rec     Recognizer
}

// NewWorker returns a worker that has not created its recognizer yet.
func NewWorker(factory Factory) *Worker {
	return &Worker{factory: factory}
}

// Recognize transcribes the image at path, creating the recognizer if needed.
// A failed creation is retried on the next call.
func (w *Worker) Recognize(ctx context.Context, path, language string) (string, error) {
	rec, err := w.acquire()
	if err != nil {
		return "", err
	}
	return rec.Recognize(ctx, path, language)
}

func (w *Worker) acquire() (Recognizer, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.rec != nil {
		return w.rec, nil
	}
	if w.factory == nil {
		return nil, fmt.Errorf("text recognition is not configured")
	}
	rec, err := w.factory()
	if err != nil {
		return nil, fmt.Errorf("failed to start text recognition: %w", err)
	}
	w.rec = rec
	return rec, nil
}

// Started reports whether the recognizer exists.
func (w *Worker) Started() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.rec != nil
}

// Release closes the recognizer if one was created. Safe to call repeatedly.
func (w *Worker) Release() error {
	w.mu.Lock()
	rec := w.rec
	w.rec = nil
	w.mu.Unlock()

	if rec == nil {
		return nil
	}
	return rec.Close()
}
