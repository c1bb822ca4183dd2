package events

import (
	"context"
	"sync"
)

// Event is something a page listener observed. Exactly one field is set.
type Event struct {
	Console *ConsoleRecord
	Dialog  Dialog

	presented *presentation
	done      chan struct{} // flush marker
}

// Queue decouples browser event callbacks from their processing. Push never
// blocks, so the driver's dispatcher is never stalled behind a dialog being
// resolved. A single pump goroutine processes events in arrival order.
type Queue struct {
	mu      sync.Mutex
	pending []Event
	wake    chan struct{}
	closed  bool
	stopped chan struct{}

	console *Buffer[ConsoleRecord]
	dialogs *DialogHandler
}

// NewQueue starts a pump that appends console records to console and
// hands dialogs to dialogs.
func NewQueue(console *Buffer[ConsoleRecord], dialogs *DialogHandler) *Queue {
	q := &Queue{
		wake:    make(chan struct{}, 1),
		stopped: make(chan struct{}),
		console: console,
		dialogs: dialogs,
	}
	go q.pump()
	return q
}

// Push enqueues an event. A dialog takes the handler's configuration as it
// stands now, not when the pump reaches it. Events pushed after Close are
// dropped, except that a dropped dialog is still accepted so the page never
// hangs.
func (q *Queue) Push(ev Event) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		if ev.Dialog != nil {
			_ = ev.Dialog.Accept()
		}
		return
	}
	if ev.Dialog != nil && ev.presented == nil {
		p := q.dialogs.present()
		ev.presented = &p
	}
	q.pending = append(q.pending, ev)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Flush waits until every event pushed before the call has been processed.
func (q *Queue) Flush(ctx context.Context) error {
	marker := Event{done: make(chan struct{})}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.pending = append(q.pending, marker)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}

	select {
	case <-marker.done:
		return nil
	case <-q.stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close drains what is already queued and stops the pump.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
	<-q.stopped
}

func (q *Queue) pump() {
	defer close(q.stopped)
	for {
		q.mu.Lock()
		batch := q.pending
		q.pending = nil
		closed := q.closed
		q.mu.Unlock()

		for _, ev := range batch {
			q.process(ev)
		}
		if closed && len(batch) == 0 {
			return
		}
		if len(batch) > 0 {
			continue
		}
		<-q.wake
	}
}

func (q *Queue) process(ev Event) {
	switch {
	case ev.done != nil:
		close(ev.done)
	case ev.Dialog != nil:
		q.dialogs.resolve(ev.Dialog, *ev.presented)
	case ev.Console != nil:
		q.console.Append(*ev.Console)
	}
}
