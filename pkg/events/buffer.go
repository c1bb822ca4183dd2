package events

import "sync"

// DefaultCapacity is the capacity of console and dialog buffers unless configured.
const DefaultCapacity = 1000

// Buffer is a fixed-capacity, insertion-ordered record store. When full, the
// oldest record is dropped to make room. All methods are safe for concurrent use
// and reads always return copies.
type Buffer[T any] struct {
	mu       sync.Mutex
	items    []T
	capacity int
}

// NewBuffer creates a buffer holding at most capacity records.
// A non-positive capacity falls back to DefaultCapacity.
func NewBuffer[T any](capacity int) *Buffer[T] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer[T]{capacity: capacity}
}

// Append adds a record, evicting the oldest when the buffer is full.
func (b *Buffer[T]) Append(item T) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.items = append(b.items, item)
	b.trim()
}

// ReadAll returns a snapshot of every record in insertion order. With clear
// set, the buffer is emptied in the same critical section, so no record
// appended concurrently is lost or returned twice.
func (b *Buffer[T]) ReadAll(clear bool) []T {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]T, len(b.items))
	copy(out, b.items)
	if clear {
		b.items = nil
	}
	return out
}

// Query returns the records matching match (nil matches everything), keeping
// only the most recent limit of them when limit > 0. Clearing empties the
// whole buffer, not just the matches.
func (b *Buffer[T]) Query(match func(T) bool, limit int, clear bool) []T {
	b.mu.Lock()
	defer b.mu.Unlock()

	var out []T
	for _, item := range b.items {
		if match == nil || match(item) {
			out = append(out, item)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	if clear {
		b.items = nil
	}
	if out == nil {
		out = []T{}
	}
	return out
}

// SetCapacity changes the capacity, dropping the oldest records if the buffer
// currently holds more than the new capacity.
func (b *Buffer[T]) SetCapacity(capacity int) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.capacity = capacity
	b.trim()
}

// Len returns the number of buffered records.
func (b *Buffer[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}

// Capacity returns the current capacity.
func (b *Buffer[T]) Capacity() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.capacity
}

// trim must be called with mu held.
func (b *Buffer[T]) trim() {
	if over := len(b.items) - b.capacity; over > 0 {
		n := copy(b.items, b.items[over:])
		var zero T
		for i := n; i < len(b.items); i++ {
			b.items[i] = zero
		}
		b.items = b.items[:n]
	}
}
