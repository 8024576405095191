package kmark

import "sync"

// The queue type is an unbounded multi-producer buffer with a single atomic
// "take everything currently present" drain primitive.
//
// Many Route calls append concurrently while DrainAll or ReleasePartition
// consumes. Draining swaps the whole buffer out under the lock, so an element
// is observed by exactly one drain: a push racing a drain lands either in the
// drained snapshot or in the fresh buffer for a later drain, never both.
//
// filter exists for partition release: it retains elements in place,
// preserving their relative order, without ever leaving the queue detached.
type queue[T any] struct {
	mu    sync.Mutex
	elems []T
}

func (q *queue[T]) push(elem T) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.elems = append(q.elems, elem)
}

// drain returns all currently buffered elements, leaving the queue empty.
func (q *queue[T]) drain() []T {
	q.mu.Lock()
	defer q.mu.Unlock()

	drained := q.elems
	q.elems = nil
	return drained
}

// filter retains only elements for which keep returns true, preserving
// order, and returns how many elements were dropped.
func (q *queue[T]) filter(keep func(T) bool) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	kept := q.elems[:0]
	for _, elem := range q.elems {
		if keep(elem) {
			kept = append(kept, elem)
		}
	}
	dropped := len(q.elems) - len(kept)

	// Clear the tail so dropped elements do not pin memory.
	var zero T
	for i := len(kept); i < len(q.elems); i++ {
		q.elems[i] = zero
	}
	q.elems = kept
	return dropped
}

// snapshot returns a copy of the current elements without consuming them.
func (q *queue[T]) snapshot() []T {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.elems) == 0 {
		return nil
	}
	dup := make([]T, len(q.elems))
	copy(dup, q.elems)
	return dup
}

func (q *queue[T]) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.elems)
}
