// Package pqueue provides a generic binary min-heap with position tracking,
// so callers can lower an element's priority in place (decrease-key).
package pqueue

import "container/heap"

// LessFunc reports whether a must be popped before b.
type LessFunc[T any] func(a, b T) bool

// IndexFunc is told every time an element lands at a new heap position.
// An index of -1 means the element left the heap.
type IndexFunc[T any] func(item T, index int)

// Queue is a min-heap ordered by a caller-supplied LessFunc.
// Not safe for concurrent use.
type Queue[T any] struct {
	h inner[T]
}

// New creates an empty queue. onIndex may be nil when Fix is never needed.
func New[T any](less LessFunc[T], onIndex IndexFunc[T]) *Queue[T] {
	return &Queue[T]{h: inner[T]{less: less, onIndex: onIndex}}
}

// WithCapacity creates an empty queue with preallocated storage.
func WithCapacity[T any](capacity int, less LessFunc[T], onIndex IndexFunc[T]) *Queue[T] {
	q := New(less, onIndex)
	q.h.items = make([]T, 0, capacity)
	return q
}

// Len returns the number of queued elements.
func (q *Queue[T]) Len() int { return len(q.h.items) }

// Push inserts an element.
func (q *Queue[T]) Push(item T) {
	heap.Push(&q.h, item)
}

// Pop removes and returns the minimum element.
func (q *Queue[T]) Pop() (T, bool) {
	if len(q.h.items) == 0 {
		var zero T
		return zero, false
	}
	return heap.Pop(&q.h).(T), true
}

// Peek returns the minimum element without removing it.
func (q *Queue[T]) Peek() (T, bool) {
	if len(q.h.items) == 0 {
		var zero T
		return zero, false
	}
	return q.h.items[0], true
}

// Fix restores heap order after the element at index changed priority.
func (q *Queue[T]) Fix(index int) {
	heap.Fix(&q.h, index)
}

// Reset empties the queue, keeping its storage.
func (q *Queue[T]) Reset() {
	clear(q.h.items)
	q.h.items = q.h.items[:0]
}

// inner adapts Queue to container/heap.
type inner[T any] struct {
	items   []T
	less    LessFunc[T]
	onIndex IndexFunc[T]
}

func (h inner[T]) Len() int           { return len(h.items) }
func (h inner[T]) Less(i, j int) bool { return h.less(h.items[i], h.items[j]) }

func (h inner[T]) Swap(i, j int) {
	h.items[i], h.items[j] = h.items[j], h.items[i]
	if h.onIndex != nil {
		h.onIndex(h.items[i], i)
		h.onIndex(h.items[j], j)
	}
}

func (h *inner[T]) Push(x any) {
	item := x.(T)
	if h.onIndex != nil {
		h.onIndex(item, len(h.items))
	}
	h.items = append(h.items, item)
}

func (h *inner[T]) Pop() any {
	old := h.items
	n := len(old)
	item := old[n-1]
	var zero T
	old[n-1] = zero // GC
	h.items = old[:n-1]
	if h.onIndex != nil {
		h.onIndex(item, -1)
	}
	return item
}
