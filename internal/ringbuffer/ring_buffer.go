// Package ringbuffer holds the most recent blocks a reorg check still needs to look at.
package ringbuffer

import "iter"

// RingBuffer is a fixed capacity FIFO queue that can also be trimmed from its newest end.
// It is not safe for concurrent use.
type RingBuffer[T any] struct {
	buf  []T
	head int
	size int
}

// New creates a RingBuffer with the given capacity.
// A capacity of 1 is used if the given value is zero.
func New[T any](capacity uint) *RingBuffer[T] {
	return &RingBuffer[T]{
		buf: make([]T, max(1, capacity)),
	}
}

func (r *RingBuffer[T]) Size() int {
	return r.size
}

func (r *RingBuffer[T]) IsFull() bool {
	return r.size == len(r.buf)
}

// at maps a position counted from the oldest item to an index in buf.
func (r *RingBuffer[T]) at(pos int) int {
	return (r.head + pos) % len(r.buf)
}

// Push appends item as the newest entry. When the buffer is full the oldest entry is evicted
// to make room and returned with true.
func (r *RingBuffer[T]) Push(item T) (T, bool) {
	var evicted T
	full := r.IsFull()
	if full {
		evicted, _ = r.Pop()
	}

	r.buf[r.at(r.size)] = item
	r.size++
	return evicted, full
}

// Pop removes and returns the oldest item. If empty, it returns (zero[T], false).
func (r *RingBuffer[T]) Pop() (T, bool) {
	var zero T
	if r.size == 0 {
		return zero, false
	}

	item := r.buf[r.head]
	r.buf[r.head] = zero
	r.head = r.at(1)
	r.size--
	return item, true
}

// Back returns the newest item without removing it. If empty, it returns (zero[T], false).
func (r *RingBuffer[T]) Back() (T, bool) {
	var zero T
	if r.size == 0 {
		return zero, false
	}
	return r.buf[r.at(r.size-1)], true
}

// Truncate keeps the n oldest items and discards the newer ones.
func (r *RingBuffer[T]) Truncate(n int) {
	var zero T
	for r.size > max(n, 0) {
		r.size--
		r.buf[r.at(r.size)] = zero
	}
}

// IndexFunc returns the position, counted from the oldest item, of the newest item matching
// match, or -1.
func (r *RingBuffer[T]) IndexFunc(match func(T) bool) int {
	for pos := r.size - 1; pos >= 0; pos-- {
		if match(r.buf[r.at(pos)]) {
			return pos
		}
	}
	return -1
}

// All yields the buffered items from oldest to newest.
func (r *RingBuffer[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		for pos := range r.size {
			if !yield(r.buf[r.at(pos)]) {
				return
			}
		}
	}
}
