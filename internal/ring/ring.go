// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package ring provides a fixed-capacity FIFO ring buffer.
package ring

// Buffer is a fixed-capacity FIFO. Pushing into a full buffer evicts the
// oldest element. The capacity never changes after construction.
type Buffer[T any] struct {
	data []T
	head int // index of the oldest element
	n    int
}

// New creates a Buffer holding at most capacity elements.
// A capacity below 1 is raised to 1.
func New[T any](capacity int) *Buffer[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Buffer[T]{data: make([]T, capacity)}
}

// Push appends v. If the buffer was full, the evicted oldest value is
// returned with ok=true.
func (b *Buffer[T]) Push(v T) (evicted T, ok bool) {
	c := len(b.data)
	if b.n < c {
		b.data[(b.head+b.n)%c] = v
		b.n++
		return evicted, false
	}
	evicted = b.data[b.head]
	b.data[b.head] = v
	b.head = (b.head + 1) % c
	return evicted, true
}

// Len returns the number of stored elements.
func (b *Buffer[T]) Len() int { return b.n }

// Cap returns the fixed capacity.
func (b *Buffer[T]) Cap() int { return len(b.data) }

// Full reports whether the next Push will evict.
func (b *Buffer[T]) Full() bool { return b.n == len(b.data) }

// At returns the i-th element, 0 being the oldest.
func (b *Buffer[T]) At(i int) T {
	if i < 0 || i >= b.n {
		panic("ring: index out of range")
	}
	return b.data[(b.head+i)%len(b.data)]
}

// Do calls fn for every element from oldest to newest.
func (b *Buffer[T]) Do(fn func(T)) {
	for i := 0; i < b.n; i++ {
		fn(b.data[(b.head+i)%len(b.data)])
	}
}

// Slice copies the contents in insertion order.
func (b *Buffer[T]) Slice() []T {
	out := make([]T, 0, b.n)
	b.Do(func(v T) { out = append(out, v) })
	return out
}

// Reset drops all elements.
func (b *Buffer[T]) Reset() {
	var zero T
	for i := range b.data {
		b.data[i] = zero
	}
	b.head = 0
	b.n = 0
}
