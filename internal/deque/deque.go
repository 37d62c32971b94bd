// Package deque provides a double-ended queue backed by a ring buffer.
package deque

import (
	"iter"
	"slices"
)

// Deque is a queue with a front and a back.
// The zero value is an empty deque.
type Deque[T any] struct {
	buf   []T
	start int
	n     int
}

// Len returns the number of elements in the deque.
func (d *Deque[T]) Len() int {
	if d == nil {
		return 0
	}
	return d.n
}

func (d *Deque[T]) slot(i int) int {
	return (d.start + i) % len(d.buf)
}

// PushBack appends elems to the back, in order.
func (d *Deque[T]) PushBack(elems ...T) {
	d.grow(len(elems))
	for _, x := range elems {
		d.buf[d.slot(d.n)] = x
		d.n++
	}
}

// PushFront inserts elems at the front. Popping len(elems) elements from the
// front afterwards yields elems in the order given.
func (d *Deque[T]) PushFront(elems ...T) {
	d.grow(len(elems))
	for i := len(elems) - 1; i >= 0; i-- {
		d.start = (d.start - 1 + len(d.buf)) % len(d.buf)
		d.buf[d.start] = elems[i]
		d.n++
	}
}

// Front returns the element at the front without removing it.
func (d *Deque[T]) Front() (T, bool) {
	if d.Len() == 0 {
		var zero T
		return zero, false
	}
	return d.buf[d.start], true
}

// PopFront removes and returns the element at the front.
// ok is false if the deque is empty.
func (d *Deque[T]) PopFront() (_ T, ok bool) {
	var zero T
	if d.Len() == 0 {
		return zero, false
	}
	x := d.buf[d.start]
	d.buf[d.start] = zero
	d.start = d.slot(1)
	d.n--
	if d.n == 0 {
		d.start = 0
	}
	return x, true
}

// Values iterates front to back.
func (d *Deque[T]) Values() iter.Seq[T] {
	return func(yield func(T) bool) {
		for i := range d.Len() {
			if !yield(d.buf[d.slot(i)]) {
				return
			}
		}
	}
}

// grow makes room for n more elements, compacting the ring to start at 0.
func (d *Deque[T]) grow(n int) {
	if d.n+n <= len(d.buf) {
		return
	}
	next := make([]T, 0, max(2*len(d.buf), d.n+n, 8))
	next = slices.AppendSeq(next, d.Values())
	d.buf = next[:cap(next)]
	d.start = 0
}
