// Package queue implements the unbounded, ordered-sequence container that
// spec.md assumes as an external primitive for a channel's puts, takes and
// tails sequences: Push, Unshift, Shift, Length, Empty.
//
// It shares its growth strategy with internal/ringbuffer.Buffer (the
// bounded sibling primitive) but carries no notion of nominal capacity —
// it always grows to accommodate whatever is pushed.
package queue

const minCap = 16

// Deque is an unbounded double-ended queue.
type Deque[T any] struct {
	data         []T
	offset, size int
}

// Length returns the number of elements currently stored.
func (q *Deque[T]) Length() int {
	return q.size
}

// Empty reports whether the deque holds no elements.
func (q *Deque[T]) Empty() bool {
	return q.size == 0
}

// Push appends v at the back of the deque.
func (q *Deque[T]) Push(v T) {
	q.grow(1)
	pos := (q.offset + q.size) % len(q.data)
	q.data[pos] = v
	q.size++
}

// Unshift prepends v at the front of the deque.
func (q *Deque[T]) Unshift(v T) {
	q.grow(1)
	q.offset = (q.offset - 1 + len(q.data)) % len(q.data)
	q.data[q.offset] = v
	q.size++
}

// Shift removes and returns the element at the front of the deque.
func (q *Deque[T]) Shift() (T, bool) {
	if q.size == 0 {
		var zero T
		return zero, false
	}

	v := q.data[q.offset]
	var zero T
	q.data[q.offset] = zero
	q.offset = (q.offset + 1) % len(q.data)
	q.size--
	return v, true
}

// Peek returns the front element without removing it.
func (q *Deque[T]) Peek() (T, bool) {
	if q.size == 0 {
		var zero T
		return zero, false
	}
	return q.data[q.offset], true
}

// DrainInto removes every element from the front of the deque, in order,
// calling f on each. Used by flush to resolve every pending take, and by
// close-time draining of tails onto the front of puts.
func (q *Deque[T]) DrainInto(f func(T)) {
	for {
		v, ok := q.Shift()
		if !ok {
			return
		}
		f(v)
	}
}

// UnshiftAll prepends items onto the front of the deque, preserving their
// relative order (items[0] ends up closest to the front).
func (q *Deque[T]) UnshiftAll(items []T) {
	for i := len(items) - 1; i >= 0; i-- {
		q.Unshift(items[i])
	}
}

func (q *Deque[T]) grow(n int) {
	targetSize := q.size + n
	targetCap := len(q.data)

	if targetCap >= targetSize {
		return
	}

	if targetCap < minCap {
		targetCap = minCap
	}
	for targetCap < targetSize {
		targetCap <<= 1
	}

	newData := make([]T, targetCap)
	end := q.offset + q.size
	if end <= len(q.data) {
		copy(newData, q.data[q.offset:end])
	} else {
		copied := copy(newData, q.data[q.offset:])
		copy(newData[copied:], q.data[:q.size-copied])
	}
	q.data = newData
	q.offset = 0
}
