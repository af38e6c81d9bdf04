package csp

import "sync"

// Transform packages the per-value transformation applied as a value moves
// from a Put to a Take. A nil *Transform is the identity transform. Build
// one with [Map], [Expand] or [ExpandAsync].
type Transform[T any] struct {
	mapFn   func(T) (T, bool)
	expand  func(T, func(T))
	asyncFn func(T, func(T), func())
}

// Map wraps a synchronous one-to-one (or one-to-zero) function. When keep
// is false the value is dropped: no take is resolved for it and the
// originating put still resolves normally. This is the arity-1 case of the
// transform-expansion protocol.
func Map[T any](f func(T) (v T, keep bool)) *Transform[T] {
	return &Transform[T]{mapFn: f}
}

// Expand wraps a function that may push zero, one, or many values for a
// single input, synchronously. This is the arity-2 case: the pushed values
// are collected and delivered contiguously at the position of the input
// that produced them, preserving FIFO order across the rest of the
// channel.
func Expand[T any](f func(v T, push func(T))) *Transform[T] {
	return &Transform[T]{expand: f}
}

// ExpandAsync is like [Expand], but resolution is signaled explicitly by
// calling done, rather than by f returning. This is the arity-3 case: push
// may be called from another goroutine any number of times up until done
// is called. Calling done more than once is a no-op.
func ExpandAsync[T any](f func(v T, push func(T), done func())) *Transform[T] {
	return &Transform[T]{asyncFn: f}
}

// apply runs the transform's wrapped thunk against v and returns the
// collected sequence of resulting values: nil/empty means "drop", one
// element is the common case, and more than one is an expansion. Called
// synchronously from the engine goroutine — this call *is* the critical
// section the slide engine serializes on.
func (tf *Transform[T]) apply(v T) []T {
	if tf == nil {
		return []T{v}
	}

	switch {
	case tf.mapFn != nil:
		r, keep := tf.mapFn(v)
		if !keep {
			return nil
		}
		return []T{r}

	case tf.expand != nil:
		var out []T
		tf.expand(v, func(x T) { out = append(out, x) })
		return out

	case tf.asyncFn != nil:
		var out []T
		done := make(chan struct{})
		var once sync.Once
		signalDone := func() { once.Do(func() { close(done) }) }
		tf.asyncFn(v, func(x T) { out = append(out, x) }, signalDone)
		<-done
		return out

	default:
		// A Transform with none of its fields set behaves as identity.
		return []T{v}
	}
}
