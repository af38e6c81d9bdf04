package csp

import "log/slog"

// CancelFunc stops a detached loop started by Produce, or a forwarding
// loop started by Pipe, on its next iteration.
type CancelFunc func()

// Produce starts a detached goroutine that repeatedly calls producer and
// puts its result onto ch, stopping when a Put resolves false (the channel
// is no longer OPEN) or when the returned CancelFunc is invoked. A panic
// from producer is recovered and logged on its own goroutine rather than
// propagated to the loop or swallowed.
func Produce[T any](ch *Channel[T], producer func() T) CancelFunc {
	cancelCh := make(chan struct{})
	var cancelled bool
	cancel := func() {
		if !cancelled {
			cancelled = true
			close(cancelCh)
		}
	}

	go func() {
		for {
			select {
			case <-cancelCh:
				return
			default:
			}

			v, ok := safeCall(ch.logger, producer)
			if !ok {
				continue
			}

			resultCh := make(chan bool, 1)
			rec := &putRecord[T]{
				transformedValue: transformedValue[T]{transform: ch.transform, value: v},
				resolve:          func(ok bool) { resultCh <- ok },
			}
			if !ch.dispatch(func() { ch.handlePut(rec) }) {
				return
			}

			select {
			case ok := <-resultCh:
				if !ok {
					return
				}
			case <-cancelCh:
				return
			}
		}
	}()

	return cancel
}

// Consume starts a detached goroutine that takes from ch and calls
// consumer on every value until the channel ends, overlapping the next
// Take with the running consumer call so the pipeline never stalls waiting
// for the consumer to return before requesting the next value. While a
// Consume loop is active, the channel's internal flush will not transition
// it to StateEnded on its own; Consume finishes that transition itself once
// its own loop exits.
func Consume[T any](ch *Channel[T], consumer func(T)) {
	ch.dispatch(func() { ch.consuming = true })

	go func() {
		v, ok := ch.Take()
		for ok {
			next := make(chan takeResult[T], 1)
			go func() {
				v, ok := ch.Take()
				next <- takeResult[T]{v, ok}
			}()

			safeCallVoid(ch.logger, func() { consumer(v) })

			r := <-next
			v, ok = r.value, r.ok
		}

		ch.dispatch(func() {
			ch.consuming = false
			if ch.flushing {
				return
			}
			if ch.bufEmpty() && ch.puts.Empty() && ch.tails.Empty() &&
				(ch.state == StateClosed || ch.state == StateEnded) {
				ch.runFinish()
			}
		})
	}()
}

func safeCall[T any](logger *slog.Logger, f func() T) (v T, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("recovered panic", "panic", r)
			ok = false
		}
	}()
	v = f()
	return v, true
}

func safeCallVoid(logger *slog.Logger, f func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("recovered panic", "panic", r)
		}
	}()
	f()
}
