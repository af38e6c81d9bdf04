// Package csp provides a first-class channel type for communicating
// sequential processes: a coordination object that lets independently
// scheduled producers and consumers exchange values, with optional bounded
// buffering, per-value transformation (including one-to-many expansion),
// fan-out pipelines, fan-in merging, and lifecycle control.
//
// # Channels
//
// A [Channel] is constructed with [New] (unbuffered) or [NewBuffered]
// (bounded), optionally configured with a [Transform] via [WithTransform].
// Every [Channel] is backed by a single goroutine — its engine — that is
// the sole owner of its internal queues and state machine. All of
// [Channel.Put], [Channel.Take], [Channel.Tail] and [Channel.Close]
// communicate with that goroutine over an internal command channel;
// [Channel.Done] returns a channel the engine closes when it ends. There is
// no exported lock, because there is exactly one
// goroutine ever allowed to mutate a channel's state. This is the
// same role the "sliding" flag plays in a cooperatively-scheduled
// implementation, translated to Go by giving each channel its own
// single-threaded owner instead of a flag checked under a shared lock.
//
// # Lifecycle
//
// A channel starts OPEN. [Channel.Close] moves it to CLOSED and lets it
// drain whatever was already in flight. Once CLOSED and fully drained
// (no pending puts, buffered values, or tails) it transitions to ENDED:
// every outstanding [Channel.Take] resolves with ok == false, and the
// channel returned by [Channel.Done] is closed, exactly once. There is no
// way back from ENDED.
//
// # Transforms and expansion
//
// A [Transform] maps, filters, or expands values as they flow from Put to
// Take. [Map] drops a value when its function's second return is false.
// [Expand] lets a single input produce zero, one, or many output values
// via a push callback, synchronously. [ExpandAsync] is the same but
// completion is signaled explicitly via a done callback, so the push calls
// can happen from another goroutine. Expanded values are inserted
// contiguously at the position of their originating input, preserving
// FIFO order.
//
// # Pipelines
//
// [Pipe] fans a channel's values out to one or more children; [Unpipe]
// stops it. [Pipeline] chains a sequence of transforms into linked
// channels. [Merge] fans multiple channels into one.
package csp
