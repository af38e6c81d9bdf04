package csp

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/zoobzio/clockz"
	"github.com/zoobzio/hookz"
	"github.com/zoobzio/metricz"
	"github.com/zoobzio/tracez"

	"github.com/BeAnMo/async-csp/internal/queue"
	"github.com/BeAnMo/async-csp/internal/ringbuffer"
)

// Metric keys for Channel observability.
const (
	MetricPutsTotal   = metricz.Key("channel.puts.total")
	MetricTakesTotal  = metricz.Key("channel.takes.total")
	MetricTailsTotal  = metricz.Key("channel.tails.total")
	MetricSlidesTotal = metricz.Key("channel.slides.total")
	MetricBufferLen   = metricz.Key("channel.buffer.length")
)

// Span names for the slide engine.
const (
	SpanSlide = tracez.Key("channel.slide")
	SpanFlush = tracez.Key("channel.flush")
)

// Span tags.
const (
	TagChannelID = tracez.Tag("channel.id")
	TagResultLen = tracez.Tag("channel.result_len")
)

// Lifecycle event keys, emitted through OnEvent in addition to Done.
const (
	EventPut    = hookz.Key("channel.put")
	EventTake   = hookz.Key("channel.take")
	EventClosed = hookz.Key("channel.closed")
	EventEnded  = hookz.Key("channel.ended")
)

// ChannelEvent is the payload delivered to hooks registered via OnEvent.
type ChannelEvent struct {
	ChannelID string
	State     State
	Timestamp time.Time
}

// transformedValue unifies a raw buffered value and a deferred put record
// into a single representation: a nil transform means the value is already
// resolved (identity, or one element of an expansion), and a non-nil
// transform means it still needs to run before delivery. From stores its
// values with the channel's transform, so they are transformed when taken.
type transformedValue[T any] struct {
	transform *Transform[T]
	value     T
}

func (tv transformedValue[T]) apply() []T {
	return tv.transform.apply(tv.value)
}

type putRecord[T any] struct {
	transformedValue[T]
	resolve func(accepted bool)
}

type takeRecord[T any] struct {
	resolve func(v T, ok bool)
}

// Channel is a FIFO coordination object mediating between producers
// (Put/Tail) and consumers (Take). Every Channel is owned by exactly one
// internal goroutine, its engine: every method that touches a channel's
// queues or state does so by handing a closure to that goroutine and
// waiting for a result, never by acquiring a lock directly. This makes the
// engine goroutine itself the channel's mutual-exclusion mechanism.
type Channel[T any] struct {
	id string

	logger  *slog.Logger
	clock   clockz.Clock
	metrics *metricz.Registry
	tracer  *tracez.Tracer
	hooks   *hookz.Hooks[ChannelEvent]

	cmdCh  chan func()
	doneCh chan struct{}

	buffered bool
	capacity int

	// Everything below is mutated only by the engine goroutine.
	state          State
	transform      *Transform[T]
	puts           queue.Deque[*putRecord[T]]
	tails          queue.Deque[*putRecord[T]]
	takes          queue.Deque[*takeRecord[T]]
	buf            *ringbuffer.Buffer[transformedValue[T]]
	pipeline       []*Channel[T]
	shouldCloseAll bool
	pipeCancel     func()
	consuming      bool
	flushing       bool
}

// Option configures a Channel at construction time.
type Option[T any] func(*Channel[T])

// WithTransform attaches a value transformation to every value flowing
// through the channel. See [Map], [Expand] and [ExpandAsync].
func WithTransform[T any](tf *Transform[T]) Option[T] {
	return func(ch *Channel[T]) { ch.transform = tf }
}

// WithLogger overrides the default logger (slog.Default()).
func WithLogger[T any](l *slog.Logger) Option[T] {
	return func(ch *Channel[T]) { ch.logger = l }
}

// WithClock overrides the default clock (clockz.RealClock), primarily for
// deterministic tests of timeout-driven behavior.
func WithClock[T any](c clockz.Clock) Option[T] {
	return func(ch *Channel[T]) { ch.clock = c }
}

func newChannel[T any](buffered bool, capacity int, opts ...Option[T]) *Channel[T] {
	ch := &Channel[T]{
		id:       uuid.New().String(),
		cmdCh:    make(chan func()),
		doneCh:   make(chan struct{}),
		state:    StateOpen,
		buffered: buffered,
		capacity: capacity,
		logger:   slog.Default(),
		clock:    clockz.RealClock,
	}

	if buffered {
		ch.buf = ringbuffer.New[transformedValue[T]](capacity)
	}

	for _, opt := range opts {
		opt(ch)
	}

	ch.metrics = metricz.New()
	ch.metrics.Counter(MetricPutsTotal)
	ch.metrics.Counter(MetricTakesTotal)
	ch.metrics.Counter(MetricTailsTotal)
	ch.metrics.Counter(MetricSlidesTotal)
	ch.metrics.Gauge(MetricBufferLen)
	ch.tracer = tracez.New()
	ch.hooks = hookz.New[ChannelEvent]()

	return ch
}

// start launches the engine goroutine. Constructors that need to seed state
// directly (From pushes straight into buf) must do so before calling this,
// since afterward buf/puts/tails/takes/state belong exclusively to the
// engine goroutine.
func (ch *Channel[T]) start() *Channel[T] {
	go ch.run()
	ch.logger.Debug("channel opened", "channel_id", ch.id, "buffered", ch.buffered, "capacity", ch.capacity)
	return ch
}

// New constructs an unbuffered channel: a put does not resolve until a
// matching take is registered.
func New[T any](opts ...Option[T]) *Channel[T] {
	return newChannel[T](false, 0, opts...).start()
}

// NewBuffered constructs a channel backed by a bounded ring buffer of the
// given capacity. Puts resolve as soon as there is room in the buffer,
// without requiring a waiting take.
func NewBuffered[T any](capacity int, opts ...Option[T]) *Channel[T] {
	return newChannel[T](true, capacity, opts...).start()
}

// From constructs a buffered channel pre-loaded with values, sized to fit
// them exactly, bypassing the slide engine entirely for the initial load.
// Unless keepOpen is true, the channel is closed immediately: once its
// values are taken, it ends.
func From[T any](values []T, keepOpen bool, opts ...Option[T]) *Channel[T] {
	ch := newChannel[T](true, len(values), opts...)
	for _, v := range values {
		ch.buf.Push(transformedValue[T]{transform: ch.transform, value: v})
	}
	if !keepOpen {
		ch.state = StateClosed
	}
	ch.start()
	return ch
}

// ID returns the channel's correlation id, used as a label in logs, traces
// and metrics.
func (ch *Channel[T]) ID() string { return ch.id }

// Metrics returns the channel's metrics registry.
func (ch *Channel[T]) Metrics() *metricz.Registry { return ch.metrics }

// Tracer returns the channel's tracer.
func (ch *Channel[T]) Tracer() *tracez.Tracer { return ch.tracer }

// OnEvent registers a handler invoked for lifecycle events in addition to
// Done; unlike Done, it never blocks the caller and fires for every event,
// not just termination.
func (ch *Channel[T]) OnEvent(key hookz.Key, handler func(context.Context, ChannelEvent) error) error {
	_, err := ch.hooks.Hook(key, handler)
	return err
}

func (ch *Channel[T]) emit(key hookz.Key) {
	_ = ch.hooks.Emit(context.Background(), key, ChannelEvent{
		ChannelID: ch.id,
		State:     ch.state,
		Timestamp: time.Now(),
	})
}

// run is the engine goroutine's body. It is the sole mutator of every field
// below the buffered line in Channel; nothing outside this goroutine ever
// touches puts, tails, takes, buf, state, pipeline or the flags.
func (ch *Channel[T]) run() {
	for f := range ch.cmdCh {
		f()
		if ch.state == StateEnded {
			return
		}
	}
}

// dispatch hands f to the engine goroutine and reports whether it was
// accepted. It returns false only when the channel has already reached
// StateEnded and its engine goroutine has exited — doneCh is closed
// strictly before that goroutine stops receiving from cmdCh, so this
// select can never land on the send case after the engine is gone.
func (ch *Channel[T]) dispatch(f func()) bool {
	select {
	case ch.cmdCh <- f:
		return true
	case <-ch.doneCh:
		return false
	}
}

func queryChannel[T, R any](ch *Channel[T], f func() R) (R, bool) {
	resultCh := make(chan R, 1)
	if !ch.dispatch(func() { resultCh <- f() }) {
		var zero R
		return zero, false
	}
	return <-resultCh, true
}

// Put delivers v to the channel, suspending the caller until it is either
// taken directly, placed in the buffer, or the channel turns out not to be
// OPEN. It returns false — the Go analogue of the DONE sentinel — if the
// channel was not OPEN when the put was processed.
func (ch *Channel[T]) Put(v T) bool {
	resultCh := make(chan bool, 1)
	rec := &putRecord[T]{
		transformedValue: transformedValue[T]{transform: ch.transform, value: v},
		resolve:          func(ok bool) { resultCh <- ok },
	}
	if !ch.dispatch(func() { ch.handlePut(rec) }) {
		return false
	}
	return <-resultCh
}

// Tail delivers v after the channel closes but before it ends, ahead of
// nothing but behind every put registered before Close. It returns false
// if the channel is not OPEN when processed — tails are rejected, not
// deferred, once closing has begun.
func (ch *Channel[T]) Tail(v T) bool {
	resultCh := make(chan bool, 1)
	rec := &putRecord[T]{
		transformedValue: transformedValue[T]{transform: ch.transform, value: v},
		resolve:          func(ok bool) { resultCh <- ok },
	}
	if !ch.dispatch(func() { ch.handleTail(rec) }) {
		return false
	}
	return <-resultCh
}

// Take removes and returns the next value, suspending the caller until one
// is available. ok is false once the channel has closed and fully drained:
// normally that is the moment it reaches StateEnded, but while a [Consume]
// loop is active the channel stays CLOSED until that loop exits.
func (ch *Channel[T]) Take() (T, bool) {
	resultCh := make(chan takeResult[T], 1)
	rec := &takeRecord[T]{
		resolve: func(v T, ok bool) { resultCh <- takeResult[T]{v, ok} },
	}
	if !ch.dispatch(func() { ch.handleTake(rec) }) {
		var zero T
		return zero, false
	}
	r := <-resultCh
	return r.value, r.ok
}

type takeResult[T any] struct {
	value T
	ok    bool
}

// Close moves the channel to StateClosed. Values already in flight (puts,
// buffered values, tails) still drain before the channel ends. If all is
// true, Close propagates through the pipeline: when this channel ends, its
// piped children are closed too. Close is fire-and-forget: it does not
// suspend the caller until the channel has fully drained.
func (ch *Channel[T]) Close(all bool) {
	ch.dispatch(func() { ch.handleClose(all) })
}

// Done returns a channel that is closed exactly once, the moment this
// channel reaches StateEnded. Every caller that receives from it observes
// the transition; there is no separate listener-registration step, because
// a closed Go channel already broadcasts to any number of receivers.
func (ch *Channel[T]) Done() <-chan struct{} { return ch.doneCh }

// State reports the channel's current lifecycle state.
func (ch *Channel[T]) State() State {
	r, ok := queryChannel(ch, func() State { return ch.state })
	if !ok {
		return StateEnded
	}
	return r
}

// Length reports the number of values currently queued: buffered values
// plus pending puts for a buffered channel, or just pending puts for an
// unbuffered one.
func (ch *Channel[T]) Length() int {
	r, ok := queryChannel(ch, func() int {
		n := ch.puts.Length()
		if ch.buffered {
			n += ch.buf.Length()
		}
		return n
	})
	if !ok {
		return 0
	}
	return r
}

// Size returns the channel's nominal buffer capacity, or 0 if unbuffered.
func (ch *Channel[T]) Size() int {
	if !ch.buffered {
		return 0
	}
	return ch.capacity
}

// Empty reports whether both the buffer and the pending puts are empty.
func (ch *Channel[T]) Empty() bool {
	r, ok := queryChannel(ch, func() bool {
		return ch.puts.Empty() && (!ch.buffered || ch.buf.Empty())
	})
	if !ok {
		return true
	}
	return r
}

func (ch *Channel[T]) handlePut(rec *putRecord[T]) {
	if ch.state != StateOpen {
		rec.resolve(false)
		return
	}
	ch.metrics.Counter(MetricPutsTotal).Inc()
	ch.emit(EventPut)
	ch.puts.Push(rec)
	ch.runSlide()
}

func (ch *Channel[T]) handleTail(rec *putRecord[T]) {
	if ch.state != StateOpen {
		rec.resolve(false)
		return
	}
	ch.metrics.Counter(MetricTailsTotal).Inc()
	ch.tails.Push(rec)
	ch.runSlide()
}

func (ch *Channel[T]) handleTake(rec *takeRecord[T]) {
	if ch.state == StateEnded {
		var zero T
		rec.resolve(zero, false)
		return
	}
	ch.metrics.Counter(MetricTakesTotal).Inc()
	ch.emit(EventTake)
	ch.takes.Push(rec)
	ch.runSlide()
}

func (ch *Channel[T]) handleClose(all bool) {
	if ch.state != StateOpen {
		return
	}
	ch.state = StateClosed
	if all {
		ch.shouldCloseAll = true
	}
	ch.logger.Debug("channel closed", "channel_id", ch.id, "close_all", all)
	ch.emit(EventClosed)
	ch.runSlide()
}

func (ch *Channel[T]) canSlide() bool {
	if ch.buffered {
		return (!ch.buf.Full() && !ch.puts.Empty()) || (!ch.takes.Empty() && !ch.buf.Empty())
	}
	return !ch.takes.Empty() && !ch.puts.Empty()
}

// runSlide is the matchmaker: it advances the channel as far as it can,
// then checks whether tails should splice in or the channel should flush.
func (ch *Channel[T]) runSlide() {
	_, span := ch.tracer.StartSpan(context.Background(), SpanSlide)
	span.SetTag(TagChannelID, ch.id)
	defer span.Finish()

	for ch.canSlide() {
		ch.metrics.Counter(MetricSlidesTotal).Inc()
		if ch.buffered {
			ch.bufferedSlideStep()
		} else {
			ch.unbufferedSlideStep()
		}
	}
	if ch.buffered {
		ch.metrics.Gauge(MetricBufferLen).Set(float64(ch.buf.Length()))
	}
	ch.postSlide()
}

func (ch *Channel[T]) unbufferedSlideStep() {
	rec, _ := ch.puts.Shift()
	results := rec.apply()

	switch len(results) {
	case 0:
		rec.resolve(true)
	case 1:
		rec.resolve(true)
		t, _ := ch.takes.Shift()
		t.resolve(results[0], true)
	default:
		ch.puts.UnshiftAll(expandIntoPuts(results, rec.resolve))
	}
}

func (ch *Channel[T]) bufferedSlideStep() {
	for !ch.buf.Empty() && !ch.takes.Empty() {
		tv, _ := ch.buf.Shift()
		results := tv.apply()

		switch len(results) {
		case 0:
			// dropped: nothing to deliver, the originating put already resolved.
		case 1:
			t, _ := ch.takes.Shift()
			t.resolve(results[0], true)
		default:
			for i := len(results) - 1; i >= 0; i-- {
				ch.buf.Unshift(transformedValue[T]{value: results[i]})
			}
		}
	}

	for !ch.puts.Empty() && !ch.buf.Full() {
		rec, _ := ch.puts.Shift()
		ch.buf.Push(rec.transformedValue)
		rec.resolve(true)
	}
}

func expandIntoPuts[T any](values []T, resolveAll func(bool)) []*putRecord[T] {
	remaining := len(values)
	subs := make([]*putRecord[T], len(values))
	for i, v := range values {
		subs[i] = &putRecord[T]{
			transformedValue: transformedValue[T]{value: v},
			resolve: func(bool) {
				remaining--
				if remaining == 0 {
					resolveAll(true)
				}
			},
		}
	}
	return subs
}

func (ch *Channel[T]) bufEmpty() bool {
	return !ch.buffered || ch.buf.Empty()
}

func (ch *Channel[T]) postSlide() {
	if ch.state == StateClosed && !ch.tails.Empty() && ch.bufEmpty() && ch.puts.Empty() {
		var spliced []*putRecord[T]
		ch.tails.DrainInto(func(r *putRecord[T]) { spliced = append(spliced, r) })
		ch.puts.UnshiftAll(spliced)
		ch.runSlide()
		return
	}

	if (ch.state == StateClosed || ch.state == StateEnded) &&
		ch.bufEmpty() && ch.puts.Empty() && ch.tails.Empty() {
		ch.runFlush()
	}
}

func (ch *Channel[T]) runFlush() {
	if ch.flushing {
		return
	}
	_, span := ch.tracer.StartSpan(context.Background(), SpanFlush)
	span.SetTag(TagChannelID, ch.id)
	defer span.Finish()

	ch.flushing = true
	ch.takes.DrainInto(func(t *takeRecord[T]) {
		var zero T
		t.resolve(zero, false)
	})
	ch.flushing = false

	if !ch.consuming {
		ch.runFinish()
	}
}

func (ch *Channel[T]) runFinish() {
	ch.state = StateEnded
	ch.logger.Debug("channel ended", "channel_id", ch.id)
	ch.emit(EventEnded)
	close(ch.doneCh)

	if ch.shouldCloseAll {
		for _, child := range ch.pipeline {
			child.Close(true)
		}
	}
	if ch.pipeCancel != nil {
		ch.pipeCancel()
		ch.pipeCancel = nil
	}
}
