package csp

// Pipe fans parent's values out to one or more children, starting a
// forwarding loop on parent if one is not already running, and returns the
// last child. A value is put onto every current child before the next
// value is taken from parent, so no child ever observes value N+1 before
// acknowledging value N.
func Pipe[T any](parent *Channel[T], children ...*Channel[T]) *Channel[T] {
	if len(children) == 0 {
		return parent
	}

	var last *Channel[T]
	parent.dispatch(func() {
		parent.pipeline = append(parent.pipeline, children...)
		last = children[len(children)-1]

		if parent.pipeCancel == nil {
			stopCh := make(chan struct{})
			parent.pipeCancel = func() { close(stopCh) }
			go runForward(parent, stopCh)
		}
	})
	return last
}

// Unpipe removes children from parent's pipeline, and stops the forwarding
// loop once the pipeline is empty.
func Unpipe[T any](parent *Channel[T], children ...*Channel[T]) *Channel[T] {
	remove := make(map[*Channel[T]]bool, len(children))
	for _, c := range children {
		remove[c] = true
	}

	parent.dispatch(func() {
		kept := parent.pipeline[:0]
		for _, c := range parent.pipeline {
			if !remove[c] {
				kept = append(kept, c)
			}
		}
		parent.pipeline = kept

		if len(parent.pipeline) == 0 && parent.pipeCancel != nil {
			parent.pipeCancel()
			parent.pipeCancel = nil
		}
	})
	return parent
}

type pipelineSnapshot[T any] struct {
	children []*Channel[T]
	closeAll bool
}

func pipelineState[T any](parent *Channel[T]) (pipelineSnapshot[T], bool) {
	return queryChannel(parent, func() pipelineSnapshot[T] {
		kids := make([]*Channel[T], len(parent.pipeline))
		copy(kids, parent.pipeline)
		return pipelineSnapshot[T]{children: kids, closeAll: parent.shouldCloseAll}
	})
}

func runForward[T any](parent *Channel[T], stopCh <-chan struct{}) {
	for {
		select {
		case <-stopCh:
			return
		default:
		}

		v, ok := parent.Take()
		if !ok {
			snap, present := pipelineState(parent)
			if present && snap.closeAll {
				for _, c := range snap.children {
					c.Close(true)
				}
			}
			return
		}

		snap, present := pipelineState(parent)
		if !present {
			return
		}
		for _, c := range snap.children {
			c.Put(v)
		}
	}
}

// Pipeline builds one unbuffered channel per transform, wires them
// head-to-tail with Pipe, and returns the head and tail. With no
// transforms it returns a single channel as both head and tail.
func Pipeline[T any](transforms ...*Transform[T]) (head, tail *Channel[T]) {
	if len(transforms) == 0 {
		ch := New[T]()
		return ch, ch
	}

	stages := make([]*Channel[T], len(transforms))
	for i, tf := range transforms {
		stages[i] = New[T](WithTransform(tf))
	}
	for i := 0; i < len(stages)-1; i++ {
		Pipe(stages[i], stages[i+1])
	}
	return stages[0], stages[len(stages)-1]
}

// Merge creates a new unbuffered channel and pipes every parent into it.
func Merge[T any](parents ...*Channel[T]) *Channel[T] {
	child := New[T]()
	for _, p := range parents {
		Pipe(p, child)
	}
	return child
}

// MapChan creates a new unbuffered channel fed by a detached loop that
// takes from ch, applies mapper, and puts the result; it closes the new
// channel once ch ends. Named MapChan, not Map, because Map already names
// the arity-1 Transform constructor.
func MapChan[T any](ch *Channel[T], mapper func(T) T) *Channel[T] {
	out := New[T]()
	go func() {
		for {
			v, ok := ch.Take()
			if !ok {
				out.Close(false)
				return
			}
			out.Put(mapper(v))
		}
	}()
	return out
}

// ToSlice takes from ch until it ends, returning every value collected in
// order.
func ToSlice[T any](ch *Channel[T]) []T {
	var out []T
	for {
		v, ok := ch.Take()
		if !ok {
			return out
		}
		out = append(out, v)
	}
}

// Pipe is the method form of the package-level Pipe.
func (ch *Channel[T]) Pipe(children ...*Channel[T]) *Channel[T] { return Pipe(ch, children...) }

// Unpipe is the method form of the package-level Unpipe.
func (ch *Channel[T]) Unpipe(children ...*Channel[T]) *Channel[T] { return Unpipe(ch, children...) }

// ToSlice is the method form of the package-level ToSlice.
func (ch *Channel[T]) ToSlice() []T { return ToSlice(ch) }

// Selected is the result of Select2: exactly one of A or B is populated,
// according to which channel produced a value first.
type Selected[A, B any] struct {
	FromA bool
	FromB bool
	A     A
	B     B
	Ok    bool
}

// Select2 takes from two channels of possibly different element types
// concurrently, returning whichever produces a value first. It is the
// building block a two-way merge reduces to; Merge itself only needs the
// same-type case, which Pipe's sequential fan-out already covers, but
// Select2 is exposed because heterogeneous fan-in falls directly out of it.
func Select2[A, B any](a *Channel[A], b *Channel[B]) Selected[A, B] {
	type resA struct {
		v  A
		ok bool
	}
	type resB struct {
		v  B
		ok bool
	}
	chA := make(chan resA, 1)
	chB := make(chan resB, 1)

	go func() { v, ok := a.Take(); chA <- resA{v, ok} }()
	go func() { v, ok := b.Take(); chB <- resB{v, ok} }()

	select {
	case r := <-chA:
		return Selected[A, B]{FromA: true, A: r.v, Ok: r.ok}
	case r := <-chB:
		return Selected[A, B]{FromB: true, B: r.v, Ok: r.ok}
	}
}
