package csp_test

import (
	"testing"
	"time"

	csp "github.com/BeAnMo/async-csp"
	"github.com/BeAnMo/async-csp/internal/th"
)

func TestProduceS1(t *testing.T) {
	ch := csp.New[int]()
	cancel := csp.Produce(ch, func() int { return 1 })
	defer cancel()

	var got []int
	for i := 0; i < 3; i++ {
		v, ok := ch.Take()
		th.ExpectValue(t, ok, true)
		got = append(got, v)
	}
	th.ExpectSlice(t, got, []int{1, 1, 1})
}

func takeWithTimeout[T any](ch *csp.Channel[T], d time.Duration) (v T, ok, arrived bool) {
	type res struct {
		v  T
		ok bool
	}
	c := make(chan res, 1)
	go func() {
		v, ok := ch.Take()
		c <- res{v, ok}
	}()
	select {
	case r := <-c:
		return r.v, r.ok, true
	case <-time.After(d):
		var zero T
		return zero, false, false
	}
}

func TestProduceCancelStops(t *testing.T) {
	ch := csp.NewBuffered[int](2)
	cancel := csp.Produce(ch, func() int { return 7 })

	v, ok, arrived := takeWithTimeout(ch, 200*time.Millisecond)
	th.ExpectValue(t, arrived, true)
	th.ExpectValue(t, ok, true)
	th.ExpectValue(t, v, 7)

	cancel()

	// Drain whatever was already in flight at the moment cancellation took
	// effect, then confirm production has genuinely stopped.
	for {
		_, ok, arrived := takeWithTimeout(ch, 30*time.Millisecond)
		if !arrived {
			break
		}
		if !ok {
			t.Fatal("channel ended unexpectedly")
		}
	}

	if _, _, arrived := takeWithTimeout(ch, 80*time.Millisecond); arrived {
		t.Errorf("expected production to have stopped after cancel")
	}
}

func TestConsumeDrainsInOrder(t *testing.T) {
	ch := csp.NewBuffered[int](4)
	ch.Put(1)
	ch.Put(2)
	ch.Put(3)
	ch.Close(false)

	var got []int
	doneCh := make(chan struct{})
	csp.Consume(ch, func(v int) {
		got = append(got, v)
	})
	go func() {
		<-ch.Done()
		close(doneCh)
	}()

	select {
	case <-doneCh:
	case <-time.After(time.Second):
		t.Fatal("consume did not finish")
	}
	th.ExpectSlice(t, got, []int{1, 2, 3})
}

func TestConsumeEndsChannelAfterDraining(t *testing.T) {
	ch := csp.NewBuffered[int](2)
	ch.Put(1)
	ch.Close(false)

	csp.Consume(ch, func(int) {})

	th.ExpectClosedChan(t, ch.Done(), time.Second)
}
