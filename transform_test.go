package csp_test

import (
	"testing"

	csp "github.com/BeAnMo/async-csp"
	"github.com/BeAnMo/async-csp/internal/th"
)

func TestMapTransformS2(t *testing.T) {
	ch := csp.New[int](csp.WithTransform(csp.Map(func(v int) (int, bool) {
		return v * 2, true
	})))

	go func() {
		ch.Put(1)
		ch.Put(2)
	}()

	v1, _ := ch.Take()
	v2, _ := ch.Take()
	th.ExpectSlice(t, []int{v1, v2}, []int{2, 4})
}

func TestMapTransformDropsValue(t *testing.T) {
	ch := csp.NewBuffered[int](4, csp.WithTransform(csp.Map(func(v int) (int, bool) {
		if v%2 == 0 {
			return 0, false
		}
		return v, true
	})))

	ch.Put(1)
	ch.Put(2)
	ch.Put(3)
	ch.Close(false)

	th.ExpectSlice(t, ch.ToSlice(), []int{1, 3})
}

func TestExpandTransformS3(t *testing.T) {
	ch := csp.From([]int{1, 2}, false, csp.WithTransform(csp.Expand(func(v int, push func(int)) {
		push(v)
		push(v)
	})))

	th.ExpectSlice(t, ch.ToSlice(), []int{1, 1, 2, 2})
}

func TestExpandPreservesPositionP8(t *testing.T) {
	ch := csp.NewBuffered[int](8, csp.WithTransform(csp.Expand(func(v int, push func(int)) {
		if v == 2 {
			push(v)
			push(v)
			return
		}
		push(v)
	})))

	ch.Put(1)
	ch.Put(2)
	ch.Put(3)
	ch.Close(false)

	th.ExpectSlice(t, ch.ToSlice(), []int{1, 2, 2, 3})
}

func TestExpandAsyncTransform(t *testing.T) {
	ch := csp.NewBuffered[int](4, csp.WithTransform(csp.ExpandAsync(func(v int, push func(int), done func()) {
		go func() {
			push(v)
			push(v * 10)
			done()
		}()
	})))

	ch.Put(1)
	ch.Close(false)

	th.ExpectSlice(t, ch.ToSlice(), []int{1, 10})
}
