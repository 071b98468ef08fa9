package container

import (
	"context"

	"github.com/km-arc/go-async-ioc/framework/loop"
)

// Await runs start on lp and blocks until it calls done or ctx ends. It is the
// bridge for goroutines outside the loop, such as HTTP handlers; calling it
// from a task of lp itself deadlocks.
//
//	greeter, err := container.Await(ctx, lp, func(done func(*Greeter, error)) {
//	    container.Lookup(m, done)
//	})
func Await[T any](ctx context.Context, lp loop.Loop, start func(done func(T, error))) (T, error) {
	type result struct {
		v   T
		err error
	}
	ch := make(chan result, 1)

	lp.Post(func() {
		start(func(v T, err error) {
			select {
			case ch <- result{v: v, err: err}:
			default:
			}
		})
	})

	select {
	case r := <-ch:
		return r.v, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
