package kstream

import "context"

// Deferred is a single result that becomes available later.
type Deferred interface {
	Await(ctx context.Context) (any, error)
}

// Future is a Deferred computed by a goroutine.
type Future struct {
	done chan struct{}
	v    any
	err  error
}

// Go starts fn in a new goroutine and returns its Future.
func Go(ctx context.Context, fn func(ctx context.Context) (any, error)) *Future {
	f := &Future{done: make(chan struct{})}
	go func() {
		defer close(f.done)
		f.v, f.err = fn(ctx)
	}()
	return f
}

// Resolved returns a Future that already holds v.
func Resolved(v any) *Future {
	f := &Future{done: make(chan struct{}), v: v}
	close(f.done)
	return f
}

func (f *Future) Await(ctx context.Context) (any, error) {
	select {
	case <-f.done:
		return f.v, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
