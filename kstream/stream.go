package kstream

import (
	"context"
	"errors"
)

// ErrEnd is returned by Next once a stream is exhausted. It is the only
// non-failure error a Stream returns.
var ErrEnd = errors.New("kstream: end of stream")

// Stream is a pull-based sequence of values. Next blocks until the next
// value is available, the stream ends (ErrEnd) or ctx is done.
//
// A Stream is consumed by a single reader. Use Tee to hand the same sequence
// to several readers.
type Stream interface {
	Next(ctx context.Context) (any, error)
}

// StreamFunc adapts a function to the Stream interface.
type StreamFunc func(ctx context.Context) (any, error)

func (f StreamFunc) Next(ctx context.Context) (any, error) {
	return f(ctx)
}

type sliceStream struct {
	values []any
	pos    int
}

// FromSlice returns a stream emitting each of values once, in order.
func FromSlice(values ...any) Stream {
	return &sliceStream{values: values}
}

func (s *sliceStream) Next(ctx context.Context) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.pos >= len(s.values) {
		return nil, ErrEnd
	}
	v := s.values[s.pos]
	s.pos++
	return v, nil
}

// FromChan returns a stream reading from ch until it is closed.
func FromChan(ch <-chan any) Stream {
	return StreamFunc(func(ctx context.Context) (any, error) {
		select {
		case v, ok := <-ch:
			if !ok {
				return nil, ErrEnd
			}
			return v, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	})
}

// Empty returns a stream that ends immediately.
func Empty() Stream {
	return StreamFunc(func(context.Context) (any, error) {
		return nil, ErrEnd
	})
}

// Each calls fn for every value of s. StreamNone values are skipped and a
// StreamEnd value ends the iteration like ErrEnd does. Each returns nil once
// the stream is exhausted.
func Each(ctx context.Context, s Stream, fn func(v any) error) error {
	for {
		v, err := s.Next(ctx)
		if errors.Is(err, ErrEnd) {
			return nil
		}
		if err != nil {
			return err
		}
		switch v {
		case StreamEnd:
			return nil
		case StreamNone:
			continue
		}
		if err := fn(v); err != nil {
			return err
		}
	}
}

// Collect drains s into a slice.
func Collect(ctx context.Context, s Stream) ([]any, error) {
	var out []any
	err := Each(ctx, s, func(v any) error {
		out = append(out, v)
		return nil
	})
	return out, err
}

// Map returns a stream applying fn to every value of s.
func Map(s Stream, fn func(v any) (any, error)) Stream {
	return StreamFunc(func(ctx context.Context) (any, error) {
		v, err := s.Next(ctx)
		if err != nil {
			return nil, err
		}
		return fn(v)
	})
}
