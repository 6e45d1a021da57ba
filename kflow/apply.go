package kflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/birdayz/tributary/kstate"
	"github.com/birdayz/tributary/kstream"
)

// State creates a source node that calls fn once per tick with a persistent
// state built from fields. Writes made on one tick are visible on every later
// tick, including ticks of later runs of the same node.
func State(fn StateFunc, kw Kwargs, fields kstate.Fields) *Node {
	st := kstate.New(fields)
	n := New(funcName(fn), kw, func(_ context.Context, kw Kwargs, _ []kstream.Stream) (kstream.Stream, error) {
		return kstream.StreamFunc(func(ctx context.Context) (any, error) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			return fn(ctx, kw, st)
		}), nil
	})
	n.state = st
	return n
}

// Apply calls fn on every value emitted by in. A result that is a stream is
// re-emitted element by element, a Deferred result is awaited and its value
// emitted, anything else is emitted as is.
//
// in must be a node; anything else fails with ErrNotStream.
func Apply(fn ApplyFunc, in any, kw Kwargs) (*Node, error) {
	up, ok := in.(*Node)
	if !ok || up == nil {
		return nil, fmt.Errorf("%w: got %T", ErrNotStream, in)
	}
	return New("Apply", kw, func(_ context.Context, kw Kwargs, inputs []kstream.Stream) (kstream.Stream, error) {
		return flatMap(inputs[0], func(ctx context.Context, v any) (kstream.Value, error) {
			res, err := fn(ctx, v, kw)
			if err != nil {
				return kstream.Value{}, err
			}
			return kstream.Resolve(ctx, res)
		}), nil
	}, up), nil
}

// MustApply is like Apply but panics on error.
func MustApply(fn ApplyFunc, in any, kw Kwargs) *Node {
	n, err := Apply(fn, in, kw)
	if err != nil {
		panic(err)
	}
	return n
}

// Sink hands every value of in to fn and emits fn's acknowledgement, or the
// value itself when fn acknowledges with nil.
func Sink(in any, fn SinkFunc, kw Kwargs) *Node {
	return New("Sink", kw, func(_ context.Context, kw Kwargs, inputs []kstream.Stream) (kstream.Stream, error) {
		src := inputs[0]
		return kstream.StreamFunc(func(ctx context.Context) (any, error) {
			v, err := src.Next(ctx)
			if err != nil {
				return nil, err
			}
			ack, err := fn(ctx, v, kw)
			if err != nil {
				return nil, err
			}
			if ack == nil {
				return v, nil
			}
			return ack, nil
		}), nil
	}, lift(in, kw))
}

// flatMap pulls values from in and classifies what fn makes of each: scalars
// are emitted once, sequences are drained element by element and empty values
// emit nothing.
//
// A StreamEnd inside a nested sequence ends that sequence only.
func flatMap(in kstream.Stream, fn func(ctx context.Context, v any) (kstream.Value, error)) kstream.Stream {
	var cur kstream.Stream
	return kstream.StreamFunc(func(ctx context.Context) (any, error) {
		for {
			if cur != nil {
				v, err := cur.Next(ctx)
				if errors.Is(err, kstream.ErrEnd) || v == kstream.StreamEnd {
					cur = nil
					continue
				}
				if err != nil {
					return nil, err
				}
				return v, nil
			}

			v, err := in.Next(ctx)
			if err != nil {
				return nil, err
			}
			val, err := fn(ctx, v)
			if err != nil {
				return nil, err
			}
			switch val.Kind {
			case kstream.KindScalar:
				return val.Scalar, nil
			case kstream.KindSequence:
				cur = val.Seq
			}
		}
	})
}
