package kflow

import (
	"context"
	"fmt"
	"slices"

	"github.com/birdayz/tributary/kstream"
)

// Window buffers the values of in across ticks.
//
//   - size 0 passes values through unbuffered.
//   - size > 0 keeps the last size values.
//   - size -1 keeps every value.
//
// With fullOnly, a window is emitted only once the buffer holds exactly size
// values; for size -1 there is no such bound and every tick emits. Without
// fullOnly every tick emits. Emitted windows are copies.
//
// The buffer is created per run of the node.
func Window(in any, kw Kwargs, size int, fullOnly bool) *Node {
	return New("Window", kw, func(_ context.Context, _ Kwargs, inputs []kstream.Stream) (kstream.Stream, error) {
		if size < -1 {
			return nil, fmt.Errorf("%w: %d", ErrInvalidWindow, size)
		}
		src := inputs[0]
		var buf []any
		return kstream.StreamFunc(func(ctx context.Context) (any, error) {
			for {
				v, err := src.Next(ctx)
				if err != nil {
					return nil, err
				}
				if size == 0 {
					return v, nil
				}

				buf = append(buf, v)
				if size > 0 && len(buf) > size {
					buf = append(buf[:0], buf[len(buf)-size:]...)
				}
				if fullOnly && size > 0 && len(buf) != size {
					continue
				}
				return slices.Clone(buf), nil
			}
		}), nil
	}, lift(in, kw))
}
