package kflow

import (
	"context"
	"time"

	"github.com/birdayz/tributary/kstream"
	"golang.org/x/time/rate"
)

// Timer emits fooOrVal exactly repeat times. If fooOrVal is a function it is
// called with kw on every tick, otherwise it is emitted as a constant. A
// function must be a SourceFunc, func(context.Context, Kwargs) (any, error),
// func() any or func() (any, error); Timer panics on any other signature.
//
// Ticks are spaced at least interval apart. The wait before a tick is
// interval minus the time the previous tick took, so slow computations do not
// compound drift.
func Timer(fooOrVal any, kw Kwargs, interval time.Duration, repeat int) *Node {
	compute := valueFunc(fooOrVal)
	return New("Timer", kw, func(_ context.Context, kw Kwargs, _ []kstream.Stream) (kstream.Stream, error) {
		remaining := repeat
		var last time.Time
		return kstream.StreamFunc(func(ctx context.Context) (any, error) {
			if remaining <= 0 {
				return nil, kstream.ErrEnd
			}
			if !last.IsZero() && interval > 0 {
				if err := sleep(ctx, interval-time.Since(last)); err != nil {
					return nil, err
				}
			}
			last = time.Now()
			remaining--
			return compute(ctx, kw)
		}), nil
	})
}

// Delay passes upstream values through unchanged and waits delay after each
// one before pulling the next.
func Delay(in any, kw Kwargs, delay time.Duration) *Node {
	return New("Delay", kw, func(_ context.Context, _ Kwargs, inputs []kstream.Stream) (kstream.Stream, error) {
		src := inputs[0]
		started := false
		return kstream.StreamFunc(func(ctx context.Context) (any, error) {
			if started {
				if err := sleep(ctx, delay); err != nil {
					return nil, err
				}
			}
			started = true
			return src.Next(ctx)
		}), nil
	}, lift(in, kw))
}

// Throttle limits the emission rate of in to one value per every, allowing
// bursts of up to burst values.
func Throttle(in any, kw Kwargs, every time.Duration, burst int) *Node {
	return New("Throttle", kw, func(_ context.Context, _ Kwargs, inputs []kstream.Stream) (kstream.Stream, error) {
		src := inputs[0]
		limiter := rate.NewLimiter(rate.Every(every), max(burst, 1))
		return kstream.StreamFunc(func(ctx context.Context) (any, error) {
			v, err := src.Next(ctx)
			if err != nil {
				return nil, err
			}
			if err := limiter.Wait(ctx); err != nil {
				return nil, err
			}
			return v, nil
		}), nil
	}, lift(in, kw))
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
