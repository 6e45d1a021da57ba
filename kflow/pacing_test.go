package kflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
	"github.com/birdayz/tributary/kstream"
)

func TestTimer(t *testing.T) {
	t.Run("repeat constant", func(t *testing.T) {
		assert.Equal(t, []any{"x", "x", "x"}, drain(t, Timer("x", nil, 0, 3), 0))
	})

	t.Run("repeat calls in order", func(t *testing.T) {
		calls := 0
		fn := SourceFunc(func(_ context.Context, kw Kwargs) (any, error) {
			calls++
			return calls * kw.Int("factor", 1), nil
		})
		got := drain(t, Timer(fn, Kwargs{"factor": 10}, 0, 3), 0)
		assert.Equal(t, []any{10, 20, 30}, got)
		assert.Equal(t, 3, calls)
	})

	t.Run("non-positive repeat completes immediately", func(t *testing.T) {
		for _, repeat := range []int{0, -1} {
			calls := 0
			fn := func() any { calls++; return calls }
			assert.Equal(t, 0, len(drain(t, Timer(fn, nil, 0, repeat), 0)))
			assert.Equal(t, 0, calls)
		}
	})

	t.Run("interval spaces ticks", func(t *testing.T) {
		interval := 20 * time.Millisecond
		start := time.Now()
		got := drain(t, Timer(1, nil, interval, 3), 0)
		elapsed := time.Since(start)

		assert.Equal(t, 3, len(got))
		// Two waits between three ticks, none after the last.
		assert.True(t, elapsed >= 2*interval, "elapsed %s", elapsed)
	})

	t.Run("computation time is subtracted from the wait", func(t *testing.T) {
		interval := 30 * time.Millisecond
		fn := func() any {
			time.Sleep(20 * time.Millisecond)
			return 1
		}
		start := time.Now()
		drain(t, Timer(fn, nil, interval, 3), 0)
		elapsed := time.Since(start)

		// Three ticks of 20ms compute and 2 gaps of 30ms: ~80ms, not 120ms.
		assert.True(t, elapsed >= 80*time.Millisecond, "elapsed %s", elapsed)
		assert.True(t, elapsed < 115*time.Millisecond, "elapsed %s", elapsed)
	})

	t.Run("wait is cancellable", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		s, err := Timer(1, nil, time.Hour, 2).Open(ctx, nil)
		assert.NoError(t, err)

		_, err = s.Next(ctx)
		assert.NoError(t, err)

		cancel()
		_, err = s.Next(ctx)
		assert.True(t, errors.Is(err, context.Canceled))
	})

	t.Run("function error", func(t *testing.T) {
		boom := errors.New("boom")
		fn := SourceFunc(func(context.Context, Kwargs) (any, error) { return nil, boom })
		_, err := drainErr(Timer(fn, nil, 0, 1), 0)
		assert.True(t, errors.Is(err, boom))
	})
}

func TestDelay(t *testing.T) {
	t.Run("preserves order and count", func(t *testing.T) {
		got := drain(t, Delay(Slice(), nil, 0), 0, kstream.FromSlice(1, 2, 3))
		assert.Equal(t, []any{1, 2, 3}, got)
	})

	t.Run("waits between pulls", func(t *testing.T) {
		delay := 15 * time.Millisecond
		start := time.Now()
		drain(t, Delay(Slice(), nil, delay), 0, kstream.FromSlice(1, 2, 3))
		// Waits after the first, second and third value; the third wait
		// precedes the pull that observes the end.
		assert.True(t, time.Since(start) >= 3*delay)
	})

	t.Run("lifts constants", func(t *testing.T) {
		n := Delay("x", nil, 0)
		assert.Equal(t, 1, len(n.Upstream()))
		assert.Equal(t, "Const", n.Upstream()[0].Name())
	})
}

func TestThrottle(t *testing.T) {
	every := 10 * time.Millisecond
	start := time.Now()
	got := drain(t, Throttle(Slice(), nil, every, 1), 0, kstream.FromSlice(1, 2, 3, 4))
	elapsed := time.Since(start)

	assert.Equal(t, []any{1, 2, 3, 4}, got)
	// The first token is available immediately.
	assert.True(t, elapsed >= 3*every-2*time.Millisecond, "elapsed %s", elapsed)
}

func TestSleep(t *testing.T) {
	assert.NoError(t, sleep(context.Background(), -time.Second))
	assert.NoError(t, sleep(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.True(t, errors.Is(sleep(ctx, 0), context.Canceled))
}
