package execution

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/birdayz/tributary/internal/runtime"
	"github.com/birdayz/tributary/kdag"
	"github.com/birdayz/tributary/kstream"
	"go.uber.org/multierr"
)

type RoutineState string

const (
	StateAttached  RoutineState = "ATTACHED"
	StateRunning   RoutineState = "RUNNING"
	StateCompleted RoutineState = "COMPLETED"
	StateFailed    RoutineState = "FAILED"
)

// Worker drives one graph node: it opens the node's stream on its input
// subscriptions, pulls one value per tick and publishes it downstream.
type Worker struct {
	log   *slog.Logger
	node  *kdag.Node
	state RoutineState

	inputs []*runtime.Subscription
	out    *runtime.Broadcaster
}

func newWorker(log *slog.Logger, node *kdag.Node, out *runtime.Broadcaster) *Worker {
	w := &Worker{
		log:  log.With("node", string(node.ID)),
		node: node,
		out:  out,
	}
	w.changeState(StateAttached)
	return w
}

func (w *Worker) changeState(newState RoutineState) {
	w.log.Debug("Change state", "from", w.state, "to", newState)
	w.state = newState
}

// State returns the worker's lifecycle state. It is only stable once the
// engine has finished.
func (w *Worker) State() RoutineState {
	return w.state
}

// Run executes the node until its stream ends, every subscriber went away,
// or ctx is done. An upstream failure ends the worker without an error of its
// own; the failing node reports it.
func (w *Worker) Run(ctx context.Context) (err error) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-w.out.Drained():
			cancel()
		case <-runCtx.Done():
		}
	}()

	w.changeState(StateRunning)

	var upstreamFailed bool
	defer func() {
		for _, in := range w.inputs {
			in.Cancel()
		}
		switch {
		case err != nil:
			w.out.Close(err)
			w.changeState(StateFailed)
			w.log.Debug("Node failed", "error", err)
		case upstreamFailed:
			w.out.Close(runtime.ErrUpstreamFailed)
			w.changeState(StateFailed)
		default:
			w.out.Close(nil)
			w.changeState(StateCompleted)
		}
	}()

	inputs := make([]kstream.Stream, len(w.inputs))
	for i, in := range w.inputs {
		inputs[i] = in
	}

	stream, err := w.node.Flow.Open(runCtx, inputs)
	if err != nil {
		return fmt.Errorf("node %s: %w", w.node.ID, err)
	}
	if c, ok := stream.(io.Closer); ok {
		defer func() {
			if cerr := c.Close(); cerr != nil {
				err = multierr.Append(err, fmt.Errorf("node %s: close: %w", w.node.ID, cerr))
			}
		}()
	}

	var (
		last    any
		hasLast bool
	)
	for {
		v, err := stream.Next(runCtx)
		if err != nil {
			return w.stopErr(ctx, err, &upstreamFailed)
		}

		switch v {
		case kstream.StreamEnd:
			return nil
		case kstream.StreamNone:
			continue
		case kstream.StreamRepeat:
			if !hasLast {
				continue
			}
			v = last
		}
		last, hasLast = v, true

		if err := w.out.Publish(runCtx, v); err != nil {
			return w.stopErr(ctx, err, &upstreamFailed)
		}
		if w.out.Live() == 0 {
			// Collectors also leave when the run is cancelled.
			return ctx.Err()
		}
	}
}

// stopErr classifies an error that ended the pull loop.
func (w *Worker) stopErr(ctx context.Context, err error, upstreamFailed *bool) error {
	switch {
	case errors.Is(err, kstream.ErrEnd):
		return nil
	case errors.Is(err, runtime.ErrUpstreamFailed):
		*upstreamFailed = true
		return nil
	case ctx.Err() != nil:
		return ctx.Err()
	case w.drained():
		// Nobody consumes this node anymore.
		return ctx.Err()
	}
	return fmt.Errorf("node %s: %w", w.node.ID, err)
}

func (w *Worker) drained() bool {
	select {
	case <-w.out.Drained():
		return true
	default:
		return false
	}
}
