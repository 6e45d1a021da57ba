package execution

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/birdayz/tributary/internal/runtime"
	"github.com/birdayz/tributary/kdag"
	"github.com/birdayz/tributary/kstream"
	"golang.org/x/sync/errgroup"
)

// DefaultBufferSize is the lookahead used when Config.BufferSize is zero: a
// node may publish while its fastest consumer holds fewer unread values.
const DefaultBufferSize = 1

var ErrAlreadyRun = errors.New("engine already run")

// OutputHandler receives the values of a root node instead of them being
// collected. Returning an error fails the run.
type OutputHandler func(ctx context.Context, root kdag.NodeID, v any) error

// Config configures an Engine.
type Config struct {
	Log        *slog.Logger
	BufferSize int
	Output     OutputHandler
}

// Engine executes a DAG: one worker goroutine per unique node and one
// collector per root, all under a single errgroup.
type Engine struct {
	log    *slog.Logger
	dag    *kdag.DAG
	output OutputHandler

	workers    map[kdag.NodeID]*Worker
	collectors map[kdag.NodeID]*runtime.Subscription

	mu      sync.Mutex
	results map[kdag.NodeID][]any
	ran     bool
}

// NewEngine wires broadcasters and subscriptions for every edge of dag. Each
// node's input subscriptions are taken in input order.
func NewEngine(dag *kdag.DAG, cfg Config) (*Engine, error) {
	log := cfg.Log
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	bufferSize := cfg.BufferSize
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}

	e := &Engine{
		log:        log,
		dag:        dag,
		output:     cfg.Output,
		workers:    make(map[kdag.NodeID]*Worker, dag.Len()),
		collectors: make(map[kdag.NodeID]*runtime.Subscription),
		results:    make(map[kdag.NodeID][]any),
	}

	broadcasters := make(map[kdag.NodeID]*runtime.Broadcaster, dag.Len())
	for _, id := range dag.Order() {
		node, _ := dag.Node(id)
		b := runtime.NewBroadcaster(string(id), bufferSize)
		broadcasters[id] = b

		w := newWorker(log, node, b)
		for _, parentID := range node.Parents {
			parent, ok := broadcasters[parentID]
			if !ok {
				return nil, fmt.Errorf("%w: %s", kdag.ErrNodeNotFound, parentID)
			}
			sub, err := parent.Subscribe()
			if err != nil {
				return nil, err
			}
			w.inputs = append(w.inputs, sub)
		}
		e.workers[id] = w
	}

	for _, root := range dag.Roots() {
		sub, err := broadcasters[root].Subscribe()
		if err != nil {
			return nil, err
		}
		e.collectors[root] = sub
		e.results[root] = nil
	}

	log.Debug("Engine created", "nodes", dag.Len(), "roots", len(e.collectors), "buffer", bufferSize)
	return e, nil
}

// Run executes the graph until every root completed, a node failed or ctx is
// done. It returns the collected values per root; with an OutputHandler the
// slices are empty. An engine can only be run once.
func (e *Engine) Run(ctx context.Context) (map[kdag.NodeID][]any, error) {
	e.mu.Lock()
	if e.ran {
		e.mu.Unlock()
		return nil, ErrAlreadyRun
	}
	e.ran = true
	e.mu.Unlock()

	grp, gctx := errgroup.WithContext(ctx)
	for _, id := range e.dag.Order() {
		w := e.workers[id]
		grp.Go(func() error {
			return w.Run(gctx)
		})
	}
	for _, root := range e.dag.Roots() {
		sub := e.collectors[root]
		grp.Go(func() error {
			return e.collect(gctx, root, sub)
		})
	}

	err := grp.Wait()
	if err != nil {
		e.log.Debug("Engine failed", "error", err)
	} else {
		e.log.Debug("Engine completed")
	}
	return e.Results(), err
}

// Results returns a copy of the values collected so far.
func (e *Engine) Results() map[kdag.NodeID][]any {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make(map[kdag.NodeID][]any, len(e.results))
	for id, vs := range e.results {
		out[id] = append([]any(nil), vs...)
	}
	return out
}

// Worker returns the worker of a node.
func (e *Engine) Worker(id kdag.NodeID) (*Worker, bool) {
	w, ok := e.workers[id]
	return w, ok
}

func (e *Engine) collect(ctx context.Context, root kdag.NodeID, sub *runtime.Subscription) error {
	defer sub.Cancel()

	for {
		v, err := sub.Next(ctx)
		switch {
		case errors.Is(err, kstream.ErrEnd), errors.Is(err, runtime.ErrUpstreamFailed):
			return nil
		case err != nil:
			return err
		}

		v, ok, err := materialize(ctx, v)
		if err != nil {
			return fmt.Errorf("node %s: %w", root, err)
		}
		if !ok {
			continue
		}

		if e.output != nil {
			if err := e.output(ctx, root, v); err != nil {
				return fmt.Errorf("output %s: %w", root, err)
			}
			continue
		}
		e.mu.Lock()
		e.results[root] = append(e.results[root], v)
		e.mu.Unlock()
	}
}

// materialize turns a root value into plain data: deferred values are
// awaited and nested sequences collected into a slice. ok is false for values
// that resolve to nothing.
func materialize(ctx context.Context, v any) (any, bool, error) {
	val, err := kstream.Resolve(ctx, v)
	if err != nil {
		return nil, false, err
	}
	switch val.Kind {
	case kstream.KindEmpty:
		return nil, false, nil
	case kstream.KindSequence:
		out, err := kstream.Collect(ctx, val.Seq)
		if err != nil {
			return nil, false, err
		}
		return out, true, nil
	}
	return val.Scalar, true, nil
}
