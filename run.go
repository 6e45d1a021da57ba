package tributary

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/birdayz/tributary/internal/execution"
	"github.com/birdayz/tributary/kdag"
	"github.com/birdayz/tributary/kflow"
)

// ErrNilNode is returned when Run or Start is called without a node.
var ErrNilNode = errors.New("tributary: nil node")

// Run builds the graph of node and executes it until it completes. It
// returns every value the node emitted, in order.
func Run(ctx context.Context, node *kflow.Node, opts ...Option) ([]any, error) {
	h, err := Start(ctx, node, opts...)
	if err != nil {
		return nil, err
	}
	return h.Wait()
}

// RunDAG executes a prebuilt graph and returns the values of every root,
// keyed by root ID.
func RunDAG(ctx context.Context, dag *kdag.DAG, opts ...Option) (map[kdag.NodeID][]any, error) {
	h, err := StartDAG(ctx, dag, opts...)
	if err != nil {
		return nil, err
	}
	return h.WaitAll()
}

// Start builds the graph of node and executes it in the background.
func Start(ctx context.Context, node *kflow.Node, opts ...Option) (*Handle, error) {
	if node == nil {
		return nil, ErrNilNode
	}
	dag, err := kdag.Build(node)
	if err != nil {
		return nil, fmt.Errorf("tributary: build graph: %w", err)
	}
	return StartDAG(ctx, dag, opts...)
}

// StartDAG executes a prebuilt graph in the background.
func StartDAG(ctx context.Context, dag *kdag.DAG, opts ...Option) (*Handle, error) {
	c := newConfig(opts)
	engine, err := execution.NewEngine(dag, execution.Config{
		Log:        c.log,
		BufferSize: c.bufferSize,
		Output:     c.output,
	})
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	h := &Handle{
		dag:    dag,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	c.log.Debug("Starting graph", "nodes", dag.Len(), "roots", dag.Roots())
	go func() {
		defer close(h.done)
		defer cancel()
		h.results, h.err = engine.Run(ctx)
	}()
	return h, nil
}

// Handle controls a graph running in the background.
type Handle struct {
	dag    *kdag.DAG
	cancel context.CancelFunc
	done   chan struct{}

	stopOnce sync.Once
	stopped  atomic.Bool

	results map[kdag.NodeID][]any
	err     error
}

// DAG returns the graph being executed.
func (h *Handle) DAG() *kdag.DAG { return h.dag }

// Done is closed once every node stopped.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Stop cancels the run and waits for every node to stop. Values emitted
// before the cancellation are still returned by Wait.
func (h *Handle) Stop() {
	h.stopOnce.Do(func() {
		h.stopped.Store(true)
		h.cancel()
	})
	<-h.done
}

// Wait blocks until the run finished and returns the values of the first
// root. A run ended by Stop is not an error.
func (h *Handle) Wait() ([]any, error) {
	all, err := h.WaitAll()
	return all[h.dag.Roots()[0]], err
}

// WaitAll blocks until the run finished and returns the values of every
// root.
func (h *Handle) WaitAll() (map[kdag.NodeID][]any, error) {
	<-h.done
	err := h.err
	if h.stopped.Load() && errors.Is(err, context.Canceled) {
		err = nil
	}
	return h.results, err
}
