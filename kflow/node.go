package kflow

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"runtime"
	"slices"
	"strings"
	"sync/atomic"

	"github.com/birdayz/tributary/kstate"
	"github.com/birdayz/tributary/kstream"
)

var (
	ErrNotStream     = errors.New("kflow: Apply requires a stream input")
	ErrInputMismatch = errors.New("kflow: input count mismatch")
	ErrInvalidWindow = errors.New("kflow: invalid window size")
	ErrNotFrame      = errors.New("kflow: value is not a frame")
	ErrNotMapping    = errors.New("kflow: value is not a mapping")
)

// Producer opens a node's output stream. It receives the node's bound kwargs
// and one input stream per upstream edge, in upstream order. A returned
// stream that implements io.Closer is closed by the engine when the node
// completes.
type Producer func(ctx context.Context, kw Kwargs, inputs []kstream.Stream) (kstream.Stream, error)

// SourceFunc computes one value per call.
type SourceFunc func(ctx context.Context, kw Kwargs) (any, error)

// StateFunc computes one value per call with access to the node's state.
type StateFunc func(ctx context.Context, kw Kwargs, st *kstate.State) (any, error)

// ApplyFunc transforms one upstream value.
type ApplyFunc func(ctx context.Context, v any, kw Kwargs) (any, error)

// SinkFunc performs an external effect for one value and returns an optional
// acknowledgement.
type SinkFunc func(ctx context.Context, v any, kw Kwargs) (any, error)

var nodeSeq atomic.Uint64

// Node is a stage of a dataflow graph. Its producer, kwargs and upstream are
// fixed at construction; only its state may change afterwards. Nodes compare
// by identity.
type Node struct {
	id       uint64
	name     string
	kwargs   Kwargs
	upstream []*Node
	shared   *Node
	state    *kstate.State
	producer Producer
}

// New creates a node. Adapters use it to plug their own producers into a
// graph; the combinators in this package are built on it.
func New(name string, kw Kwargs, producer Producer, upstream ...*Node) *Node {
	for i, u := range upstream {
		if u == nil {
			panic(fmt.Sprintf("kflow: %s: upstream %d is nil", name, i))
		}
	}
	return &Node{
		id:       nodeSeq.Add(1),
		name:     name,
		kwargs:   kw.clone(),
		upstream: slices.Clone(upstream),
		producer: producer,
	}
}

// ID returns the node's process-unique sequence number.
func (n *Node) ID() uint64 { return n.id }

// Name returns the display label.
func (n *Node) Name() string { return n.name }

func (n *Node) String() string { return fmt.Sprintf("%s#%d", n.name, n.id) }

// Kwargs returns a copy of the bound configuration.
func (n *Node) Kwargs() Kwargs { return n.kwargs.clone() }

// Upstream returns the nodes this node depends on, in edge order.
func (n *Node) Upstream() []*Node { return slices.Clone(n.upstream) }

// Shared returns the node this node is an alias of, or nil.
func (n *Node) Shared() *Node { return n.shared }

// Resolve follows shared references to the node that actually produces.
func (n *Node) Resolve() *Node {
	for n.shared != nil {
		n = n.shared
	}
	return n
}

// State returns the node's persistent state, or nil.
func (n *Node) State() *kstate.State { return n.state }

// Open starts the node's producer on the given inputs.
func (n *Node) Open(ctx context.Context, inputs []kstream.Stream) (kstream.Stream, error) {
	target := n.Resolve()
	if len(inputs) != len(target.upstream) {
		return nil, fmt.Errorf("%w: %s has %d upstream nodes, got %d inputs",
			ErrInputMismatch, target, len(target.upstream), len(inputs))
	}
	return target.producer(ctx, target.kwargs, inputs)
}

// Share returns an alias of n. Every consumer of the alias reads n's single
// output; n's producer is not instantiated a second time. Share panics if n
// is nil.
func Share(n *Node) *Node {
	if n == nil {
		panic("kflow: Share of a nil node")
	}
	return &Node{
		id:     nodeSeq.Add(1),
		name:   "Share",
		shared: n,
	}
}

// Const emits v on every tick, forever.
func Const(v any) *Node {
	return New("Const", nil, func(context.Context, Kwargs, []kstream.Stream) (kstream.Stream, error) {
		return kstream.StreamFunc(func(ctx context.Context) (any, error) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			return v, nil
		}), nil
	})
}

// Func calls fn once per tick until it returns StreamEnd.
func Func(name string, fn SourceFunc, kw Kwargs) *Node {
	return New(name, kw, func(_ context.Context, kw Kwargs, _ []kstream.Stream) (kstream.Stream, error) {
		return kstream.StreamFunc(func(ctx context.Context) (any, error) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			return fn(ctx, kw)
		}), nil
	})
}

// Slice emits each of values once, then completes.
func Slice(values ...any) *Node {
	values = slices.Clone(values)
	return New("Slice", nil, func(context.Context, Kwargs, []kstream.Stream) (kstream.Stream, error) {
		return kstream.FromSlice(values...), nil
	})
}

// FromStream wraps an asynchronous sequence factory. The factory is invoked
// once per run.
func FromStream(name string, factory func(ctx context.Context, kw Kwargs) (kstream.Stream, error), kw Kwargs) *Node {
	return New(name, kw, func(ctx context.Context, kw Kwargs, _ []kstream.Stream) (kstream.Stream, error) {
		return factory(ctx, kw)
	})
}

// lift turns a value-or-function argument into a node. Functions must have
// one of the signatures accepted by asSourceFunc; any other function panics
// rather than being emitted as a constant.
func lift(v any, kw Kwargs) *Node {
	if fn := asSourceFunc(v); fn != nil {
		return Func(funcName(v), fn, kw)
	}
	if n, ok := v.(*Node); ok {
		return n
	}
	return Const(v)
}

func asSourceFunc(v any) SourceFunc {
	switch f := v.(type) {
	case SourceFunc:
		return f
	case func(context.Context, Kwargs) (any, error):
		return f
	case func() any:
		return func(context.Context, Kwargs) (any, error) { return f(), nil }
	case func() (any, error):
		return func(context.Context, Kwargs) (any, error) { return f() }
	}
	if v != nil && reflect.TypeOf(v).Kind() == reflect.Func {
		panic(fmt.Sprintf("kflow: unsupported function type %T: use SourceFunc, func(context.Context, Kwargs) (any, error), func() any or func() (any, error)", v))
	}
	return nil
}

// valueFunc returns a function computing v: calling it if it is a function,
// returning it otherwise.
func valueFunc(v any) SourceFunc {
	if fn := asSourceFunc(v); fn != nil {
		return fn
	}
	return func(context.Context, Kwargs) (any, error) { return v, nil }
}

func funcName(fn any) string {
	rv := reflect.ValueOf(fn)
	if rv.Kind() != reflect.Func || rv.IsNil() {
		return "Func"
	}
	f := runtime.FuncForPC(rv.Pointer())
	if f == nil {
		return "Func"
	}
	name := f.Name()
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.Index(name, "."); i >= 0 {
		name = name[i+1:]
	}
	return name
}
