package kdag

import (
	"errors"
	"fmt"
	"slices"

	"github.com/birdayz/tributary/kflow"
)

// Builder constructs a DAG from the upstream edges of flow nodes.
//
// IMPORTANT: Builder is NOT safe for concurrent use. The resulting DAG
// is immutable and safe to use concurrently.
type Builder struct {
	graph *Graph
}

// NewBuilder creates a new DAG builder.
func NewBuilder() *Builder {
	return &Builder{
		graph: NewGraph(),
	}
}

// Add registers roots and everything they transitively depend on. Each node
// is added once no matter how many paths reach it, and shared aliases
// collapse onto the node they share.
func (b *Builder) Add(roots ...*kflow.Node) error {
	for i, root := range roots {
		if root == nil {
			return fmt.Errorf("%w: root %d", ErrNilNode, i)
		}
		id, err := b.walk(root, 0)
		if err != nil {
			return err
		}
		if !slices.Contains(b.graph.Roots, id) {
			b.graph.Roots = append(b.graph.Roots, id)
		}
	}
	return nil
}

// MustAdd is like Add but panics on error.
func (b *Builder) MustAdd(roots ...*kflow.Node) *Builder {
	must(b.Add(roots...))
	return b
}

// walk adds n after its upstream nodes and returns its ID.
func (b *Builder) walk(n *kflow.Node, depth int) (NodeID, error) {
	if depth > MaxDepth {
		return "", fmt.Errorf("%w: maximum depth %d exceeded", ErrInvalidTopology, MaxDepth)
	}
	target := n.Resolve()
	if id, ok := b.graph.byFlow[target]; ok {
		return id, nil
	}
	if len(b.graph.Nodes) >= MaxNodesPerDAG {
		return "", fmt.Errorf("%w: node count exceeds maximum %d", ErrInvalidTopology, MaxNodesPerDAG)
	}

	upstream := target.Upstream()
	parents := make([]NodeID, 0, len(upstream))
	for _, u := range upstream {
		pid, err := b.walk(u, depth+1)
		if err != nil {
			return "", err
		}
		parents = append(parents, pid)
	}

	// A diamond may have added target while walking its upstream.
	if id, ok := b.graph.byFlow[target]; ok {
		return id, nil
	}

	node := &Node{ID: idFor(target), Flow: target}
	if err := b.graph.AddNode(node); err != nil {
		return "", err
	}
	for _, pid := range parents {
		if err := b.graph.AddEdge(pid, node.ID); err != nil {
			return "", err
		}
	}
	return node.ID, nil
}

// Build validates and finalizes the DAG.
func (b *Builder) Build() (*DAG, error) {
	if len(b.graph.Roots) == 0 {
		return nil, ErrNoRoots
	}
	if err := b.graph.Validate(); err != nil {
		return nil, err
	}

	order, err := b.graph.topologicalSort()
	if err != nil {
		return nil, err
	}

	return &DAG{
		graph: b.graph,
		order: order,
	}, nil
}

// MustBuild is like Build but panics on error.
func (b *Builder) MustBuild() *DAG {
	dag, err := b.Build()
	if err != nil {
		panic(err)
	}
	return dag
}

// GetGraph returns the underlying graph for read-only access.
func (b *Builder) GetGraph() *Graph {
	return b.graph
}

// GetNode returns a node by ID if it exists.
func (b *Builder) GetNode(id NodeID) (*Node, bool) {
	node, ok := b.graph.Nodes[id]
	return node, ok
}

// Build is a shortcut for building the DAG of a set of roots.
func Build(roots ...*kflow.Node) (*DAG, error) {
	b := NewBuilder()
	if err := b.Add(roots...); err != nil {
		return nil, err
	}
	return b.Build()
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

// Sentinel errors for common failure cases.
var (
	ErrNodeAlreadyExists = errors.New("node already exists")
	ErrNodeNotFound      = errors.New("node not found")
	ErrCycleDetected     = errors.New("cycle detected in DAG")
	ErrInvalidNodeID     = errors.New("invalid node ID")
	ErrInvalidTopology   = errors.New("invalid topology")
	ErrNoRoots           = errors.New("no root nodes")
	ErrNilNode           = errors.New("nil node")
)
