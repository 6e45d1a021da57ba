package kdag

import (
	"fmt"
	"strings"

	"github.com/birdayz/tributary/kflow"
)

// NodeID is a strongly-typed identifier for graph nodes.
// NodeIDs must be non-empty and cannot contain whitespace.
type NodeID string

// Validate checks if the NodeID is valid.
// Returns ErrInvalidNodeID if the ID is empty or contains whitespace.
func (id NodeID) Validate() error {
	if id == "" {
		return fmt.Errorf("%w: NodeID cannot be empty", ErrInvalidNodeID)
	}
	if strings.ContainsAny(string(id), " \t\n\r") {
		return fmt.Errorf("%w: NodeID %q cannot contain whitespace", ErrInvalidNodeID, id)
	}
	return nil
}

// idFor derives the NodeID of a flow node: its display name, made safe, and
// its sequence number.
func idFor(n *kflow.Node) NodeID {
	name := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r':
			return '_'
		}
		return r
	}, n.Name())
	if name == "" {
		name = "node"
	}
	return NodeID(fmt.Sprintf("%s-%d", name, n.ID()))
}

// Node is the build-time representation of a node in the DAG.
type Node struct {
	ID NodeID

	// Flow is the node that produces values. Shared aliases are already
	// resolved, so several kflow nodes may map to the same graph node.
	Flow *kflow.Node

	// Parent edges (incoming), one per upstream input in input order.
	// The same parent appears twice if it feeds two inputs.
	Parents []NodeID

	// Child edges (outgoing), one per downstream input.
	Children []NodeID
}

// Name returns the display label of the producing node.
func (n *Node) Name() string {
	if n.Flow == nil {
		return string(n.ID)
	}
	return n.Flow.Name()
}

// Graph is the build-time DAG representation.
type Graph struct {
	Nodes map[NodeID]*Node

	// Roots are the nodes whose output is collected, in registration order.
	Roots []NodeID

	// Deterministic node ordering (insertion order, upstream first)
	NodeOrder []NodeID

	byFlow map[*kflow.Node]NodeID
}

// NewGraph creates a new empty graph.
func NewGraph() *Graph {
	return &Graph{
		Nodes:     make(map[NodeID]*Node),
		NodeOrder: make([]NodeID, 0),
		byFlow:    make(map[*kflow.Node]NodeID),
	}
}

// AddNode adds a node to the graph.
func (g *Graph) AddNode(node *Node) error {
	if err := node.ID.Validate(); err != nil {
		return err
	}
	if _, exists := g.Nodes[node.ID]; exists {
		return fmt.Errorf("%w: %s", ErrNodeAlreadyExists, node.ID)
	}
	g.Nodes[node.ID] = node
	g.NodeOrder = append(g.NodeOrder, node.ID)
	if node.Flow != nil {
		g.byFlow[node.Flow] = node.ID
	}
	return nil
}

// AddEdge adds a directed edge from parent to child. Edges are not
// deduplicated: every call adds one input to child.
func (g *Graph) AddEdge(parentID, childID NodeID) error {
	parent, ok := g.Nodes[parentID]
	if !ok {
		return fmt.Errorf("%w: parent %s", ErrNodeNotFound, parentID)
	}
	child, ok := g.Nodes[childID]
	if !ok {
		return fmt.Errorf("%w: child %s", ErrNodeNotFound, childID)
	}
	if len(parent.Children) >= MaxChildrenPerNode {
		return fmt.Errorf("%w: node %s exceeds %d children", ErrInvalidTopology, parentID, MaxChildrenPerNode)
	}

	parent.Children = append(parent.Children, childID)
	child.Parents = append(child.Parents, parentID)
	return nil
}

// Lookup returns the graph node a flow node collapses onto.
func (g *Graph) Lookup(n *kflow.Node) (NodeID, bool) {
	if n == nil {
		return "", false
	}
	id, ok := g.byFlow[n.Resolve()]
	return id, ok
}
