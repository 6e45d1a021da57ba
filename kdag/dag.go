package kdag

import (
	"fmt"
	"slices"
	"strings"
)

// DAG is a fully built dataflow graph that can be handed to the engine.
type DAG struct {
	graph *Graph
	order []NodeID
}

// Roots returns the collected nodes in registration order.
func (d *DAG) Roots() []NodeID {
	return slices.Clone(d.graph.Roots)
}

// Order returns every node in deterministic topological order: a node comes
// after all of its upstream nodes.
func (d *DAG) Order() []NodeID {
	return slices.Clone(d.order)
}

// Node returns a node by ID if it exists.
func (d *DAG) Node(id NodeID) (*Node, bool) {
	node, ok := d.graph.Nodes[id]
	return node, ok
}

// Sources returns the nodes without inputs, in topological order.
func (d *DAG) Sources() []NodeID {
	var out []NodeID
	for _, id := range d.order {
		if len(d.graph.Nodes[id].Parents) == 0 {
			out = append(out, id)
		}
	}
	return out
}

// Len returns the number of unique nodes.
func (d *DAG) Len() int {
	return len(d.graph.Nodes)
}

// IsRoot reports whether the node's output is collected.
func (d *DAG) IsRoot(id NodeID) bool {
	return slices.Contains(d.graph.Roots, id)
}

// GetGraph returns the underlying graph for read-only access.
func (d *DAG) GetGraph() *Graph {
	return d.graph
}

// Dot renders the DAG in Graphviz dot syntax. Roots are drawn as boxes and
// parallel edges are kept, so Merge(x, x) shows two arrows.
func (d *DAG) Dot() string {
	var sb strings.Builder
	sb.WriteString("digraph tributary {\n")
	sb.WriteString("  rankdir=LR;\n")
	for _, id := range d.order {
		node := d.graph.Nodes[id]
		shape := "ellipse"
		if d.IsRoot(id) {
			shape = "box"
		}
		fmt.Fprintf(&sb, "  %q [label=%q, shape=%s];\n", string(id), node.Name(), shape)
	}
	for _, id := range d.order {
		for _, parentID := range d.graph.Nodes[id].Parents {
			fmt.Fprintf(&sb, "  %q -> %q;\n", string(parentID), string(id))
		}
	}
	sb.WriteString("}\n")
	return sb.String()
}
