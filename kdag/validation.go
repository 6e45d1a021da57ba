package kdag

import (
	"fmt"
	"slices"
	"sort"
	"strings"
)

// Validation limits to prevent pathological cases
const (
	MaxNodesPerDAG     = 10000
	MaxDepth           = 500
	MaxChildrenPerNode = 1000
)

// Validate performs all topology validations.
// Returns early on first error.
func (g *Graph) Validate() error {
	if len(g.Nodes) > MaxNodesPerDAG {
		return fmt.Errorf("%w: node count %d exceeds maximum %d",
			ErrInvalidTopology, len(g.Nodes), MaxNodesPerDAG)
	}

	if err := g.validateEdges(); err != nil {
		return fmt.Errorf("DAG validation failed: %w", err)
	}

	if err := g.detectCycles(); err != nil {
		return fmt.Errorf("DAG validation failed: %w", err)
	}

	if err := g.validateRoots(); err != nil {
		return fmt.Errorf("DAG validation failed: %w", err)
	}

	return nil
}

// validateEdges checks that every edge points at a known node and that each
// node has exactly one parent edge per upstream input.
func (g *Graph) validateEdges() error {
	for _, nodeID := range g.NodeOrder {
		node := g.Nodes[nodeID]
		for _, id := range slices.Concat(node.Parents, node.Children) {
			if _, ok := g.Nodes[id]; !ok {
				return fmt.Errorf("%w: %s references %s", ErrNodeNotFound, nodeID, id)
			}
		}
		if node.Flow != nil && len(node.Flow.Upstream()) != len(node.Parents) {
			return fmt.Errorf("%w: %s has %d inputs but %d parent edges",
				ErrInvalidTopology, nodeID, len(node.Flow.Upstream()), len(node.Parents))
		}
	}
	return nil
}

// detectCycles uses Depth-First Search (DFS) to find cycles in the DAG.
// Returns ErrCycleDetected if any cycle is found.
// Time complexity: O(V + E) where V is vertices and E is edges.
func (g *Graph) detectCycles() error {
	visited := make(map[NodeID]bool, len(g.Nodes))
	recStack := make(map[NodeID]bool, len(g.Nodes))

	var dfs func(NodeID, []NodeID, int) error
	dfs = func(nodeID NodeID, path []NodeID, depth int) error {
		if depth > MaxDepth {
			return fmt.Errorf("%w: maximum depth %d exceeded", ErrInvalidTopology, MaxDepth)
		}

		visited[nodeID] = true
		recStack[nodeID] = true
		path = append(path, nodeID)

		for _, childID := range g.Nodes[nodeID].Children {
			if !visited[childID] {
				if err := dfs(childID, path, depth+1); err != nil {
					return err
				}
			} else if recStack[childID] {
				cyclePath := append(path, childID)
				pathStr := make([]string, len(cyclePath))
				for i, id := range cyclePath {
					pathStr[i] = string(id)
				}
				return fmt.Errorf("%w: %s", ErrCycleDetected, strings.Join(pathStr, " -> "))
			}
		}

		recStack[nodeID] = false
		return nil
	}

	// NodeOrder keeps the reported cycle path deterministic.
	for _, nodeID := range g.NodeOrder {
		if !visited[nodeID] {
			if err := dfs(nodeID, nil, 0); err != nil {
				return err
			}
		}
	}

	return nil
}

// validateRoots checks that every root exists and every node feeds a root.
func (g *Graph) validateRoots() error {
	if len(g.Roots) == 0 {
		return ErrNoRoots
	}

	reachable := make(map[NodeID]bool, len(g.Nodes))
	for _, rootID := range g.Roots {
		if _, ok := g.Nodes[rootID]; !ok {
			return fmt.Errorf("%w: root %s", ErrNodeNotFound, rootID)
		}
		g.markUpstream(rootID, reachable)
	}

	var orphans []string
	for _, nodeID := range g.NodeOrder {
		if !reachable[nodeID] {
			orphans = append(orphans, string(nodeID))
		}
	}
	if len(orphans) > 0 {
		return fmt.Errorf("%w: nodes feed no root: %s",
			ErrInvalidTopology, strings.Join(orphans, ", "))
	}
	return nil
}

func (g *Graph) markUpstream(nodeID NodeID, reachable map[NodeID]bool) {
	if reachable[nodeID] {
		return
	}
	reachable[nodeID] = true
	for _, parentID := range g.Nodes[nodeID].Parents {
		g.markUpstream(parentID, reachable)
	}
}

// insertSorted inserts an item into a sorted slice maintaining sort order.
func insertSorted(slice []NodeID, item NodeID) []NodeID {
	idx := sort.Search(len(slice), func(i int) bool {
		return slice[i] >= item
	})
	return slices.Insert(slice, idx, item)
}

// topologicalSort creates a deterministic topological ordering using Kahn's algorithm.
// Upstream nodes come before the nodes that consume them.
// Time complexity: O(V log V + E) where V is vertices and E is edges.
func (g *Graph) topologicalSort() ([]NodeID, error) {
	inDegree := make(map[NodeID]int, len(g.Nodes))
	for nodeID, node := range g.Nodes {
		inDegree[nodeID] = len(node.Parents)
	}

	queue := make([]NodeID, 0, len(g.Nodes)/4)
	for nodeID, degree := range inDegree {
		if degree == 0 {
			queue = append(queue, nodeID)
		}
	}
	slices.Sort(queue)

	result := make([]NodeID, 0, len(g.Nodes))
	for len(queue) > 0 {
		nodeID := queue[0]
		queue = queue[1:]
		result = append(result, nodeID)

		children := slices.Clone(g.Nodes[nodeID].Children)
		slices.Sort(children)

		for _, childID := range children {
			inDegree[childID]--
			if inDegree[childID] == 0 {
				queue = insertSorted(queue, childID)
			}
		}
	}

	if len(result) != len(g.Nodes) {
		return nil, fmt.Errorf("%w: topological sort failed", ErrCycleDetected)
	}

	return result, nil
}
