// Package kdag turns a set of kflow nodes into a validated, immutable graph.
//
// # Construction
//
// The Builder walks upstream edges depth-first from every root. A node reached
// along several paths is added once, and a kflow.Share alias collapses onto
// the node it shares, so both contribute edges to a single graph node:
//
//	x := kflow.Func("x", next, nil)
//	m := kflow.Merge(x, kflow.Share(x))
//	dag, err := kdag.Build(m) // two nodes, two edges from x to m
//
// Parent edges are ordered and one per input. A node that feeds the same
// consumer twice has two edges to it.
//
// # Validation
//
// Build checks:
//
//   - Roots: at least one root must be registered (ErrNoRoots)
//   - Edges: every edge points at a known node and every input has an edge
//   - Cycle Detection: DAGs cannot contain cycles (ErrCycleDetected)
//   - Reachability: every node must feed a root (ErrInvalidTopology)
//   - Size Limits: MaxNodesPerDAG, MaxDepth and MaxChildrenPerNode
//
// All validation errors use sentinel errors that can be checked with errors.Is().
//
// # Ordering
//
// DAG.Order is a deterministic topological order computed with Kahn's
// algorithm. The engine starts workers in that order.
//
// # Thread Safety
//
// IMPORTANT: Builder is NOT safe for concurrent use. The resulting DAG is
// immutable and safe to use concurrently.
package kdag
