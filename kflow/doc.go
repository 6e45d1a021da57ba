// Package kflow provides the nodes and combinators of a dataflow graph.
//
// # Overview
//
// A Node wraps a producer together with the nodes it depends on. Combinators
// build new nodes on top of existing ones and never modify their operands, so
// every graph is acyclic by construction:
//
//	counter := kflow.State(func(ctx context.Context, kw kflow.Kwargs, st *kstate.State) (any, error) {
//	    return kstate.Add(st, "n", 1)
//	}, nil, kstate.Fields{"n": 0})
//
//	windows := kflow.Window(counter, nil, 3, true)
//	sums := kflow.MustApply(sum, windows, nil)
//
//	out, err := tributary.Run(ctx, kflow.Delay(sums, nil, time.Second))
//
// # Values and sentinels
//
// Nodes emit plain Go values. A value that is itself a kstream.Stream is a
// nested sequence: Apply, Unroll, Merge and Reduce expand it element by
// element. Producers may yield kstream.StreamEnd, kstream.StreamNone or
// kstream.StreamRepeat to end the branch, skip a tick or repeat the last value.
//
// # Sharing
//
// Node identity is pointer identity. Passing the same node to several
// combinators makes them consume one instance of it: the engine pulls each of
// its values once and hands it to every consumer. Share returns an alias that
// collapses onto its target in the same way.
//
// # Synchronization
//
// Merge, ListMerge, DictMerge and Reduce combine their operands in lockstep by
// position. They complete as soon as the shortest operand completes.
package kflow
