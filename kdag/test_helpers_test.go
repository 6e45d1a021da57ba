package kdag

import (
	"fmt"
	"strings"

	"github.com/birdayz/tributary/kflow"
)

// idOf is the NodeID the builder assigns to n.
func idOf(n *kflow.Node) NodeID {
	n = n.Resolve()
	return NodeID(fmt.Sprintf("%s-%d", n.Name(), n.ID()))
}

func countOf(s, sub string) int {
	return strings.Count(s, sub)
}
