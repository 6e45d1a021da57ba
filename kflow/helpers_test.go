package kflow

import (
	"context"
	"errors"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/birdayz/tributary/kstream"
)

// drain opens n on inputs and collects at most limit values. A limit of zero
// collects until the stream ends.
func drain(t *testing.T, n *Node, limit int, inputs ...kstream.Stream) []any {
	t.Helper()
	out, err := drainErr(n, limit, inputs...)
	assert.NoError(t, err)
	return out
}

func drainErr(n *Node, limit int, inputs ...kstream.Stream) ([]any, error) {
	ctx := context.Background()
	s, err := n.Open(ctx, inputs)
	if err != nil {
		return nil, err
	}
	var out []any
	for limit == 0 || len(out) < limit {
		v, err := s.Next(ctx)
		if errors.Is(err, kstream.ErrEnd) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, v)
	}
	return out, nil
}
