package kconnect

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/birdayz/tributary/kflow"
	"github.com/birdayz/tributary/kstream"
	"github.com/twmb/franz-go/pkg/kgo"
)

// run opens n with inputs and pulls until the end, closing the stream
// afterwards like the engine does.
func run(n *kflow.Node, inputs ...kstream.Stream) (out []any, err error) {
	ctx := context.Background()
	s, err := n.Open(ctx, inputs)
	if err != nil {
		return nil, err
	}
	if c, ok := s.(io.Closer); ok {
		defer func() {
			if cerr := c.Close(); err == nil {
				err = cerr
			}
		}()
	}
	for {
		v, err := s.Next(ctx)
		if errors.Is(err, kstream.ErrEnd) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, v)
	}
}

func mustRun(t *testing.T, n *kflow.Node, inputs ...kstream.Stream) []any {
	t.Helper()
	out, err := run(n, inputs...)
	assert.NoError(t, err)
	return out
}

func fetchOf(topic string, records ...*kgo.Record) kgo.Fetches {
	return kgo.Fetches{{Topics: []kgo.FetchTopic{{
		Topic:      topic,
		Partitions: []kgo.FetchPartition{{Records: records}},
	}}}}
}

func record(topic string, offset int64, value string) *kgo.Record {
	return &kgo.Record{Topic: topic, Offset: offset, Value: []byte(value)}
}
