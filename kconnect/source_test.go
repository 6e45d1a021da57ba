package kconnect

import (
	"context"
	"errors"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/birdayz/tributary/kserde"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
	"go.uber.org/mock/gomock"
)

func consumerFactory(c Consumer) ClientFactory[Consumer] {
	return func([]string, ...kgo.Opt) (Consumer, error) { return c, nil }
}

func TestKafkaSourceMaxRecords(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := NewMockConsumer(ctrl)

	gomock.InOrder(
		c.EXPECT().PollFetches(gomock.Any()).Return(fetchOf("in", record("in", 0, "a"))),
		c.EXPECT().PollFetches(gomock.Any()).Return(fetchOf("in", record("in", 1, "b"), record("in", 2, "c"))),
	)
	c.EXPECT().Close()

	n := KafkaSource([]string{"in"}, WithMaxRecords(2), WithConsumerFactory(consumerFactory(c)))
	assert.Equal(t, "KafkaSource", n.Name())
	assert.Equal(t, 0, len(n.Upstream()))
	assert.Equal(t, []any{"a", "b"}, mustRun(t, n))
}

func TestKafkaSourceJSONValues(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := NewMockConsumer(ctrl)

	c.EXPECT().PollFetches(gomock.Any()).Return(fetchOf("in",
		record("in", 0, `{"a":1}`),
		record("in", 1, `[1,2]`)))
	c.EXPECT().Close()

	n := KafkaSource([]string{"in"}, WithJSONValues(), WithMaxRecords(2), WithConsumerFactory(consumerFactory(c)))
	assert.Equal(t, []any{map[string]any{"a": float64(1)}, []any{float64(1), float64(2)}}, mustRun(t, n))
}

func TestKafkaSourceClientClosed(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := NewMockConsumer(ctrl)

	gomock.InOrder(
		c.EXPECT().PollFetches(gomock.Any()).Return(fetchOf("in", record("in", 0, "a"))),
		c.EXPECT().PollFetches(gomock.Any()).Return(kgo.NewErrFetch(kgo.ErrClientClosed)),
	)
	c.EXPECT().Close()

	n := KafkaSource([]string{"in"}, WithConsumerFactory(consumerFactory(c)))
	assert.Equal(t, []any{"a"}, mustRun(t, n))
}

func TestKafkaSourceFetchError(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := NewMockConsumer(ctrl)

	c.EXPECT().PollFetches(gomock.Any()).Return(kgo.Fetches{{Topics: []kgo.FetchTopic{{
		Topic:      "in",
		Partitions: []kgo.FetchPartition{{Partition: 3, Err: kerr.UnknownTopicOrPartition}},
	}}}})
	c.EXPECT().Close()

	n := KafkaSource([]string{"in"}, WithConsumerFactory(consumerFactory(c)))
	_, err := run(n)
	assert.True(t, errors.Is(err, ErrFetch))
	assert.True(t, errors.Is(err, kerr.UnknownTopicOrPartition))
	assert.Contains(t, err.Error(), "in/3")
}

func TestKafkaSourceDecodeError(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := NewMockConsumer(ctrl)

	c.EXPECT().PollFetches(gomock.Any()).Return(fetchOf("in", record("in", 7, "{not json")))
	c.EXPECT().Close()

	n := KafkaSource([]string{"in"}, WithJSONValues(), WithConsumerFactory(consumerFactory(c)))
	_, err := run(n)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "decode in/0@7")
}

func TestKafkaSourceCancel(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := NewMockConsumer(ctrl)

	ctx, cancel := context.WithCancel(context.Background())
	c.EXPECT().PollFetches(gomock.Any()).DoAndReturn(func(context.Context) kgo.Fetches {
		cancel()
		return kgo.NewErrFetch(context.Canceled)
	})

	n := KafkaSource([]string{"in"}, WithConsumerFactory(consumerFactory(c)))
	s, err := n.Open(ctx, nil)
	assert.NoError(t, err)
	_, err = s.Next(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestKafkaSourceOpenErrors(t *testing.T) {
	_, err := run(KafkaSource(nil))
	assert.True(t, errors.Is(err, ErrNoTopic))

	var gotOpts int
	n := KafkaSource([]string{"a", "b"}, WithGroup("g"), WithConsumerFactory(func(_ []string, opts ...kgo.Opt) (Consumer, error) {
		gotOpts = len(opts)
		return nil, errors.New("refused")
	}))
	_, err = run(n)
	assert.EqualError(t, err, "refused")
	assert.Equal(t, 2, gotOpts)
}

func TestKafkaSourceValueSerde(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := NewMockConsumer(ctrl)

	b, err := kserde.Float64.Serializer(21.5)
	assert.NoError(t, err)
	c.EXPECT().PollFetches(gomock.Any()).Return(fetchOf("temps",
		&kgo.Record{Topic: "temps", Value: b},
		&kgo.Record{Topic: "temps", Offset: 1, Value: []byte{1}}))
	c.EXPECT().Close()

	n := KafkaSource([]string{"temps"}, WithValueSerde(kserde.Erase(kserde.Float64)), WithConsumerFactory(consumerFactory(c)))
	got, err := run(n)
	assert.Equal(t, []any{21.5}, got)
	assert.True(t, errors.Is(err, kserde.ErrLength))
}
