package kconnect

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
	"github.com/birdayz/tributary/kflow"
	"github.com/birdayz/tributary/kstream"
	"github.com/testcontainers/testcontainers-go/modules/redpanda"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"
)

const redpandaImage = "docker.redpanda.com/redpandadata/redpanda:v23.3.3"

func startRedpanda(t *testing.T) []string {
	t.Helper()
	if testing.Short() || os.Getenv("TRIBUTARY_DOCKER_TESTS") != "1" {
		t.Skip("set TRIBUTARY_DOCKER_TESTS=1 to run against a Redpanda container")
	}

	ctx := context.Background()
	container, err := redpanda.Run(ctx, redpandaImage)
	assert.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	broker, err := container.KafkaSeedBroker(ctx)
	assert.NoError(t, err)
	return []string{broker}
}

func TestKafkaRoundTrip(t *testing.T) {
	brokers := startRedpanda(t)
	topic := fmt.Sprintf("tributary-%d", time.Now().UnixNano())

	sink := KafkaSink(kflow.Slice(), topic, WithBrokers(brokers...), WithJSON(), WithCreateTopic(1, 1))
	sent := mustRun(t, sink, kstream.FromSlice(
		map[string]any{"n": 1},
		map[string]any{"n": 2},
		map[string]any{"n": 3},
	))
	assert.Equal(t, []any{`{"n":1}`, `{"n":2}`, `{"n":3}`}, sent)

	client, err := kgo.NewClient(kgo.SeedBrokers(brokers...))
	assert.NoError(t, err)
	defer client.Close()
	offsets, err := kadm.NewClient(client).ListEndOffsets(context.Background(), topic)
	assert.NoError(t, err)
	end, ok := offsets.Lookup(topic, 0)
	assert.True(t, ok)
	assert.Equal(t, int64(3), end.Offset)

	source := KafkaSource([]string{topic},
		WithBrokers(brokers...),
		WithJSONValues(),
		WithMaxRecords(3),
		WithConsumerOpts(kgo.ConsumeResetOffset(kgo.NewOffset().AtStart())))
	got := mustRun(t, source)
	assert.Equal(t, []any{
		map[string]any{"n": float64(1)},
		map[string]any{"n": float64(2)},
		map[string]any{"n": float64(3)},
	}, got)
}
