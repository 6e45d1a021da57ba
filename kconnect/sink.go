package kconnect

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/birdayz/tributary/kflow"
	"github.com/birdayz/tributary/kserde"
	"github.com/birdayz/tributary/kstream"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
	"go.uber.org/multierr"
)

const flushTimeout = 10 * time.Second

// KafkaSink produces every value of in to topic and emits what it sent: the
// JSON text with WithJSON, otherwise the (possibly wrapped) value. The client
// is opened when the node starts and closed when it completes.
func KafkaSink(in *kflow.Node, topic string, opts ...Option) *kflow.Node {
	c := newConfig(opts)
	return kflow.New("Kafka", kflow.Kwargs{"topic": topic}, func(ctx context.Context, kw kflow.Kwargs, inputs []kstream.Stream) (kstream.Stream, error) {
		topic := kw.String("topic", "")
		if topic == "" {
			return nil, ErrNoTopic
		}
		if c.createTopic {
			if err := createTopic(ctx, c, topic); err != nil {
				return nil, err
			}
		}
		p, err := c.producer(c.brokers, c.producerOpts...)
		if err != nil {
			return nil, err
		}
		c.log.Debug("Producer opened", "topic", topic, "brokers", c.brokers)

		s := &sinkStream{cfg: c, topic: topic, in: inputs[0], producer: p}
		if c.json {
			s.serialize = kserde.JSON[any]().Serializer
		} else {
			s.serialize = c.serializer
		}
		return s, nil
	}, in)
}

type sinkStream struct {
	cfg       *config
	topic     string
	in        kstream.Stream
	producer  Producer
	serialize kserde.Serializer[any]
}

func (s *sinkStream) Next(ctx context.Context) (any, error) {
	v, err := s.in.Next(ctx)
	if err != nil {
		return nil, err
	}
	if s.cfg.wrap {
		v = []any{v}
	}

	payload, err := s.serialize(v)
	if err != nil {
		return nil, fmt.Errorf("kconnect: serialize for %q: %w", s.topic, err)
	}

	res := s.producer.ProduceSync(ctx, &kgo.Record{Topic: s.topic, Value: payload})
	if err := res.FirstErr(); err != nil {
		return nil, fmt.Errorf("%w: topic %q (retriable: %t): %w", ErrProduce, s.topic, kerr.IsRetriable(err), err)
	}

	if s.cfg.json {
		return string(payload), nil
	}
	return v, nil
}

// Close flushes outstanding records and releases the client.
func (s *sinkStream) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()
	err := s.producer.Flush(ctx)
	s.producer.Close()
	s.cfg.log.Debug("Producer closed", "topic", s.topic)
	return err
}

func createTopic(ctx context.Context, c *config, topic string) (err error) {
	admin, err := c.admin(c.brokers)
	if err != nil {
		return err
	}
	defer admin.Close()

	resps, err := admin.CreateTopics(ctx, c.partitions, c.replicationFactor, nil, topic)
	if err != nil {
		return fmt.Errorf("kconnect: create topic %q: %w", topic, err)
	}
	for _, resp := range resps {
		if resp.Err != nil && !errors.Is(resp.Err, kerr.TopicAlreadyExists) {
			err = multierr.Append(err, fmt.Errorf("kconnect: create topic %q: %w", resp.Topic, resp.Err))
		}
	}
	return err
}
