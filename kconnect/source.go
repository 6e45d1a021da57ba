package kconnect

import (
	"context"
	"errors"
	"fmt"

	"github.com/birdayz/tributary/kflow"
	"github.com/birdayz/tributary/kstream"
	"github.com/twmb/franz-go/pkg/kgo"
)

// KafkaSource emits the decoded value of every record of topics. It runs
// until its consumers stop, or until WithMaxRecords records were emitted.
func KafkaSource(topics []string, opts ...Option) *kflow.Node {
	c := newConfig(opts)
	return kflow.New("KafkaSource", kflow.Kwargs{"topics": topics}, func(ctx context.Context, _ kflow.Kwargs, _ []kstream.Stream) (kstream.Stream, error) {
		if len(topics) == 0 {
			return nil, ErrNoTopic
		}
		clientOpts := []kgo.Opt{kgo.ConsumeTopics(topics...)}
		if c.group != "" {
			clientOpts = append(clientOpts, kgo.ConsumerGroup(c.group))
		}
		clientOpts = append(clientOpts, c.consumerOpts...)

		cons, err := c.consumer(c.brokers, clientOpts...)
		if err != nil {
			return nil, err
		}
		c.log.Debug("Consumer opened", "topics", topics, "group", c.group)
		return &sourceStream{cfg: c, consumer: cons}, nil
	})
}

type sourceStream struct {
	cfg      *config
	consumer Consumer
	pending  []*kgo.Record
	emitted  int
}

func (s *sourceStream) Next(ctx context.Context) (any, error) {
	if s.cfg.maxRecords > 0 && s.emitted >= s.cfg.maxRecords {
		return nil, kstream.ErrEnd
	}
	for len(s.pending) == 0 {
		if err := s.poll(ctx); err != nil {
			return nil, err
		}
	}

	rec := s.pending[0]
	s.pending = s.pending[1:]
	v, err := s.cfg.deserializer(rec.Value)
	if err != nil {
		return nil, fmt.Errorf("kconnect: decode %s/%d@%d: %w", rec.Topic, rec.Partition, rec.Offset, err)
	}
	s.emitted++
	return v, nil
}

func (s *sourceStream) poll(ctx context.Context) error {
	fetches := s.consumer.PollFetches(ctx)
	if err := ctx.Err(); err != nil {
		return err
	}
	if fetches.IsClientClosed() {
		return kstream.ErrEnd
	}
	var err error
	fetches.EachError(func(topic string, partition int32, ferr error) {
		if err == nil && !errors.Is(ferr, context.Canceled) {
			err = fmt.Errorf("%w: %s/%d: %w", ErrFetch, topic, partition, ferr)
		}
	})
	if err != nil {
		return err
	}
	s.pending = append(s.pending, fetches.Records()...)
	return nil
}

// Close releases the client.
func (s *sourceStream) Close() error {
	s.consumer.Close()
	s.cfg.log.Debug("Consumer closed", "records", s.emitted)
	return nil
}
