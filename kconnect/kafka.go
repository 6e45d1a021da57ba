// Package kconnect connects dataflow graphs to Kafka: KafkaSink produces every
// value it receives and KafkaSource emits the records of a set of topics.
package kconnect

import (
	"context"
	"errors"
	"fmt"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"
)

var (
	ErrNoTopic   = errors.New("kconnect: no topic configured")
	ErrNoBrokers = errors.New("kconnect: no brokers configured")
	ErrProduce   = errors.New("kconnect: produce failed")
	ErrFetch     = errors.New("kconnect: fetch failed")
)

// Producer is the part of *kgo.Client the sink uses.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
	Flush(ctx context.Context) error
	Close()
}

// Consumer is the part of *kgo.Client the source uses.
type Consumer interface {
	PollFetches(ctx context.Context) kgo.Fetches
	Close()
}

// TopicAdmin is the part of *kadm.Client used to create topics.
type TopicAdmin interface {
	CreateTopics(ctx context.Context, partitions int32, replicationFactor int16, configs map[string]*string, topics ...string) (kadm.CreateTopicResponses, error)
	Close()
}

// ClientFactory opens a Kafka client. The sink and source call it when their
// node starts running and close the client when it completes.
type ClientFactory[T any] func(brokers []string, opts ...kgo.Opt) (T, error)

var (
	_ Producer   = (*kgo.Client)(nil)
	_ Consumer   = (*kgo.Client)(nil)
	_ TopicAdmin = (*kadm.Client)(nil)
)

func newClient(brokers []string, opts ...kgo.Opt) (*kgo.Client, error) {
	if len(brokers) == 0 {
		return nil, ErrNoBrokers
	}
	cl, err := kgo.NewClient(append([]kgo.Opt{kgo.SeedBrokers(brokers...)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("kconnect: create client: %w", err)
	}
	return cl, nil
}

// DefaultProducer opens a *kgo.Client for producing.
func DefaultProducer(brokers []string, opts ...kgo.Opt) (Producer, error) {
	cl, err := newClient(brokers, opts...)
	if err != nil {
		return nil, err
	}
	return cl, nil
}

// DefaultConsumer opens a *kgo.Client for consuming. The topics and group
// are passed as options by the source.
func DefaultConsumer(brokers []string, opts ...kgo.Opt) (Consumer, error) {
	cl, err := newClient(brokers, opts...)
	if err != nil {
		return nil, err
	}
	return cl, nil
}

// DefaultAdmin opens a kadm client on its own connection.
func DefaultAdmin(brokers []string, opts ...kgo.Opt) (TopicAdmin, error) {
	cl, err := newClient(brokers, opts...)
	if err != nil {
		return nil, err
	}
	return kadm.NewClient(cl), nil
}
