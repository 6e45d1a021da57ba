package kconnect

import (
	"log/slog"

	"github.com/birdayz/tributary/kserde"
	"github.com/twmb/franz-go/pkg/kgo"
)

// Option configures a KafkaSink or KafkaSource. Options that only apply to
// one of them are ignored by the other.
type Option func(*config)

type config struct {
	log     *slog.Logger
	brokers []string

	// sink
	json              bool
	wrap              bool
	serializer        kserde.Serializer[any]
	producerOpts      []kgo.Opt
	producer          ClientFactory[Producer]
	admin             ClientFactory[TopicAdmin]
	createTopic       bool
	partitions        int32
	replicationFactor int16

	// source
	group        string
	deserializer kserde.Deserializer[any]
	maxRecords   int
	consumerOpts []kgo.Opt
	consumer     ClientFactory[Consumer]
}

func newConfig(opts []Option) *config {
	c := &config{
		log:          slog.New(slog.NewTextHandler(discard{}, nil)),
		brokers:      []string{"localhost:9092"},
		serializer:   kserde.Text.Serializer,
		deserializer: kserde.Text.Deserializer,
		producer:     DefaultProducer,
		consumer:     DefaultConsumer,
		admin:        DefaultAdmin,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithLog sets the logger
var WithLog = func(log *slog.Logger) Option {
	return func(c *config) {
		c.log = log
	}
}

// WithBrokers sets the Kafka seed brokers
var WithBrokers = func(brokers ...string) Option {
	return func(c *config) {
		c.brokers = brokers
	}
}

// WithJSON makes the sink encode values as JSON and emit the JSON text it
// sent.
var WithJSON = func() Option {
	return func(c *config) {
		c.json = true
	}
}

// WithWrap makes the sink send every value wrapped in a one-element list.
var WithWrap = func() Option {
	return func(c *config) {
		c.wrap = true
	}
}

// WithSerializer sets how the sink encodes values that are not sent as JSON.
var WithSerializer = func(s kserde.Serializer[any]) Option {
	return func(c *config) {
		c.serializer = s
	}
}

// WithProducerOpts passes additional options to the producing client
var WithProducerOpts = func(opts ...kgo.Opt) Option {
	return func(c *config) {
		c.producerOpts = append(c.producerOpts, opts...)
	}
}

// WithProducerFactory replaces how the producing client is opened
var WithProducerFactory = func(f ClientFactory[Producer]) Option {
	return func(c *config) {
		c.producer = f
	}
}

// WithCreateTopic makes the sink create its topic before the first record.
// An existing topic is not an error.
var WithCreateTopic = func(partitions int32, replicationFactor int16) Option {
	return func(c *config) {
		c.createTopic = true
		c.partitions = partitions
		c.replicationFactor = replicationFactor
	}
}

// WithAdminFactory replaces how the topic admin client is opened
var WithAdminFactory = func(f ClientFactory[TopicAdmin]) Option {
	return func(c *config) {
		c.admin = f
	}
}

// WithGroup makes the source consume as a member of a consumer group
var WithGroup = func(group string) Option {
	return func(c *config) {
		c.group = group
	}
}

// WithJSONValues makes the source decode record values as JSON
var WithJSONValues = func() Option {
	return func(c *config) {
		c.deserializer = kserde.JSON[any]().Deserializer
	}
}

// WithValueSerde sets both how the sink encodes values that are not sent as
// JSON and how the source decodes record values. Typed serdes are adapted
// with kserde.Erase, e.g. kserde.Erase(kserde.Int64).
var WithValueSerde = func(s kserde.Serde[any]) Option {
	return func(c *config) {
		c.serializer = s.Serializer
		c.deserializer = s.Deserializer
	}
}

// WithDeserializer sets how the source decodes record values
var WithDeserializer = func(d kserde.Deserializer[any]) Option {
	return func(c *config) {
		c.deserializer = d
	}
}

// WithMaxRecords makes the source complete after n records. Zero means
// unbounded.
var WithMaxRecords = func(n int) Option {
	return func(c *config) {
		c.maxRecords = n
	}
}

// WithConsumerOpts passes additional options to the consuming client
var WithConsumerOpts = func(opts ...kgo.Opt) Option {
	return func(c *config) {
		c.consumerOpts = append(c.consumerOpts, opts...)
	}
}

// WithConsumerFactory replaces how the consuming client is opened
var WithConsumerFactory = func(f ClientFactory[Consumer]) Option {
	return func(c *config) {
		c.consumer = f
	}
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
