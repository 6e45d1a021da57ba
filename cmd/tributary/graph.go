package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/birdayz/tributary/kconnect"
	"github.com/birdayz/tributary/kflow"
	"github.com/birdayz/tributary/kstate"
	"github.com/birdayz/tributary/kstream"
)

// buildGraph returns counter -> delay -> window -> sum, optionally produced
// to Kafka.
func buildGraph(cfg Config, log *slog.Logger) *kflow.Node {
	counter := kflow.State(count, kflow.Kwargs{"limit": cfg.Repeat}, kstate.Fields{"n": 0})
	paced := kflow.Delay(counter, nil, cfg.Interval)
	windows := kflow.Window(paced, nil, cfg.Window.Size, cfg.Window.FullOnly)
	sums := kflow.MustApply(sum, windows, nil)

	if cfg.Kafka.Topic == "" {
		return sums
	}
	c, err := codecFor(cfg.Kafka.Codec)
	if err != nil {
		// validate rejects unknown codecs before the graph is built.
		panic(err)
	}
	if c.convert != nil {
		sums = kflow.MustApply(c.convert, sums, nil)
	}
	return kconnect.KafkaSink(sums, cfg.Kafka.Topic,
		kconnect.WithBrokers(cfg.Kafka.Brokers...),
		c.opt,
		kconnect.WithCreateTopic(1, 1),
		kconnect.WithLog(log))
}

func count(_ context.Context, kw kflow.Kwargs, st *kstate.State) (any, error) {
	n, err := kstate.Add(st, "n", 1)
	if err != nil {
		return nil, err
	}
	if limit := kw.Int("limit", 0); limit > 0 && n > limit {
		return kstream.StreamEnd, nil
	}
	return n, nil
}

func sum(_ context.Context, v any, _ kflow.Kwargs) (any, error) {
	switch v := v.(type) {
	case int:
		return v, nil
	case []any:
		total := 0
		for _, x := range v {
			i, ok := x.(int)
			if !ok {
				return nil, fmt.Errorf("sum: unexpected %T", x)
			}
			total += i
		}
		return total, nil
	default:
		return nil, fmt.Errorf("sum: unexpected %T", v)
	}
}
