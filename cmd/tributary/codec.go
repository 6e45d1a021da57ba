package main

import (
	"context"
	"fmt"

	"github.com/birdayz/tributary/kconnect"
	"github.com/birdayz/tributary/kflow"
	"github.com/birdayz/tributary/kserde"
)

// codec selects how sums are written to Kafka. convert adapts a sum to the
// type the serde expects; it is nil when no conversion is needed.
type codec struct {
	opt     kconnect.Option
	convert kflow.ApplyFunc
}

func codecFor(name string) (codec, error) {
	switch name {
	case "", "json":
		return codec{opt: kconnect.WithJSON()}, nil
	case "text":
		return codec{opt: kconnect.WithValueSerde(kserde.Text)}, nil
	case "string":
		return codec{
			opt:     kconnect.WithValueSerde(kserde.Erase(kserde.String)),
			convert: func(_ context.Context, v any, _ kflow.Kwargs) (any, error) { return fmt.Sprint(v), nil },
		}, nil
	case "int64":
		return codec{
			opt: kconnect.WithValueSerde(kserde.Erase(kserde.Int64)),
			convert: func(_ context.Context, v any, _ kflow.Kwargs) (any, error) {
				i, ok := v.(int)
				if !ok {
					return nil, fmt.Errorf("int64 codec: unexpected %T", v)
				}
				return int64(i), nil
			},
		}, nil
	case "float64":
		return codec{
			opt: kconnect.WithValueSerde(kserde.Erase(kserde.Float64)),
			convert: func(_ context.Context, v any, _ kflow.Kwargs) (any, error) {
				i, ok := v.(int)
				if !ok {
					return nil, fmt.Errorf("float64 codec: unexpected %T", v)
				}
				return float64(i), nil
			},
		}, nil
	}
	return codec{}, fmt.Errorf("unknown codec %q", name)
}
