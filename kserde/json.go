package kserde

import (
	"encoding/json"
	"fmt"
)

// JSONSerializer encodes values with encoding/json.
func JSONSerializer[T any]() Serializer[T] {
	return func(v T) ([]byte, error) {
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrJSON, err)
		}
		return b, nil
	}
}

// JSONDeserializer decodes JSON into T. Empty data, as carried by Kafka
// tombstones, decodes to the zero value. Untyped numbers become float64.
func JSONDeserializer[T any]() Deserializer[T] {
	return func(b []byte) (T, error) {
		var v T
		if len(b) == 0 {
			return v, nil
		}
		if err := json.Unmarshal(b, &v); err != nil {
			var zero T
			return zero, fmt.Errorf("%w: %w", ErrJSON, err)
		}
		return v, nil
	}
}

// JSON is the JSON Serde for T. The Kafka sink and source use JSON[any].
func JSON[T any]() Serde[T] {
	return Serde[T]{
		Serializer:   JSONSerializer[T](),
		Deserializer: JSONDeserializer[T](),
	}
}
