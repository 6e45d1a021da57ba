// Package kserde converts values to and from the bytes carried by Kafka
// records.
package kserde

type Serde[T any] struct {
	Serializer   Serializer[T]
	Deserializer Deserializer[T]
}

type Serializer[T any] func(T) ([]byte, error)

type Deserializer[T any] func([]byte) (T, error)

// EraseSerializer adapts a typed serializer to values of unknown type. A
// value of the wrong type fails with ErrType.
func EraseSerializer[T any](s Serializer[T]) Serializer[any] {
	return func(v any) ([]byte, error) {
		t, ok := v.(T)
		if !ok {
			return nil, typeError[T](v)
		}
		return s(t)
	}
}

// EraseDeserializer adapts a typed deserializer to produce values of type any.
func EraseDeserializer[T any](d Deserializer[T]) Deserializer[any] {
	return func(b []byte) (any, error) {
		return d(b)
	}
}

// Erase adapts a typed Serde to values of unknown type.
func Erase[T any](s Serde[T]) Serde[any] {
	return Serde[any]{
		Serializer:   EraseSerializer(s.Serializer),
		Deserializer: EraseDeserializer(s.Deserializer),
	}
}
