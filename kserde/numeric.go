package kserde

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Int64Serializer serializes int64 to big-endian bytes
var Int64Serializer = func(data int64) ([]byte, error) {
	return binary.BigEndian.AppendUint64(nil, uint64(data)), nil
}

// Int64Deserializer deserializes big-endian bytes to int64
var Int64Deserializer = func(data []byte) (int64, error) {
	if len(data) != 8 {
		return 0, fmt.Errorf("%w: int64 requires 8 bytes, got %d", ErrLength, len(data))
	}
	return int64(binary.BigEndian.Uint64(data)), nil
}

var Int64 = Serde[int64]{
	Serializer:   Int64Serializer,
	Deserializer: Int64Deserializer,
}

var Float64Serializer = func(data float64) ([]byte, error) {
	return binary.BigEndian.AppendUint64(nil, math.Float64bits(data)), nil
}

var Float64Deserializer = func(data []byte) (float64, error) {
	if len(data) != 8 {
		return 0, fmt.Errorf("%w: float64 requires 8 bytes, got %d", ErrLength, len(data))
	}
	return math.Float64frombits(binary.BigEndian.Uint64(data)), nil
}

var Float64 = Serde[float64]{
	Serializer:   Float64Serializer,
	Deserializer: Float64Deserializer,
}
