package kstream

import (
	"context"
	"fmt"
)

// Kind tags a classified value.
type Kind uint8

const (
	KindEmpty Kind = iota
	KindScalar
	KindSequence
)

func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "Empty"
	case KindScalar:
		return "Scalar"
	case KindSequence:
		return "Sequence"
	default:
		return "Unknown"
	}
}

// Value is the tagged form of a per-tick value. Combinators classify once and
// branch on Kind instead of inspecting dynamic types.
type Value struct {
	Kind   Kind
	Scalar any
	Seq    Stream
}

func (v Value) String() string {
	switch v.Kind {
	case KindScalar:
		return fmt.Sprintf("Scalar(%v)", v.Scalar)
	case KindSequence:
		return "Sequence"
	default:
		return "Empty"
	}
}

// Scalar wraps v as a scalar value.
func Scalar(v any) Value { return Value{Kind: KindScalar, Scalar: v} }

// Sequence wraps s as a nested sequence.
func Sequence(s Stream) Value { return Value{Kind: KindSequence, Seq: s} }

// Classify tags v without blocking. Deferred values are left as scalars; use
// Resolve to await them.
func Classify(v any) Value {
	switch t := v.(type) {
	case Stream:
		return Sequence(t)
	case Sentinel:
		if t == StreamNone {
			return Value{Kind: KindEmpty}
		}
	}
	return Scalar(v)
}

// Resolve awaits v once if it is Deferred and classifies the result.
func Resolve(ctx context.Context, v any) (Value, error) {
	if d, ok := v.(Deferred); ok {
		res, err := d.Await(ctx)
		if err != nil {
			return Value{}, err
		}
		return Classify(res), nil
	}
	return Classify(v), nil
}

// Stream returns the value as a stream: a sequence as itself, a scalar as a
// single element stream and Empty as an empty stream.
func (v Value) Stream() Stream {
	switch v.Kind {
	case KindSequence:
		return v.Seq
	case KindScalar:
		return FromSlice(v.Scalar)
	default:
		return Empty()
	}
}
