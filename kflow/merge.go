package kflow

import (
	"context"
	"fmt"
	"reflect"
	"slices"

	"github.com/birdayz/tributary/kstream"
)

// combineFunc joins one paired tick of two operands.
type combineFunc func(x, y any) (any, error)

// Merge pairs the values of a and b by position and emits []any{x, y} per
// tick. When one side is a nested sequence, the other side's value is paired
// with each of its elements; two nested sequences are zipped. The merge
// completes as soon as either side does.
func Merge(a, b any) *Node {
	return merge2("Merge", a, b, func(x, y any) (any, error) {
		return []any{x, y}, nil
	})
}

// ListMerge is Merge, but concatenates both operands into one flat slice.
// Slice operands contribute their elements, other values are appended as a
// single element.
func ListMerge(a, b any) *Node {
	return merge2("ListMerge", a, b, func(x, y any) (any, error) {
		var out []any
		out = appendList(out, x)
		out = appendList(out, y)
		return out, nil
	})
}

// DictMerge is Merge, but merges both operands into one map. Keys of b take
// precedence. Operands must be maps with string keys.
func DictMerge(a, b any) *Node {
	return merge2("DictMerge", a, b, func(x, y any) (any, error) {
		out := map[string]any{}
		if err := mergeInto(out, x); err != nil {
			return nil, err
		}
		if err := mergeInto(out, y); err != nil {
			return nil, err
		}
		return out, nil
	})
}

func merge2(name string, a, b any, combine combineFunc) *Node {
	return New(name, nil, func(_ context.Context, _ Kwargs, inputs []kstream.Stream) (kstream.Stream, error) {
		return flatMap(kstream.Zip(inputs...), func(ctx context.Context, v any) (kstream.Value, error) {
			pair := v.([]any)
			x, err := kstream.Resolve(ctx, pair[0])
			if err != nil {
				return kstream.Value{}, err
			}
			y, err := kstream.Resolve(ctx, pair[1])
			if err != nil {
				return kstream.Value{}, err
			}
			return combinePair(x, y, combine)
		}), nil
	}, lift(a, nil), lift(b, nil))
}

func combinePair(x, y kstream.Value, combine combineFunc) (kstream.Value, error) {
	if x.Kind == kstream.KindEmpty || y.Kind == kstream.KindEmpty {
		return kstream.Value{Kind: kstream.KindEmpty}, nil
	}
	switch {
	case x.Kind == kstream.KindSequence && y.Kind == kstream.KindSequence:
		return kstream.Sequence(kstream.Map(kstream.Zip(x.Seq, y.Seq), func(t any) (any, error) {
			tuple := t.([]any)
			return combine(tuple[0], tuple[1])
		})), nil
	case x.Kind == kstream.KindSequence:
		return kstream.Sequence(kstream.Map(x.Seq, func(e any) (any, error) {
			return combine(e, y.Scalar)
		})), nil
	case y.Kind == kstream.KindSequence:
		return kstream.Sequence(kstream.Map(y.Seq, func(e any) (any, error) {
			return combine(x.Scalar, e)
		})), nil
	}
	out, err := combine(x.Scalar, y.Scalar)
	if err != nil {
		return kstream.Value{}, err
	}
	return kstream.Scalar(out), nil
}

// Reduce zips any number of operands. Per tick, scalar values are emitted as
// one flat slice. If some operands produced nested sequences, those are zipped
// and every inner tuple emits the scalars followed by one element from each
// sequence, in operand order.
func Reduce(operands ...any) *Node {
	nodes := make([]*Node, len(operands))
	for i, op := range operands {
		nodes[i] = lift(op, nil)
	}
	return New("Reduce", nil, func(_ context.Context, _ Kwargs, inputs []kstream.Stream) (kstream.Stream, error) {
		return flatMap(kstream.Zip(inputs...), func(ctx context.Context, v any) (kstream.Value, error) {
			var (
				scalars []any
				seqs    []kstream.Stream
			)
			for _, raw := range v.([]any) {
				val, err := kstream.Resolve(ctx, raw)
				if err != nil {
					return kstream.Value{}, err
				}
				switch val.Kind {
				case kstream.KindSequence:
					seqs = append(seqs, val.Seq)
				case kstream.KindScalar:
					scalars = append(scalars, val.Scalar)
				default:
					return kstream.Value{Kind: kstream.KindEmpty}, nil
				}
			}
			if len(seqs) == 0 {
				return kstream.Scalar(scalars), nil
			}
			return kstream.Sequence(kstream.Map(kstream.Zip(seqs...), func(t any) (any, error) {
				return append(slices.Clone(scalars), t.([]any)...), nil
			})), nil
		}), nil
	}, nodes...)
}

func appendList(out []any, v any) []any {
	if elems, ok := listElems(v); ok {
		return append(out, elems...)
	}
	return append(out, v)
}

func mergeInto(dst map[string]any, v any) error {
	if m, ok := v.(map[string]any); ok {
		for k, e := range m {
			dst[k] = e
		}
		return nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return fmt.Errorf("%w: %T", ErrNotMapping, v)
	}
	iter := rv.MapRange()
	for iter.Next() {
		dst[iter.Key().String()] = iter.Value().Interface()
	}
	return nil
}
