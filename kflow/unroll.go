package kflow

import (
	"context"
	"fmt"
	"maps"
	"reflect"

	"github.com/birdayz/tributary/kstream"
)

// Unroll expands every value of in by one level. Slices and arrays emit their
// elements, nested streams are drained in order. Any other value emits
// nothing.
func Unroll(in any, kw Kwargs) *Node {
	return New("Unroll", kw, func(_ context.Context, _ Kwargs, inputs []kstream.Stream) (kstream.Stream, error) {
		return flatMap(inputs[0], func(ctx context.Context, v any) (kstream.Value, error) {
			val, err := kstream.Resolve(ctx, v)
			if err != nil {
				return kstream.Value{}, err
			}
			if val.Kind == kstream.KindSequence {
				return val, nil
			}
			if elems, ok := listElems(val.Scalar); ok {
				return kstream.Sequence(kstream.FromSlice(elems...)), nil
			}
			return kstream.Value{Kind: kstream.KindEmpty}, nil
		}), nil
	}, lift(in, kw))
}

// listElems returns the elements of a slice or array. Byte slices are not
// treated as lists.
func listElems(v any) ([]any, bool) {
	if l, ok := v.([]any); ok {
		return l, true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return nil, false
		}
	case reflect.Array:
	default:
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// Frame is an in-memory table of rows.
type Frame interface {
	Len() int
	Row(i int) Row
}

// Row is one row of a Frame.
type Row interface {
	// Index identifies the row within its frame.
	Index() any
	// Fields maps column names to values.
	Fields() map[string]any
}

// Records is a Frame backed by a slice of field maps. When Index is shorter
// than Rows, rows without an explicit index are identified by position.
type Records struct {
	Index []any
	Rows  []map[string]any
}

func (r Records) Len() int { return len(r.Rows) }

func (r Records) Row(i int) Row {
	var idx any = i
	if i < len(r.Index) {
		idx = r.Index[i]
	}
	return record{index: idx, fields: r.Rows[i]}
}

type record struct {
	index  any
	fields map[string]any
}

func (r record) Index() any             { return r.index }
func (r record) Fields() map[string]any { return r.fields }

// FrameOptions controls UnrollDataFrame output.
type FrameOptions struct {
	// JSON emits each row as a field map with an added "index" key instead of
	// the Row handle.
	JSON bool
	// Wrap emits each record inside a one element slice.
	Wrap bool
}

// UnrollDataFrame emits one record per row of every Frame emitted by in.
// Values that are not frames fail with ErrNotFrame.
func UnrollDataFrame(in any, kw Kwargs, opts FrameOptions) *Node {
	return New("UnrollDataFrame", kw, func(_ context.Context, _ Kwargs, inputs []kstream.Stream) (kstream.Stream, error) {
		return flatMap(inputs[0], func(_ context.Context, v any) (kstream.Value, error) {
			f, ok := v.(Frame)
			if !ok {
				return kstream.Value{}, fmt.Errorf("%w: %T", ErrNotFrame, v)
			}
			out := make([]any, f.Len())
			for i := range out {
				row := f.Row(i)
				var rec any = row
				if opts.JSON {
					data := maps.Clone(row.Fields())
					if data == nil {
						data = map[string]any{}
					}
					data["index"] = row.Index()
					rec = data
				}
				if opts.Wrap {
					rec = []any{rec}
				}
				out[i] = rec
			}
			return kstream.Sequence(kstream.FromSlice(out...)), nil
		}), nil
	}, lift(in, kw))
}
