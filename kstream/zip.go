package kstream

import (
	"context"
	"errors"
)

// Zip pairs the inputs by position. Each Next pulls one value from every
// input, in order, and returns them as a []any. The zipped stream ends as soon
// as any input ends, so the shortest input decides the length.
//
// StreamEnd values end the zip like ErrEnd. StreamNone values are skipped on
// the input that produced them, so one input idling does not misalign the
// others.
func Zip(inputs ...Stream) Stream {
	done := false
	return StreamFunc(func(ctx context.Context) (any, error) {
		if done || len(inputs) == 0 {
			return nil, ErrEnd
		}
		tuple := make([]any, len(inputs))
		for i, in := range inputs {
			v, err := pull(ctx, in)
			if err != nil {
				if errors.Is(err, ErrEnd) {
					done = true
				}
				return nil, err
			}
			tuple[i] = v
		}
		return tuple, nil
	})
}

// pull returns the next data value of s, translating sentinels.
func pull(ctx context.Context, s Stream) (any, error) {
	for {
		v, err := s.Next(ctx)
		if err != nil {
			return nil, err
		}
		switch v {
		case StreamEnd:
			return nil, ErrEnd
		case StreamNone:
			continue
		}
		return v, nil
	}
}
