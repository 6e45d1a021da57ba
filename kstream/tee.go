package kstream

import (
	"context"
	"sync"
)

// Tee splits s into n readers that each observe the full sequence. Values are
// pulled from s once and buffered until every reader has consumed them.
//
// The readers may be consumed from different goroutines.
func Tee(s Stream, n int) []Stream {
	t := &tee{src: s, pos: make([]int, n)}
	out := make([]Stream, n)
	for i := range out {
		out[i] = &teeReader{t: t, idx: i}
	}
	return out
}

type teeItem struct {
	v   any
	err error
}

type tee struct {
	mu   sync.Mutex
	src  Stream
	buf  []teeItem
	base int // absolute position of buf[0]
	pos  []int
	end  *teeItem
}

type teeReader struct {
	t   *tee
	idx int
}

func (r *teeReader) Next(ctx context.Context) (any, error) {
	t := r.t
	t.mu.Lock()
	defer t.mu.Unlock()

	p := t.pos[r.idx]
	if off := p - t.base; off < len(t.buf) {
		it := t.buf[off]
		t.pos[r.idx]++
		t.trim()
		return it.v, it.err
	}
	if t.end != nil {
		return t.end.v, t.end.err
	}

	v, err := t.src.Next(ctx)
	if err != nil {
		// Cancellation belongs to this reader only; the others may retry.
		if ctx.Err() == nil {
			t.end = &teeItem{err: err}
		}
		return nil, err
	}
	t.buf = append(t.buf, teeItem{v: v})
	t.pos[r.idx]++
	t.trim()
	return v, nil
}

// trim drops buffered items every reader is past.
func (t *tee) trim() {
	lowest := t.pos[0]
	for _, p := range t.pos[1:] {
		lowest = min(lowest, p)
	}
	if drop := lowest - t.base; drop > 0 {
		clear(t.buf[:drop])
		t.buf = t.buf[drop:]
		t.base = lowest
	}
}
