package runtime

import (
	"context"

	"github.com/birdayz/tributary/kstream"
)

// Subscription is one downstream edge of a Broadcaster. It is a
// kstream.Stream over the values published after it was taken.
type Subscription struct {
	b     *Broadcaster
	ready chan struct{}

	// guarded by b.mu
	queue     []any
	cancelled bool
}

// Next returns the next published value. After the producer completed it
// returns kstream.ErrEnd, after it failed ErrUpstreamFailed. A cancelled
// subscription returns kstream.ErrEnd.
func (s *Subscription) Next(ctx context.Context) (any, error) {
	b := s.b
	for {
		b.mu.Lock()
		switch {
		case len(s.queue) > 0:
			v := s.queue[0]
			s.queue[0] = nil
			s.queue = s.queue[1:]
			notify(b.space)
			b.mu.Unlock()
			return v, nil
		case s.cancelled:
			b.mu.Unlock()
			return nil, kstream.ErrEnd
		case b.closed:
			err := b.endErrLocked()
			b.mu.Unlock()
			return nil, err
		}
		b.mu.Unlock()

		select {
		case <-s.ready:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Pending returns the number of published values not read yet.
func (s *Subscription) Pending() int {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	return len(s.queue)
}

// Cancel tells the producer this edge wants no more values. It is safe to
// call more than once.
func (s *Subscription) Cancel() {
	s.b.cancel(s)
}

// Close cancels the subscription. It implements io.Closer.
func (s *Subscription) Close() error {
	s.Cancel()
	return nil
}
