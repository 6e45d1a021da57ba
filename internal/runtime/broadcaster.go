package runtime

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/birdayz/tributary/kstream"
)

var (
	// ErrUpstreamFailed is returned by a subscription whose producer failed.
	// The producer reports the actual error.
	ErrUpstreamFailed = errors.New("upstream failed")

	ErrSubscribeAfterStart = errors.New("subscribe after first publish")
)

// Broadcaster delivers one node's output to every downstream edge. Each
// subscription queues the values it has not read yet. The producer may run
// ahead as long as at least one live subscription holds fewer than lookahead
// values, so a slow edge never stalls a fast one and the producer never runs
// far ahead of its fastest consumer.
//
// Publish and Close must be called from a single goroutine, the node's
// worker. Subscriptions may be read and cancelled from anywhere.
type Broadcaster struct {
	id        string
	lookahead int

	mu      sync.Mutex
	subs    []*Subscription
	live    int
	started bool
	closed  bool
	err     error

	// space is signalled whenever a subscription consumed a value or left.
	space   chan struct{}
	drained chan struct{}
}

// NewBroadcaster creates a broadcaster for the node with the given ID.
// lookahead is how many unread values the fastest subscription may hold
// before Publish waits; values below one mean one.
func NewBroadcaster(id string, lookahead int) *Broadcaster {
	return &Broadcaster{
		id:        id,
		lookahead: max(lookahead, 1),
		space:     make(chan struct{}, 1),
		drained:   make(chan struct{}),
	}
}

// ID returns the ID of the node the broadcaster serves.
func (b *Broadcaster) ID() string { return b.id }

// Subscribe adds a downstream edge. All subscriptions must be taken before
// the first Publish.
func (b *Broadcaster) Subscribe() (*Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.started || b.closed {
		return nil, fmt.Errorf("%w: %s", ErrSubscribeAfterStart, b.id)
	}
	s := &Subscription{
		b:     b,
		ready: make(chan struct{}, 1),
	}
	b.subs = append(b.subs, s)
	b.live++
	return s, nil
}

// MustSubscribe is like Subscribe but panics on error.
func (b *Broadcaster) MustSubscribe() *Subscription {
	s, err := b.Subscribe()
	if err != nil {
		panic(err)
	}
	return s
}

// Live returns the number of subscriptions that have not been cancelled.
func (b *Broadcaster) Live() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.live
}

// Drained is closed once every subscription has been cancelled. A producer
// nobody listens to should stop.
func (b *Broadcaster) Drained() <-chan struct{} {
	return b.drained
}

// Publish queues v on every live subscription. It waits while every live
// subscription already holds lookahead unread values. A nested stream is
// split with kstream.Tee so every subscriber observes all of its elements.
func (b *Broadcaster) Publish(ctx context.Context, v any) error {
	for {
		b.mu.Lock()
		b.started = true
		if b.publishLocked(v) {
			b.mu.Unlock()
			return nil
		}
		b.mu.Unlock()

		select {
		case <-b.space:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// publishLocked queues v if some live subscription has room. It reports
// false when the caller has to wait.
func (b *Broadcaster) publishLocked(v any) bool {
	var live []*Subscription
	hungry := false
	for _, s := range b.subs {
		if s.cancelled {
			continue
		}
		live = append(live, s)
		if len(s.queue) < b.lookahead {
			hungry = true
		}
	}
	if len(live) == 0 {
		return true
	}
	if !hungry {
		return false
	}
	for i, fv := range fanOut(v, len(live)) {
		live[i].queue = append(live[i].queue, fv)
		notify(live[i].ready)
	}
	return true
}

// Close ends every subscription. With a nil err subscribers see kstream.ErrEnd
// after draining their queue, otherwise ErrUpstreamFailed.
func (b *Broadcaster) Close(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	b.err = err
	for _, s := range b.subs {
		notify(s.ready)
	}
}

func (b *Broadcaster) cancel(s *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if s.cancelled {
		return
	}
	s.cancelled = true
	s.queue = nil
	notify(s.ready)
	notify(b.space)
	b.live--
	if b.live == 0 {
		close(b.drained)
	}
}

func (b *Broadcaster) endErrLocked() error {
	if b.err != nil {
		return fmt.Errorf("%w: %s", ErrUpstreamFailed, b.id)
	}
	return kstream.ErrEnd
}

func notify(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

// fanOut returns n copies of v. Streams are teed rather than shared.
func fanOut(v any, n int) []any {
	out := make([]any, n)
	if s, ok := v.(kstream.Stream); ok && n > 1 {
		for i, r := range kstream.Tee(s, n) {
			out[i] = r
		}
		return out
	}
	for i := range out {
		out[i] = v
	}
	return out
}
