package fanout

import (
	"sync"

	"github.com/sensorhop/relay/internal/event"
	"github.com/sensorhop/relay/pkg/log"
)

// Bus broadcasts hop events to live viewer sessions. Delivery is
// publish-order per session; there is no replay, a session only sees events
// published after it subscribed.
type Bus struct {
	mu     sync.Mutex
	subs   map[*Subscription]struct{}
	bufLen int
	closed bool
	logger log.Logger
}

// Subscription is one viewer session's slot on the bus. Events() yields the
// session's stream; the channel closes when the session is dropped or the bus
// shuts down.
type Subscription struct {
	bus *Bus
	ch  chan event.Event

	closeOnce sync.Once
}

// New builds a Bus with the given per-session buffer length.
func New(bufLen int, logger log.Logger) *Bus {
	if bufLen <= 0 {
		bufLen = 1024
	}
	return &Bus{
		subs:   make(map[*Subscription]struct{}),
		bufLen: bufLen,
		logger: logger.With(log.Component("fanout")),
	}
}

// Subscribe attaches a new session. The returned subscription receives every
// event published from this point on, in order, until Close or until the
// session falls too far behind.
func (b *Bus) Subscribe() *Subscription {
	sub := &Subscription{bus: b, ch: make(chan event.Event, b.bufLen)}
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(sub.ch)
		return sub
	}
	b.subs[sub] = struct{}{}
	b.mu.Unlock()
	return sub
}

// Publish delivers ev to every live session. A session whose buffer is full
// is disconnected rather than allowed to stall the publisher; the remaining
// sessions keep their gap-free ordered stream.
func (b *Bus) Publish(ev event.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	for sub := range b.subs {
		select {
		case sub.ch <- ev:
		default:
			delete(b.subs, sub)
			close(sub.ch)
			b.logger.Warn("dropping slow session", log.Int("buffer", b.bufLen))
		}
	}
}

// Len reports the number of live sessions.
func (b *Bus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Close shuts the bus down and ends every session's stream.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for sub := range b.subs {
		delete(b.subs, sub)
		close(sub.ch)
	}
}

// Events is the session's ordered stream. It is closed when the session ends.
func (s *Subscription) Events() <-chan event.Event {
	return s.ch
}

// Close detaches the session from the bus. Safe to call more than once and
// safe to race with Publish.
func (s *Subscription) Close() {
	s.closeOnce.Do(func() {
		s.bus.mu.Lock()
		if _, ok := s.bus.subs[s]; ok {
			delete(s.bus.subs, s)
			close(s.ch)
		}
		s.bus.mu.Unlock()
	})
}
