package relay

import (
	"errors"
	"sync"

	"github.com/sensorhop/relay/internal/bus"
)

// ErrHandleReused is reported by Track when a live handle is assigned again
// before its confirmation arrived. The newer publish wins the slot; the older
// one will never be confirmed.
var ErrHandleReused = errors.New("relay: publish handle reused while pending")

// PendingPublish is an acknowledgement publish awaiting broker confirmation.
type PendingPublish struct {
	Handle      bus.Handle
	Topic       string
	Payload     []byte
	CreatedAtMs int64
}

// Tracker correlates broker-assigned publish handles with the pending
// acknowledgements they confirm.
type Tracker struct {
	mu      sync.Mutex
	pending map[bus.Handle]PendingPublish
}

func NewTracker() *Tracker {
	return &Tracker{pending: make(map[bus.Handle]PendingPublish)}
}

// Track records p under its handle. If the handle is already live the new
// entry replaces the old one and ErrHandleReused is returned.
func (t *Tracker) Track(p PendingPublish) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, dup := t.pending[p.Handle]
	t.pending[p.Handle] = p
	if dup {
		return ErrHandleReused
	}
	return nil
}

// Resolve removes and returns the pending publish for h. The removal is
// atomic with the lookup, so a handle resolves at most once.
func (t *Tracker) Resolve(h bus.Handle) (PendingPublish, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.pending[h]
	if ok {
		delete(t.pending, h)
	}
	return p, ok
}

// Abandon drops every pending publish. Handles are session-scoped: after a
// reconnect the broker assigns from a fresh space and stale entries would
// confirm the wrong message.
func (t *Tracker) Abandon() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := len(t.pending)
	t.pending = make(map[bus.Handle]PendingPublish)
	return n
}

// Len reports the number of unconfirmed publishes.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending)
}
