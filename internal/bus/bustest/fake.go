// Package bustest provides an in-memory bus.Client for tests.
package bustest

import (
	"context"
	"strings"
	"sync"

	"github.com/sensorhop/relay/internal/bus"
)

// Published records one call to Publish.
type Published struct {
	Topic   string
	Payload []byte
	Handle  bus.Handle
}

// FakeClient is an in-memory bus.Client. Handles are assigned sequentially
// starting at 1; tests drive confirmations and inbound messages explicitly.
type FakeClient struct {
	mu        sync.Mutex
	connected bool
	next      uint16
	subs      map[string]bus.MessageHandler
	published []Published
	confirm   bus.ConfirmHandler
	lost      bus.ConnectionLostHandler

	// PublishErr, when set, is returned by every Publish.
	PublishErr error
	// ZeroHandles makes Publish return handle 0, mimicking a QoS 0 session.
	ZeroHandles bool
}

var _ bus.Client = (*FakeClient)(nil)

func NewFakeClient() *FakeClient {
	return &FakeClient{next: 1, subs: make(map[string]bus.MessageHandler)}
}

func (f *FakeClient) Connect(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connected = true
	return nil
}

func (f *FakeClient) Subscribe(filter string, handler bus.MessageHandler) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subs[filter] = handler
	return nil
}

func (f *FakeClient) Publish(topic string, payload []byte) (bus.Handle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PublishErr != nil {
		return 0, f.PublishErr
	}
	var h bus.Handle
	if !f.ZeroHandles {
		h = bus.Handle(f.next)
		f.next++
	}
	f.published = append(f.published, Published{Topic: topic, Payload: append([]byte(nil), payload...), Handle: h})
	return h, nil
}

func (f *FakeClient) OnConfirm(fn bus.ConfirmHandler) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.confirm = fn
}

func (f *FakeClient) OnConnectionLost(fn bus.ConnectionLostHandler) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lost = fn
}

func (f *FakeClient) Connected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *FakeClient) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connected = false
}

// Deliver injects an inbound message, routing it to the handler whose filter
// matches the topic.
func (f *FakeClient) Deliver(topic string, payload []byte) bool {
	f.mu.Lock()
	var handler bus.MessageHandler
	for filter, h := range f.subs {
		if filterMatches(filter, topic) {
			handler = h
			break
		}
	}
	f.mu.Unlock()
	if handler == nil {
		return false
	}
	handler(topic, payload)
	return true
}

// Confirm simulates broker acceptance of an in-flight publish.
func (f *FakeClient) Confirm(h bus.Handle) {
	f.mu.Lock()
	fn := f.confirm
	f.mu.Unlock()
	if fn != nil {
		fn(h)
	}
}

// DropConnection simulates a lost session.
func (f *FakeClient) DropConnection(err error) {
	f.mu.Lock()
	f.connected = false
	fn := f.lost
	f.mu.Unlock()
	if fn != nil {
		fn(err)
	}
}

// Published returns a copy of everything sent so far.
func (f *FakeClient) PublishedMessages() []Published {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Published(nil), f.published...)
}

// Subscriptions returns the registered topic filters.
func (f *FakeClient) Subscriptions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.subs))
	for filter := range f.subs {
		out = append(out, filter)
	}
	return out
}

// filterMatches implements the subset of MQTT filter matching the tests rely
// on: exact topics, a trailing multi-level "#", and single-level "+".
func filterMatches(filter, topic string) bool {
	if filter == topic {
		return true
	}
	fp := strings.Split(filter, "/")
	tp := strings.Split(topic, "/")
	for i, seg := range fp {
		if seg == "#" {
			return true
		}
		if i >= len(tp) {
			return false
		}
		if seg == "+" {
			continue
		}
		if seg != tp[i] {
			return false
		}
	}
	return len(fp) == len(tp)
}
