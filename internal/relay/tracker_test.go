package relay

import (
	"errors"
	"testing"
)

func TestTrackResolveOnce(t *testing.T) {
	tr := NewTracker()
	if err := tr.Track(PendingPublish{Handle: 7, Topic: "ack/s1"}); err != nil {
		t.Fatalf("track: %v", err)
	}
	p, ok := tr.Resolve(7)
	if !ok || p.Topic != "ack/s1" {
		t.Fatalf("resolve: %+v %v", p, ok)
	}
	if _, ok := tr.Resolve(7); ok {
		t.Fatalf("handle resolved twice")
	}
}

func TestResolveUnknownHandle(t *testing.T) {
	tr := NewTracker()
	if _, ok := tr.Resolve(42); ok {
		t.Fatalf("unknown handle should not resolve")
	}
}

func TestTrackReusedHandleNewestWins(t *testing.T) {
	tr := NewTracker()
	_ = tr.Track(PendingPublish{Handle: 3, Topic: "ack/old"})
	err := tr.Track(PendingPublish{Handle: 3, Topic: "ack/new"})
	if !errors.Is(err, ErrHandleReused) {
		t.Fatalf("expected ErrHandleReused, got %v", err)
	}
	p, ok := tr.Resolve(3)
	if !ok || p.Topic != "ack/new" {
		t.Fatalf("newest entry should win: %+v", p)
	}
}

func TestAbandonClearsPending(t *testing.T) {
	tr := NewTracker()
	_ = tr.Track(PendingPublish{Handle: 1})
	_ = tr.Track(PendingPublish{Handle: 2})
	if n := tr.Abandon(); n != 2 {
		t.Fatalf("abandon count: %d", n)
	}
	if tr.Len() != 0 {
		t.Fatalf("pending after abandon: %d", tr.Len())
	}
	if _, ok := tr.Resolve(1); ok {
		t.Fatalf("abandoned handle should not resolve")
	}
}
