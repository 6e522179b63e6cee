package fanout

import (
	"fmt"
	"testing"

	"github.com/sensorhop/relay/internal/event"
	"github.com/sensorhop/relay/pkg/log"
)

func testLogger() log.Logger {
	return log.NewLogger(log.WithLevel(log.ErrorLevel))
}

func collect(ch <-chan event.Event, n int) []event.Event {
	out := make([]event.Event, 0, n)
	for ev := range ch {
		out = append(out, ev)
		if len(out) == n {
			break
		}
	}
	return out
}

func TestOrderedDeliveryToAllSessions(t *testing.T) {
	b := New(16, testLogger())
	defer b.Close()

	s1 := b.Subscribe()
	s2 := b.Subscribe()
	s3 := b.Subscribe()

	for i := 0; i < 5; i++ {
		b.Publish(event.Event{Topic: fmt.Sprintf("t%d", i), TsMs: int64(i)})
	}

	for name, s := range map[string]*Subscription{"s1": s1, "s2": s2, "s3": s3} {
		got := collect(s.Events(), 5)
		for i, ev := range got {
			if ev.TsMs != int64(i) {
				t.Fatalf("%s: out of order at %d: %+v", name, i, ev)
			}
		}
	}
}

func TestLateJoinerSeesNoReplay(t *testing.T) {
	b := New(16, testLogger())
	defer b.Close()

	early := b.Subscribe()
	b.Publish(event.Event{Topic: "before"})

	late := b.Subscribe()
	b.Publish(event.Event{Topic: "after"})

	if got := collect(early.Events(), 2); got[0].Topic != "before" || got[1].Topic != "after" {
		t.Fatalf("early session stream: %+v", got)
	}
	if got := collect(late.Events(), 1); got[0].Topic != "after" {
		t.Fatalf("late session should only see post-join events, got %+v", got)
	}
}

func TestCloseIsolation(t *testing.T) {
	b := New(16, testLogger())
	defer b.Close()

	gone := b.Subscribe()
	stay := b.Subscribe()
	gone.Close()

	b.Publish(event.Event{Topic: "t"})

	if _, ok := <-gone.Events(); ok {
		t.Fatalf("closed session should not receive events")
	}
	if got := collect(stay.Events(), 1); got[0].Topic != "t" {
		t.Fatalf("surviving session missed event: %+v", got)
	}
	if b.Len() != 1 {
		t.Fatalf("expected 1 live session, got %d", b.Len())
	}
}

func TestSlowSessionDroppedWithoutBlocking(t *testing.T) {
	b := New(2, testLogger())
	defer b.Close()

	slow := b.Subscribe()
	fast := b.Subscribe()

	// Fill both buffers, drain fast, then overflow slow. The overflow
	// publish must not block and must end only the slow session.
	b.Publish(event.Event{TsMs: 0})
	b.Publish(event.Event{TsMs: 1})
	if got := collect(fast.Events(), 2); got[1].TsMs != 1 {
		t.Fatalf("fast session prefix: %+v", got)
	}
	b.Publish(event.Event{TsMs: 2})

	if b.Len() != 1 {
		t.Fatalf("slow session should be dropped, live=%d", b.Len())
	}
	if got := collect(fast.Events(), 1); got[0].TsMs != 2 {
		t.Fatalf("fast session missed overflow event: %+v", got)
	}

	// Slow session got its buffered prefix then a closed channel.
	got := make([]event.Event, 0, 2)
	for ev := range slow.Events() {
		got = append(got, ev)
	}
	if len(got) != 2 || got[0].TsMs != 0 || got[1].TsMs != 1 {
		t.Fatalf("slow session prefix: %+v", got)
	}
}

func TestCloseEndsAllStreams(t *testing.T) {
	b := New(4, testLogger())
	s := b.Subscribe()
	b.Close()

	if _, ok := <-s.Events(); ok {
		t.Fatalf("expected closed stream after bus close")
	}
	// Publishing after close is a no-op.
	b.Publish(event.Event{Topic: "t"})

	// Subscribing after close yields an already-ended stream.
	if _, ok := <-b.Subscribe().Events(); ok {
		t.Fatalf("expected ended stream for post-close subscribe")
	}
}
