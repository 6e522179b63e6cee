package event

import (
	"encoding/json"
	"testing"
)

func TestFilterDisabledMatchesAll(t *testing.T) {
	f, err := NewFilter("")
	if err != nil {
		t.Fatalf("NewFilter: %v", err)
	}
	if !f.Eval(Event{Direction: PublisherToBroker, Topic: "home/kitchen/temperature"}) {
		t.Fatalf("disabled filter should match everything")
	}
}

func TestFilterByDirection(t *testing.T) {
	f, err := NewFilter(`direction == "broker->publisher"`)
	if err != nil {
		t.Fatalf("NewFilter: %v", err)
	}
	if !f.Eval(Event{Direction: BrokerToPublisher, Topic: "ack/s1"}) {
		t.Fatalf("expected match on ack direction")
	}
	if f.Eval(Event{Direction: PublisherToBroker, Topic: "home/kitchen/temperature"}) {
		t.Fatalf("unexpected match on reading direction")
	}
}

func TestFilterByPayloadField(t *testing.T) {
	f, err := NewFilter(`json.sensor == "kitchen-temperature-abc123" && json.value > 20.0`)
	if err != nil {
		t.Fatalf("NewFilter: %v", err)
	}
	payload := json.RawMessage(`{"id":"m1","sensor":"kitchen-temperature-abc123","value":22.4,"ts":1700000000000}`)
	if !f.Eval(Event{Direction: PublisherToBroker, Topic: "home/kitchen/temperature", Payload: payload}) {
		t.Fatalf("expected payload field match")
	}
	cold := json.RawMessage(`{"id":"m2","sensor":"kitchen-temperature-abc123","value":18.1}`)
	if f.Eval(Event{Direction: PublisherToBroker, Topic: "home/kitchen/temperature", Payload: cold}) {
		t.Fatalf("unexpected match below threshold")
	}
}

func TestFilterEvalErrorIsNonMatch(t *testing.T) {
	f, err := NewFilter(`json.sensor == "x"`)
	if err != nil {
		t.Fatalf("NewFilter: %v", err)
	}
	// Payload is a bare string, so the field access errors; that is a
	// non-match, not a session failure.
	if f.Eval(Event{Payload: json.RawMessage(`"not an object"`)}) {
		t.Fatalf("eval error should be a non-match")
	}
}

func TestFilterCompileError(t *testing.T) {
	if _, err := NewFilter(`direction ==`); err == nil {
		t.Fatalf("expected compile error")
	}
}

func TestFilterTopicPrefix(t *testing.T) {
	f, err := NewFilter(`topic.startsWith("ack/")`)
	if err != nil {
		t.Fatalf("NewFilter: %v", err)
	}
	if !f.Eval(Event{Topic: "ack/livingroom-motion-0f0f0f"}) {
		t.Fatalf("expected prefix match")
	}
	if f.Eval(Event{Topic: "home/livingroom/motion"}) {
		t.Fatalf("unexpected match for non-ack topic")
	}
}
