package httpserver

import (
	"bufio"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sensorhop/relay/internal/bus/bustest"
	"github.com/sensorhop/relay/internal/event"
	"github.com/sensorhop/relay/internal/fanout"
	"github.com/sensorhop/relay/internal/server/http/controllers"
	"github.com/sensorhop/relay/internal/snapshot"
	"github.com/sensorhop/relay/pkg/log"
)

type env struct {
	deps   controllers.Deps
	client *bustest.FakeClient
	events *fanout.Bus
	snaps  *snapshot.Store
}

func newEnv(t *testing.T) *env {
	t.Helper()
	logger := log.NewLogger(log.WithLevel(log.ErrorLevel))
	client := bustest.NewFakeClient()
	events := fanout.New(64, logger)
	t.Cleanup(events.Close)
	snaps, err := snapshot.Open(nil)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	return &env{
		deps: controllers.Deps{
			RelayName: "dashboard",
			Client:    client,
			Events:    events,
			Snapshots: snaps,
			Logger:    logger,
		},
		client: client,
		events: events,
		snaps:  snaps,
	}
}

func (e *env) handler() http.Handler {
	mux := http.NewServeMux()
	controllers.NewRegistry(e.deps).RegisterAllRoutes(mux)
	return cors(mux)
}

func TestHealthz(t *testing.T) {
	e := newEnv(t)
	h := e.handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/healthz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("disconnected health: %d", rec.Code)
	}

	_ = e.client.Connect(nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("health: %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("body: %v", err)
	}
	if body["status"] != "ok" || body["relay"] != "dashboard" {
		t.Fatalf("health body: %v", body)
	}
}

func TestSensorsLatest(t *testing.T) {
	e := newEnv(t)
	h := e.handler()
	_ = e.snaps.Put("kitchen-humidity-0f0f0f", json.RawMessage(`{"id":"m1","sensor":"kitchen-humidity-0f0f0f","value":44}`))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/sensors/latest", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("latest: %d", rec.Code)
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &all); err != nil {
		t.Fatalf("body: %v", err)
	}
	if len(all) != 1 || !strings.Contains(string(all["kitchen-humidity-0f0f0f"]), `"value":44`) {
		t.Fatalf("latest body: %v", all)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/sensors/latest?sensor=kitchen-humidity-0f0f0f", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("single: %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/sensors/latest?sensor=unknown", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown sensor: %d", rec.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	e := newEnv(t)
	rec := httptest.NewRecorder()
	e.handler().ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/v1/healthz", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("preflight: %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("cors header missing")
	}
}

func TestEventStreamSSE(t *testing.T) {
	e := newEnv(t)
	ts := httptest.NewServer(e.handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/v1/events/stream")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type: %q", ct)
	}

	waitForSessions(t, e.events, 1)
	e.events.Publish(event.Event{Direction: event.PublisherToBroker, Topic: "home/livingroom/temperature", TsMs: 1})
	e.events.Publish(event.Event{Direction: event.BrokerToPublisher, Topic: "ack/s1", TsMs: 2})

	r := bufio.NewReader(resp.Body)
	first := readFrame(t, r)
	second := readFrame(t, r)
	if first.Direction != event.PublisherToBroker || second.Direction != event.BrokerToPublisher {
		t.Fatalf("frames out of order: %+v %+v", first, second)
	}
}

func TestEventStreamFilter(t *testing.T) {
	e := newEnv(t)
	ts := httptest.NewServer(e.handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + `/v1/events/stream?filter=` + "direction%20%3D%3D%20%22broker-%3Epublisher%22")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()

	waitForSessions(t, e.events, 1)
	e.events.Publish(event.Event{Direction: event.PublisherToBroker, Topic: "home/livingroom/temperature"})
	e.events.Publish(event.Event{Direction: event.BrokerToPublisher, Topic: "ack/s1"})

	got := readFrame(t, bufio.NewReader(resp.Body))
	if got.Direction != event.BrokerToPublisher {
		t.Fatalf("filter leaked event: %+v", got)
	}
}

func TestEventStreamBadFilter(t *testing.T) {
	e := newEnv(t)
	rec := httptest.NewRecorder()
	e.handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/events/stream?filter=direction+%3D%3D", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad filter: %d", rec.Code)
	}
}

func waitForSessions(t *testing.T, b *fanout.Bus, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for b.Len() < n {
		if time.Now().After(deadline) {
			t.Fatalf("session never attached")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func readFrame(t *testing.T, r *bufio.Reader) event.Event {
	t.Helper()
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("read frame: %v", err)
		}
		line = strings.TrimRight(line, "\n")
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var ev event.Event
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev); err != nil {
			t.Fatalf("frame json: %v", err)
		}
		return ev
	}
}
