package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/sensorhop/relay/internal/event"
	"github.com/sensorhop/relay/internal/fanout"
	"github.com/sensorhop/relay/pkg/log"
)

// EventsController streams hop events to viewer sessions over SSE.
type EventsController struct {
	events *fanout.Bus
	logger log.Logger
}

func NewEventsController(deps Deps) *EventsController {
	return &EventsController{
		events: deps.Events,
		logger: deps.Logger.With(log.Component("http.events")),
	}
}

// RegisterRoutes registers the SSE routes with the given mux. "/stream" is
// the legacy path older dashboard clients open.
func (c *EventsController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/events/stream", c.handleStream)
	mux.HandleFunc("/stream", c.handleStream)
}

// handleStream attaches the request as a viewer session. An optional
// ?filter= query parameter narrows the stream with a CEL expression; events
// the filter rejects are skipped, the rest arrive in publish order.
func (c *EventsController) handleStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	filter, err := event.NewFilter(r.URL.Query().Get("filter"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid filter expression")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}

	sub := c.events.Subscribe()
	defer sub.Close()
	c.logger.Debug("viewer session opened", log.Str("remote", r.RemoteAddr))
	defer c.logger.Debug("viewer session closed", log.Str("remote", r.RemoteAddr))
	sink := sseSink{w: w, r: r}

	for {
		select {
		case ev, ok := <-sub.Events():
			if !ok {
				// Bus shut down or this session was dropped as too slow.
				return
			}
			if !filter.Eval(ev) {
				continue
			}
			if err := sink.Send(ev); err != nil {
				return
			}
			_ = sink.Flush()
		case <-r.Context().Done():
			return
		}
	}
}

// sseSink writes hop events as SSE data frames.
type sseSink struct {
	w http.ResponseWriter
	r *http.Request
}

// Send writes one event as a "data: <json>\n\n" frame.
func (s sseSink) Send(ev event.Event) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if _, err := s.w.Write([]byte("data: ")); err != nil {
		return err
	}
	if _, err := s.w.Write(b); err != nil {
		return err
	}
	_, err = s.w.Write([]byte("\n\n"))
	return err
}

// Flush pushes buffered frames to the client immediately.
func (s sseSink) Flush() error {
	if f, ok := s.w.(http.Flusher); ok {
		f.Flush()
	}
	return nil
}
