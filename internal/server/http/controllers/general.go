package controllers

import (
	"net/http"

	"github.com/sensorhop/relay/internal/bus"
)

// GeneralController handles health and status endpoints.
type GeneralController struct {
	relayName string
	client    bus.Client
}

func NewGeneralController(deps Deps) *GeneralController {
	return &GeneralController{relayName: deps.RelayName, client: deps.Client}
}

// RegisterRoutes registers general routes with the given mux.
func (c *GeneralController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/healthz", c.handleHealth)
}

// handleHealth reports whether the bus session is up.
//
// Returns 200 OK with {"status":"ok"} while connected, 503 otherwise.
func (c *GeneralController) handleHealth(w http.ResponseWriter, r *http.Request) {
	if c.client != nil && !c.client.Connected() {
		writeError(w, http.StatusServiceUnavailable, "bus disconnected")
		return
	}
	writeJSON(w, map[string]string{"status": "ok", "relay": c.relayName})
}
