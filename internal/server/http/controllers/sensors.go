package controllers

import (
	"net/http"

	"github.com/sensorhop/relay/internal/snapshot"
)

// SensorsController serves the latest-reading snapshots.
type SensorsController struct {
	snapshots *snapshot.Store
}

func NewSensorsController(deps Deps) *SensorsController {
	return &SensorsController{snapshots: deps.Snapshots}
}

// RegisterRoutes registers sensor routes with the given mux.
func (c *SensorsController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/sensors/latest", c.handleLatest)
}

// handleLatest returns the latest reading per sensor.
//
// With ?sensor=<id> it returns that sensor's reading or 404; without it the
// full map keyed by sensor id.
func (c *SensorsController) handleLatest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if sensor := r.URL.Query().Get("sensor"); sensor != "" {
		payload, ok := c.snapshots.Get(sensor)
		if !ok {
			writeError(w, http.StatusNotFound, "No reading for sensor")
			return
		}
		writeJSON(w, payload)
		return
	}
	writeJSON(w, c.snapshots.All())
}
