package controllers

import (
	"net/http"

	"github.com/sensorhop/relay/internal/bus"
	"github.com/sensorhop/relay/internal/fanout"
	"github.com/sensorhop/relay/internal/snapshot"
	"github.com/sensorhop/relay/pkg/log"
)

// Deps carries the collaborators the controllers expose over HTTP.
type Deps struct {
	// RelayName identifies this relay in status responses.
	RelayName string
	// Client is the bus session, consulted for health.
	Client bus.Client
	// Events is the hop-event fan-out bus SSE sessions attach to.
	Events *fanout.Bus
	// Snapshots serves the latest reading per sensor.
	Snapshots *snapshot.Store
	// Logger for controller activity.
	Logger log.Logger
}

// Registry manages all HTTP controllers.
type Registry struct {
	general *GeneralController
	events  *EventsController
	sensors *SensorsController
}

// NewRegistry creates a registry with all controllers initialized.
func NewRegistry(deps Deps) *Registry {
	return &Registry{
		general: NewGeneralController(deps),
		events:  NewEventsController(deps),
		sensors: NewSensorsController(deps),
	}
}

// RegisterAllRoutes registers every controller's routes with the given mux.
func (r *Registry) RegisterAllRoutes(mux *http.ServeMux) {
	r.general.RegisterRoutes(mux)
	r.events.RegisterRoutes(mux)
	r.sensors.RegisterRoutes(mux)
}
