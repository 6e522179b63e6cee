package sensors

import (
	"context"
	"time"

	"github.com/sensorhop/relay/internal/bus"
	"github.com/sensorhop/relay/pkg/id"
	"github.com/sensorhop/relay/pkg/log"
)

// DefaultFleet builds the standard five home sensors, each with a freshly
// generated id.
func DefaultFleet(client bus.Client, logger log.Logger) []*Sensor {
	return []*Sensor{
		New(client, id.NewSensorID("livingroom", "temperature"), "Temperature (Livingroom)",
			"home/livingroom/temperature", 4*time.Second, Temperature, logger),
		New(client, id.NewSensorID("livingroom", "humidity"), "Humidity (Livingroom)",
			"home/livingroom/humidity", 6*time.Second, Humidity, logger),
		New(client, id.NewSensorID("entrance", "motion"), "Motion (Entrance)",
			"home/entrance/motion", 3*time.Second, Motion, logger),
		New(client, id.NewSensorID("livingroom", "light"), "Light Level (Livingroom)",
			"home/livingroom/light", 5*time.Second, Light, logger),
		New(client, id.NewSensorID("entrance", "door"), "Door (Entrance)",
			"home/entrance/door", 7*time.Second, Door, logger),
	}
}

// StartFleet starts every sensor; the first subscription failure aborts.
func StartFleet(ctx context.Context, fleet []*Sensor) error {
	for _, s := range fleet {
		if err := s.Start(ctx); err != nil {
			return err
		}
	}
	return nil
}
