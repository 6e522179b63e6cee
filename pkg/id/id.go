package id

import (
	"strings"

	"github.com/google/uuid"
)

// NewReadingID returns a unique id for a single sensor reading.
func NewReadingID() string { return uuid.NewString() }

// NewSensorID returns a readable sensor identifier of the form
// <room>-<kind>-<6 hex chars>, e.g. "livingroom-temperature-a1b2c3".
func NewSensorID(room, kind string) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
	return room + "-" + kind + "-" + suffix
}

// NewClientID returns a bus client id with the given role prefix,
// e.g. "dashboard-<uuid>". Unique per process so concurrent instances
// never steal each other's broker session.
func NewClientID(role string) string { return role + "-" + uuid.NewString() }
