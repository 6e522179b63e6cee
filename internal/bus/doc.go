// Package bus abstracts the MQTT transport behind a small client interface so
// the relay and the sensor fleet can be exercised against fakes.
package bus
