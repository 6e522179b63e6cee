// Package event defines the wire types carried on the telemetry bus and the
// hop events the relay synthesizes from them, plus the CEL filter viewer
// sessions use to narrow their stream.
package event
