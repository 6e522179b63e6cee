// Package snapshot retains the latest reading per sensor, optionally
// persisted in Pebble so the dashboard can show last-known values after a
// restart.
package snapshot
