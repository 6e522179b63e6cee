// Package pebblestore wraps a Pebble database with an fsync policy and the
// minimal key/value helpers the snapshot store relies on.
package pebblestore
