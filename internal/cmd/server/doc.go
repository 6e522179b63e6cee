// Package serverrun wires the relay, snapshot store and HTTP server together
// and runs them until shutdown.
package serverrun
