// Package httpserver exposes the relay over HTTP: the dashboard page, the
// SSE hop-event stream and the JSON sensor endpoints.
package httpserver
