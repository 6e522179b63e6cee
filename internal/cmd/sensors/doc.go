// Package sensorsrun runs the simulated sensor fleet against a broker.
package sensorsrun
