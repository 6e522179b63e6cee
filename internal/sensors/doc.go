// Package sensors simulates a small fleet of home sensors publishing
// readings onto the bus and listening for acknowledgements.
package sensors
