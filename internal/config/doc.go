// Package config loads relay configuration from JSON files and RELAY_*
// environment variables, with sensible built-in defaults.
//
// Precedence: defaults < file (Load) < environment (FromEnv).
package config
