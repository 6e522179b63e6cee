// Package log provides the relay's structured logging facade.
//
// # Overview
//
// The package exposes a small Logger interface with leveled methods and a
// simple Field type for structured context. Internally it is backed by Go's
// standard library slog via a custom handler that preserves the
// formatter/output pipeline, keeping output consistent across the codebase.
//
// Quick start
//
//	l := log.NewLogger(
//	    log.WithLevel(log.InfoLevel),
//	    log.WithFormatter(&log.TextFormatter{}),
//	    log.WithOutput(log.NewConsoleOutput()),
//	)
//	l = l.With(log.Component("relay"))
//	l.Info("bus connected", log.Str("broker", "localhost:1883"))
//
// # Configuration
//
// Use ApplyConfig to build a logger from a declarative Config with level and
// text/json format. RedirectStdLog routes stdlib "log" users (e.g. Pebble,
// the MQTT client's optional loggers) through the same pipeline.
package log
