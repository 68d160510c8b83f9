// Package logger provides structured logging based on Zap.
//
// New builds a logger from the log configuration: "debug" selects zap's
// development config, any other level the production config, and the
// format switches between json and console encoding.
//
// # Context Awareness
//
// WithRayID extracts the ray id set by the rayid middleware from a Fiber
// context and attaches it to the logger, so every log line of a request can
// be correlated. WithJob does the same for background sync and purge jobs.
//
// # Usage
//
//	log, _ := logger.New(&cfg.Log)
//	log.Info("Server started")
//
//	// In a request handler:
//	l := logger.WithRayID(log, c)
//	l.Error("Handler failed", zap.Error(err))
package logger
