// Package observability provides the logging, tracing, and metrics surface
// shared by the store kernel, middleware pipeline, thunk runtime, API engine,
// and persistence layer.
package observability

import "go.uber.org/zap"

// NewLogger builds a production zap.Logger. Callers that do not want logging
// (most unit tests) should use NewNopLogger instead.
func NewLogger() (*zap.Logger, error) {
	return zap.NewProduction()
}

// NewNopLogger returns a logger that discards everything, matching the
// teacher's convention of defaulting handlers under test to zap.NewNop().
func NewNopLogger() *zap.Logger {
	return zap.NewNop()
}

// OrNop returns logger if non-nil, otherwise a no-op logger. Constructors
// across the core call this so a nil *zap.Logger never panics a caller who
// forgot to inject one.
func OrNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
