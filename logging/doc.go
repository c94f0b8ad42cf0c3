// Package logging provides a minimal logging interface and adapters for matcharena.
//
// The Logger interface defines the standard logging methods (Debug, Info, Warn, Error)
// that the engine and gateways use for observability. This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - MatchLogger with match / agent scoped helpers
//   - NoOpLogger for silent operation (testing, minimal setups)
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "json", false)
//	result, err := engine.Run(ctx, scenario, agents, func(o *engine.Options) { o.Logger = logger })
//
// Logging never feeds into the match event log; the log stays deterministic
// regardless of the configured logger.
package logging
