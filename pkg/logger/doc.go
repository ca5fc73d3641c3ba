// Package logger provides a structured logging interface for imgrab.
//
// It wraps the zerolog library to provide:
//   - Multiple log levels (Debug, Info, Warn, Error, Fatal)
//   - Structured logging with fields
//   - Console output on stderr, colored only when attached to a terminal
//   - File output
//   - A global logger instance for the CLI
//
// Library packages never reach for the global logger on their own; they take a
// Logger argument and fall back to NewNopLogger when given nil.
//
// Basic Usage:
//
//	err := logger.Initialize(&cfg.Logging)
//
//	logger.Info("Application started")
//	logger.WithField("url", rawURL).Info("Resolving source")
//	logger.WithError(err).Error("Failed to download image")
//
// Tests use NewTestLogger to capture and assert on emitted messages:
//
//	log := logger.NewTestLogger()
//	client := transport.NewBuilder().WithLogger(log).MustBuild()
//	...
//	assert.True(t, log.HasMessage("HTTP request failed"))
package logger
