// Package logger provides structured logging functionality for Go applications.
//
// The logger package is designed to provide a standardized logging approach
// with features such as log levels, structured fields, and JSON output. It
// integrates with the fx dependency injection framework for easy incorporation
// into applications, and is the logging backend consumed by the tracing and
// metrics packages of this library.
//
// Core Features:
//   - Structured logging with key-value pairs
//   - Support for multiple log levels (Debug, Info, Warn, Error, Fatal)
//   - JSON output with ISO8601 timestamps
//   - Per-service tagging of every entry via the configured service name
//   - Integration with common log collection systems
//
// Basic Usage:
//
//	import "github.com/weftworks/obs/pkg/logger"
//
//	// Create a new logger using the factory
//	log := logger.NewLoggerClient(logger.Config{
//		Level:       "info",
//		ServiceName: "checkout",
//	})
//
//	// Log with structured fields
//	log.Info("User logged in", nil, map[string]interface{}{
//		"user_id": "12345",
//		"ip":      "192.168.1.1",
//	})
//
//	// Log different levels
//	log.Debug("Debug message", nil, nil) // Only appears if level is Debug
//	log.Info("Info message", nil, nil)
//	log.Warn("Warning message", nil, nil)
//	log.Error("Error message", err, nil)
//
// FX Module Integration:
//
// This package provides an fx module for easy integration with applications
// using the fx dependency injection framework:
//
//	app := fx.New(
//		logger.FXModule,
//		// ... other modules
//	)
//	app.Run()
//
// Configuration:
//
// The logger can be configured via environment variables:
//
//	ZAP_LOGGER_LEVEL=debug            # Log level (debug, info, warning, error)
//	ZAP_LOGGER_SERVICE_NAME=checkout  # Service name attached to every entry
//
// Thread Safety:
//
// All methods on the Logger type are safe for concurrent use by multiple
// goroutines.
package logger
