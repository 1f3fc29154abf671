// Package errors provides classified error primitives used across onboard.
//
// Key features:
//   - ErrorCategory: broad classification (config, validation, network, storage, ...)
//   - ErrorSeverity: impact level (fatal, error, warning, info)
//   - RetryStrategy: never, next scheduled tick, or user action
//   - ErrorBuilder: fluent API for creating classified errors
//   - HTTP and CLI adapters for error presentation
//
// Example usage:
//
//	err := errors.ValidationError("SSID and API URL are required").
//		WithContext("field", "ssid").
//		Build()
package errors
