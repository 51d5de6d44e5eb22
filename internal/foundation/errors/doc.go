// Package errors provides the classified error type used across layoutswap.
//
// Key features:
//   - ErrorCategory: broad classification (config, network, store, etc.)
//   - ErrorSeverity: impact level (fatal, error, warning, info)
//   - ClassifiedError: structured error with category, severity, and context
//   - ErrorBuilder: fluent API for creating classified errors
//   - CLIErrorAdapter: exit codes and user-facing formatting
//
// Example usage:
//
//	err := errors.NewError(errors.CategoryStore, "document request failed").
//		WithContext("url", assetURL).
//		WithContext("code", resp.StatusCode).
//		WithCause(originalErr).
//		Build()
package errors
