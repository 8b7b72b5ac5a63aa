// Package errors provides the unified error type and factory functions for
// the ProtoPRED Go SDK.  Every layer of the client (validation, request
// building, transport, response normalization) uses AppError as the single
// carrier for structured error information, so callers can classify failures
// with errors.IsCode instead of string matching.
package errors

import (
	"errors"
	"fmt"
)

// AppError is the single structured error type used throughout the SDK.
// It satisfies the standard error interface and supports Go 1.13+ error
// wrapping so that errors.Is / errors.As / errors.Unwrap work transparently.
//
// Usage:
//
//	return errors.Validation("unknown model type 'model_xyz' for ProtoPHYSCHEM")
//	return errors.API(resp.StatusCode, string(body))
//	return errors.Parse("Water solubility", "result is neither object nor array")
type AppError struct {
	// Code is the typed error code that uniquely identifies the failure
	// category.
	Code ErrorCode

	// Message is the primary human-readable description of the error.
	// It never contains account credentials.
	Message string

	// Detail carries supplementary context (response body text, offending
	// model key, file path) that aids debugging.
	Detail string

	// StatusCode is the HTTP status that produced the error, when one was
	// received. Zero for local and transport failures.
	StatusCode int

	// Cause is the underlying error that triggered this AppError, enabling
	// errors.Is / errors.As traversal of the full error chain.
	Cause error
}

// Error implements the standard error interface.
// Format: "[<code>] <message>: <detail>", detail omitted when empty.
func (e *AppError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Detail)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithDetail returns a shallow copy of the receiver with Detail set.
// Safe to call on a nil pointer (returns nil).
func (e *AppError) WithDetail(detail string) *AppError {
	if e == nil {
		return nil
	}
	clone := *e
	clone.Detail = detail
	return &clone
}

// WithCause returns a shallow copy of the receiver with Cause set to err.
func (e *AppError) WithCause(err error) *AppError {
	if e == nil {
		return nil
	}
	clone := *e
	clone.Cause = err
	return &clone
}

// New constructs a fresh AppError with the given code and message.
func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// Wrap constructs an AppError that wraps an existing error. If err is nil,
// Wrap returns nil so it can be used inline. When err is already an
// *AppError and code is CodeUnknown the original code is preserved.
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}
	if code == CodeUnknown {
		var ae *AppError
		if errors.As(err, &ae) {
			code = ae.Code
		}
	}
	return &AppError{Code: code, Message: message, Cause: err}
}

// IsCode reports whether any error in err's chain is an *AppError with the
// given code:
//
//	if errors.IsCode(err, errors.ErrCodeAuthentication) { ... }
func IsCode(err error, code ErrorCode) bool {
	var ae *AppError
	for err != nil {
		if errors.As(err, &ae) && ae.Code == code {
			return true
		}
		err = errors.Unwrap(err)
	}
	return false
}

// GetCode extracts the ErrorCode from the first *AppError found in err's
// chain. If no *AppError is present, CodeUnknown is returned.
func GetCode(err error) ErrorCode {
	if err == nil {
		return CodeOK
	}
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return CodeUnknown
}

// Validation constructs an ErrCodeValidation AppError. Raised for bad
// selectors, malformed molecule input, and caller misuse, always before any
// network call.
func Validation(message string) *AppError {
	return &AppError{Code: ErrCodeValidation, Message: message}
}

// Authentication constructs an ErrCodeAuthentication AppError (HTTP 401).
func Authentication(message string) *AppError {
	return &AppError{
		Code:       ErrCodeAuthentication,
		Message:    message,
		StatusCode: 401,
	}
}

// API constructs an ErrCodeAPI AppError carrying the HTTP status and the raw
// response body. For application-level errors found in a 2xx body, status
// is the 2xx status that carried them.
func API(status int, body string) *AppError {
	return &AppError{
		Code:       ErrCodeAPI,
		Message:    DefaultMessageForCode(ErrCodeAPI),
		Detail:     body,
		StatusCode: status,
	}
}

// Network constructs an ErrCodeNetwork AppError. Raised once the retry
// budget for connection failures is exhausted.
func Network(message string) *AppError {
	return &AppError{Code: ErrCodeNetwork, Message: message}
}

// Timeout constructs an ErrCodeTimeout AppError. Raised once the retry
// budget for per-attempt timeouts is exhausted.
func Timeout(message string) *AppError {
	return &AppError{Code: ErrCodeTimeout, Message: message}
}

// File constructs an ErrCodeFile AppError for local file failures (missing
// upload input, unwritable XLSX destination). Never reaches the network.
func File(message string) *AppError {
	return &AppError{Code: ErrCodeFile, Message: message}
}

// Config constructs an ErrCodeConfig AppError for client misconfiguration.
func Config(message string) *AppError {
	return &AppError{Code: ErrCodeConfig, Message: message}
}

// Parse constructs an ErrCodeParse AppError identifying the model key whose
// result fragment could not be normalized. fragment is truncated by the
// caller when large.
func Parse(modelKey, fragment string) *AppError {
	return &AppError{
		Code:    ErrCodeParse,
		Message: fmt.Sprintf("unexpected result format for model %q", modelKey),
		Detail:  fragment,
	}
}
