// Package errors provides domain-specific error types and sentinel errors
// shared across the application.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common scenarios.
// Use errors.Is() to check these errors in your code.
var (
	// ErrNotFound indicates a requested resource was not found.
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput indicates user provided invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrIndexOutOfRange indicates a record selection pointed past the end of
	// the day's record list (the list changed between menu render and tap).
	ErrIndexOutOfRange = errors.New("record index out of range")

	// ErrUploaderDisabled indicates no object storage is configured for
	// report image uploads.
	ErrUploaderDisabled = errors.New("uploader not configured")
)

// WrappedError carries both internal error details and the user-facing
// message that is relayed verbatim in the chat reply.
type WrappedError struct {
	Operation   string // Operation being performed (e.g., "create_record")
	Module      string // Module name (e.g., "storage", "report")
	Cause       error  // Underlying error
	UserMessage string // User-facing message, ❌-prefixed by convention
}

func (e *WrappedError) Error() string {
	return fmt.Sprintf("[%s:%s] %s: %v", e.Module, e.Operation, e.UserMessage, e.Cause)
}

func (e *WrappedError) Unwrap() error {
	return e.Cause
}

// Wrap attaches module/operation context and a user-facing message to err.
// Returns nil if err is nil.
func Wrap(module, operation string, err error, userMessage string) error {
	if err == nil {
		return nil
	}
	return &WrappedError{
		Operation:   operation,
		Module:      module,
		Cause:       err,
		UserMessage: userMessage,
	}
}

// UserMessage returns the user-facing text for an error. For a WrappedError
// that is the message it carries; anything else gets a generic fallback so
// internal detail never leaks into chat replies.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var we *WrappedError
	if errors.As(err, &we) && we.UserMessage != "" {
		return we.UserMessage
	}
	return "❌ 系統發生錯誤，請稍後再試"
}
