package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a Jot error code.
type ErrorCode string

const (
	ErrInvalidRequest      ErrorCode = "INVALID_REQUEST"        // 400
	ErrNotFound            ErrorCode = "NOT_FOUND"              // 404
	ErrFileNotFound        ErrorCode = "FILE_NOT_FOUND"         // 404
	ErrConflict            ErrorCode = "CONFLICT"               // 409
	ErrInputTooLarge       ErrorCode = "INPUT_TOO_LARGE"        // 413
	ErrInvalidFieldForType ErrorCode = "INVALID_FIELD_FOR_TYPE" // 422
	ErrCancelled           ErrorCode = "CANCELLED"              // 499
	ErrInternal            ErrorCode = "INTERNAL"               // 500
)

// JotError represents a structured error with code, status, and details.
type JotError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *JotError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *JotError {
	return &JotError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for a missing item or project.
func NewNotFound(kind, identifier string) *JotError {
	return &JotError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("%s not found: %s", kind, identifier),
		Details: map[string]any{"kind": kind, "identifier": identifier},
	}
}

// NewFileNotFound creates a 404 error for a missing import file.
func NewFileNotFound(path string) *JotError {
	return &JotError{
		Code:    ErrFileNotFound,
		Status:  404,
		Message: fmt.Sprintf("file not found: %s", path),
		Details: map[string]any{"path": path},
	}
}

// NewConflict creates a 409 error, e.g. an import id collision.
func NewConflict(msg string) *JotError {
	return &JotError{
		Code:    ErrConflict,
		Status:  409,
		Message: msg,
	}
}

// NewInputTooLarge creates a 413 error when capture text exceeds the limit.
func NewInputTooLarge(max, actual int) *JotError {
	return &JotError{
		Code:    ErrInputTooLarge,
		Status:  413,
		Message: fmt.Sprintf("capture text exceeds maximum size: %d chars (max %d)", actual, max),
		Details: map[string]any{"max_chars": max, "actual_chars": actual},
	}
}

// NewInvalidFieldForType creates a 422 error when a field is set on an item
// type that does not carry it (e.g. a status on a note).
func NewInvalidFieldForType(field, itemType string) *JotError {
	return &JotError{
		Code:    ErrInvalidFieldForType,
		Status:  422,
		Message: fmt.Sprintf("%s cannot be set on a %s", field, itemType),
		Details: map[string]any{"field": field, "type": itemType},
	}
}

// NewCancelled creates a 499 error when a long operation sees ctx cancellation.
func NewCancelled(op string) *JotError {
	return &JotError{
		Code:    ErrCancelled,
		Status:  499,
		Message: fmt.Sprintf("%s cancelled", op),
		Details: map[string]any{"operation": op},
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *JotError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &JotError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// Is checks if an error is (or wraps) a JotError with the given code.
func Is(err error, code ErrorCode) bool {
	var jErr *JotError
	if stderrors.As(err, &jErr) {
		return jErr.Code == code
	}
	return false
}

// As extracts the JotError from err, wrapping anything else as internal.
func As(err error) *JotError {
	var jErr *JotError
	if stderrors.As(err, &jErr) {
		return jErr
	}
	return NewInternal(err)
}
