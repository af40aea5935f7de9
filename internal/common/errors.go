package common

import (
	"errors"
	"net/http"
)

// Canonical error codes rendered in API error bodies.
const (
	CodeBadRequest = "BAD_REQUEST"
	CodeValidation = "VALIDATION_FAILED"
	CodeNotFound   = "NOT_FOUND"
	CodeConflict   = "CONFLICT"
	CodeTooMany    = "RATE_LIMITED"
	CodeInternal   = "INTERNAL"
	CodeNotReady   = "NOT_READY"
)

// AppError represents an error with an attached code and HTTP status.
type AppError struct {
	Code       string
	Message    string
	HTTPStatus int
	Err        error
	Details    any
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// Unwrap allows errors.Is/As to inspect the underlying error.
func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewAppError constructs an AppError.
func NewAppError(code, message string, status int, err error) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status, Err: err}
}

// BadRequest wraps a client input error.
func BadRequest(message string, details any) *AppError {
	return &AppError{Code: CodeValidation, Message: message, HTTPStatus: http.StatusBadRequest, Details: details}
}

// NotFound wraps err as a 404.
func NotFound(message string, err error) *AppError {
	return NewAppError(CodeNotFound, message, http.StatusNotFound, err)
}

// Conflict wraps err as a 409.
func Conflict(message string, err error) *AppError {
	return NewAppError(CodeConflict, message, http.StatusConflict, err)
}

// IsAppError checks whether the error is an AppError.
func IsAppError(err error) bool {
	var target *AppError
	return errors.As(err, &target)
}

// WriteError renders err using the canonical error shape. AppErrors keep their
// status and code, anything else becomes a 500 without leaking the message.
func WriteError(w http.ResponseWriter, err error) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		status := appErr.HTTPStatus
		if status == 0 {
			status = http.StatusBadRequest
		}
		code := appErr.Code
		if code == "" {
			code = CodeBadRequest
		}
		JSONError(w, status, code, appErr.Message, appErr.Details)
		return
	}
	JSONError(w, http.StatusInternalServerError, CodeInternal, "internal error", nil)
}
