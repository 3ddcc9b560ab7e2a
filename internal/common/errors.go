package common

import (
	"errors"
	"net/http"
)

// Error codes shared across handlers. Each maps to exactly one HTTP status
// so the failure taxonomy stays consistent across endpoints.
const (
	CodeBadRequest       = "BAD_REQUEST"
	CodeInvalidSignature = "INVALID_SIGNATURE"
	CodeUnexpectedState  = "UNEXPECTED_STATE"
	CodeAmountMismatch   = "AMOUNT_MISMATCH"
	CodeUpstreamAuth     = "UPSTREAM_AUTH"
	CodeUpstreamTimeout  = "UPSTREAM_TIMEOUT"
	CodeUpstreamError    = "UPSTREAM_ERROR"
	CodeInternal         = "INTERNAL"
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

// ValidationError reports a malformed or incomplete request (400).
func ValidationError(message string) *AppError {
	return NewAppError(CodeBadRequest, message, http.StatusBadRequest, nil)
}

// SignatureError reports a failed signature check (400, no upstream call made).
func SignatureError() *AppError {
	return NewAppError(CodeInvalidSignature, "signature verification failed", http.StatusBadRequest, nil)
}

// StateError reports a payment in a status the caller cannot resolve by retrying (400).
func StateError(message string) *AppError {
	return NewAppError(CodeUnexpectedState, message, http.StatusBadRequest, nil)
}

// IsAppError checks whether the error is an AppError.
func IsAppError(err error) bool {
	var target *AppError
	return errors.As(err, &target)
}
