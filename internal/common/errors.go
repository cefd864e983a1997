package common

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies an AppError so handlers can map it to an HTTP
// status without string matching.
type ErrorKind string

const (
	KindConfig       ErrorKind = "CONFIG_ERROR"
	KindUnauthorized ErrorKind = "UNAUTHORIZED"
	KindNotFound     ErrorKind = "NOT_FOUND"
	KindValidation   ErrorKind = "VALIDATION_ERROR"
	KindUpstream     ErrorKind = "UPSTREAM_ERROR"
)

// AppError is the single error type returned from every service
// operation. Boundary operations either succeed or return one of these.
type AppError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// StatusCode maps the error kind to an HTTP status.
func (e *AppError) StatusCode() int {
	switch e.Kind {
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindValidation:
		return http.StatusBadRequest
	case KindUpstream:
		return http.StatusBadGateway
	case KindConfig:
		return http.StatusInternalServerError
	}
	return http.StatusInternalServerError
}

func NewConfigError(message string) *AppError {
	return &AppError{Kind: KindConfig, Message: message}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{Kind: KindUnauthorized, Message: message}
}

func NewNotFoundError(message string) *AppError {
	return &AppError{Kind: KindNotFound, Message: message}
}

func NewValidationError(message string) *AppError {
	return &AppError{Kind: KindValidation, Message: message}
}

func NewUpstreamError(message string, err error) *AppError {
	return &AppError{Kind: KindUpstream, Message: message, Err: err}
}

// AsAppError unwraps err into an AppError, treating anything else as an
// internal upstream failure.
func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return &AppError{Kind: KindUpstream, Message: "operation failed", Err: err}
}
