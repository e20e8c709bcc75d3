// Package apperrors defines the error taxonomy surfaced by the processing pipeline.
// Each error carries a machine-readable code and the HTTP status the API maps it to.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is a machine-readable error code.
type Code string

const (
	CodeDecode            Code = "DECODE_FAILED"
	CodeUnsupportedFormat Code = "UNSUPPORTED_FORMAT"
	CodeUnavailableSource Code = "SOURCE_UNAVAILABLE"
	CodeNotFound          Code = "NOT_FOUND"
	CodeProvider          Code = "PROVIDER_FAILED"
	CodeConfiguration     Code = "CONFIGURATION_MISSING"
	CodeInvalidInput      Code = "INVALID_INPUT"
	CodeInternal          Code = "INTERNAL_ERROR"
)

// AppError is the error type returned across package boundaries.
type AppError struct {
	Code       Code           `json:"code"`
	Message    string         `json:"message"`
	HTTPStatus int            `json:"-"`
	Details    map[string]any `json:"details,omitempty"`
	Cause      error          `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetail sets a single detail key and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates an AppError.
func New(code Code, message string, httpStatus int) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: httpStatus}
}

// Decode reports input bytes that no supported audio container could parse.
func Decode(message string) *AppError {
	return New(CodeDecode, message, http.StatusUnprocessableEntity)
}

// UnsupportedFormat reports audio whose channel count or sample rate cannot be determined.
func UnsupportedFormat(message string) *AppError {
	return New(CodeUnsupportedFormat, message, http.StatusUnsupportedMediaType)
}

// UnavailableSource reports a remote submission with no retrievable audio.
func UnavailableSource(url string) *AppError {
	return New(CodeUnavailableSource, "No retrievable audio stream for the submitted source.", http.StatusBadGateway).
		WithDetail("url", url)
}

// NotFound reports a missing resource.
func NotFound(resource, id string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("The requested %s was not found.", resource), http.StatusNotFound).
		WithDetail("resource", resource).
		WithDetail("id", id)
}

// Provider reports a failed call to a transcription or summary provider.
func Provider(provider, message string) *AppError {
	return New(CodeProvider, message, http.StatusBadGateway).WithDetail("provider", provider)
}

// Configuration reports a missing credential or setting detected before a provider call.
func Configuration(message string) *AppError {
	return New(CodeConfiguration, message, http.StatusServiceUnavailable)
}

// InvalidInput reports a malformed submission.
func InvalidInput(message string) *AppError {
	return New(CodeInvalidInput, message, http.StatusBadRequest)
}

// Internal reports an unexpected failure inside the service.
func Internal(message string) *AppError {
	return New(CodeInternal, message, http.StatusInternalServerError)
}

// As returns the first AppError in err's chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Is reports whether err carries an AppError with the given code.
func Is(err error, code Code) bool {
	appErr, ok := As(err)
	return ok && appErr.Code == code
}

// CodeOf returns the code of err, or CodeInternal when err is not an AppError.
func CodeOf(err error) Code {
	if appErr, ok := As(err); ok {
		return appErr.Code
	}
	return CodeInternal
}

// HTTPStatus returns the status code an API should answer err with.
func HTTPStatus(err error) int {
	if appErr, ok := As(err); ok && appErr.HTTPStatus != 0 {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}
