package errors

import (
	"fmt"
	"net/http"
)

// ErrorType represents the type of error.
type ErrorType string

const (
	ErrorTypeConfig     ErrorType = "CONFIG_ERROR"
	ErrorTypeFormat     ErrorType = "FORMAT_ERROR"
	ErrorTypeDownstream ErrorType = "DOWNSTREAM_ERROR"
	ErrorTypeResource   ErrorType = "RESOURCE_ERROR"
	ErrorTypeValidation ErrorType = "VALIDATION_ERROR"
	ErrorTypeNotFound   ErrorType = "NOT_FOUND"
	ErrorTypeInternal   ErrorType = "INTERNAL_ERROR"
)

// AppError represents an application error with additional context.
type AppError struct {
	Type       ErrorType              `json:"type"`
	Message    string                 `json:"message"`
	Code       string                 `json:"code,omitempty"`
	Details    map[string]interface{} `json:"details,omitempty"`
	HTTPStatus int                    `json:"-"`
	Err        error                  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetails adds details to the error.
func (e *AppError) WithDetails(details map[string]interface{}) *AppError {
	e.Details = details
	return e
}

// WithCode adds an error code.
func (e *AppError) WithCode(code string) *AppError {
	e.Code = code
	return e
}

// New creates a new AppError.
func New(errType ErrorType, message string, httpStatus int) *AppError {
	return &AppError{
		Type:       errType,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an existing error.
func Wrap(err error, errType ErrorType, message string, httpStatus int) *AppError {
	return &AppError{
		Type:       errType,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// Common error constructors.

// NewConfigError creates a filter construction/configuration error.
func NewConfigError(message string) *AppError {
	return New(ErrorTypeConfig, message, http.StatusInternalServerError)
}

// NewFormatError creates a frame geometry contract violation error.
func NewFormatError(message string) *AppError {
	return New(ErrorTypeFormat, message, http.StatusBadRequest)
}

// WrapDownstreamError wraps a failure to deliver an emitted frame.
func WrapDownstreamError(err error, message string) *AppError {
	return Wrap(err, ErrorTypeDownstream, message, http.StatusBadGateway)
}

// NewResourceError creates a frame allocation/retention failure.
func NewResourceError(message string) *AppError {
	return New(ErrorTypeResource, message, http.StatusInsufficientStorage)
}

// WrapResourceError wraps a frame allocation/retention failure.
func WrapResourceError(err error, message string) *AppError {
	return Wrap(err, ErrorTypeResource, message, http.StatusInsufficientStorage)
}

// NewValidationError creates a validation error.
func NewValidationError(message string) *AppError {
	return New(ErrorTypeValidation, message, http.StatusBadRequest)
}

// NewNotFoundError creates a not found error.
func NewNotFoundError(resource string) *AppError {
	return New(ErrorTypeNotFound, fmt.Sprintf("%s not found", resource), http.StatusNotFound)
}

// NewInternalError creates an internal error.
func NewInternalError(message string) *AppError {
	return New(ErrorTypeInternal, message, http.StatusInternalServerError)
}

// WrapInternalError wraps an error as an internal error.
func WrapInternalError(err error, message string) *AppError {
	return Wrap(err, ErrorTypeInternal, message, http.StatusInternalServerError)
}

// IsAppError checks if an error is an AppError.
func IsAppError(err error) bool {
	_, ok := err.(*AppError)
	return ok
}

// GetAppError extracts AppError from an error.
func GetAppError(err error) (*AppError, bool) {
	appErr, ok := err.(*AppError)
	return appErr, ok
}
