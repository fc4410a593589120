package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeNetwork    ErrorType = "network"
	ErrorTypeProcessing ErrorType = "processing"
	ErrorTypeTimeout    ErrorType = "timeout"
	ErrorTypeCanceled   ErrorType = "canceled"
	ErrorTypeNotFound   ErrorType = "not_found"
	ErrorTypeInternal   ErrorType = "internal"

	// Pipeline failures. The first four are terminal for a request.
	ErrorTypeNoFaceDetected      ErrorType = "no_face_detected"
	ErrorTypeModelNotLoaded      ErrorType = "model_not_loaded"
	ErrorTypeInferenceFailure    ErrorType = "inference_failure"
	ErrorTypeInvalidImagePath    ErrorType = "invalid_image_path"
	ErrorTypeDatabaseUnavailable ErrorType = "database_unavailable"
	ErrorTypeNoMatchFound        ErrorType = "no_match_found"
)

// AppError represents a structured application error
type AppError struct {
	Type       ErrorType `json:"type"`
	Message    string    `json:"message"`
	Details    string    `json:"details,omitempty"`
	StatusCode int       `json:"status_code"`
	Cause      error     `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithDetails returns a copy of the error carrying a user-facing hint.
func (e *AppError) WithDetails(details string) *AppError {
	cp := *e
	cp.Details = details
	return &cp
}

func newError(t ErrorType, status int, message string, cause error) *AppError {
	return &AppError{
		Type:       t,
		Message:    message,
		StatusCode: status,
		Cause:      cause,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(message string, cause error) *AppError {
	return newError(ErrorTypeValidation, http.StatusBadRequest, message, cause)
}

// NewNetworkError creates a new network error
func NewNetworkError(message string, cause error) *AppError {
	return newError(ErrorTypeNetwork, http.StatusBadGateway, message, cause)
}

// NewProcessingError creates a new processing error
func NewProcessingError(message string, cause error) *AppError {
	return newError(ErrorTypeProcessing, http.StatusUnprocessableEntity, message, cause)
}

// NewTimeoutError creates a new timeout error
func NewTimeoutError(message string, cause error) *AppError {
	return newError(ErrorTypeTimeout, http.StatusGatewayTimeout, message, cause)
}

// NewCanceledError reports a request abandoned by its caller.
func NewCanceledError(message string, cause error) *AppError {
	// 499 is the de facto "client closed request" code.
	return newError(ErrorTypeCanceled, 499, message, cause)
}

// NewInternalError creates a new internal error
func NewInternalError(message string, cause error) *AppError {
	return newError(ErrorTypeInternal, http.StatusInternalServerError, message, cause)
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string, cause error) *AppError {
	return newError(ErrorTypeNotFound, http.StatusNotFound, message, cause)
}

// NewNoFaceDetectedError is returned when the photo holds no usable face.
func NewNoFaceDetectedError(cause error) *AppError {
	return newError(ErrorTypeNoFaceDetected, http.StatusUnprocessableEntity, "no face detected", cause).
		WithDetails("Please retake the photo facing the camera in good, even lighting.")
}

// NewModelNotLoadedError is returned when the classifier is not ready yet.
func NewModelNotLoadedError(cause error) *AppError {
	return newError(ErrorTypeModelNotLoaded, http.StatusServiceUnavailable, "skin analysis model is not loaded", cause).
		WithDetails("The analysis model is starting up. Please try again shortly.")
}

// NewInferenceFailureError wraps a failure inside the classifier runtime.
func NewInferenceFailureError(cause error) *AppError {
	return newError(ErrorTypeInferenceFailure, http.StatusInternalServerError, "skin analysis failed", cause)
}

// NewInvalidImagePathError is returned when an image reference cannot be opened.
func NewInvalidImagePathError(cause error) *AppError {
	return newError(ErrorTypeInvalidImagePath, http.StatusBadRequest, "invalid image path", cause).
		WithDetails("Please provide a valid JPEG or PNG image.")
}

// NewDatabaseUnavailableError reports an unreachable product catalog.
func NewDatabaseUnavailableError(cause error) *AppError {
	return newError(ErrorTypeDatabaseUnavailable, http.StatusServiceUnavailable, "product catalog unavailable", cause)
}

// NewNoMatchFoundError is informational: an empty recommendation list is a valid outcome.
func NewNoMatchFoundError(message string) *AppError {
	return newError(ErrorTypeNoMatchFound, http.StatusOK, message, nil)
}

// FromContext maps context errors to their own kinds. It returns nil for other errors.
func FromContext(message string, err error) *AppError {
	switch {
	case stderrors.Is(err, context.DeadlineExceeded):
		return NewTimeoutError(message, err)
	case stderrors.Is(err, context.Canceled):
		return NewCanceledError(message, err)
	}
	return nil
}

// IsType checks if the error is of a specific type
func IsType(err error, errorType ErrorType) bool {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Type == errorType
	}
	return false
}

// GetStatusCode extracts the HTTP status code from an error
func GetStatusCode(err error) int {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}
