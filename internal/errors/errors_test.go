package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestConstructors(t *testing.T) {
	cause := stderrors.New("boom")
	tests := []struct {
		err     *AppError
		kind    ErrorType
		status  int
		details bool
	}{
		{NewValidationError("bad", cause), ErrorTypeValidation, http.StatusBadRequest, false},
		{NewNetworkError("net", cause), ErrorTypeNetwork, http.StatusBadGateway, false},
		{NewTimeoutError("slow", cause), ErrorTypeTimeout, http.StatusGatewayTimeout, false},
		{NewCanceledError("gone", cause), ErrorTypeCanceled, 499, false},
		{NewNotFoundError("missing", nil), ErrorTypeNotFound, http.StatusNotFound, false},
		{NewNoFaceDetectedError(cause), ErrorTypeNoFaceDetected, http.StatusUnprocessableEntity, true},
		{NewModelNotLoadedError(cause), ErrorTypeModelNotLoaded, http.StatusServiceUnavailable, true},
		{NewInferenceFailureError(cause), ErrorTypeInferenceFailure, http.StatusInternalServerError, false},
		{NewInvalidImagePathError(cause), ErrorTypeInvalidImagePath, http.StatusBadRequest, true},
		{NewDatabaseUnavailableError(cause), ErrorTypeDatabaseUnavailable, http.StatusServiceUnavailable, false},
		{NewNoMatchFoundError("nothing"), ErrorTypeNoMatchFound, http.StatusOK, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			if tt.err.Type != tt.kind || tt.err.StatusCode != tt.status {
				t.Errorf("got %s/%d, want %s/%d", tt.err.Type, tt.err.StatusCode, tt.kind, tt.status)
			}
			if (tt.err.Details != "") != tt.details {
				t.Errorf("Details = %q", tt.err.Details)
			}
		})
	}
}

func TestWrappedLookup(t *testing.T) {
	base := NewNoFaceDetectedError(nil)
	wrapped := fmt.Errorf("request 7: %w", base)

	if !IsType(wrapped, ErrorTypeNoFaceDetected) {
		t.Error("IsType should see through wrapping")
	}
	if IsType(wrapped, ErrorTypeValidation) {
		t.Error("IsType matched the wrong kind")
	}
	if got := GetStatusCode(wrapped); got != http.StatusUnprocessableEntity {
		t.Errorf("GetStatusCode() = %d", got)
	}
	if got := GetStatusCode(stderrors.New("plain")); got != http.StatusInternalServerError {
		t.Errorf("GetStatusCode(plain) = %d", got)
	}
}

func TestUnwrapAndMessage(t *testing.T) {
	cause := stderrors.New("disk gone")
	err := NewInternalError("save failed", cause)
	if !stderrors.Is(err, cause) {
		t.Error("cause not reachable through Unwrap")
	}
	if want := "internal: save failed (caused by: disk gone)"; err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if got := NewValidationError("bad", nil).Error(); got != "validation: bad" {
		t.Errorf("Error() = %q", got)
	}
}

func TestWithDetailsCopies(t *testing.T) {
	orig := NewProcessingError("x", nil)
	cp := orig.WithDetails("hint")
	if orig.Details != "" || cp.Details != "hint" {
		t.Errorf("orig=%q copy=%q", orig.Details, cp.Details)
	}
}

func TestFromContext(t *testing.T) {
	if got := FromContext("m", fmt.Errorf("wrap: %w", context.DeadlineExceeded)); got == nil || got.Type != ErrorTypeTimeout {
		t.Errorf("deadline -> %v", got)
	}
	if got := FromContext("m", context.Canceled); got == nil || got.Type != ErrorTypeCanceled {
		t.Errorf("canceled -> %v", got)
	}
	if got := FromContext("m", stderrors.New("other")); got != nil {
		t.Errorf("other -> %v", got)
	}
}
