package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{
			name: "without wrapped error",
			err:  NewConfigError("unsupported block size"),
			want: "CONFIG_ERROR: unsupported block size",
		},
		{
			name: "with wrapped error",
			err:  WrapDownstreamError(fmt.Errorf("sink closed"), "failed to deliver frame"),
			want: "DOWNSTREAM_ERROR: failed to deliver frame (caused by: sink closed)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("out of budget")
	err := WrapResourceError(cause, "frame clone failed")

	assert.Equal(t, cause, errors.Unwrap(err))
	assert.True(t, errors.Is(err, cause))
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		wantType   ErrorType
		wantStatus int
	}{
		{"config", NewConfigError("bad"), ErrorTypeConfig, http.StatusInternalServerError},
		{"format", NewFormatError("bad"), ErrorTypeFormat, http.StatusBadRequest},
		{"resource", NewResourceError("bad"), ErrorTypeResource, http.StatusInsufficientStorage},
		{"validation", NewValidationError("bad"), ErrorTypeValidation, http.StatusBadRequest},
		{"not found", NewNotFoundError("stream"), ErrorTypeNotFound, http.StatusNotFound},
		{"internal", NewInternalError("bad"), ErrorTypeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantType, tt.err.Type)
			assert.Equal(t, tt.wantStatus, tt.err.HTTPStatus)
		})
	}
}

func TestWithDetailsAndCode(t *testing.T) {
	err := NewFormatError("plane count mismatch").
		WithCode("PLANE_MISMATCH").
		WithDetails(map[string]interface{}{"cur": 3, "ref": 2})

	assert.Equal(t, "PLANE_MISMATCH", err.Code)
	assert.Equal(t, 3, err.Details["cur"])
}

func TestGetAppError(t *testing.T) {
	appErr := NewNotFoundError("stream")
	got, ok := GetAppError(appErr)
	require.True(t, ok)
	assert.Equal(t, appErr, got)

	_, ok = GetAppError(errors.New("plain"))
	assert.False(t, ok)
	assert.False(t, IsAppError(errors.New("plain")))
	assert.True(t, IsAppError(appErr))
}
