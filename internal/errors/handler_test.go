package errors

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler() *ErrorHandler {
	log := logrus.New()
	log.SetOutput(&testWriter{})
	return NewErrorHandler(log)
}

type testWriter struct{}

func (*testWriter) Write(p []byte) (int, error) { return len(p), nil }

func TestHandleError_AppError(t *testing.T) {
	h := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/streams/missing", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rec := httptest.NewRecorder()

	h.HandleError(rec, req, NewNotFoundError("stream"))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, ErrorTypeNotFound, resp.Error.Type)
	assert.Equal(t, "req-123", resp.TraceID)
}

func TestHandleError_PlainError(t *testing.T) {
	h := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	h.HandleError(rec, req, assert.AnError)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, ErrorTypeInternal, resp.Error.Type)
}

func TestMiddleware_RecoversPanic(t *testing.T) {
	h := newTestHandler()

	panicking := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	req := httptest.NewRequest(http.MethodGet, "/panic", nil)
	rec := httptest.NewRecorder()

	h.Middleware(panicking).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHandleNotFoundAndMethodNotAllowed(t *testing.T) {
	h := newTestHandler()

	rec := httptest.NewRecorder()
	h.HandleNotFound(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	h.HandleMethodNotAllowed(rec, httptest.NewRequest(http.MethodPost, "/health", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
