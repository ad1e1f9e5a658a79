package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/tworoomsboom/internal/testutil"
)

func TestLoggingAssignsRequestID(t *testing.T) {
	logger, logs := testutil.CaptureLogger()

	var seen string
	h := Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestID(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/sessions/12345", nil))

	require.NotEmpty(t, seen)
	_, err := uuid.Parse(seen)
	assert.NoError(t, err)
	assert.Equal(t, seen, rr.Header().Get(RequestIDHeader))
	assert.Contains(t, logs.String(), `"status":418`)
	assert.Contains(t, logs.String(), seen)
}

func TestLoggingKeepsClientRequestID(t *testing.T) {
	id := uuid.NewString()
	h := Logging(testutil.NopLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, id, RequestID(r.Context()))
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, id)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, id, rr.Header().Get(RequestIDHeader))
}

func TestLoggingReplacesMalformedRequestID(t *testing.T) {
	h := Logging(testutil.NopLogger())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "not\na-uuid")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	_, err := uuid.Parse(rr.Header().Get(RequestIDHeader))
	assert.NoError(t, err)
}

func TestRecoveryHandlesPanic(t *testing.T) {
	logger, logs := testutil.CaptureLogger()

	var handled any
	h := Recovery(logger, func(w http.ResponseWriter, r *http.Request, err any) {
		handled = err
		DefaultPanicHandler(w, r, err)
	})(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/sessions", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "boom", handled)
	assert.Contains(t, logs.String(), "panic recovered")
}

func TestResponseWriterFlushes(t *testing.T) {
	rr := httptest.NewRecorder()
	rw := &ResponseWriter{ResponseWriter: rr, status: http.StatusOK}

	_, err := rw.Write([]byte("data: x\n\n"))
	require.NoError(t, err)
	rw.Flush()

	assert.True(t, rr.Flushed)
	assert.Equal(t, 9, rw.Size())
	assert.Equal(t, http.StatusOK, rw.Status())
}
