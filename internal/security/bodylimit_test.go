package security

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func echoBody(t *testing.T, captured *string) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		*captured = string(data)
		w.WriteHeader(http.StatusOK)
	})
}

func TestBodyLimitPassesSmallBody(t *testing.T) {
	var captured string
	h := BodyLimit{Max: 10}.Middleware(echoBody(t, &captured))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/payload", strings.NewReader("hello")))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "hello", captured, "body must reach the handler intact")
}

func TestBodyLimitRejectsOversizedBody(t *testing.T) {
	var captured string
	h := BodyLimit{Max: 5}.Middleware(echoBody(t, &captured))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/payload", strings.NewReader("excessive")))

	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	require.Empty(t, captured, "handler must not run for oversized bodies")
}

func TestBodyLimitRejectsDeclaredLength(t *testing.T) {
	var captured string
	h := BodyLimit{Max: 5}.Middleware(echoBody(t, &captured))

	req := httptest.NewRequest(http.MethodPost, "/payload", strings.NewReader("content"))
	req.ContentLength = 100
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestBodyLimitDisabled(t *testing.T) {
	var captured string
	h := BodyLimit{}.Middleware(echoBody(t, &captured))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/payload", strings.NewReader(strings.Repeat("x", 1024))))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, captured, 1024)
}
