package http_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpadapter "github.com/covidnpi/stringency-etl/internal/adapter/http"
)

type readiness struct{ err error }

func (r readiness) CheckReadiness(context.Context) error { return r.err }

func newServer(t *testing.T, ready error) *httpadapter.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return httpadapter.NewServer(":0", readiness{err: ready}, "2021-06", logger)
}

func get(srv *httpadapter.Server, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthz(t *testing.T) {
	rec := get(newServer(t, nil), "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
}

func TestReadyz(t *testing.T) {
	t.Run("ready", func(t *testing.T) {
		rec := get(newServer(t, nil), "/readyz")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"ready"}`, rec.Body.String())
	})
	t.Run("not ready", func(t *testing.T) {
		rec := get(newServer(t, errors.New("first scoring run has not completed")), "/readyz")
		require.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Contains(t, rec.Body.String(), "not ready")
		assert.Contains(t, rec.Body.String(), "first scoring run")
	})
}

func TestVersion(t *testing.T) {
	rec := get(newServer(t, nil), "/version")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"formula_version":"2021-06"}`, rec.Body.String())
}

func TestMetricsRouteRegistered(t *testing.T) {
	rec := get(newServer(t, nil), "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	rec := httptest.NewRecorder()
	newServer(t, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/healthz", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
