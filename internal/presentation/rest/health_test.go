package rest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMux(checks map[string]ReadinessCheck, metrics http.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	NewHealthHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), checks, metrics).RegisterRoutes(mux)
	return mux
}

func get(t *testing.T, mux *http.ServeMux, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestLiveness(t *testing.T) {
	rec := get(t, newMux(nil, nil), "/healthz")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":"ok","service":"lendingd"}`, rec.Body.String())
}

func TestReadiness(t *testing.T) {
	t.Run("ready when all checks pass", func(t *testing.T) {
		mux := newMux(map[string]ReadinessCheck{
			"postgres": func(context.Context) error { return nil },
		}, nil)

		rec := get(t, mux, "/readyz")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("unavailable when a check fails", func(t *testing.T) {
		mux := newMux(map[string]ReadinessCheck{
			"postgres": func(context.Context) error { return nil },
			"redis":    func(context.Context) error { return errors.New("connection refused") },
		}, nil)

		rec := get(t, mux, "/readyz")
		require.Equal(t, http.StatusServiceUnavailable, rec.Code)

		var body struct {
			Failures map[string]string `json:"failures"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, map[string]string{"redis": "connection refused"}, body.Failures)
	})
}

func TestMetricsRoute(t *testing.T) {
	registry := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "lending_test_total"})
	registry.MustRegister(counter)
	counter.Inc()

	rec := get(t, newMux(nil, promhttp.HandlerFor(registry, promhttp.HandlerOpts{})), "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "lending_test_total 1")

	rec = get(t, newMux(nil, nil), "/metrics")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
