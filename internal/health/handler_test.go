package health_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"tracker-service/common/metrics"
	"tracker-service/internal/health"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
)

func serve(t *testing.T, h *health.Handler, path string) (int, health.HealthResponse) {
	t.Helper()

	router := chi.NewRouter()
	h.RegisterRoutes(router)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))

	var resp health.HealthResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return w.Code, resp
}

func TestHealthHandler(t *testing.T) {
	meter := noop.NewMeterProvider().Meter("test")
	hm, err := metrics.NewHealthMetrics(meter)
	require.NoError(t, err)

	var brokerErr error
	h := health.NewHandler(hm,
		health.Dependency{Name: "database", Check: func(ctx context.Context) error { return nil }},
		health.Dependency{Name: "nats", Check: func(ctx context.Context) error { return brokerErr }},
	)
	require.NoError(t, hm.RegisterDependencies(context.Background(), meter, h.Names()))
	assert.Equal(t, []string{"database", "nats"}, h.Names())

	t.Run("Liveness", func(t *testing.T) {
		code, resp := serve(t, h, "/health")
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "ok", resp.Status)
		assert.Empty(t, resp.Checks)
	})

	t.Run("Ready", func(t *testing.T) {
		code, resp := serve(t, h, "/ready")
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "ready", resp.Status)
		assert.Equal(t, map[string]string{"database": "ok", "nats": "ok"}, resp.Checks)
		assert.True(t, hm.Available("nats"))
	})

	t.Run("NotReady", func(t *testing.T) {
		brokerErr = errors.New("connection closed")
		defer func() { brokerErr = nil }()

		code, resp := serve(t, h, "/ready")
		assert.Equal(t, http.StatusServiceUnavailable, code)
		assert.Equal(t, "not ready", resp.Status)
		assert.Equal(t, "ok", resp.Checks["database"])
		assert.Equal(t, "connection closed", resp.Checks["nats"])
		assert.False(t, hm.Available("nats"))
		assert.True(t, hm.Available("database"))
	})

	t.Run("NoDependencies", func(t *testing.T) {
		code, resp := serve(t, health.NewHandler(nil), "/ready")
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "ready", resp.Status)
	})
}
