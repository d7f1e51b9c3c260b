package health

import (
	"context"
	"net/http"
	"time"

	"tracker-service/common/httputil"
	"tracker-service/common/metrics"

	"github.com/go-chi/chi/v5"
)

// Check reports whether a dependency is usable.
type Check func(ctx context.Context) error

// Dependency is a named readiness check.
type Dependency struct {
	Name  string
	Check Check
}

type Handler struct {
	deps    []Dependency
	metrics *metrics.HealthMetrics
	timeout time.Duration
}

func NewHandler(m *metrics.HealthMetrics, deps ...Dependency) *Handler {
	return &Handler{
		deps:    deps,
		metrics: m,
		timeout: 2 * time.Second,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.Health)
	r.Get("/ready", h.Ready)
}

type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	httputil.RespondWithJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// Ready answers 503 when any dependency check fails.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	resp := HealthResponse{Status: "ready", Checks: map[string]string{}}
	status := http.StatusOK

	for _, dep := range h.deps {
		start := time.Now()
		err := dep.Check(ctx)
		h.metrics.RecordDependencyCheck(ctx, dep.Name, time.Since(start), err)

		if err != nil {
			resp.Checks[dep.Name] = err.Error()
			resp.Status = "not ready"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[dep.Name] = "ok"
	}

	httputil.RespondWithJSON(w, status, resp)
}

// Names lists the dependency names, for metric registration.
func (h *Handler) Names() []string {
	names := make([]string, 0, len(h.deps))
	for _, dep := range h.deps {
		names = append(names, dep.Name)
	}
	return names
}
