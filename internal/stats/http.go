package stats

import (
	"log/slog"
	"net/http"
	"strconv"

	"tracker-service/common/httputil"
	"tracker-service/internal/domain"
	"tracker-service/internal/metrics"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	service Service
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewHandler(service Service, logger *slog.Logger, metrics *metrics.Metrics) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
		metrics: metrics,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/parent/students", h.Dashboard)
	r.Get("/students/{id}/stats", h.StudentStats)
}

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	caller, _ := domain.IdentityFromContext(r.Context())

	rows, err := h.service.Dashboard(r.Context(), caller)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.metrics.RecordDashboardViewed(r.Context())
	httputil.RespondWithJSON(w, http.StatusOK, rows)
}

func (h *Handler) StudentStats(w http.ResponseWriter, r *http.Request) {
	caller, _ := domain.IdentityFromContext(r.Context())

	studentID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || studentID <= 0 {
		httputil.RespondWithError(w, http.StatusBadRequest, "invalid student ID")
		return
	}

	st, err := h.service.ForViewer(r.Context(), caller, studentID)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, st)
}

func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if domain.IsClientError(err) {
		h.logger.InfoContext(r.Context(), "stats request rejected", "error", err)
		httputil.RespondWithErrorCode(w, domain.StatusCode(err), domain.Code(err), err.Error())
		return
	}
	h.logger.ErrorContext(r.Context(), "stats request failed", "error", err)
	httputil.RespondWithError(w, http.StatusInternalServerError, "internal server error")
}
