package notification

import (
	"log/slog"
	"net/http"
	"strconv"

	"tracker-service/common/httputil"
	"tracker-service/internal/domain"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	service Service
	logger  *slog.Logger
}

func NewHandler(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/notifications", h.ListNotifications)
	r.Put("/notifications/{id}/read", h.MarkRead)
}

func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	caller, _ := domain.IdentityFromContext(r.Context())

	notifications, err := h.service.List(r.Context(), caller)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, notifications)
}

func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	caller, _ := domain.IdentityFromContext(r.Context())

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httputil.RespondWithError(w, http.StatusBadRequest, "invalid notification ID")
		return
	}

	if err := h.service.MarkRead(r.Context(), caller, id); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Notification marked as read"})
}

func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if domain.IsClientError(err) {
		h.logger.InfoContext(r.Context(), "notification request rejected", "error", err)
		httputil.RespondWithErrorCode(w, domain.StatusCode(err), domain.Code(err), err.Error())
		return
	}
	h.logger.ErrorContext(r.Context(), "notification request failed", "error", err)
	httputil.RespondWithError(w, http.StatusInternalServerError, "internal server error")
}
