package subject

import (
	"log/slog"
	"net/http"

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
	r.Get("/subjects", h.ListSubjects)
	r.Post("/subjects", h.CreateSubject)
}

func (h *Handler) ListSubjects(w http.ResponseWriter, r *http.Request) {
	caller, _ := domain.IdentityFromContext(r.Context())

	subjects, err := h.service.List(r.Context(), caller)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, subjects)
}

func (h *Handler) CreateSubject(w http.ResponseWriter, r *http.Request) {
	caller, _ := domain.IdentityFromContext(r.Context())

	var req CreateSubjectRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	subj, err := h.service.Create(r.Context(), caller, req.Name, req.Color)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "subject created", "subject_id", subj.ID, "student_id", caller.UserID)
	httputil.RespondWithJSON(w, http.StatusCreated, subj)
}

func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if domain.IsClientError(err) {
		h.logger.InfoContext(r.Context(), "subject request rejected", "error", err)
		httputil.RespondWithErrorCode(w, domain.StatusCode(err), domain.Code(err), err.Error())
		return
	}
	h.logger.ErrorContext(r.Context(), "subject request failed", "error", err)
	httputil.RespondWithError(w, http.StatusInternalServerError, "internal server error")
}
