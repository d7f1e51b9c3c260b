package invite

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

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
	r.Get("/invites", h.ListInvites)
	r.Post("/invites", h.CreateInvite)
	r.Post("/invites/accept", h.AcceptInvite)
}

func (h *Handler) CreateInvite(w http.ResponseWriter, r *http.Request) {
	caller, _ := domain.IdentityFromContext(r.Context())

	var req CreateInviteRequest
	if err := httputil.DecodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		httputil.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	inv, err := h.service.Create(r.Context(), caller, req.ParentEmail)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.metrics.RecordInviteCreated(r.Context())
	h.logger.InfoContext(r.Context(), "invite created", "student_id", inv.StudentID, "with_email", inv.ParentEmail != nil)

	httputil.RespondWithJSON(w, http.StatusCreated, CreateInviteResponse{
		Code:        inv.Code,
		StudentID:   inv.StudentID,
		ParentEmail: inv.ParentEmail,
		CreatedAt:   inv.CreatedAt,
	})
}

func (h *Handler) AcceptInvite(w http.ResponseWriter, r *http.Request) {
	caller, _ := domain.IdentityFromContext(r.Context())

	var req AcceptInviteRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	edge, err := h.service.Accept(r.Context(), caller, req.Code)
	if err != nil {
		if domain.IsClientError(err) {
			h.metrics.RecordInviteRejected(r.Context(), domain.Code(err))
		}
		h.handleServiceError(w, r, err)
		return
	}

	h.metrics.RecordInviteAccepted(r.Context())
	h.logger.InfoContext(r.Context(), "invite accepted", "parent_id", edge.ParentID, "student_id", edge.StudentID)

	httputil.RespondWithJSON(w, http.StatusOK, AcceptInviteResponse{StudentID: edge.StudentID})
}

func (h *Handler) ListInvites(w http.ResponseWriter, r *http.Request) {
	caller, _ := domain.IdentityFromContext(r.Context())

	invites, err := h.service.ListForStudent(r.Context(), caller)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, invites)
}

func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if domain.IsClientError(err) {
		h.logger.InfoContext(r.Context(), "invite request rejected", "error", err)
		httputil.RespondWithErrorCode(w, domain.StatusCode(err), domain.Code(err), err.Error())
		return
	}
	h.logger.ErrorContext(r.Context(), "invite request failed", "error", err)
	httputil.RespondWithError(w, http.StatusInternalServerError, "internal server error")
}
