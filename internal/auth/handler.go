package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"tracker-service/common/httputil"
	"tracker-service/internal/domain"
	"tracker-service/internal/metrics"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

type Handler struct {
	service   *Service
	logger    *slog.Logger
	metrics   *metrics.Metrics
	validator *validator.Validate
}

func NewHandler(service *Service, logger *slog.Logger, metrics *metrics.Metrics) *Handler {
	return &Handler{
		service:   service,
		logger:    logger,
		metrics:   metrics,
		validator: validator.New(),
	}
}

// RegisterRoutes mounts the endpoints that need no identity.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/auth/register", h.Register)
	r.Post("/auth/login", h.Login)
	r.Post("/auth/logout", h.Logout)
}

// RegisterProtectedRoutes mounts the endpoints behind Middleware.
func (h *Handler) RegisterProtectedRoutes(r chi.Router) {
	r.Get("/auth/me", h.Me)
}

// Register creates a student or parent account
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.logger.WarnContext(r.Context(), "failed to decode request", "error", err)
		httputil.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		h.logger.WarnContext(r.Context(), "validation failed", "error", err)
		httputil.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.service.Register(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, ErrEmailExists):
			httputil.RespondWithError(w, http.StatusConflict, err.Error())
		case errors.Is(err, domain.ErrRoleMismatch):
			httputil.RespondWithErrorCode(w, http.StatusBadRequest, domain.Code(err), err.Error())
		default:
			h.logger.ErrorContext(r.Context(), "registration failed", "error", err)
			httputil.RespondWithError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	h.metrics.RecordUserRegistered(r.Context(), string(resp.User.Role))
	h.logger.InfoContext(r.Context(), "user registered", "user_id", resp.User.ID, "role", resp.User.Role)

	SetAuthCookie(w, resp.AccessToken, h.service.tokens.TTL())
	httputil.RespondWithJSON(w, http.StatusCreated, resp)
}

// Login authenticates a user
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.logger.WarnContext(r.Context(), "failed to decode request", "error", err)
		httputil.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		h.logger.WarnContext(r.Context(), "validation failed", "error", err)
		httputil.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.service.Login(r.Context(), req)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			httputil.RespondWithError(w, http.StatusUnauthorized, err.Error())
			return
		}
		h.logger.ErrorContext(r.Context(), "login failed", "error", err)
		httputil.RespondWithError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.InfoContext(r.Context(), "user logged in", "user_id", resp.User.ID)

	SetAuthCookie(w, resp.AccessToken, h.service.tokens.TTL())
	httputil.RespondWithJSON(w, http.StatusOK, resp)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	ClearAuthCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	caller, ok := domain.IdentityFromContext(r.Context())
	if !ok {
		httputil.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	u, err := h.service.Me(r.Context(), caller)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			httputil.RespondWithError(w, http.StatusUnauthorized, "user not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "failed to load current user", "error", err)
		httputil.RespondWithError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, u)
}
