package task

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
	r.Get("/tasks", h.ListTasks)
	r.Post("/tasks", h.CreateTask)
	r.Put("/tasks/{id}", h.UpdateTask)
	r.Delete("/tasks/{id}", h.DeleteTask)
	r.Get("/students/{id}/tasks", h.ListStudentTasks)

	r.Get("/projects", h.ListProjects)
	r.Post("/projects", h.CreateProject)
	r.Get("/projects/{id}/tasks", h.ListProjectTasks)
	r.Post("/projects/{id}/tasks", h.CreateProjectTask)
	r.Put("/projects/{id}/tasks/{taskID}", h.UpdateProjectTask)
}

func (h *Handler) ListTasks(w http.ResponseWriter, r *http.Request) {
	caller, _ := domain.IdentityFromContext(r.Context())

	tasks, err := h.service.ListTasks(r.Context(), caller)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, tasks)
}

func (h *Handler) CreateTask(w http.ResponseWriter, r *http.Request) {
	caller, _ := domain.IdentityFromContext(r.Context())

	var req CreateTaskRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	t, err := h.service.CreateTask(r.Context(), caller, req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.metrics.RecordTaskCreated(r.Context(), false)
	h.logger.InfoContext(r.Context(), "task created", "task_id", t.ID, "student_id", t.OwnerID)
	httputil.RespondWithJSON(w, http.StatusCreated, t)
}

func (h *Handler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	caller, _ := domain.IdentityFromContext(r.Context())

	id, ok := h.pathID(w, r, "id", "task")
	if !ok {
		return
	}

	var req UpdateTaskRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	t, err := h.service.UpdateTask(r.Context(), caller, id, req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	if req.Completed != nil && *req.Completed {
		h.metrics.RecordTaskCompleted(r.Context(), false)
	}
	httputil.RespondWithJSON(w, http.StatusOK, t)
}

func (h *Handler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	caller, _ := domain.IdentityFromContext(r.Context())

	id, ok := h.pathID(w, r, "id", "task")
	if !ok {
		return
	}

	if err := h.service.DeleteTask(r.Context(), caller, id); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "task deleted", "task_id", id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListStudentTasks(w http.ResponseWriter, r *http.Request) {
	caller, _ := domain.IdentityFromContext(r.Context())

	studentID, ok := h.pathID(w, r, "id", "student")
	if !ok {
		return
	}

	tasks, err := h.service.TasksForOwner(r.Context(), caller, studentID)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, tasks)
}

func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	caller, _ := domain.IdentityFromContext(r.Context())

	projects, err := h.service.ListProjects(r.Context(), caller)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, projects)
}

func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	caller, _ := domain.IdentityFromContext(r.Context())

	var req CreateProjectRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p, err := h.service.CreateProject(r.Context(), caller, req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.metrics.RecordProjectCreated(r.Context())
	h.logger.InfoContext(r.Context(), "project created", "project_id", p.ID, "student_id", p.OwnerID)
	httputil.RespondWithJSON(w, http.StatusCreated, p)
}

func (h *Handler) ListProjectTasks(w http.ResponseWriter, r *http.Request) {
	caller, _ := domain.IdentityFromContext(r.Context())

	projectID, ok := h.pathID(w, r, "id", "project")
	if !ok {
		return
	}

	tasks, err := h.service.TasksForProject(r.Context(), caller, projectID)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, tasks)
}

func (h *Handler) CreateProjectTask(w http.ResponseWriter, r *http.Request) {
	caller, _ := domain.IdentityFromContext(r.Context())

	projectID, ok := h.pathID(w, r, "id", "project")
	if !ok {
		return
	}

	var req CreateProjectTaskRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	t, err := h.service.CreateProjectTask(r.Context(), caller, projectID, req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.metrics.RecordTaskCreated(r.Context(), true)
	httputil.RespondWithJSON(w, http.StatusCreated, t)
}

func (h *Handler) UpdateProjectTask(w http.ResponseWriter, r *http.Request) {
	caller, _ := domain.IdentityFromContext(r.Context())

	projectID, ok := h.pathID(w, r, "id", "project")
	if !ok {
		return
	}
	taskID, ok := h.pathID(w, r, "taskID", "task")
	if !ok {
		return
	}

	var req UpdateProjectTaskRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	t, err := h.service.UpdateProjectTask(r.Context(), caller, projectID, taskID, req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	if req.Status != nil {
		h.metrics.RecordStatusMove(r.Context(), *req.Status)
	}
	httputil.RespondWithJSON(w, http.StatusOK, t)
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request, param, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	if err != nil || id <= 0 {
		httputil.RespondWithError(w, http.StatusBadRequest, "invalid "+name+" ID")
		return 0, false
	}
	return id, true
}

func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if domain.IsClientError(err) {
		h.logger.InfoContext(r.Context(), "task request rejected", "error", err)
		httputil.RespondWithErrorCode(w, domain.StatusCode(err), domain.Code(err), err.Error())
		return
	}
	h.logger.ErrorContext(r.Context(), "task request failed", "error", err)
	httputil.RespondWithError(w, http.StatusInternalServerError, "internal server error")
}
