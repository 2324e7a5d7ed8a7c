package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/scrumdeck/scrumdeck-engine/pkg/auth"
	"github.com/scrumdeck/scrumdeck-engine/pkg/models"
	"github.com/scrumdeck/scrumdeck-engine/pkg/services"
)

// CreateTaskRequest is the payload for a new backlog task.
type CreateTaskRequest struct {
	ProjectID   uuid.UUID  `json:"project_id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Weight      int        `json:"weight"`
	Priority    int        `json:"priority"`
	AssigneeID  *uuid.UUID `json:"assignee_id"`
}

// PatchTaskRequest carries a sparse task edit. Absent fields are left
// untouched; clear_assignee removes the assignee explicitly.
type PatchTaskRequest struct {
	Name          *string    `json:"name"`
	Description   *string    `json:"description"`
	Weight        *int       `json:"weight"`
	Priority      *int       `json:"priority"`
	AssigneeID    *uuid.UUID `json:"assignee_id"`
	ClearAssignee bool       `json:"clear_assignee"`
}

// TasksHandler handles task lifecycle and tag association requests.
type TasksHandler struct {
	taskService   services.TaskService
	accessService services.AccessService
	logger        *zap.Logger
}

// NewTasksHandler creates a new tasks handler.
func NewTasksHandler(taskService services.TaskService, accessService services.AccessService, logger *zap.Logger) *TasksHandler {
	return &TasksHandler{
		taskService:   taskService,
		accessService: accessService,
		logger:        logger,
	}
}

// RegisterRoutes registers the tasks handler's routes on the given mux.
func (h *TasksHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("GET /api/tasks", authMiddleware.RequireAuth(h.List))
	mux.HandleFunc("POST /api/tasks", authMiddleware.RequireAuth(h.Create))
	mux.HandleFunc("GET /api/tasks/{tid}", authMiddleware.RequireAuth(h.Get))
	mux.HandleFunc("PATCH /api/tasks/{tid}", authMiddleware.RequireAuth(h.Patch))
	mux.HandleFunc("DELETE /api/tasks/{tid}", authMiddleware.RequireAuth(h.Delete))
	mux.HandleFunc("GET /api/projects/{pid}/tasks", authMiddleware.RequireAuth(h.ListByProject))
	mux.HandleFunc("POST /api/tasks/{tid}/tags/{tagid}", authMiddleware.RequireAuth(h.AttachTag))
	mux.HandleFunc("DELETE /api/tasks/{tid}/tags/{tagid}", authMiddleware.RequireAuth(h.DetachTag))
}

// List handles GET /api/tasks.
// Returns every task of the caller's projects; superusers see all tasks.
func (h *TasksHandler) List(w http.ResponseWriter, r *http.Request) {
	identity, err := auth.IdentityFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w, h.logger, err)
		return
	}

	tasks, err := h.taskService.ListAccessible(r.Context(), identity.UserID, identity.IsSuperuser)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, tasks); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// ListByProject handles GET /api/projects/{pid}/tasks.
func (h *TasksHandler) ListByProject(w http.ResponseWriter, r *http.Request) {
	identity, err := auth.IdentityFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w, h.logger, err)
		return
	}

	projectID, err := pathUUID(r, "pid")
	if err != nil {
		writeBadRequest(w, h.logger, "invalid_project_id", err.Error())
		return
	}

	if err := h.accessService.ValidateProject(r.Context(), identity.UserID, projectID, identity.IsSuperuser, false); err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	tasks, err := h.taskService.ListByProject(r.Context(), projectID)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, tasks); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Create handles POST /api/tasks.
// New tasks land in the backlog: no sprint, no state.
func (h *TasksHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, err := auth.IdentityFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w, h.logger, err)
		return
	}

	var req CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, h.logger, "invalid_request", "Invalid JSON body")
		return
	}
	if req.ProjectID == uuid.Nil {
		writeBadRequest(w, h.logger, "missing_project_id", "project_id is required")
		return
	}

	if err := h.accessService.ValidateProject(r.Context(), identity.UserID, req.ProjectID, identity.IsSuperuser, false); err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	task, err := h.taskService.Create(r.Context(), identity.UserID, services.TaskInput{
		ProjectID:   req.ProjectID,
		Name:        req.Name,
		Description: req.Description,
		Weight:      req.Weight,
		Priority:    req.Priority,
		AssigneeID:  req.AssigneeID,
	})
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusCreated, task); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Get handles GET /api/tasks/{tid}. The task's tags are included.
func (h *TasksHandler) Get(w http.ResponseWriter, r *http.Request) {
	task, ok := h.authorizeTaskPath(w, r)
	if !ok {
		return
	}

	if err := WriteJSON(w, http.StatusOK, task); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Patch handles PATCH /api/tasks/{tid}.
// Only the submitted fields change; board placement is out of reach here.
func (h *TasksHandler) Patch(w http.ResponseWriter, r *http.Request) {
	task, ok := h.authorizeTaskPath(w, r)
	if !ok {
		return
	}

	var req PatchTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, h.logger, "invalid_request", "Invalid JSON body")
		return
	}

	updated, err := h.taskService.Patch(r.Context(), task.ID, &models.TaskPatch{
		Name:          req.Name,
		Description:   req.Description,
		Weight:        req.Weight,
		Priority:      req.Priority,
		AssigneeID:    req.AssigneeID,
		ClearAssignee: req.ClearAssignee,
	})
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, updated); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Delete handles DELETE /api/tasks/{tid}.
func (h *TasksHandler) Delete(w http.ResponseWriter, r *http.Request) {
	task, ok := h.authorizeTaskPath(w, r)
	if !ok {
		return
	}

	if err := h.taskService.Delete(r.Context(), task.ID); err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AttachTag handles POST /api/tasks/{tid}/tags/{tagid}.
func (h *TasksHandler) AttachTag(w http.ResponseWriter, r *http.Request) {
	task, ok := h.authorizeTaskPath(w, r)
	if !ok {
		return
	}

	tagID, err := pathUUID(r, "tagid")
	if err != nil {
		writeBadRequest(w, h.logger, "invalid_tag_id", err.Error())
		return
	}

	if err := h.taskService.AttachTag(r.Context(), task.ID, tagID); err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DetachTag handles DELETE /api/tasks/{tid}/tags/{tagid}.
func (h *TasksHandler) DetachTag(w http.ResponseWriter, r *http.Request) {
	task, ok := h.authorizeTaskPath(w, r)
	if !ok {
		return
	}

	tagID, err := pathUUID(r, "tagid")
	if err != nil {
		writeBadRequest(w, h.logger, "invalid_tag_id", err.Error())
		return
	}

	if err := h.taskService.DetachTag(r.Context(), task.ID, tagID); err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// authorizeTaskPath resolves {tid}, loads the task and checks the caller's
// access to its project.
func (h *TasksHandler) authorizeTaskPath(w http.ResponseWriter, r *http.Request) (*models.Task, bool) {
	identity, err := auth.IdentityFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w, h.logger, err)
		return nil, false
	}

	taskID, err := pathUUID(r, "tid")
	if err != nil {
		writeBadRequest(w, h.logger, "invalid_task_id", err.Error())
		return nil, false
	}

	task, err := h.taskService.Get(r.Context(), taskID)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return nil, false
	}

	if err := h.accessService.ValidateProject(r.Context(), identity.UserID, task.ProjectID, identity.IsSuperuser, false); err != nil {
		WriteServiceError(w, h.logger, err)
		return nil, false
	}
	return task, true
}
