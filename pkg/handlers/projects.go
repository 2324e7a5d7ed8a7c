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

// ProjectRequest is the create/update payload for a project.
type ProjectRequest struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	Color        string `json:"color"`
	SprintLength int    `json:"sprint_length"`
}

// AccessRequest names the user an owner grants project access to.
type AccessRequest struct {
	UserID uuid.UUID `json:"user_id"`
}

// ProjectsHandler handles project CRUD and access grant/revoke requests.
type ProjectsHandler struct {
	projectService services.ProjectService
	accessService  services.AccessService
	logger         *zap.Logger
}

// NewProjectsHandler creates a new projects handler.
func NewProjectsHandler(projectService services.ProjectService, accessService services.AccessService, logger *zap.Logger) *ProjectsHandler {
	return &ProjectsHandler{
		projectService: projectService,
		accessService:  accessService,
		logger:         logger,
	}
}

// RegisterRoutes registers the projects handler's routes on the given mux.
func (h *ProjectsHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("GET /api/projects", authMiddleware.RequireAuth(h.List))
	mux.HandleFunc("POST /api/projects", authMiddleware.RequireAuth(h.Create))
	mux.HandleFunc("GET /api/projects/{pid}", authMiddleware.RequireAuth(h.Get))
	mux.HandleFunc("PUT /api/projects/{pid}", authMiddleware.RequireAuth(h.Update))
	mux.HandleFunc("DELETE /api/projects/{pid}", authMiddleware.RequireAuth(h.Delete))
	mux.HandleFunc("POST /api/projects/{pid}/access", authMiddleware.RequireAuth(h.GrantAccess))
	mux.HandleFunc("DELETE /api/projects/{pid}/access/{uid}", authMiddleware.RequireAuth(h.RevokeAccess))
}

// List handles GET /api/projects.
// Returns the caller's projects; superusers see every project.
func (h *ProjectsHandler) List(w http.ResponseWriter, r *http.Request) {
	identity, err := auth.IdentityFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w, h.logger, err)
		return
	}

	projects, err := h.projectService.ListAccessible(r.Context(), identity.UserID, identity.IsSuperuser)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, projects); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Create handles POST /api/projects.
// The caller becomes the project's owner.
func (h *ProjectsHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, err := auth.IdentityFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w, h.logger, err)
		return
	}

	var req ProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, h.logger, "invalid_request", "Invalid JSON body")
		return
	}

	project, err := h.projectService.Create(r.Context(), identity.UserID, services.ProjectInput{
		Name:         req.Name,
		Description:  req.Description,
		Color:        req.Color,
		SprintLength: req.SprintLength,
	})
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusCreated, project); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Get handles GET /api/projects/{pid}.
func (h *ProjectsHandler) Get(w http.ResponseWriter, r *http.Request) {
	project, ok := h.authorizeProject(w, r, false)
	if !ok {
		return
	}

	if err := WriteJSON(w, http.StatusOK, project); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Update handles PUT /api/projects/{pid}. Owner only.
func (h *ProjectsHandler) Update(w http.ResponseWriter, r *http.Request) {
	project, ok := h.authorizeProject(w, r, true)
	if !ok {
		return
	}

	var req ProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, h.logger, "invalid_request", "Invalid JSON body")
		return
	}

	updated, err := h.projectService.Update(r.Context(), project.ID, services.ProjectInput{
		Name:         req.Name,
		Description:  req.Description,
		Color:        req.Color,
		SprintLength: req.SprintLength,
	})
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, updated); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Delete handles DELETE /api/projects/{pid}. Owner only. Removes the
// project and everything it owns.
func (h *ProjectsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	project, ok := h.authorizeProject(w, r, true)
	if !ok {
		return
	}

	if err := h.projectService.Delete(r.Context(), project.ID); err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GrantAccess handles POST /api/projects/{pid}/access. Owner only.
// Grants the named user a contributor membership.
func (h *ProjectsHandler) GrantAccess(w http.ResponseWriter, r *http.Request) {
	project, ok := h.authorizeProject(w, r, true)
	if !ok {
		return
	}

	var req AccessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, h.logger, "invalid_request", "Invalid JSON body")
		return
	}
	if req.UserID == uuid.Nil {
		writeBadRequest(w, h.logger, "missing_user_id", "user_id is required")
		return
	}

	if err := h.accessService.Grant(r.Context(), project.ID, req.UserID); err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RevokeAccess handles DELETE /api/projects/{pid}/access/{uid}. Owner only.
// Revoking a membership that does not exist succeeds quietly.
func (h *ProjectsHandler) RevokeAccess(w http.ResponseWriter, r *http.Request) {
	project, ok := h.authorizeProject(w, r, true)
	if !ok {
		return
	}

	userID, err := pathUUID(r, "uid")
	if err != nil {
		writeBadRequest(w, h.logger, "invalid_user_id", err.Error())
		return
	}

	if err := h.accessService.Revoke(r.Context(), project.ID, userID); err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// authorizeProject resolves {pid}, checks the caller's access and loads the
// project. On failure it writes the response and returns ok=false.
func (h *ProjectsHandler) authorizeProject(w http.ResponseWriter, r *http.Request, requireOwner bool) (*models.Project, bool) {
	identity, err := auth.IdentityFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w, h.logger, err)
		return nil, false
	}

	projectID, err := pathUUID(r, "pid")
	if err != nil {
		writeBadRequest(w, h.logger, "invalid_project_id", err.Error())
		return nil, false
	}

	if err := h.accessService.ValidateProject(r.Context(), identity.UserID, projectID, identity.IsSuperuser, requireOwner); err != nil {
		WriteServiceError(w, h.logger, err)
		return nil, false
	}

	project, err := h.projectService.Get(r.Context(), projectID)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return nil, false
	}
	return project, true
}
