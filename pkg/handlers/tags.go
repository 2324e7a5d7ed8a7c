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

// TagRequest is the create/update payload for a tag.
type TagRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// TagsHandler handles project tag requests.
type TagsHandler struct {
	tagService    services.TagService
	accessService services.AccessService
	logger        *zap.Logger
}

// NewTagsHandler creates a new tags handler.
func NewTagsHandler(tagService services.TagService, accessService services.AccessService, logger *zap.Logger) *TagsHandler {
	return &TagsHandler{
		tagService:    tagService,
		accessService: accessService,
		logger:        logger,
	}
}

// RegisterRoutes registers the tags handler's routes on the given mux.
func (h *TagsHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("GET /api/projects/{pid}/tags", authMiddleware.RequireAuth(h.List))
	mux.HandleFunc("POST /api/projects/{pid}/tags", authMiddleware.RequireAuth(h.Create))
	mux.HandleFunc("PUT /api/tags/{tagid}", authMiddleware.RequireAuth(h.Update))
	mux.HandleFunc("DELETE /api/tags/{tagid}", authMiddleware.RequireAuth(h.Delete))
}

// List handles GET /api/projects/{pid}/tags.
func (h *TagsHandler) List(w http.ResponseWriter, r *http.Request) {
	projectID, ok := h.authorizeProjectPath(w, r)
	if !ok {
		return
	}

	tags, err := h.tagService.ListByProject(r.Context(), projectID)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, tags); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Create handles POST /api/projects/{pid}/tags.
func (h *TagsHandler) Create(w http.ResponseWriter, r *http.Request) {
	projectID, ok := h.authorizeProjectPath(w, r)
	if !ok {
		return
	}

	var req TagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, h.logger, "invalid_request", "Invalid JSON body")
		return
	}

	tag, err := h.tagService.Create(r.Context(), projectID, req.Name, req.Color)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusCreated, tag); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Update handles PUT /api/tags/{tagid}.
func (h *TagsHandler) Update(w http.ResponseWriter, r *http.Request) {
	tag, ok := h.authorizeTagPath(w, r)
	if !ok {
		return
	}

	var req TagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, h.logger, "invalid_request", "Invalid JSON body")
		return
	}

	updated, err := h.tagService.Update(r.Context(), tag.ID, req.Name, req.Color)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, updated); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Delete handles DELETE /api/tags/{tagid}.
// The tag's task links disappear with it.
func (h *TagsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	tag, ok := h.authorizeTagPath(w, r)
	if !ok {
		return
	}

	if err := h.tagService.Delete(r.Context(), tag.ID); err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *TagsHandler) authorizeProjectPath(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	identity, err := auth.IdentityFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w, h.logger, err)
		return uuid.Nil, false
	}

	projectID, err := pathUUID(r, "pid")
	if err != nil {
		writeBadRequest(w, h.logger, "invalid_project_id", err.Error())
		return uuid.Nil, false
	}

	if err := h.accessService.ValidateProject(r.Context(), identity.UserID, projectID, identity.IsSuperuser, false); err != nil {
		WriteServiceError(w, h.logger, err)
		return uuid.Nil, false
	}
	return projectID, true
}

func (h *TagsHandler) authorizeTagPath(w http.ResponseWriter, r *http.Request) (*models.Tag, bool) {
	identity, err := auth.IdentityFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w, h.logger, err)
		return nil, false
	}

	tagID, err := pathUUID(r, "tagid")
	if err != nil {
		writeBadRequest(w, h.logger, "invalid_tag_id", err.Error())
		return nil, false
	}

	tag, err := h.tagService.Get(r.Context(), tagID)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return nil, false
	}

	if err := h.accessService.ValidateProject(r.Context(), identity.UserID, tag.ProjectID, identity.IsSuperuser, false); err != nil {
		WriteServiceError(w, h.logger, err)
		return nil, false
	}
	return tag, true
}
