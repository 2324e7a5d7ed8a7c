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

// SprintRequest is the create/update payload for a sprint. Tasks lists the
// ids the sprint should carry after the call.
type SprintRequest struct {
	StartDate string      `json:"start_date"`
	Tasks     []uuid.UUID `json:"tasks"`
}

// IntersectionResponse reports whether a candidate start date would collide
// with an existing sprint.
type IntersectionResponse struct {
	Intersects bool `json:"intersects"`
}

// SprintsHandler handles sprint scheduling, board and burndown requests.
type SprintsHandler struct {
	sprintService services.SprintService
	boardService  services.BoardService
	accessService services.AccessService
	logger        *zap.Logger
}

// NewSprintsHandler creates a new sprints handler.
func NewSprintsHandler(
	sprintService services.SprintService,
	boardService services.BoardService,
	accessService services.AccessService,
	logger *zap.Logger,
) *SprintsHandler {
	return &SprintsHandler{
		sprintService: sprintService,
		boardService:  boardService,
		accessService: accessService,
		logger:        logger,
	}
}

// RegisterRoutes registers the sprints handler's routes on the given mux.
func (h *SprintsHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("GET /api/sprints", authMiddleware.RequireAuth(h.ListAccessible))
	mux.HandleFunc("GET /api/projects/{pid}/sprints", authMiddleware.RequireAuth(h.List))
	mux.HandleFunc("POST /api/projects/{pid}/sprints", authMiddleware.RequireAuth(h.Create))
	mux.HandleFunc("GET /api/projects/{pid}/sprints/ongoing", authMiddleware.RequireAuth(h.Ongoing))
	mux.HandleFunc("GET /api/projects/{pid}/sprints/intersection", authMiddleware.RequireAuth(h.Intersection))
	mux.HandleFunc("GET /api/sprints/{sid}", authMiddleware.RequireAuth(h.Get))
	mux.HandleFunc("PUT /api/sprints/{sid}", authMiddleware.RequireAuth(h.Update))
	mux.HandleFunc("DELETE /api/sprints/{sid}", authMiddleware.RequireAuth(h.Delete))
	mux.HandleFunc("GET /api/sprints/{sid}/chart_data", authMiddleware.RequireAuth(h.ChartData))
	mux.HandleFunc("GET /api/sprints/{sid}/board", authMiddleware.RequireAuth(h.GetBoard))
	mux.HandleFunc("PUT /api/sprints/{sid}/board", authMiddleware.RequireAuth(h.UpdateBoard))
}

// ListAccessible handles GET /api/sprints.
// Returns the sprints of every project the caller is a member of.
func (h *SprintsHandler) ListAccessible(w http.ResponseWriter, r *http.Request) {
	identity, err := auth.IdentityFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w, h.logger, err)
		return
	}

	projectIDs, err := h.accessService.AccessibleProjectIDs(r.Context(), identity.UserID)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	sprints, err := h.sprintService.ListByProjects(r.Context(), projectIDs)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, sprints); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// List handles GET /api/projects/{pid}/sprints.
func (h *SprintsHandler) List(w http.ResponseWriter, r *http.Request) {
	projectID, ok := h.authorizeProjectPath(w, r, false)
	if !ok {
		return
	}

	sprints, err := h.sprintService.ListByProject(r.Context(), projectID)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, sprints); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Create handles POST /api/projects/{pid}/sprints. Owner only.
// Builds a sprint from the start date and binds the listed tasks to it.
func (h *SprintsHandler) Create(w http.ResponseWriter, r *http.Request) {
	projectID, ok := h.authorizeProjectPath(w, r, true)
	if !ok {
		return
	}

	var req SprintRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, h.logger, "invalid_request", "Invalid JSON body")
		return
	}

	startDate, err := parseDate(req.StartDate)
	if err != nil {
		writeBadRequest(w, h.logger, "invalid_start_date", err.Error())
		return
	}

	sprint, err := h.sprintService.Create(r.Context(), projectID, startDate, req.Tasks)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusCreated, sprint); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Ongoing handles GET /api/projects/{pid}/sprints/ongoing.
// Responds with the sprint containing today, or null when none is running.
func (h *SprintsHandler) Ongoing(w http.ResponseWriter, r *http.Request) {
	projectID, ok := h.authorizeProjectPath(w, r, false)
	if !ok {
		return
	}

	sprint, err := h.sprintService.FetchOngoing(r.Context(), projectID)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, sprint); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Intersection handles GET /api/projects/{pid}/sprints/intersection.
// Lets a client probe a candidate start date before submitting the sprint.
func (h *SprintsHandler) Intersection(w http.ResponseWriter, r *http.Request) {
	projectID, ok := h.authorizeProjectPath(w, r, false)
	if !ok {
		return
	}

	startDate, err := parseDate(r.URL.Query().Get("start_date"))
	if err != nil {
		writeBadRequest(w, h.logger, "invalid_start_date", err.Error())
		return
	}

	intersects, err := h.sprintService.CheckIntersection(r.Context(), projectID, startDate)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, IntersectionResponse{Intersects: intersects}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Get handles GET /api/sprints/{sid}.
func (h *SprintsHandler) Get(w http.ResponseWriter, r *http.Request) {
	sprint, ok := h.authorizeSprintPath(w, r, false)
	if !ok {
		return
	}

	if err := WriteJSON(w, http.StatusOK, sprint); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Update handles PUT /api/sprints/{sid}. Owner only.
// Moves the start date and reconciles which tasks the sprint carries.
func (h *SprintsHandler) Update(w http.ResponseWriter, r *http.Request) {
	sprint, ok := h.authorizeSprintPath(w, r, true)
	if !ok {
		return
	}

	var req SprintRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, h.logger, "invalid_request", "Invalid JSON body")
		return
	}

	startDate, err := parseDate(req.StartDate)
	if err != nil {
		writeBadRequest(w, h.logger, "invalid_start_date", err.Error())
		return
	}

	updated, err := h.sprintService.Update(r.Context(), sprint.ID, startDate, req.Tasks)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, updated); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Delete handles DELETE /api/sprints/{sid}. Owner only.
// Bound tasks survive the sprint; they return to the backlog.
func (h *SprintsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	sprint, ok := h.authorizeSprintPath(w, r, true)
	if !ok {
		return
	}

	if err := h.sprintService.Delete(r.Context(), sprint.ID); err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ChartData handles GET /api/sprints/{sid}/chart_data.
// Returns the burndown progress and forecast series for the sprint.
func (h *SprintsHandler) ChartData(w http.ResponseWriter, r *http.Request) {
	sprint, ok := h.authorizeSprintPath(w, r, false)
	if !ok {
		return
	}

	chart, err := services.Burndown(sprint)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, chart); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// GetBoard handles GET /api/sprints/{sid}/board.
func (h *SprintsHandler) GetBoard(w http.ResponseWriter, r *http.Request) {
	sprint, ok := h.authorizeSprintPath(w, r, false)
	if !ok {
		return
	}

	board, err := h.boardService.GetBoard(r.Context(), sprint.ID)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, board); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// UpdateBoard handles PUT /api/sprints/{sid}/board.
// Applies a full board submission; the batch lands atomically or not at all.
func (h *SprintsHandler) UpdateBoard(w http.ResponseWriter, r *http.Request) {
	sprint, ok := h.authorizeSprintPath(w, r, false)
	if !ok {
		return
	}

	var update models.BoardUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeBadRequest(w, h.logger, "invalid_request", "Invalid JSON body")
		return
	}

	if err := h.boardService.UpdateBoard(r.Context(), sprint.ProjectID, sprint.ID, &update); err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	board, err := h.boardService.GetBoard(r.Context(), sprint.ID)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, board); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// authorizeProjectPath resolves {pid} and checks the caller's access.
// Scheduling mutations require the owner role; reads need membership only.
func (h *SprintsHandler) authorizeProjectPath(w http.ResponseWriter, r *http.Request, requireOwner bool) (uuid.UUID, bool) {
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

	if err := h.accessService.ValidateProject(r.Context(), identity.UserID, projectID, identity.IsSuperuser, requireOwner); err != nil {
		WriteServiceError(w, h.logger, err)
		return uuid.Nil, false
	}
	return projectID, true
}

// authorizeSprintPath resolves {sid}, loads the sprint and checks the
// caller's access to its project.
func (h *SprintsHandler) authorizeSprintPath(w http.ResponseWriter, r *http.Request, requireOwner bool) (*models.Sprint, bool) {
	identity, err := auth.IdentityFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w, h.logger, err)
		return nil, false
	}

	sprintID, err := pathUUID(r, "sid")
	if err != nil {
		writeBadRequest(w, h.logger, "invalid_sprint_id", err.Error())
		return nil, false
	}

	sprint, err := h.sprintService.Get(r.Context(), sprintID)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return nil, false
	}

	if err := h.accessService.ValidateProject(r.Context(), identity.UserID, sprint.ProjectID, identity.IsSuperuser, requireOwner); err != nil {
		WriteServiceError(w, h.logger, err)
		return nil, false
	}
	return sprint, true
}
