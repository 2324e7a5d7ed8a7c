package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/scrumdeck/scrumdeck-engine/pkg/auth"
	"github.com/scrumdeck/scrumdeck-engine/pkg/services"
)

// UsersHandler handles user identity requests.
type UsersHandler struct {
	userService services.UserService
	logger      *zap.Logger
}

// NewUsersHandler creates a new users handler.
func NewUsersHandler(userService services.UserService, logger *zap.Logger) *UsersHandler {
	return &UsersHandler{userService: userService, logger: logger}
}

// RegisterRoutes registers the users handler's routes on the given mux.
func (h *UsersHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("GET /api/users/me", authMiddleware.RequireAuth(h.Me))
	mux.HandleFunc("GET /api/users", authMiddleware.RequireAuth(h.List))
}

// Me handles GET /api/users/me.
// Upserts the caller's user row from the validated token claims, so a first
// request after login provisions the account. Idempotent.
func (h *UsersHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.GetClaims(r.Context())
	if !ok {
		writeUnauthorized(w, h.logger, nil)
		return
	}

	user, err := h.userService.ProvisionFromClaims(r.Context(), claims)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, user); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// List handles GET /api/users.
// Assignee pickers need the whole roster, so any authenticated caller may
// list users.
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.List(r.Context())
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, users); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
