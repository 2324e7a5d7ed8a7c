package models

import (
	"time"

	"github.com/google/uuid"
)

// Membership roles. A user holds at most one role per project.
const (
	RoleOwner       = "owner"
	RoleContributor = "contributor"
)

// Membership is the (user, project, role) authorization record.
type Membership struct {
	UserID    uuid.UUID `json:"user_id"`
	ProjectID uuid.UUID `json:"project_id"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// IsValidRole reports whether role is one of the known membership roles.
func IsValidRole(role string) bool {
	return role == RoleOwner || role == RoleContributor
}
