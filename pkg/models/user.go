package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents an account known to the engine. Credentials live with the
// auth server; the engine only mirrors identity attributes from validated
// token claims.
type User struct {
	ID          uuid.UUID `json:"id"`
	Username    string    `json:"username"`
	FullName    string    `json:"full_name"`
	IsActive    bool      `json:"is_active"`
	IsSuperuser bool      `json:"is_superuser"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
