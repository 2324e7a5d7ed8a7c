// Package models contains domain types for scrumdeck-engine.
package models

import (
	"time"

	"github.com/google/uuid"
)

// DefaultSprintLength is the sprint length, in weeks, assigned to projects
// that do not configure one.
const DefaultSprintLength = 2

// Project represents a project in the system. A project owns memberships,
// tags, sprints and tasks; deleting a project cascades to all four.
type Project struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Color        string    `json:"color"`
	SprintLength int       `json:"sprint_length"`
	CreatedAt    time.Time `json:"created_at"`
}
