package models

import "github.com/google/uuid"

// Tag is a project-scoped label attached to tasks via a many-to-many join.
type Tag struct {
	ID        uuid.UUID `json:"id"`
	ProjectID uuid.UUID `json:"project_id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
}
