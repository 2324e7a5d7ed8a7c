package models

import (
	"time"

	"github.com/google/uuid"
)

// TaskState is a task's position on a sprint board. A task that has never
// been placed on a sprint has no state (nil in Go, NULL in the database).
type TaskState string

// Board column states. The set is unordered: any state may transition to
// any other.
const (
	TaskStateTodo      TaskState = "todo"
	TaskStateInProcess TaskState = "in_process"
	TaskStateTesting   TaskState = "testing"
	TaskStateDone      TaskState = "done"
)

// IsValidTaskState reports whether s names a board column.
func IsValidTaskState(s TaskState) bool {
	switch s {
	case TaskStateTodo, TaskStateInProcess, TaskStateTesting, TaskStateDone:
		return true
	}
	return false
}

// Task belongs to exactly one project and optionally one sprint.
// Invariants: State is non-nil only when SprintID is non-nil, and DoneDate
// is non-nil exactly when State is done.
type Task struct {
	ID          uuid.UUID  `json:"id"`
	ProjectID   uuid.UUID  `json:"project_id"`
	SprintID    *uuid.UUID `json:"sprint_id,omitempty"`
	CreatorID   uuid.UUID  `json:"creator_id"`
	AssigneeID  *uuid.UUID `json:"assignee_id,omitempty"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Weight      int        `json:"weight"`
	Priority    int        `json:"priority"`
	State       *TaskState `json:"state,omitempty"`
	DoneDate    *time.Time `json:"done_date,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`

	// Tags holds the task's tags when loaded with detail.
	Tags []*Tag `json:"tags,omitempty"`
}

// TaskPatch names exactly the task fields an update may change. Nil fields
// are left untouched; ClearAssignee removes the assignee explicitly since a
// nil AssigneeID alone cannot distinguish "unset" from "leave as is".
type TaskPatch struct {
	Name          *string
	Description   *string
	Weight        *int
	Priority      *int
	AssigneeID    *uuid.UUID
	ClearAssignee bool
}
