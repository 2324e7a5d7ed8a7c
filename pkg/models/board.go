package models

import "github.com/google/uuid"

// Board is a sprint's tasks partitioned into state columns.
type Board struct {
	Todo      []*Task `json:"todo"`
	InProcess []*Task `json:"in_process"`
	Testing   []*Task `json:"testing"`
	Done      []*Task `json:"done"`
}

// BoardUpdate lists, per column, the ids of the tasks that should end up in
// that column. It is the bulk payload of a drag-and-drop board submission.
type BoardUpdate struct {
	Todo      []uuid.UUID `json:"todo"`
	InProcess []uuid.UUID `json:"in_process"`
	Testing   []uuid.UUID `json:"testing"`
	Done      []uuid.UUID `json:"done"`
}

// Columns returns the update's columns paired with their target states, in
// board order.
func (b *BoardUpdate) Columns() []BoardColumn {
	return []BoardColumn{
		{State: TaskStateTodo, TaskIDs: b.Todo},
		{State: TaskStateInProcess, TaskIDs: b.InProcess},
		{State: TaskStateTesting, TaskIDs: b.Testing},
		{State: TaskStateDone, TaskIDs: b.Done},
	}
}

// BoardColumn is one column of a BoardUpdate.
type BoardColumn struct {
	State   TaskState
	TaskIDs []uuid.UUID
}
