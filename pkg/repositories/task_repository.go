package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/scrumdeck/scrumdeck-engine/pkg/apperrors"
	"github.com/scrumdeck/scrumdeck-engine/pkg/database"
	"github.com/scrumdeck/scrumdeck-engine/pkg/models"
)

// TaskRepository defines the interface for task data access.
type TaskRepository interface {
	Create(ctx context.Context, q database.Querier, task *models.Task) error
	Get(ctx context.Context, q database.Querier, id uuid.UUID) (*models.Task, error)
	ListByProject(ctx context.Context, q database.Querier, projectID uuid.UUID) ([]*models.Task, error)
	ListByProjects(ctx context.Context, q database.Querier, projectIDs []uuid.UUID) ([]*models.Task, error)
	ListBySprint(ctx context.Context, q database.Querier, sprintID uuid.UUID) ([]*models.Task, error)
	ListAll(ctx context.Context, q database.Querier) ([]*models.Task, error)
	Update(ctx context.Context, q database.Querier, task *models.Task) error
	// BindToSprint places a task on a sprint's board with the given state.
	BindToSprint(ctx context.Context, q database.Querier, taskID, sprintID uuid.UUID, state models.TaskState) error
	// UnbindFromSprint clears a task's sprint reference and state.
	UnbindFromSprint(ctx context.Context, q database.Querier, taskID uuid.UUID) error
	// SetState sets a task's board state and done date in one statement.
	SetState(ctx context.Context, q database.Querier, taskID uuid.UUID, state models.TaskState, doneDate *time.Time) error
	Delete(ctx context.Context, q database.Querier, id uuid.UUID) error
	DeleteByProject(ctx context.Context, q database.Querier, projectID uuid.UUID) error
}

// taskRepository implements TaskRepository using PostgreSQL.
type taskRepository struct{}

// NewTaskRepository creates a new task repository.
func NewTaskRepository() TaskRepository {
	return &taskRepository{}
}

const taskColumns = `id, project_id, sprint_id, creator_id, assignee_id,
	name, description, weight, priority, state, done_date, created_at`

// Create inserts a new task. New tasks start unbound: no sprint, no state.
func (r *taskRepository) Create(ctx context.Context, q database.Querier, task *models.Task) error {
	if task.ID == uuid.Nil {
		task.ID = uuid.New()
	}

	query := `
		INSERT INTO tasks (id, project_id, sprint_id, creator_id, assignee_id,
			name, description, weight, priority, state, done_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now())
		RETURNING created_at`

	err := q.QueryRow(ctx, query,
		task.ID,
		task.ProjectID,
		task.SprintID,
		task.CreatorID,
		task.AssigneeID,
		task.Name,
		task.Description,
		task.Weight,
		task.Priority,
		task.State,
		task.DoneDate,
	).Scan(&task.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}

	return nil
}

// Get retrieves a task by ID.
func (r *taskRepository) Get(ctx context.Context, q database.Querier, id uuid.UUID) (*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`

	task, err := scanTask(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	return task, nil
}

// ListByProject retrieves all tasks of a project.
func (r *taskRepository) ListByProject(ctx context.Context, q database.Querier, projectID uuid.UUID) ([]*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE project_id = $1 ORDER BY priority DESC, created_at`
	return r.queryTasks(ctx, q, query, projectID)
}

// ListByProjects retrieves the tasks of every project in projectIDs.
func (r *taskRepository) ListByProjects(ctx context.Context, q database.Querier, projectIDs []uuid.UUID) ([]*models.Task, error) {
	if len(projectIDs) == 0 {
		return nil, nil
	}
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE project_id = ANY($1) ORDER BY priority DESC, created_at`
	return r.queryTasks(ctx, q, query, projectIDs)
}

// ListBySprint retrieves all tasks bound to a sprint.
func (r *taskRepository) ListBySprint(ctx context.Context, q database.Querier, sprintID uuid.UUID) ([]*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE sprint_id = $1 ORDER BY priority DESC, created_at`
	return r.queryTasks(ctx, q, query, sprintID)
}

// ListAll retrieves every task (superuser listing).
func (r *taskRepository) ListAll(ctx context.Context, q database.Querier) ([]*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks ORDER BY priority DESC, created_at`
	return r.queryTasks(ctx, q, query)
}

func (r *taskRepository) queryTasks(ctx context.Context, q database.Querier, query string, args ...any) ([]*models.Task, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*models.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tasks: %w", err)
	}

	return tasks, nil
}

func scanTask(row pgx.Row) (*models.Task, error) {
	var task models.Task
	err := row.Scan(
		&task.ID,
		&task.ProjectID,
		&task.SprintID,
		&task.CreatorID,
		&task.AssigneeID,
		&task.Name,
		&task.Description,
		&task.Weight,
		&task.Priority,
		&task.State,
		&task.DoneDate,
		&task.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// Update rewrites a task's editable fields.
func (r *taskRepository) Update(ctx context.Context, q database.Querier, task *models.Task) error {
	query := `
		UPDATE tasks
		SET name = $2, description = $3, weight = $4, priority = $5, assignee_id = $6
		WHERE id = $1`

	result, err := q.Exec(ctx, query,
		task.ID,
		task.Name,
		task.Description,
		task.Weight,
		task.Priority,
		task.AssigneeID,
	)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

// BindToSprint places a task on a sprint's board with the given state.
func (r *taskRepository) BindToSprint(ctx context.Context, q database.Querier, taskID, sprintID uuid.UUID, state models.TaskState) error {
	result, err := q.Exec(ctx,
		`UPDATE tasks SET sprint_id = $2, state = $3 WHERE id = $1`,
		taskID, sprintID, state)
	if err != nil {
		return fmt.Errorf("failed to bind task to sprint: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

// UnbindFromSprint clears a task's sprint reference, state and done date.
func (r *taskRepository) UnbindFromSprint(ctx context.Context, q database.Querier, taskID uuid.UUID) error {
	result, err := q.Exec(ctx,
		`UPDATE tasks SET sprint_id = NULL, state = NULL, done_date = NULL WHERE id = $1`,
		taskID)
	if err != nil {
		return fmt.Errorf("failed to unbind task: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

// SetState sets a task's board state and done date.
func (r *taskRepository) SetState(ctx context.Context, q database.Querier, taskID uuid.UUID, state models.TaskState, doneDate *time.Time) error {
	result, err := q.Exec(ctx,
		`UPDATE tasks SET state = $2, done_date = $3 WHERE id = $1`,
		taskID, state, doneDate)
	if err != nil {
		return fmt.Errorf("failed to set task state: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

// Delete removes a task by ID.
func (r *taskRepository) Delete(ctx context.Context, q database.Querier, id uuid.UUID) error {
	result, err := q.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

// DeleteByProject removes all tasks of a project (project delete cascade).
func (r *taskRepository) DeleteByProject(ctx context.Context, q database.Querier, projectID uuid.UUID) error {
	_, err := q.Exec(ctx, `DELETE FROM tasks WHERE project_id = $1`, projectID)
	if err != nil {
		return fmt.Errorf("failed to delete project tasks: %w", err)
	}
	return nil
}

// Ensure taskRepository implements TaskRepository at compile time.
var _ TaskRepository = (*taskRepository)(nil)
