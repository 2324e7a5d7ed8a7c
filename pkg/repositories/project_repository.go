// Package repositories contains the persistence layer: one interface plus
// PostgreSQL implementation per aggregate. Every method takes the
// unit-of-work handle explicitly so multi-step mutations share one
// transaction.
package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/scrumdeck/scrumdeck-engine/pkg/apperrors"
	"github.com/scrumdeck/scrumdeck-engine/pkg/database"
	"github.com/scrumdeck/scrumdeck-engine/pkg/models"
)

// pgUniqueViolation is the PostgreSQL error code for unique constraint violations.
const pgUniqueViolation = "23505"

// isUniqueViolation reports whether err is a unique constraint violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// ProjectRepository defines the interface for project data access.
type ProjectRepository interface {
	Create(ctx context.Context, q database.Querier, project *models.Project) error
	Get(ctx context.Context, q database.Querier, id uuid.UUID) (*models.Project, error)
	List(ctx context.Context, q database.Querier) ([]*models.Project, error)
	ListByIDs(ctx context.Context, q database.Querier, ids []uuid.UUID) ([]*models.Project, error)
	Update(ctx context.Context, q database.Querier, project *models.Project) error
	Delete(ctx context.Context, q database.Querier, id uuid.UUID) error
}

// projectRepository implements ProjectRepository using PostgreSQL.
type projectRepository struct{}

// NewProjectRepository creates a new project repository.
func NewProjectRepository() ProjectRepository {
	return &projectRepository{}
}

const projectColumns = `id, name, description, color, sprint_length, created_at`

// Create inserts a new project. A duplicate name surfaces as ErrConflict
// (project names are globally unique).
func (r *projectRepository) Create(ctx context.Context, q database.Querier, project *models.Project) error {
	if project.ID == uuid.Nil {
		project.ID = uuid.New()
	}
	if project.SprintLength == 0 {
		project.SprintLength = models.DefaultSprintLength
	}

	query := `
		INSERT INTO projects (id, name, description, color, sprint_length, created_at)
		VALUES ($1, $2, $3, $4, $5, now())
		RETURNING created_at`

	err := q.QueryRow(ctx, query,
		project.ID,
		project.Name,
		project.Description,
		project.Color,
		project.SprintLength,
	).Scan(&project.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrConflict
		}
		return fmt.Errorf("failed to create project: %w", err)
	}

	return nil
}

// Get retrieves a project by ID.
func (r *projectRepository) Get(ctx context.Context, q database.Querier, id uuid.UUID) (*models.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = $1`

	var project models.Project
	err := q.QueryRow(ctx, query, id).Scan(
		&project.ID,
		&project.Name,
		&project.Description,
		&project.Color,
		&project.SprintLength,
		&project.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	return &project, nil
}

// List retrieves all projects, ordered by creation time.
func (r *projectRepository) List(ctx context.Context, q database.Querier) ([]*models.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects ORDER BY created_at`

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	return scanProjects(rows)
}

// ListByIDs retrieves the projects whose ids appear in ids.
func (r *projectRepository) ListByIDs(ctx context.Context, q database.Querier, ids []uuid.UUID) ([]*models.Project, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = ANY($1) ORDER BY created_at`

	rows, err := q.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	return scanProjects(rows)
}

func scanProjects(rows pgx.Rows) ([]*models.Project, error) {
	var projects []*models.Project
	for rows.Next() {
		var project models.Project
		err := rows.Scan(
			&project.ID,
			&project.Name,
			&project.Description,
			&project.Color,
			&project.SprintLength,
			&project.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, &project)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating projects: %w", err)
	}

	return projects, nil
}

// Update updates a project's mutable fields.
func (r *projectRepository) Update(ctx context.Context, q database.Querier, project *models.Project) error {
	query := `
		UPDATE projects
		SET name = $2, description = $3, color = $4, sprint_length = $5
		WHERE id = $1`

	result, err := q.Exec(ctx, query,
		project.ID,
		project.Name,
		project.Description,
		project.Color,
		project.SprintLength,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrConflict
		}
		return fmt.Errorf("failed to update project: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

// Delete removes the project row only. Owned rows (memberships, tags,
// sprints, tasks) are removed explicitly by the service cascade before this
// is called.
func (r *projectRepository) Delete(ctx context.Context, q database.Querier, id uuid.UUID) error {
	result, err := q.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

// Ensure projectRepository implements ProjectRepository at compile time.
var _ ProjectRepository = (*projectRepository)(nil)
