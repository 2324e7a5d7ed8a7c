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

// SprintRepository defines the interface for sprint data access.
type SprintRepository interface {
	Create(ctx context.Context, q database.Querier, sprint *models.Sprint) error
	Get(ctx context.Context, q database.Querier, id uuid.UUID) (*models.Sprint, error)
	ListByProject(ctx context.Context, q database.Querier, projectID uuid.UUID) ([]*models.Sprint, error)
	ListByProjects(ctx context.Context, q database.Querier, projectIDs []uuid.UUID) ([]*models.Sprint, error)
	// FetchOngoing returns the project's sprint whose [start_date, end_date]
	// contains day, or ErrNotFound. At most one such sprint exists under the
	// non-overlap invariant.
	FetchOngoing(ctx context.Context, q database.Querier, projectID uuid.UUID, day time.Time) (*models.Sprint, error)
	UpdateStartDate(ctx context.Context, q database.Querier, id uuid.UUID, startDate time.Time) error
	Delete(ctx context.Context, q database.Querier, id uuid.UUID) error
	DeleteByProject(ctx context.Context, q database.Querier, projectID uuid.UUID) error
}

// sprintRepository implements SprintRepository using PostgreSQL.
type sprintRepository struct{}

// NewSprintRepository creates a new sprint repository.
func NewSprintRepository() SprintRepository {
	return &sprintRepository{}
}

const sprintColumns = `id, project_id, start_date, end_date`

// Create inserts a new sprint.
func (r *sprintRepository) Create(ctx context.Context, q database.Querier, sprint *models.Sprint) error {
	if sprint.ID == uuid.Nil {
		sprint.ID = uuid.New()
	}

	query := `
		INSERT INTO sprints (id, project_id, start_date, end_date)
		VALUES ($1, $2, $3, $4)`

	_, err := q.Exec(ctx, query,
		sprint.ID,
		sprint.ProjectID,
		models.ToDate(sprint.StartDate),
		models.ToDate(sprint.EndDate),
	)
	if err != nil {
		return fmt.Errorf("failed to create sprint: %w", err)
	}

	return nil
}

// Get retrieves a sprint by ID.
func (r *sprintRepository) Get(ctx context.Context, q database.Querier, id uuid.UUID) (*models.Sprint, error) {
	query := `SELECT ` + sprintColumns + ` FROM sprints WHERE id = $1`

	var sprint models.Sprint
	err := q.QueryRow(ctx, query, id).Scan(
		&sprint.ID,
		&sprint.ProjectID,
		&sprint.StartDate,
		&sprint.EndDate,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get sprint: %w", err)
	}

	return &sprint, nil
}

// ListByProject retrieves all sprints of a project ordered by start date.
func (r *sprintRepository) ListByProject(ctx context.Context, q database.Querier, projectID uuid.UUID) ([]*models.Sprint, error) {
	query := `SELECT ` + sprintColumns + ` FROM sprints WHERE project_id = $1 ORDER BY start_date`

	rows, err := q.Query(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sprints: %w", err)
	}
	defer rows.Close()

	return scanSprints(rows)
}

// ListByProjects retrieves the sprints of every project in projectIDs.
func (r *sprintRepository) ListByProjects(ctx context.Context, q database.Querier, projectIDs []uuid.UUID) ([]*models.Sprint, error) {
	if len(projectIDs) == 0 {
		return nil, nil
	}

	query := `SELECT ` + sprintColumns + ` FROM sprints WHERE project_id = ANY($1) ORDER BY start_date`

	rows, err := q.Query(ctx, query, projectIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list sprints: %w", err)
	}
	defer rows.Close()

	return scanSprints(rows)
}

func scanSprints(rows pgx.Rows) ([]*models.Sprint, error) {
	var sprints []*models.Sprint
	for rows.Next() {
		var sprint models.Sprint
		err := rows.Scan(&sprint.ID, &sprint.ProjectID, &sprint.StartDate, &sprint.EndDate)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sprint: %w", err)
		}
		sprints = append(sprints, &sprint)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sprints: %w", err)
	}

	return sprints, nil
}

// FetchOngoing returns the sprint containing day, if any.
func (r *sprintRepository) FetchOngoing(ctx context.Context, q database.Querier, projectID uuid.UUID, day time.Time) (*models.Sprint, error) {
	query := `
		SELECT ` + sprintColumns + `
		FROM sprints
		WHERE project_id = $1 AND start_date <= $2 AND end_date >= $2
		LIMIT 1`

	var sprint models.Sprint
	err := q.QueryRow(ctx, query, projectID, models.ToDate(day)).Scan(
		&sprint.ID,
		&sprint.ProjectID,
		&sprint.StartDate,
		&sprint.EndDate,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch ongoing sprint: %w", err)
	}

	return &sprint, nil
}

// UpdateStartDate updates only the start date. The end date is left as set
// at creation.
func (r *sprintRepository) UpdateStartDate(ctx context.Context, q database.Querier, id uuid.UUID, startDate time.Time) error {
	result, err := q.Exec(ctx,
		`UPDATE sprints SET start_date = $2 WHERE id = $1`,
		id, models.ToDate(startDate))
	if err != nil {
		return fmt.Errorf("failed to update sprint: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

// Delete removes a sprint by ID.
func (r *sprintRepository) Delete(ctx context.Context, q database.Querier, id uuid.UUID) error {
	result, err := q.Exec(ctx, `DELETE FROM sprints WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete sprint: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

// DeleteByProject removes all sprints of a project (project delete cascade).
func (r *sprintRepository) DeleteByProject(ctx context.Context, q database.Querier, projectID uuid.UUID) error {
	_, err := q.Exec(ctx, `DELETE FROM sprints WHERE project_id = $1`, projectID)
	if err != nil {
		return fmt.Errorf("failed to delete project sprints: %w", err)
	}
	return nil
}

// Ensure sprintRepository implements SprintRepository at compile time.
var _ SprintRepository = (*sprintRepository)(nil)
