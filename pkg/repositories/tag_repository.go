package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/scrumdeck/scrumdeck-engine/pkg/apperrors"
	"github.com/scrumdeck/scrumdeck-engine/pkg/database"
	"github.com/scrumdeck/scrumdeck-engine/pkg/models"
)

// TagRepository defines the interface for tag data access, including the
// task↔tag association.
type TagRepository interface {
	Create(ctx context.Context, q database.Querier, tag *models.Tag) error
	Get(ctx context.Context, q database.Querier, id uuid.UUID) (*models.Tag, error)
	ListByProject(ctx context.Context, q database.Querier, projectID uuid.UUID) ([]*models.Tag, error)
	ListByTask(ctx context.Context, q database.Querier, taskID uuid.UUID) ([]*models.Tag, error)
	Update(ctx context.Context, q database.Querier, tag *models.Tag) error
	Delete(ctx context.Context, q database.Querier, id uuid.UUID) error
	AttachToTask(ctx context.Context, q database.Querier, taskID, tagID uuid.UUID) error
	DetachFromTask(ctx context.Context, q database.Querier, taskID, tagID uuid.UUID) error
	DeleteByProject(ctx context.Context, q database.Querier, projectID uuid.UUID) error
}

// tagRepository implements TagRepository using PostgreSQL.
type tagRepository struct{}

// NewTagRepository creates a new tag repository.
func NewTagRepository() TagRepository {
	return &tagRepository{}
}

// Create inserts a new tag.
func (r *tagRepository) Create(ctx context.Context, q database.Querier, tag *models.Tag) error {
	if tag.ID == uuid.Nil {
		tag.ID = uuid.New()
	}

	query := `
		INSERT INTO tags (id, project_id, name, color)
		VALUES ($1, $2, $3, $4)`

	_, err := q.Exec(ctx, query, tag.ID, tag.ProjectID, tag.Name, tag.Color)
	if err != nil {
		return fmt.Errorf("failed to create tag: %w", err)
	}

	return nil
}

// Get retrieves a tag by ID.
func (r *tagRepository) Get(ctx context.Context, q database.Querier, id uuid.UUID) (*models.Tag, error) {
	query := `SELECT id, project_id, name, color FROM tags WHERE id = $1`

	var tag models.Tag
	err := q.QueryRow(ctx, query, id).Scan(&tag.ID, &tag.ProjectID, &tag.Name, &tag.Color)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get tag: %w", err)
	}

	return &tag, nil
}

// ListByProject retrieves all tags of a project.
func (r *tagRepository) ListByProject(ctx context.Context, q database.Querier, projectID uuid.UUID) ([]*models.Tag, error) {
	query := `SELECT id, project_id, name, color FROM tags WHERE project_id = $1 ORDER BY name`
	return r.queryTags(ctx, q, query, projectID)
}

// ListByTask retrieves the tags attached to a task.
func (r *tagRepository) ListByTask(ctx context.Context, q database.Querier, taskID uuid.UUID) ([]*models.Tag, error) {
	query := `
		SELECT t.id, t.project_id, t.name, t.color
		FROM tags t
		JOIN task_tags tt ON tt.tag_id = t.id
		WHERE tt.task_id = $1
		ORDER BY t.name`
	return r.queryTags(ctx, q, query, taskID)
}

func (r *tagRepository) queryTags(ctx context.Context, q database.Querier, query string, args ...any) ([]*models.Tag, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tags: %w", err)
	}
	defer rows.Close()

	var tags []*models.Tag
	for rows.Next() {
		var tag models.Tag
		if err := rows.Scan(&tag.ID, &tag.ProjectID, &tag.Name, &tag.Color); err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		tags = append(tags, &tag)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tags: %w", err)
	}

	return tags, nil
}

// Update updates a tag's name and color.
func (r *tagRepository) Update(ctx context.Context, q database.Querier, tag *models.Tag) error {
	result, err := q.Exec(ctx,
		`UPDATE tags SET name = $2, color = $3 WHERE id = $1`,
		tag.ID, tag.Name, tag.Color)
	if err != nil {
		return fmt.Errorf("failed to update tag: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

// Delete removes a tag and its task associations.
func (r *tagRepository) Delete(ctx context.Context, q database.Querier, id uuid.UUID) error {
	if _, err := q.Exec(ctx, `DELETE FROM task_tags WHERE tag_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete tag associations: %w", err)
	}

	result, err := q.Exec(ctx, `DELETE FROM tags WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete tag: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

// AttachToTask links a tag to a task. Attaching twice is a conflict.
func (r *tagRepository) AttachToTask(ctx context.Context, q database.Querier, taskID, tagID uuid.UUID) error {
	_, err := q.Exec(ctx,
		`INSERT INTO task_tags (task_id, tag_id) VALUES ($1, $2)`,
		taskID, tagID)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrConflict
		}
		return fmt.Errorf("failed to attach tag: %w", err)
	}
	return nil
}

// DetachFromTask unlinks a tag from a task. Absent links are a no-op.
func (r *tagRepository) DetachFromTask(ctx context.Context, q database.Querier, taskID, tagID uuid.UUID) error {
	_, err := q.Exec(ctx,
		`DELETE FROM task_tags WHERE task_id = $1 AND tag_id = $2`,
		taskID, tagID)
	if err != nil {
		return fmt.Errorf("failed to detach tag: %w", err)
	}
	return nil
}

// DeleteByProject removes all tags of a project and their associations
// (project delete cascade).
func (r *tagRepository) DeleteByProject(ctx context.Context, q database.Querier, projectID uuid.UUID) error {
	query := `
		DELETE FROM task_tags
		WHERE tag_id IN (SELECT id FROM tags WHERE project_id = $1)`
	if _, err := q.Exec(ctx, query, projectID); err != nil {
		return fmt.Errorf("failed to delete project tag associations: %w", err)
	}

	if _, err := q.Exec(ctx, `DELETE FROM tags WHERE project_id = $1`, projectID); err != nil {
		return fmt.Errorf("failed to delete project tags: %w", err)
	}

	return nil
}

// Ensure tagRepository implements TagRepository at compile time.
var _ TagRepository = (*tagRepository)(nil)
