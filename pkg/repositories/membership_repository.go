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

// MembershipRepository defines the interface for membership data access.
// The (user_id, project_id) pair is the primary key: one role per user per
// project.
type MembershipRepository interface {
	Insert(ctx context.Context, q database.Querier, m *models.Membership) error
	Delete(ctx context.Context, q database.Querier, projectID, userID uuid.UUID) error
	Get(ctx context.Context, q database.Querier, projectID, userID uuid.UUID) (*models.Membership, error)
	ListProjectIDsForUser(ctx context.Context, q database.Querier, userID uuid.UUID, onlyOwner bool) ([]uuid.UUID, error)
	DeleteByProject(ctx context.Context, q database.Querier, projectID uuid.UUID) error
}

// membershipRepository implements MembershipRepository using PostgreSQL.
type membershipRepository struct{}

// NewMembershipRepository creates a new membership repository.
func NewMembershipRepository() MembershipRepository {
	return &membershipRepository{}
}

// Insert adds a membership row. Inserting the same (user, project) pair
// twice violates the composite primary key and surfaces as ErrConflict;
// there is deliberately no duplicate pre-check.
func (r *membershipRepository) Insert(ctx context.Context, q database.Querier, m *models.Membership) error {
	query := `
		INSERT INTO memberships (user_id, project_id, role, created_at)
		VALUES ($1, $2, $3, now())
		RETURNING created_at`

	err := q.QueryRow(ctx, query, m.UserID, m.ProjectID, m.Role).Scan(&m.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrConflict
		}
		return fmt.Errorf("failed to insert membership: %w", err)
	}

	return nil
}

// Delete removes a membership row. Deleting an absent row is a no-op.
func (r *membershipRepository) Delete(ctx context.Context, q database.Querier, projectID, userID uuid.UUID) error {
	query := `DELETE FROM memberships WHERE project_id = $1 AND user_id = $2`

	_, err := q.Exec(ctx, query, projectID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete membership: %w", err)
	}

	return nil
}

// Get retrieves a specific membership.
func (r *membershipRepository) Get(ctx context.Context, q database.Querier, projectID, userID uuid.UUID) (*models.Membership, error) {
	query := `
		SELECT user_id, project_id, role, created_at
		FROM memberships
		WHERE project_id = $1 AND user_id = $2`

	var m models.Membership
	err := q.QueryRow(ctx, query, projectID, userID).Scan(
		&m.UserID,
		&m.ProjectID,
		&m.Role,
		&m.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}

	return &m, nil
}

// ListProjectIDsForUser returns the ids of the projects the user is a member
// of, restricted to owned projects when onlyOwner is set.
func (r *membershipRepository) ListProjectIDsForUser(ctx context.Context, q database.Querier, userID uuid.UUID, onlyOwner bool) ([]uuid.UUID, error) {
	query := `SELECT project_id FROM memberships WHERE user_id = $1`
	args := []any{userID}
	if onlyOwner {
		query += ` AND role = $2`
		args = append(args, models.RoleOwner)
	}

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list accessible projects: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan project id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating memberships: %w", err)
	}

	return ids, nil
}

// DeleteByProject removes all memberships of a project (project delete cascade).
func (r *membershipRepository) DeleteByProject(ctx context.Context, q database.Querier, projectID uuid.UUID) error {
	_, err := q.Exec(ctx, `DELETE FROM memberships WHERE project_id = $1`, projectID)
	if err != nil {
		return fmt.Errorf("failed to delete project memberships: %w", err)
	}
	return nil
}

// Ensure membershipRepository implements MembershipRepository at compile time.
var _ MembershipRepository = (*membershipRepository)(nil)
