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

// UserRepository defines the interface for user data access.
type UserRepository interface {
	// Upsert inserts or refreshes a user row from validated token claims.
	Upsert(ctx context.Context, q database.Querier, user *models.User) error
	Get(ctx context.Context, q database.Querier, id uuid.UUID) (*models.User, error)
	List(ctx context.Context, q database.Querier) ([]*models.User, error)
}

// userRepository implements UserRepository using PostgreSQL.
type userRepository struct{}

// NewUserRepository creates a new user repository.
func NewUserRepository() UserRepository {
	return &userRepository{}
}

const userColumns = `id, username, full_name, is_active, is_superuser, created_at, updated_at`

// Upsert inserts or refreshes a user row. Identity attributes mirror the
// auth server's claims, so an existing row is overwritten.
func (r *userRepository) Upsert(ctx context.Context, q database.Querier, user *models.User) error {
	query := `
		INSERT INTO users (id, username, full_name, is_active, is_superuser, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, now(), now())
		ON CONFLICT (id) DO UPDATE
		SET username = EXCLUDED.username,
		    full_name = EXCLUDED.full_name,
		    is_active = EXCLUDED.is_active,
		    is_superuser = EXCLUDED.is_superuser,
		    updated_at = now()
		RETURNING created_at, updated_at`

	err := q.QueryRow(ctx, query,
		user.ID,
		user.Username,
		user.FullName,
		user.IsActive,
		user.IsSuperuser,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}

	return nil
}

// Get retrieves a user by ID.
func (r *userRepository) Get(ctx context.Context, q database.Querier, id uuid.UUID) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	var user models.User
	err := q.QueryRow(ctx, query, id).Scan(
		&user.ID,
		&user.Username,
		&user.FullName,
		&user.IsActive,
		&user.IsSuperuser,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

// List retrieves all users.
func (r *userRepository) List(ctx context.Context, q database.Querier) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY username`

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		var user models.User
		err := rows.Scan(
			&user.ID,
			&user.Username,
			&user.FullName,
			&user.IsActive,
			&user.IsSuperuser,
			&user.CreatedAt,
			&user.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, &user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return users, nil
}

// Ensure userRepository implements UserRepository at compile time.
var _ UserRepository = (*userRepository)(nil)
