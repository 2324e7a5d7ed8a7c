package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/scrumdeck/scrumdeck-engine/pkg/auth"
	"github.com/scrumdeck/scrumdeck-engine/pkg/database"
	"github.com/scrumdeck/scrumdeck-engine/pkg/models"
	"github.com/scrumdeck/scrumdeck-engine/pkg/repositories"
)

// UserService mirrors identity attributes from the auth server into the
// engine's user table so memberships and task references can point at them.
type UserService interface {
	// ProvisionFromClaims upserts a user row from validated token claims.
	// Idempotent: repeated calls refresh the mirrored attributes.
	ProvisionFromClaims(ctx context.Context, claims *auth.Claims) (*models.User, error)

	Get(ctx context.Context, id uuid.UUID) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
}

type userService struct {
	q      database.Querier
	tx     database.TxRunner
	users  repositories.UserRepository
	logger *zap.Logger
}

// NewUserService creates a new UserService.
func NewUserService(q database.Querier, tx database.TxRunner, users repositories.UserRepository, logger *zap.Logger) UserService {
	return &userService{
		q:      q,
		tx:     tx,
		users:  users,
		logger: logger.Named("user-service"),
	}
}

var _ UserService = (*userService)(nil)

func (s *userService) ProvisionFromClaims(ctx context.Context, claims *auth.Claims) (*models.User, error) {
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("invalid user ID in claims: %w", err)
	}

	user := &models.User{
		ID:          userID,
		Username:    claims.Username,
		FullName:    claims.FullName,
		IsActive:    true,
		IsSuperuser: claims.IsSuperuser,
	}

	err = s.tx.WithTx(ctx, func(q database.Querier) error {
		return s.users.Upsert(ctx, q, user)
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}

func (s *userService) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.users.Get(ctx, s.q, id)
}

func (s *userService) List(ctx context.Context) ([]*models.User, error) {
	return s.users.List(ctx, s.q)
}
