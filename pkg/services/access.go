// Package services contains the domain logic: access control, sprint
// scheduling, the task board engine, burndown math, and the CRUD services
// around them. Services own transactions; repositories execute against the
// unit-of-work handle the service passes in.
package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/scrumdeck/scrumdeck-engine/pkg/apperrors"
	"github.com/scrumdeck/scrumdeck-engine/pkg/database"
	"github.com/scrumdeck/scrumdeck-engine/pkg/models"
	"github.com/scrumdeck/scrumdeck-engine/pkg/repositories"
)

// AccessService answers membership and ownership questions for a project and
// mutates the membership table. Authorization decisions are booleans; turning
// a false into a forbidden outcome is the caller's job (ValidateProject does
// that translation for handlers). Superuser bypass happens at the caller:
// this component is deliberately identity-flag-agnostic.
type AccessService interface {
	// HasAccess reports whether a membership row exists for (user, project).
	HasAccess(ctx context.Context, userID, projectID uuid.UUID) (bool, error)

	// IsOwner reports whether the user holds the owner role on the project.
	IsOwner(ctx context.Context, userID, projectID uuid.UUID) (bool, error)

	// Grant inserts a contributor membership. There is no duplicate check:
	// granting twice for the same pair surfaces the primary-key conflict.
	Grant(ctx context.Context, projectID, userID uuid.UUID) error

	// Revoke deletes the membership row if present; absent rows are a no-op.
	Revoke(ctx context.Context, projectID, userID uuid.UUID) error

	// AccessibleProjectIDs lists the ids of projects the user is a member of.
	AccessibleProjectIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)

	// ValidateProject checks that the project exists and that the caller may
	// act on it. Returns ErrNotFound for a missing project, ErrForbidden for
	// missing access (or missing ownership when requireOwner is set).
	// Superusers pass both checks.
	ValidateProject(ctx context.Context, userID, projectID uuid.UUID, isSuperuser, requireOwner bool) error
}

type accessService struct {
	q           database.Querier
	tx          database.TxRunner
	memberships repositories.MembershipRepository
	projects    repositories.ProjectRepository
	logger      *zap.Logger
}

// NewAccessService creates a new AccessService.
func NewAccessService(
	q database.Querier,
	tx database.TxRunner,
	memberships repositories.MembershipRepository,
	projects repositories.ProjectRepository,
	logger *zap.Logger,
) AccessService {
	return &accessService{
		q:           q,
		tx:          tx,
		memberships: memberships,
		projects:    projects,
		logger:      logger.Named("access-service"),
	}
}

var _ AccessService = (*accessService)(nil)

func (s *accessService) HasAccess(ctx context.Context, userID, projectID uuid.UUID) (bool, error) {
	_, err := s.memberships.Get(ctx, s.q, projectID, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *accessService) IsOwner(ctx context.Context, userID, projectID uuid.UUID) (bool, error) {
	m, err := s.memberships.Get(ctx, s.q, projectID, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return m.Role == models.RoleOwner, nil
}

func (s *accessService) Grant(ctx context.Context, projectID, userID uuid.UUID) error {
	return s.tx.WithTx(ctx, func(q database.Querier) error {
		return s.memberships.Insert(ctx, q, &models.Membership{
			UserID:    userID,
			ProjectID: projectID,
			Role:      models.RoleContributor,
		})
	})
}

func (s *accessService) Revoke(ctx context.Context, projectID, userID uuid.UUID) error {
	return s.tx.WithTx(ctx, func(q database.Querier) error {
		return s.memberships.Delete(ctx, q, projectID, userID)
	})
}

func (s *accessService) AccessibleProjectIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	return s.memberships.ListProjectIDsForUser(ctx, s.q, userID, false)
}

func (s *accessService) ValidateProject(ctx context.Context, userID, projectID uuid.UUID, isSuperuser, requireOwner bool) error {
	if _, err := s.projects.Get(ctx, s.q, projectID); err != nil {
		return err
	}

	if isSuperuser {
		return nil
	}

	ok, err := s.HasAccess(ctx, userID, projectID)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.ErrForbidden
	}

	if requireOwner {
		owner, err := s.IsOwner(ctx, userID, projectID)
		if err != nil {
			return err
		}
		if !owner {
			return apperrors.ErrForbidden
		}
	}

	return nil
}
