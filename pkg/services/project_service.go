package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/scrumdeck/scrumdeck-engine/pkg/apperrors"
	"github.com/scrumdeck/scrumdeck-engine/pkg/database"
	"github.com/scrumdeck/scrumdeck-engine/pkg/models"
	"github.com/scrumdeck/scrumdeck-engine/pkg/repositories"
)

// ProjectInput carries the fields a project create or update may set.
type ProjectInput struct {
	Name         string
	Description  string
	Color        string
	SprintLength int
}

// ProjectService manages project lifecycle: creation with the automatic
// owner membership, updates, listing by access, and the explicit delete
// cascade over everything a project owns.
type ProjectService interface {
	// Create persists the project and an owner membership for the creator
	// in one unit of work.
	Create(ctx context.Context, creatorID uuid.UUID, in ProjectInput) (*models.Project, error)

	Get(ctx context.Context, id uuid.UUID) (*models.Project, error)

	// ListAccessible returns the caller's projects; superusers see all.
	ListAccessible(ctx context.Context, userID uuid.UUID, isSuperuser bool) ([]*models.Project, error)

	Update(ctx context.Context, id uuid.UUID, in ProjectInput) (*models.Project, error)

	// Delete removes the project and everything it owns (tag links, tags,
	// tasks, sprints, memberships) in one transaction. The cascade is
	// explicit service logic, not left to the schema.
	Delete(ctx context.Context, id uuid.UUID) error
}

type projectService struct {
	q           database.Querier
	tx          database.TxRunner
	projects    repositories.ProjectRepository
	memberships repositories.MembershipRepository
	sprints     repositories.SprintRepository
	tasks       repositories.TaskRepository
	tags        repositories.TagRepository
	logger      *zap.Logger
}

// NewProjectService creates a new ProjectService.
func NewProjectService(
	q database.Querier,
	tx database.TxRunner,
	projects repositories.ProjectRepository,
	memberships repositories.MembershipRepository,
	sprints repositories.SprintRepository,
	tasks repositories.TaskRepository,
	tags repositories.TagRepository,
	logger *zap.Logger,
) ProjectService {
	return &projectService{
		q:           q,
		tx:          tx,
		projects:    projects,
		memberships: memberships,
		sprints:     sprints,
		tasks:       tasks,
		tags:        tags,
		logger:      logger.Named("project-service"),
	}
}

var _ ProjectService = (*projectService)(nil)

func (s *projectService) Create(ctx context.Context, creatorID uuid.UUID, in ProjectInput) (*models.Project, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, apperrors.NewValidation("empty_name", "project name must not be empty")
	}

	project := &models.Project{
		Name:         in.Name,
		Description:  in.Description,
		Color:        in.Color,
		SprintLength: in.SprintLength,
	}
	if project.SprintLength == 0 {
		project.SprintLength = models.DefaultSprintLength
	}

	err := s.tx.WithTx(ctx, func(q database.Querier) error {
		if err := s.projects.Create(ctx, q, project); err != nil {
			return err
		}
		return s.memberships.Insert(ctx, q, &models.Membership{
			UserID:    creatorID,
			ProjectID: project.ID,
			Role:      models.RoleOwner,
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Project created",
		zap.String("project_id", project.ID.String()),
		zap.String("owner_id", creatorID.String()))

	return project, nil
}

func (s *projectService) Get(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	return s.projects.Get(ctx, s.q, id)
}

func (s *projectService) ListAccessible(ctx context.Context, userID uuid.UUID, isSuperuser bool) ([]*models.Project, error) {
	if isSuperuser {
		return s.projects.List(ctx, s.q)
	}

	ids, err := s.memberships.ListProjectIDsForUser(ctx, s.q, userID, false)
	if err != nil {
		return nil, err
	}
	return s.projects.ListByIDs(ctx, s.q, ids)
}

func (s *projectService) Update(ctx context.Context, id uuid.UUID, in ProjectInput) (*models.Project, error) {
	project, err := s.projects.Get(ctx, s.q, id)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(in.Name) == "" {
		return nil, apperrors.NewValidation("empty_name", "project name must not be empty")
	}

	project.Name = in.Name
	project.Description = in.Description
	project.Color = in.Color
	if in.SprintLength > 0 {
		project.SprintLength = in.SprintLength
	}

	err = s.tx.WithTx(ctx, func(q database.Querier) error {
		return s.projects.Update(ctx, q, project)
	})
	if err != nil {
		return nil, err
	}

	return project, nil
}

func (s *projectService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.projects.Get(ctx, s.q, id); err != nil {
		return err
	}

	err := s.tx.WithTx(ctx, func(q database.Querier) error {
		if err := s.tags.DeleteByProject(ctx, q, id); err != nil {
			return err
		}
		if err := s.tasks.DeleteByProject(ctx, q, id); err != nil {
			return err
		}
		if err := s.sprints.DeleteByProject(ctx, q, id); err != nil {
			return err
		}
		if err := s.memberships.DeleteByProject(ctx, q, id); err != nil {
			return err
		}
		return s.projects.Delete(ctx, q, id)
	})
	if err != nil {
		return err
	}

	s.logger.Info("Project deleted", zap.String("project_id", id.String()))
	return nil
}
