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

// TaskInput carries the fields a task create may set. Tasks are created
// independent of any sprint; board placement happens through the sprint
// scheduler or the board engine.
type TaskInput struct {
	ProjectID   uuid.UUID
	Name        string
	Description string
	Weight      int
	Priority    int
	AssigneeID  *uuid.UUID
}

// TaskService manages task lifecycle outside the board: creation, sparse
// edits via an explicit patch, deletion, listing, and tag association.
type TaskService interface {
	Create(ctx context.Context, creatorID uuid.UUID, in TaskInput) (*models.Task, error)

	// Get returns the task with its tags loaded.
	Get(ctx context.Context, id uuid.UUID) (*models.Task, error)

	ListByProject(ctx context.Context, projectID uuid.UUID) ([]*models.Task, error)

	// ListAccessible returns tasks of the caller's projects; superusers
	// see every task.
	ListAccessible(ctx context.Context, userID uuid.UUID, isSuperuser bool) ([]*models.Task, error)

	// Patch applies a sparse edit. Only the fields the patch names change;
	// board placement (sprint, state, done date) is never touched here.
	Patch(ctx context.Context, id uuid.UUID, patch *models.TaskPatch) (*models.Task, error)

	Delete(ctx context.Context, id uuid.UUID) error

	// AttachTag links a tag of the same project to the task.
	AttachTag(ctx context.Context, taskID, tagID uuid.UUID) error

	// DetachTag unlinks a tag; absent links are a no-op.
	DetachTag(ctx context.Context, taskID, tagID uuid.UUID) error
}

type taskService struct {
	q           database.Querier
	tx          database.TxRunner
	tasks       repositories.TaskRepository
	tags        repositories.TagRepository
	memberships repositories.MembershipRepository
	logger      *zap.Logger
}

// NewTaskService creates a new TaskService.
func NewTaskService(
	q database.Querier,
	tx database.TxRunner,
	tasks repositories.TaskRepository,
	tags repositories.TagRepository,
	memberships repositories.MembershipRepository,
	logger *zap.Logger,
) TaskService {
	return &taskService{
		q:           q,
		tx:          tx,
		tasks:       tasks,
		tags:        tags,
		memberships: memberships,
		logger:      logger.Named("task-service"),
	}
}

var _ TaskService = (*taskService)(nil)

func (s *taskService) Create(ctx context.Context, creatorID uuid.UUID, in TaskInput) (*models.Task, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, apperrors.NewValidation("empty_name", "task name must not be empty")
	}
	if in.Weight < 0 {
		return nil, apperrors.NewValidation("negative_weight", "task weight must not be negative")
	}

	task := &models.Task{
		ProjectID:   in.ProjectID,
		CreatorID:   creatorID,
		AssigneeID:  in.AssigneeID,
		Name:        in.Name,
		Description: in.Description,
		Weight:      in.Weight,
		Priority:    in.Priority,
	}

	err := s.tx.WithTx(ctx, func(q database.Querier) error {
		return s.tasks.Create(ctx, q, task)
	})
	if err != nil {
		return nil, err
	}

	return task, nil
}

func (s *taskService) Get(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	task, err := s.tasks.Get(ctx, s.q, id)
	if err != nil {
		return nil, err
	}

	task.Tags, err = s.tags.ListByTask(ctx, s.q, id)
	if err != nil {
		return nil, err
	}

	return task, nil
}

func (s *taskService) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*models.Task, error) {
	return s.tasks.ListByProject(ctx, s.q, projectID)
}

func (s *taskService) ListAccessible(ctx context.Context, userID uuid.UUID, isSuperuser bool) ([]*models.Task, error) {
	if isSuperuser {
		return s.tasks.ListAll(ctx, s.q)
	}

	ids, err := s.memberships.ListProjectIDsForUser(ctx, s.q, userID, false)
	if err != nil {
		return nil, err
	}
	return s.tasks.ListByProjects(ctx, s.q, ids)
}

func (s *taskService) Patch(ctx context.Context, id uuid.UUID, patch *models.TaskPatch) (*models.Task, error) {
	task, err := s.tasks.Get(ctx, s.q, id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		if strings.TrimSpace(*patch.Name) == "" {
			return nil, apperrors.NewValidation("empty_name", "task name must not be empty")
		}
		task.Name = *patch.Name
	}
	if patch.Description != nil {
		task.Description = *patch.Description
	}
	if patch.Weight != nil {
		if *patch.Weight < 0 {
			return nil, apperrors.NewValidation("negative_weight", "task weight must not be negative")
		}
		task.Weight = *patch.Weight
	}
	if patch.Priority != nil {
		task.Priority = *patch.Priority
	}
	if patch.ClearAssignee {
		task.AssigneeID = nil
	} else if patch.AssigneeID != nil {
		task.AssigneeID = patch.AssigneeID
	}

	err = s.tx.WithTx(ctx, func(q database.Querier) error {
		return s.tasks.Update(ctx, q, task)
	})
	if err != nil {
		return nil, err
	}

	return task, nil
}

func (s *taskService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.tx.WithTx(ctx, func(q database.Querier) error {
		return s.tasks.Delete(ctx, q, id)
	})
}

func (s *taskService) AttachTag(ctx context.Context, taskID, tagID uuid.UUID) error {
	task, err := s.tasks.Get(ctx, s.q, taskID)
	if err != nil {
		return err
	}
	tag, err := s.tags.Get(ctx, s.q, tagID)
	if err != nil {
		return err
	}
	if tag.ProjectID != task.ProjectID {
		return apperrors.NewValidation("tag_mismatch",
			"tag %s belongs to a different project than task %s", tagID, taskID)
	}

	return s.tx.WithTx(ctx, func(q database.Querier) error {
		return s.tags.AttachToTask(ctx, q, taskID, tagID)
	})
}

func (s *taskService) DetachTag(ctx context.Context, taskID, tagID uuid.UUID) error {
	return s.tx.WithTx(ctx, func(q database.Querier) error {
		return s.tags.DetachFromTask(ctx, q, taskID, tagID)
	})
}
