package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/scrumdeck/scrumdeck-engine/pkg/apperrors"
	"github.com/scrumdeck/scrumdeck-engine/pkg/database"
	"github.com/scrumdeck/scrumdeck-engine/pkg/models"
	"github.com/scrumdeck/scrumdeck-engine/pkg/repositories"
)

// SprintService schedules sprints: creation with non-overlap enforcement,
// start-date updates, task (re)binding, and deletion that detaches tasks.
type SprintService interface {
	// Create computes end = start + project.sprint_length weeks, rejects
	// overlapping time boxes, persists the sprint and binds each task in
	// taskIDs to it with state todo. One atomic unit of work.
	Create(ctx context.Context, projectID uuid.UUID, startDate time.Time, taskIDs []uuid.UUID) (*models.Sprint, error)

	// Get returns the sprint with its task snapshot loaded.
	Get(ctx context.Context, id uuid.UUID) (*models.Sprint, error)

	// ListByProject returns the project's sprints ordered by start date.
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]*models.Sprint, error)

	// ListByProjects returns the sprints of every listed project.
	ListByProjects(ctx context.Context, projectIDs []uuid.UUID) ([]*models.Sprint, error)

	// FetchOngoing returns the sprint containing today, or nil when none.
	FetchOngoing(ctx context.Context, projectID uuid.UUID) (*models.Sprint, error)

	// CheckIntersection reports whether a sprint starting at startDate would
	// overlap an existing sprint of the project.
	CheckIntersection(ctx context.Context, projectID uuid.UUID, startDate time.Time) (bool, error)

	// Update sets the start date (the end date is not recomputed) and
	// reconciles task bindings: bound tasks absent from taskIDs are
	// detached; listed tasks that are unbound are bound with state todo;
	// tasks bound to a different sprint are skipped silently. Atomic.
	Update(ctx context.Context, sprintID uuid.UUID, startDate time.Time, taskIDs []uuid.UUID) (*models.Sprint, error)

	// Delete detaches every bound task (clearing sprint reference and
	// state) and removes the sprint. Atomic.
	Delete(ctx context.Context, sprintID uuid.UUID) error
}

type sprintService struct {
	q        database.Querier
	tx       database.TxRunner
	sprints  repositories.SprintRepository
	tasks    repositories.TaskRepository
	projects repositories.ProjectRepository
	logger   *zap.Logger
	now      func() time.Time
}

// NewSprintService creates a new SprintService.
func NewSprintService(
	q database.Querier,
	tx database.TxRunner,
	sprints repositories.SprintRepository,
	tasks repositories.TaskRepository,
	projects repositories.ProjectRepository,
	logger *zap.Logger,
) SprintService {
	return &sprintService{
		q:        q,
		tx:       tx,
		sprints:  sprints,
		tasks:    tasks,
		projects: projects,
		logger:   logger.Named("sprint-service"),
		now:      time.Now,
	}
}

var _ SprintService = (*sprintService)(nil)

// HasIntersectingSprint reports whether a sprint starting at startDate with
// the given length (weeks) would overlap any of the existing sprints, using
// closed-interval endpoint containment:
//
//	existing.start <= candidate.start <= existing.end, or
//	existing.start <= candidate.end   <= existing.end
//
// The test is one-directional: a candidate interval that strictly contains a
// shorter existing sprint, with neither endpoint falling inside it, is not
// detected. Known gap, kept for compatibility with the shipped behavior.
func HasIntersectingSprint(startDate time.Time, existing []*models.Sprint, lengthWeeks int) bool {
	start := models.ToDate(startDate)
	end := start.AddDate(0, 0, 7*lengthWeeks)
	for _, s := range existing {
		sStart := models.ToDate(s.StartDate)
		sEnd := models.ToDate(s.EndDate)
		if withinClosed(sStart, start, sEnd) || withinClosed(sStart, end, sEnd) {
			return true
		}
	}
	return false
}

// withinClosed reports lo <= d <= hi on calendar days.
func withinClosed(lo, d, hi time.Time) bool {
	return !d.Before(lo) && !d.After(hi)
}

func (s *sprintService) Create(ctx context.Context, projectID uuid.UUID, startDate time.Time, taskIDs []uuid.UUID) (*models.Sprint, error) {
	project, err := s.projects.Get(ctx, s.q, projectID)
	if err != nil {
		return nil, err
	}

	existing, err := s.sprints.ListByProject(ctx, s.q, projectID)
	if err != nil {
		return nil, err
	}
	if HasIntersectingSprint(startDate, existing, project.SprintLength) {
		return nil, apperrors.NewValidation("sprint_overlap",
			"an existing sprint intersects the requested start date")
	}

	start := models.ToDate(startDate)
	sprint := &models.Sprint{
		ProjectID: projectID,
		StartDate: start,
		EndDate:   start.AddDate(0, 0, 7*project.SprintLength),
	}

	err = s.tx.WithTx(ctx, func(q database.Querier) error {
		if err := s.sprints.Create(ctx, q, sprint); err != nil {
			return err
		}
		for _, taskID := range taskIDs {
			if err := s.tasks.BindToSprint(ctx, q, taskID, sprint.ID, models.TaskStateTodo); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Sprint created",
		zap.String("sprint_id", sprint.ID.String()),
		zap.String("project_id", projectID.String()),
		zap.Int("bound_tasks", len(taskIDs)))

	return s.Get(ctx, sprint.ID)
}

func (s *sprintService) Get(ctx context.Context, id uuid.UUID) (*models.Sprint, error) {
	sprint, err := s.sprints.Get(ctx, s.q, id)
	if err != nil {
		return nil, err
	}

	sprint.Tasks, err = s.tasks.ListBySprint(ctx, s.q, id)
	if err != nil {
		return nil, err
	}

	return sprint, nil
}

func (s *sprintService) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*models.Sprint, error) {
	return s.sprints.ListByProject(ctx, s.q, projectID)
}

func (s *sprintService) ListByProjects(ctx context.Context, projectIDs []uuid.UUID) ([]*models.Sprint, error) {
	return s.sprints.ListByProjects(ctx, s.q, projectIDs)
}

func (s *sprintService) FetchOngoing(ctx context.Context, projectID uuid.UUID) (*models.Sprint, error) {
	sprint, err := s.sprints.FetchOngoing(ctx, s.q, projectID, s.now())
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return sprint, nil
}

func (s *sprintService) CheckIntersection(ctx context.Context, projectID uuid.UUID, startDate time.Time) (bool, error) {
	project, err := s.projects.Get(ctx, s.q, projectID)
	if err != nil {
		return false, err
	}

	existing, err := s.sprints.ListByProject(ctx, s.q, projectID)
	if err != nil {
		return false, err
	}

	return HasIntersectingSprint(startDate, existing, project.SprintLength), nil
}

func (s *sprintService) Update(ctx context.Context, sprintID uuid.UUID, startDate time.Time, taskIDs []uuid.UUID) (*models.Sprint, error) {
	sprint, err := s.sprints.Get(ctx, s.q, sprintID)
	if err != nil {
		return nil, err
	}

	project, err := s.projects.Get(ctx, s.q, sprint.ProjectID)
	if err != nil {
		return nil, err
	}

	existing, err := s.sprints.ListByProject(ctx, s.q, sprint.ProjectID)
	if err != nil {
		return nil, err
	}
	others := make([]*models.Sprint, 0, len(existing))
	for _, e := range existing {
		if e.ID != sprintID {
			others = append(others, e)
		}
	}
	if HasIntersectingSprint(startDate, others, project.SprintLength) {
		return nil, apperrors.NewValidation("sprint_overlap",
			"an existing sprint intersects the requested start date")
	}

	bound, err := s.tasks.ListBySprint(ctx, s.q, sprintID)
	if err != nil {
		return nil, err
	}

	keep := make(map[uuid.UUID]bool, len(taskIDs))
	for _, id := range taskIDs {
		keep[id] = true
	}
	boundSet := make(map[uuid.UUID]bool, len(bound))
	for _, t := range bound {
		boundSet[t.ID] = true
	}

	err = s.tx.WithTx(ctx, func(q database.Querier) error {
		if err := s.sprints.UpdateStartDate(ctx, q, sprintID, startDate); err != nil {
			return err
		}

		for _, t := range bound {
			if !keep[t.ID] {
				if err := s.tasks.UnbindFromSprint(ctx, q, t.ID); err != nil {
					return err
				}
			}
		}

		for _, id := range taskIDs {
			if boundSet[id] {
				continue
			}
			task, err := s.tasks.Get(ctx, q, id)
			if err != nil {
				return err
			}
			// A task already on a different sprint is skipped silently.
			if task.SprintID != nil {
				continue
			}
			if err := s.tasks.BindToSprint(ctx, q, id, sprintID, models.TaskStateTodo); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, sprintID)
}

func (s *sprintService) Delete(ctx context.Context, sprintID uuid.UUID) error {
	if _, err := s.sprints.Get(ctx, s.q, sprintID); err != nil {
		return err
	}

	bound, err := s.tasks.ListBySprint(ctx, s.q, sprintID)
	if err != nil {
		return err
	}

	err = s.tx.WithTx(ctx, func(q database.Querier) error {
		for _, t := range bound {
			if err := s.tasks.UnbindFromSprint(ctx, q, t.ID); err != nil {
				return err
			}
		}
		return s.sprints.Delete(ctx, q, sprintID)
	})
	if err != nil {
		return err
	}

	s.logger.Info("Sprint deleted",
		zap.String("sprint_id", sprintID.String()),
		zap.Int("detached_tasks", len(bound)))

	return nil
}
