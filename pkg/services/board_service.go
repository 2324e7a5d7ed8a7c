package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/scrumdeck/scrumdeck-engine/pkg/apperrors"
	"github.com/scrumdeck/scrumdeck-engine/pkg/database"
	"github.com/scrumdeck/scrumdeck-engine/pkg/models"
	"github.com/scrumdeck/scrumdeck-engine/pkg/repositories"
)

// BoardService is the task board engine: it partitions a sprint's tasks into
// state columns and applies bulk board submissions with per-task validation.
type BoardService interface {
	// GetBoard partitions the sprint's tasks by their current state.
	GetBoard(ctx context.Context, sprintID uuid.UUID) (*models.Board, error)

	// UpdateBoard applies a bulk board submission. Every precondition is
	// checked before anything is written: the sprint must exist, belong to
	// the project and be active today, and every referenced task must exist
	// on that sprint and project. Any violation aborts the whole call with
	// a ValidationError and no change. State transitions maintain the
	// done-date invariant: entering done stamps today, leaving done clears
	// it, untouched tasks keep theirs. The batch commits atomically.
	UpdateBoard(ctx context.Context, projectID, sprintID uuid.UUID, update *models.BoardUpdate) error
}

type boardService struct {
	q       database.Querier
	tx      database.TxRunner
	sprints repositories.SprintRepository
	tasks   repositories.TaskRepository
	logger  *zap.Logger
	now     func() time.Time
}

// NewBoardService creates a new BoardService.
func NewBoardService(
	q database.Querier,
	tx database.TxRunner,
	sprints repositories.SprintRepository,
	tasks repositories.TaskRepository,
	logger *zap.Logger,
) BoardService {
	return &boardService{
		q:       q,
		tx:      tx,
		sprints: sprints,
		tasks:   tasks,
		logger:  logger.Named("board-service"),
		now:     time.Now,
	}
}

var _ BoardService = (*boardService)(nil)

func (s *boardService) GetBoard(ctx context.Context, sprintID uuid.UUID) (*models.Board, error) {
	if _, err := s.sprints.Get(ctx, s.q, sprintID); err != nil {
		return nil, err
	}

	tasks, err := s.tasks.ListBySprint(ctx, s.q, sprintID)
	if err != nil {
		return nil, err
	}

	board := &models.Board{}
	for _, t := range tasks {
		if t.State == nil {
			continue
		}
		switch *t.State {
		case models.TaskStateTodo:
			board.Todo = append(board.Todo, t)
		case models.TaskStateInProcess:
			board.InProcess = append(board.InProcess, t)
		case models.TaskStateTesting:
			board.Testing = append(board.Testing, t)
		case models.TaskStateDone:
			board.Done = append(board.Done, t)
		}
	}

	return board, nil
}

// stateChange is one planned task mutation, captured during validation so
// the write phase touches only tasks whose state actually changes.
type stateChange struct {
	taskID   uuid.UUID
	newState models.TaskState
	doneDate *time.Time
}

func (s *boardService) UpdateBoard(ctx context.Context, projectID, sprintID uuid.UUID, update *models.BoardUpdate) error {
	sprint, err := s.sprints.Get(ctx, s.q, sprintID)
	if err != nil {
		return err
	}
	if sprint.ProjectID != projectID {
		return apperrors.NewValidation("sprint_mismatch",
			"sprint %s does not belong to project %s", sprintID, projectID)
	}

	today := models.ToDate(s.now())
	if !sprint.Contains(today) {
		return apperrors.NewValidation("sprint_not_active",
			"sprint %s is not active today", sprintID)
	}

	// Validation pass: resolve every referenced task and plan the changes
	// before any write happens, so a bad batch applies nothing.
	var changes []stateChange
	for _, col := range update.Columns() {
		for _, taskID := range col.TaskIDs {
			task, err := s.tasks.Get(ctx, s.q, taskID)
			if err != nil {
				return apperrors.NewValidation("task_mismatch",
					"task %s does not exist", taskID)
			}
			if task.ProjectID != projectID || task.SprintID == nil || *task.SprintID != sprintID {
				return apperrors.NewValidation("task_mismatch",
					"task %s is not on sprint %s of project %s", taskID, sprintID, projectID)
			}

			if task.State != nil && *task.State == col.State {
				continue
			}

			change := stateChange{taskID: taskID, newState: col.State}
			if col.State == models.TaskStateDone {
				done := today
				change.doneDate = &done
			}
			changes = append(changes, change)
		}
	}

	if len(changes) == 0 {
		return nil
	}

	err = s.tx.WithTx(ctx, func(q database.Querier) error {
		for _, c := range changes {
			if err := s.tasks.SetState(ctx, q, c.taskID, c.newState, c.doneDate); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("Board updated",
		zap.String("sprint_id", sprintID.String()),
		zap.Int("changed_tasks", len(changes)))

	return nil
}
