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

// TagService manages project-scoped tags.
type TagService interface {
	Create(ctx context.Context, projectID uuid.UUID, name, color string) (*models.Tag, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Tag, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]*models.Tag, error)
	Update(ctx context.Context, id uuid.UUID, name, color string) (*models.Tag, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type tagService struct {
	q      database.Querier
	tx     database.TxRunner
	tags   repositories.TagRepository
	logger *zap.Logger
}

// NewTagService creates a new TagService.
func NewTagService(q database.Querier, tx database.TxRunner, tags repositories.TagRepository, logger *zap.Logger) TagService {
	return &tagService{
		q:      q,
		tx:     tx,
		tags:   tags,
		logger: logger.Named("tag-service"),
	}
}

var _ TagService = (*tagService)(nil)

func (s *tagService) Create(ctx context.Context, projectID uuid.UUID, name, color string) (*models.Tag, error) {
	if strings.TrimSpace(name) == "" {
		return nil, apperrors.NewValidation("empty_name", "tag name must not be empty")
	}

	tag := &models.Tag{ProjectID: projectID, Name: name, Color: color}
	err := s.tx.WithTx(ctx, func(q database.Querier) error {
		return s.tags.Create(ctx, q, tag)
	})
	if err != nil {
		return nil, err
	}

	return tag, nil
}

func (s *tagService) Get(ctx context.Context, id uuid.UUID) (*models.Tag, error) {
	return s.tags.Get(ctx, s.q, id)
}

func (s *tagService) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*models.Tag, error) {
	return s.tags.ListByProject(ctx, s.q, projectID)
}

func (s *tagService) Update(ctx context.Context, id uuid.UUID, name, color string) (*models.Tag, error) {
	tag, err := s.tags.Get(ctx, s.q, id)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(name) == "" {
		return nil, apperrors.NewValidation("empty_name", "tag name must not be empty")
	}

	tag.Name = name
	tag.Color = color

	err = s.tx.WithTx(ctx, func(q database.Querier) error {
		return s.tags.Update(ctx, q, tag)
	})
	if err != nil {
		return nil, err
	}

	return tag, nil
}

func (s *tagService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.tx.WithTx(ctx, func(q database.Querier) error {
		return s.tags.Delete(ctx, q, id)
	})
}
