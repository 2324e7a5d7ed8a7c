package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/scrumdeck/scrumdeck-engine/pkg/apperrors"
)

func TestTagService_CreateAndList(t *testing.T) {
	tags := &mockTagRepo{}
	svc := NewTagService(nil, &fakeTx{}, tags, zap.NewNop())
	projectID := uuid.New()

	_, err := svc.Create(context.Background(), projectID, "bug", "#ff0000")
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), projectID, "feature", "#00ff00")
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), uuid.New(), "other", "")
	require.NoError(t, err)

	listed, err := svc.ListByProject(context.Background(), projectID)
	require.NoError(t, err)
	assert.Len(t, listed, 2)
}

func TestTagService_Create_EmptyName(t *testing.T) {
	svc := NewTagService(nil, &fakeTx{}, &mockTagRepo{}, zap.NewNop())

	_, err := svc.Create(context.Background(), uuid.New(), "  ", "")
	ve, ok := apperrors.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, "empty_name", ve.Code)
}

func TestTagService_Update(t *testing.T) {
	tags := &mockTagRepo{}
	svc := NewTagService(nil, &fakeTx{}, tags, zap.NewNop())

	tag, err := svc.Create(context.Background(), uuid.New(), "bug", "#ff0000")
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), tag.ID, "defect", "#cc0000")
	require.NoError(t, err)
	assert.Equal(t, "defect", updated.Name)
	assert.Equal(t, "#cc0000", updated.Color)
}

func TestTagService_Delete_RemovesLinks(t *testing.T) {
	tags := &mockTagRepo{}
	svc := NewTagService(nil, &fakeTx{}, tags, zap.NewNop())

	tag, err := svc.Create(context.Background(), uuid.New(), "bug", "")
	require.NoError(t, err)
	tags.links = append(tags.links, tagLink{taskID: uuid.New(), tagID: tag.ID})

	require.NoError(t, svc.Delete(context.Background(), tag.ID))
	assert.Empty(t, tags.tags)
	assert.Empty(t, tags.links)
}

func TestTagService_Get_Unknown(t *testing.T) {
	svc := NewTagService(nil, &fakeTx{}, &mockTagRepo{}, zap.NewNop())

	_, err := svc.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
