package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/scrumdeck/scrumdeck-engine/pkg/apperrors"
	"github.com/scrumdeck/scrumdeck-engine/pkg/auth"
	"github.com/scrumdeck/scrumdeck-engine/pkg/models"
	"github.com/scrumdeck/scrumdeck-engine/pkg/services"
)

// newAuthedRequest builds a request carrying validated claims for userID,
// the way RequireAuth leaves it for the handler.
func newAuthedRequest(method, target string, userID uuid.UUID, superuser bool) *http.Request {
	r := httptest.NewRequest(method, target, nil)
	claims := &auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: userID.String()},
		IsSuperuser:      superuser,
	}
	return r.WithContext(auth.SetClaims(r.Context(), claims))
}

// mockAccessService implements services.AccessService with injectable
// behavior. The zero value allows everything; ownerErr is returned only
// for checks that demand the owner role, so a test can play a contributor.
type mockAccessService struct {
	validateErr   error
	ownerErr      error
	grantErr      error
	revokeErr     error
	accessibleIDs []uuid.UUID
	granted       []uuid.UUID
	revoked       []uuid.UUID
	ownerChecks   []bool
}

func (m *mockAccessService) HasAccess(context.Context, uuid.UUID, uuid.UUID) (bool, error) {
	return true, nil
}

func (m *mockAccessService) IsOwner(context.Context, uuid.UUID, uuid.UUID) (bool, error) {
	return true, nil
}

func (m *mockAccessService) Grant(_ context.Context, _ uuid.UUID, userID uuid.UUID) error {
	if m.grantErr != nil {
		return m.grantErr
	}
	m.granted = append(m.granted, userID)
	return nil
}

func (m *mockAccessService) Revoke(_ context.Context, _ uuid.UUID, userID uuid.UUID) error {
	if m.revokeErr != nil {
		return m.revokeErr
	}
	m.revoked = append(m.revoked, userID)
	return nil
}

func (m *mockAccessService) AccessibleProjectIDs(context.Context, uuid.UUID) ([]uuid.UUID, error) {
	return m.accessibleIDs, nil
}

func (m *mockAccessService) ValidateProject(_ context.Context, _, _ uuid.UUID, _, requireOwner bool) error {
	m.ownerChecks = append(m.ownerChecks, requireOwner)
	if m.validateErr != nil {
		return m.validateErr
	}
	if requireOwner && m.ownerErr != nil {
		return m.ownerErr
	}
	return nil
}

// mockProjectService implements services.ProjectService over a slice.
type mockProjectService struct {
	projects  []*models.Project
	createErr error
}

func (m *mockProjectService) Create(_ context.Context, _ uuid.UUID, in services.ProjectInput) (*models.Project, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	p := &models.Project{
		ID:           uuid.New(),
		Name:         in.Name,
		Description:  in.Description,
		Color:        in.Color,
		SprintLength: in.SprintLength,
		CreatedAt:    time.Now(),
	}
	m.projects = append(m.projects, p)
	return p, nil
}

func (m *mockProjectService) Get(_ context.Context, id uuid.UUID) (*models.Project, error) {
	for _, p := range m.projects {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (m *mockProjectService) ListAccessible(context.Context, uuid.UUID, bool) ([]*models.Project, error) {
	return m.projects, nil
}

func (m *mockProjectService) Update(_ context.Context, id uuid.UUID, in services.ProjectInput) (*models.Project, error) {
	p, err := m.Get(context.Background(), id)
	if err != nil {
		return nil, err
	}
	p.Name = in.Name
	p.Description = in.Description
	p.Color = in.Color
	return p, nil
}

func (m *mockProjectService) Delete(_ context.Context, id uuid.UUID) error {
	for i, p := range m.projects {
		if p.ID == id {
			m.projects = append(m.projects[:i], m.projects[i+1:]...)
			return nil
		}
	}
	return apperrors.ErrNotFound
}

// mockSprintService implements services.SprintService over a slice.
type mockSprintService struct {
	sprints   []*models.Sprint
	createErr error
	updateErr error
}

func (m *mockSprintService) Create(_ context.Context, projectID uuid.UUID, startDate time.Time, _ []uuid.UUID) (*models.Sprint, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	s := &models.Sprint{
		ID:        uuid.New(),
		ProjectID: projectID,
		StartDate: models.ToDate(startDate),
		EndDate:   models.ToDate(startDate).AddDate(0, 0, 14),
	}
	m.sprints = append(m.sprints, s)
	return s, nil
}

func (m *mockSprintService) Get(_ context.Context, id uuid.UUID) (*models.Sprint, error) {
	for _, s := range m.sprints {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (m *mockSprintService) ListByProject(_ context.Context, projectID uuid.UUID) ([]*models.Sprint, error) {
	var result []*models.Sprint
	for _, s := range m.sprints {
		if s.ProjectID == projectID {
			result = append(result, s)
		}
	}
	return result, nil
}

func (m *mockSprintService) ListByProjects(_ context.Context, projectIDs []uuid.UUID) ([]*models.Sprint, error) {
	var result []*models.Sprint
	for _, s := range m.sprints {
		for _, id := range projectIDs {
			if s.ProjectID == id {
				result = append(result, s)
				break
			}
		}
	}
	return result, nil
}

func (m *mockSprintService) FetchOngoing(context.Context, uuid.UUID) (*models.Sprint, error) {
	return nil, nil
}

func (m *mockSprintService) CheckIntersection(context.Context, uuid.UUID, time.Time) (bool, error) {
	return false, nil
}

func (m *mockSprintService) Update(_ context.Context, sprintID uuid.UUID, startDate time.Time, _ []uuid.UUID) (*models.Sprint, error) {
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	s, err := m.Get(context.Background(), sprintID)
	if err != nil {
		return nil, err
	}
	s.StartDate = models.ToDate(startDate)
	return s, nil
}

func (m *mockSprintService) Delete(_ context.Context, sprintID uuid.UUID) error {
	for i, s := range m.sprints {
		if s.ID == sprintID {
			m.sprints = append(m.sprints[:i], m.sprints[i+1:]...)
			return nil
		}
	}
	return apperrors.ErrNotFound
}

// mockTaskService implements services.TaskService over a slice.
type mockTaskService struct {
	tasks     []*models.Task
	createErr error
	patchErr  error
	attachErr error
	attached  []uuid.UUID
	detached  []uuid.UUID
}

func (m *mockTaskService) Create(_ context.Context, creatorID uuid.UUID, in services.TaskInput) (*models.Task, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	task := &models.Task{
		ID:          uuid.New(),
		ProjectID:   in.ProjectID,
		CreatorID:   creatorID,
		AssigneeID:  in.AssigneeID,
		Name:        in.Name,
		Description: in.Description,
		Weight:      in.Weight,
		Priority:    in.Priority,
		CreatedAt:   time.Now(),
	}
	m.tasks = append(m.tasks, task)
	return task, nil
}

func (m *mockTaskService) Get(_ context.Context, id uuid.UUID) (*models.Task, error) {
	for _, task := range m.tasks {
		if task.ID == id {
			return task, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (m *mockTaskService) ListByProject(_ context.Context, projectID uuid.UUID) ([]*models.Task, error) {
	var result []*models.Task
	for _, task := range m.tasks {
		if task.ProjectID == projectID {
			result = append(result, task)
		}
	}
	return result, nil
}

func (m *mockTaskService) ListAccessible(context.Context, uuid.UUID, bool) ([]*models.Task, error) {
	return m.tasks, nil
}

func (m *mockTaskService) Patch(_ context.Context, id uuid.UUID, patch *models.TaskPatch) (*models.Task, error) {
	if m.patchErr != nil {
		return nil, m.patchErr
	}
	task, err := m.Get(context.Background(), id)
	if err != nil {
		return nil, err
	}
	if patch.Name != nil {
		task.Name = *patch.Name
	}
	if patch.Weight != nil {
		task.Weight = *patch.Weight
	}
	if patch.ClearAssignee {
		task.AssigneeID = nil
	} else if patch.AssigneeID != nil {
		task.AssigneeID = patch.AssigneeID
	}
	return task, nil
}

func (m *mockTaskService) Delete(_ context.Context, id uuid.UUID) error {
	for i, task := range m.tasks {
		if task.ID == id {
			m.tasks = append(m.tasks[:i], m.tasks[i+1:]...)
			return nil
		}
	}
	return apperrors.ErrNotFound
}

func (m *mockTaskService) AttachTag(_ context.Context, _, tagID uuid.UUID) error {
	if m.attachErr != nil {
		return m.attachErr
	}
	m.attached = append(m.attached, tagID)
	return nil
}

func (m *mockTaskService) DetachTag(_ context.Context, _, tagID uuid.UUID) error {
	m.detached = append(m.detached, tagID)
	return nil
}

// mockTagService implements services.TagService over a slice.
type mockTagService struct {
	tags      []*models.Tag
	createErr error
}

func (m *mockTagService) Create(_ context.Context, projectID uuid.UUID, name, color string) (*models.Tag, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	tag := &models.Tag{ID: uuid.New(), ProjectID: projectID, Name: name, Color: color}
	m.tags = append(m.tags, tag)
	return tag, nil
}

func (m *mockTagService) Get(_ context.Context, id uuid.UUID) (*models.Tag, error) {
	for _, tag := range m.tags {
		if tag.ID == id {
			return tag, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (m *mockTagService) ListByProject(_ context.Context, projectID uuid.UUID) ([]*models.Tag, error) {
	var result []*models.Tag
	for _, tag := range m.tags {
		if tag.ProjectID == projectID {
			result = append(result, tag)
		}
	}
	return result, nil
}

func (m *mockTagService) Update(_ context.Context, id uuid.UUID, name, color string) (*models.Tag, error) {
	tag, err := m.Get(context.Background(), id)
	if err != nil {
		return nil, err
	}
	tag.Name = name
	tag.Color = color
	return tag, nil
}

func (m *mockTagService) Delete(_ context.Context, id uuid.UUID) error {
	for i, tag := range m.tags {
		if tag.ID == id {
			m.tags = append(m.tags[:i], m.tags[i+1:]...)
			return nil
		}
	}
	return apperrors.ErrNotFound
}

// mockUserService implements services.UserService.
type mockUserService struct {
	users        []*models.User
	provisionErr error
}

func (m *mockUserService) ProvisionFromClaims(_ context.Context, claims *auth.Claims) (*models.User, error) {
	if m.provisionErr != nil {
		return nil, m.provisionErr
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, apperrors.NewValidation("invalid_subject", "token subject is not a uuid")
	}
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	u := &models.User{
		ID:          id,
		Username:    claims.Username,
		FullName:    claims.FullName,
		IsActive:    true,
		IsSuperuser: claims.IsSuperuser,
	}
	m.users = append(m.users, u)
	return u, nil
}

func (m *mockUserService) Get(_ context.Context, id uuid.UUID) (*models.User, error) {
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (m *mockUserService) List(context.Context) ([]*models.User, error) {
	return m.users, nil
}

// mockBoardService implements services.BoardService.
type mockBoardService struct {
	board     *models.Board
	updateErr error
	updates   []*models.BoardUpdate
}

func (m *mockBoardService) GetBoard(context.Context, uuid.UUID) (*models.Board, error) {
	if m.board != nil {
		return m.board, nil
	}
	return &models.Board{}, nil
}

func (m *mockBoardService) UpdateBoard(_ context.Context, _, _ uuid.UUID, update *models.BoardUpdate) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.updates = append(m.updates, update)
	return nil
}
