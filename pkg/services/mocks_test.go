package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/scrumdeck/scrumdeck-engine/pkg/apperrors"
	"github.com/scrumdeck/scrumdeck-engine/pkg/database"
	"github.com/scrumdeck/scrumdeck-engine/pkg/models"
)

// fakeTx runs the unit of work directly against the fake repositories. The
// repositories below ignore the Querier, so nil stands in for it.
type fakeTx struct {
	err error
}

func (f *fakeTx) WithTx(_ context.Context, fn func(q database.Querier) error) error {
	if f.err != nil {
		return f.err
	}
	return fn(nil)
}

// mockProjectRepo implements repositories.ProjectRepository in memory.
type mockProjectRepo struct {
	projects []*models.Project
	getErr   error
}

func (m *mockProjectRepo) Create(_ context.Context, _ database.Querier, project *models.Project) error {
	for _, p := range m.projects {
		if p.Name == project.Name {
			return apperrors.ErrConflict
		}
	}
	if project.ID == uuid.Nil {
		project.ID = uuid.New()
	}
	project.CreatedAt = time.Now()
	m.projects = append(m.projects, project)
	return nil
}

func (m *mockProjectRepo) Get(_ context.Context, _ database.Querier, id uuid.UUID) (*models.Project, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	for _, p := range m.projects {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (m *mockProjectRepo) List(_ context.Context, _ database.Querier) ([]*models.Project, error) {
	return m.projects, nil
}

func (m *mockProjectRepo) ListByIDs(_ context.Context, _ database.Querier, ids []uuid.UUID) ([]*models.Project, error) {
	want := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var result []*models.Project
	for _, p := range m.projects {
		if want[p.ID] {
			result = append(result, p)
		}
	}
	return result, nil
}

func (m *mockProjectRepo) Update(_ context.Context, _ database.Querier, project *models.Project) error {
	for i, p := range m.projects {
		if p.ID == project.ID {
			m.projects[i] = project
			return nil
		}
	}
	return apperrors.ErrNotFound
}

func (m *mockProjectRepo) Delete(_ context.Context, _ database.Querier, id uuid.UUID) error {
	for i, p := range m.projects {
		if p.ID == id {
			m.projects = append(m.projects[:i], m.projects[i+1:]...)
			return nil
		}
	}
	return apperrors.ErrNotFound
}

// mockMembershipRepo implements repositories.MembershipRepository in memory.
// Insert mirrors the composite primary key: a duplicate pair is a conflict.
type mockMembershipRepo struct {
	memberships []*models.Membership
}

func (m *mockMembershipRepo) Insert(_ context.Context, _ database.Querier, mem *models.Membership) error {
	for _, existing := range m.memberships {
		if existing.UserID == mem.UserID && existing.ProjectID == mem.ProjectID {
			return apperrors.ErrConflict
		}
	}
	mem.CreatedAt = time.Now()
	m.memberships = append(m.memberships, mem)
	return nil
}

func (m *mockMembershipRepo) Delete(_ context.Context, _ database.Querier, projectID, userID uuid.UUID) error {
	for i, mem := range m.memberships {
		if mem.ProjectID == projectID && mem.UserID == userID {
			m.memberships = append(m.memberships[:i], m.memberships[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *mockMembershipRepo) Get(_ context.Context, _ database.Querier, projectID, userID uuid.UUID) (*models.Membership, error) {
	for _, mem := range m.memberships {
		if mem.ProjectID == projectID && mem.UserID == userID {
			return mem, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (m *mockMembershipRepo) ListProjectIDsForUser(_ context.Context, _ database.Querier, userID uuid.UUID, onlyOwner bool) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for _, mem := range m.memberships {
		if mem.UserID != userID {
			continue
		}
		if onlyOwner && mem.Role != models.RoleOwner {
			continue
		}
		ids = append(ids, mem.ProjectID)
	}
	return ids, nil
}

func (m *mockMembershipRepo) DeleteByProject(_ context.Context, _ database.Querier, projectID uuid.UUID) error {
	kept := m.memberships[:0]
	for _, mem := range m.memberships {
		if mem.ProjectID != projectID {
			kept = append(kept, mem)
		}
	}
	m.memberships = kept
	return nil
}

// mockSprintRepo implements repositories.SprintRepository in memory.
type mockSprintRepo struct {
	sprints []*models.Sprint
}

func (m *mockSprintRepo) Create(_ context.Context, _ database.Querier, sprint *models.Sprint) error {
	if sprint.ID == uuid.Nil {
		sprint.ID = uuid.New()
	}
	m.sprints = append(m.sprints, sprint)
	return nil
}

func (m *mockSprintRepo) Get(_ context.Context, _ database.Querier, id uuid.UUID) (*models.Sprint, error) {
	for _, s := range m.sprints {
		if s.ID == id {
			// Fresh value without the task snapshot, like a row scan.
			return &models.Sprint{ID: s.ID, ProjectID: s.ProjectID, StartDate: s.StartDate, EndDate: s.EndDate}, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (m *mockSprintRepo) ListByProject(_ context.Context, _ database.Querier, projectID uuid.UUID) ([]*models.Sprint, error) {
	var result []*models.Sprint
	for _, s := range m.sprints {
		if s.ProjectID == projectID {
			result = append(result, s)
		}
	}
	return result, nil
}

func (m *mockSprintRepo) ListByProjects(_ context.Context, _ database.Querier, projectIDs []uuid.UUID) ([]*models.Sprint, error) {
	want := make(map[uuid.UUID]bool, len(projectIDs))
	for _, id := range projectIDs {
		want[id] = true
	}
	var result []*models.Sprint
	for _, s := range m.sprints {
		if want[s.ProjectID] {
			result = append(result, s)
		}
	}
	return result, nil
}

func (m *mockSprintRepo) FetchOngoing(_ context.Context, _ database.Querier, projectID uuid.UUID, day time.Time) (*models.Sprint, error) {
	for _, s := range m.sprints {
		if s.ProjectID == projectID && s.Contains(day) {
			return s, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (m *mockSprintRepo) UpdateStartDate(_ context.Context, _ database.Querier, id uuid.UUID, startDate time.Time) error {
	for _, s := range m.sprints {
		if s.ID == id {
			s.StartDate = models.ToDate(startDate)
			return nil
		}
	}
	return apperrors.ErrNotFound
}

func (m *mockSprintRepo) Delete(_ context.Context, _ database.Querier, id uuid.UUID) error {
	for i, s := range m.sprints {
		if s.ID == id {
			m.sprints = append(m.sprints[:i], m.sprints[i+1:]...)
			return nil
		}
	}
	return apperrors.ErrNotFound
}

func (m *mockSprintRepo) DeleteByProject(_ context.Context, _ database.Querier, projectID uuid.UUID) error {
	kept := m.sprints[:0]
	for _, s := range m.sprints {
		if s.ProjectID != projectID {
			kept = append(kept, s)
		}
	}
	m.sprints = kept
	return nil
}

// mockTaskRepo implements repositories.TaskRepository in memory.
type mockTaskRepo struct {
	tasks []*models.Task
}

func (m *mockTaskRepo) Create(_ context.Context, _ database.Querier, task *models.Task) error {
	if task.ID == uuid.Nil {
		task.ID = uuid.New()
	}
	task.CreatedAt = time.Now()
	m.tasks = append(m.tasks, task)
	return nil
}

func (m *mockTaskRepo) Get(_ context.Context, _ database.Querier, id uuid.UUID) (*models.Task, error) {
	for _, t := range m.tasks {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (m *mockTaskRepo) ListByProject(_ context.Context, _ database.Querier, projectID uuid.UUID) ([]*models.Task, error) {
	var result []*models.Task
	for _, t := range m.tasks {
		if t.ProjectID == projectID {
			result = append(result, t)
		}
	}
	return result, nil
}

func (m *mockTaskRepo) ListByProjects(_ context.Context, _ database.Querier, projectIDs []uuid.UUID) ([]*models.Task, error) {
	want := make(map[uuid.UUID]bool, len(projectIDs))
	for _, id := range projectIDs {
		want[id] = true
	}
	var result []*models.Task
	for _, t := range m.tasks {
		if want[t.ProjectID] {
			result = append(result, t)
		}
	}
	return result, nil
}

func (m *mockTaskRepo) ListBySprint(_ context.Context, _ database.Querier, sprintID uuid.UUID) ([]*models.Task, error) {
	var result []*models.Task
	for _, t := range m.tasks {
		if t.SprintID != nil && *t.SprintID == sprintID {
			result = append(result, t)
		}
	}
	return result, nil
}

func (m *mockTaskRepo) ListAll(_ context.Context, _ database.Querier) ([]*models.Task, error) {
	return m.tasks, nil
}

func (m *mockTaskRepo) Update(_ context.Context, _ database.Querier, task *models.Task) error {
	for i, t := range m.tasks {
		if t.ID == task.ID {
			m.tasks[i] = task
			return nil
		}
	}
	return apperrors.ErrNotFound
}

func (m *mockTaskRepo) BindToSprint(_ context.Context, _ database.Querier, taskID, sprintID uuid.UUID, state models.TaskState) error {
	for _, t := range m.tasks {
		if t.ID == taskID {
			sid := sprintID
			st := state
			t.SprintID = &sid
			t.State = &st
			return nil
		}
	}
	return apperrors.ErrNotFound
}

func (m *mockTaskRepo) UnbindFromSprint(_ context.Context, _ database.Querier, taskID uuid.UUID) error {
	for _, t := range m.tasks {
		if t.ID == taskID {
			t.SprintID = nil
			t.State = nil
			t.DoneDate = nil
			return nil
		}
	}
	return apperrors.ErrNotFound
}

func (m *mockTaskRepo) SetState(_ context.Context, _ database.Querier, taskID uuid.UUID, state models.TaskState, doneDate *time.Time) error {
	for _, t := range m.tasks {
		if t.ID == taskID {
			st := state
			t.State = &st
			t.DoneDate = doneDate
			return nil
		}
	}
	return apperrors.ErrNotFound
}

func (m *mockTaskRepo) Delete(_ context.Context, _ database.Querier, id uuid.UUID) error {
	for i, t := range m.tasks {
		if t.ID == id {
			m.tasks = append(m.tasks[:i], m.tasks[i+1:]...)
			return nil
		}
	}
	return apperrors.ErrNotFound
}

func (m *mockTaskRepo) DeleteByProject(_ context.Context, _ database.Querier, projectID uuid.UUID) error {
	kept := m.tasks[:0]
	for _, t := range m.tasks {
		if t.ProjectID != projectID {
			kept = append(kept, t)
		}
	}
	m.tasks = kept
	return nil
}

// tagLink is one task_tags row in the mock tag repo.
type tagLink struct {
	taskID uuid.UUID
	tagID  uuid.UUID
}

// mockTagRepo implements repositories.TagRepository in memory.
type mockTagRepo struct {
	tags  []*models.Tag
	links []tagLink
}

func (m *mockTagRepo) Create(_ context.Context, _ database.Querier, tag *models.Tag) error {
	if tag.ID == uuid.Nil {
		tag.ID = uuid.New()
	}
	m.tags = append(m.tags, tag)
	return nil
}

func (m *mockTagRepo) Get(_ context.Context, _ database.Querier, id uuid.UUID) (*models.Tag, error) {
	for _, t := range m.tags {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (m *mockTagRepo) ListByProject(_ context.Context, _ database.Querier, projectID uuid.UUID) ([]*models.Tag, error) {
	var result []*models.Tag
	for _, t := range m.tags {
		if t.ProjectID == projectID {
			result = append(result, t)
		}
	}
	return result, nil
}

func (m *mockTagRepo) ListByTask(_ context.Context, _ database.Querier, taskID uuid.UUID) ([]*models.Tag, error) {
	var result []*models.Tag
	for _, link := range m.links {
		if link.taskID != taskID {
			continue
		}
		for _, t := range m.tags {
			if t.ID == link.tagID {
				result = append(result, t)
			}
		}
	}
	return result, nil
}

func (m *mockTagRepo) Update(_ context.Context, _ database.Querier, tag *models.Tag) error {
	for i, t := range m.tags {
		if t.ID == tag.ID {
			m.tags[i] = tag
			return nil
		}
	}
	return apperrors.ErrNotFound
}

func (m *mockTagRepo) Delete(_ context.Context, _ database.Querier, id uuid.UUID) error {
	kept := m.links[:0]
	for _, link := range m.links {
		if link.tagID != id {
			kept = append(kept, link)
		}
	}
	m.links = kept
	for i, t := range m.tags {
		if t.ID == id {
			m.tags = append(m.tags[:i], m.tags[i+1:]...)
			return nil
		}
	}
	return apperrors.ErrNotFound
}

func (m *mockTagRepo) AttachToTask(_ context.Context, _ database.Querier, taskID, tagID uuid.UUID) error {
	for _, link := range m.links {
		if link.taskID == taskID && link.tagID == tagID {
			return apperrors.ErrConflict
		}
	}
	m.links = append(m.links, tagLink{taskID: taskID, tagID: tagID})
	return nil
}

func (m *mockTagRepo) DetachFromTask(_ context.Context, _ database.Querier, taskID, tagID uuid.UUID) error {
	for i, link := range m.links {
		if link.taskID == taskID && link.tagID == tagID {
			m.links = append(m.links[:i], m.links[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *mockTagRepo) DeleteByProject(_ context.Context, _ database.Querier, projectID uuid.UUID) error {
	owned := make(map[uuid.UUID]bool)
	keptTags := m.tags[:0]
	for _, t := range m.tags {
		if t.ProjectID == projectID {
			owned[t.ID] = true
		} else {
			keptTags = append(keptTags, t)
		}
	}
	m.tags = keptTags

	keptLinks := m.links[:0]
	for _, link := range m.links {
		if !owned[link.tagID] {
			keptLinks = append(keptLinks, link)
		}
	}
	m.links = keptLinks
	return nil
}

// mockUserRepo implements repositories.UserRepository in memory.
type mockUserRepo struct {
	users []*models.User
}

func (m *mockUserRepo) Upsert(_ context.Context, _ database.Querier, user *models.User) error {
	for i, u := range m.users {
		if u.ID == user.ID {
			user.CreatedAt = u.CreatedAt
			user.UpdatedAt = time.Now()
			m.users[i] = user
			return nil
		}
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	m.users = append(m.users, user)
	return nil
}

func (m *mockUserRepo) Get(_ context.Context, _ database.Querier, id uuid.UUID) (*models.User, error) {
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (m *mockUserRepo) List(_ context.Context, _ database.Querier) ([]*models.User, error) {
	return m.users, nil
}

// date builds a midnight-UTC time for test fixtures.
func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
