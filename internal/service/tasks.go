package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/atinyakov/Workboard/internal/models"
	"github.com/google/uuid"
)

// Task limits.
const (
	DefaultTaskLimit     = 50
	MaxTitleLength       = 200
	MaxDescriptionLength = 2000
)

// TaskRepository defines the persistence operations needed by the TaskService.
type TaskRepository interface {
	CreateTask(ctx context.Context, t *models.Task) error
	TaskByID(ctx context.Context, userID, id string) (*models.Task, error)
	ListTasks(ctx context.Context, userID string, f models.TaskFilter) ([]models.Task, int, error)
	UpdateTask(ctx context.Context, t *models.Task) error
	DeleteTask(ctx context.Context, userID, id string) error
}

// TaskService implements the personal task list of a user.
type TaskService struct {
	repo TaskRepository
	now  func() time.Time
}

// NewTaskService constructs a TaskService with the provided repository.
func NewTaskService(repo TaskRepository) *TaskService {
	return &TaskService{repo: repo, now: time.Now}
}

func checkTitle(v *validator, title string) {
	v.check(title != "", "title", "Title is required")
	v.check(utf8.RuneCountInString(title) <= MaxTitleLength, "title", "Title is too long")
}

func checkDescription(v *validator, description *string) {
	v.check(description == nil || utf8.RuneCountInString(*description) <= MaxDescriptionLength,
		"description", "Description is too long")
}

func checkPriority(v *validator, p *models.TaskPriority) {
	v.check(p == nil || p.Valid(), "priority", "Priority must be one of low, medium, high")
}

func checkStatus(v *validator, s *models.TaskStatus) {
	v.check(s == nil || s.Valid(), "status", "Status must be one of pending, in_progress, completed, cancelled")
}

// List returns one page of the tasks of userID matching f.
func (s *TaskService) List(ctx context.Context, userID string, f models.TaskFilter) (*models.TaskPage, error) {
	var v validator
	if f.Status != "" {
		checkStatus(&v, &f.Status)
	}
	if f.Priority != "" {
		checkPriority(&v, &f.Priority)
	}
	if err := v.err(); err != nil {
		return nil, err
	}
	f.Limit, f.Offset = page(f.Limit, f.Offset, DefaultTaskLimit, MaxPageLimit)

	tasks, total, err := s.repo.ListTasks(ctx, userID, f)
	if err != nil {
		return nil, err
	}
	return &models.TaskPage{
		Tasks:      tasks,
		Pagination: models.Pagination{Total: total, Limit: f.Limit, Offset: f.Offset},
	}, nil
}

// Get returns the task id of userID.
func (s *TaskService) Get(ctx context.Context, userID, id string) (*models.Task, error) {
	return s.repo.TaskByID(ctx, userID, id)
}

// Create validates data and stores a new pending task.
func (s *TaskService) Create(ctx context.Context, userID string, data models.CreateTaskData) (*models.Task, error) {
	title := strings.TrimSpace(data.Title)
	var v validator
	checkTitle(&v, title)
	checkDescription(&v, data.Description)
	checkPriority(&v, data.Priority)
	if err := v.err(); err != nil {
		return nil, err
	}

	t := &models.Task{
		ID:          uuid.NewString(),
		UserID:      userID,
		Title:       title,
		Description: data.Description,
		Status:      models.StatusPending,
		Priority:    models.PriorityMedium,
		DueDate:     data.DueDate,
	}
	if data.Priority != nil {
		t.Priority = *data.Priority
	}
	if err := s.repo.CreateTask(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Update applies the non-nil fields of data. CompletedAt is set when the
// task enters the completed status and cleared when it leaves it.
func (s *TaskService) Update(ctx context.Context, userID, id string, data models.UpdateTaskData) (*models.Task, error) {
	var v validator
	v.check(!data.Empty(), "", "At least one field must be provided")
	var title string
	if data.Title != nil {
		title = strings.TrimSpace(*data.Title)
		checkTitle(&v, title)
	}
	checkDescription(&v, data.Description)
	checkStatus(&v, data.Status)
	checkPriority(&v, data.Priority)
	if err := v.err(); err != nil {
		return nil, err
	}

	t, err := s.repo.TaskByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if data.Title != nil {
		t.Title = title
	}
	if data.Description != nil {
		t.Description = data.Description
	}
	if data.Priority != nil {
		t.Priority = *data.Priority
	}
	switch {
	case data.ClearDueDate:
		t.DueDate = nil
	case data.DueDate != nil:
		t.DueDate = data.DueDate
	}
	if data.Status != nil && *data.Status != t.Status {
		if *data.Status == models.StatusCompleted {
			now := s.now()
			t.CompletedAt = &now
		} else {
			t.CompletedAt = nil
		}
		t.Status = *data.Status
	}

	if err := s.repo.UpdateTask(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Delete removes the task id of userID.
func (s *TaskService) Delete(ctx context.Context, userID, id string) error {
	return s.repo.DeleteTask(ctx, userID, id)
}
