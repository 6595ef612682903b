package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"taskhub/internal/domain"
	"taskhub/internal/repository"
)

// TaskInput carries the mutable fields of a task for create and update.
type TaskInput struct {
	Name        string
	Description string
	DueDate     time.Time
	Priority    domain.TaskPriority
	Category    string
	SharedWith  []int64
}

// TaskService coordinates task level operations backed by repositories.
// Every mutation is authorized against the task creator before it touches
// the store.
type TaskService interface {
	Create(ctx context.Context, creatorID int64, input TaskInput) (*domain.Task, error)
	Get(ctx context.Context, requesterID, id int64) (*domain.Task, error)
	GetOwned(ctx context.Context, requesterID, id int64) (*domain.Task, error)
	ListCreated(ctx context.Context, userID int64) ([]domain.Task, error)
	ListShared(ctx context.Context, userID int64) ([]domain.Task, error)
	Update(ctx context.Context, requesterID, id int64, input TaskInput) (*domain.Task, error)
	Delete(ctx context.Context, requesterID, id int64) error
}

type taskService struct {
	tasks repository.TaskRepository
	users repository.UserRepository
}

func NewTaskService(tasks repository.TaskRepository, users repository.UserRepository) TaskService {
	return &taskService{
		tasks: tasks,
		users: users,
	}
}

func (s *taskService) Create(ctx context.Context, creatorID int64, input TaskInput) (*domain.Task, error) {
	if err := s.validate(ctx, input); err != nil {
		return nil, err
	}

	task := &domain.Task{
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		DueDate:     input.DueDate,
		Priority:    input.Priority,
		Category:    input.Category,
		SharedWith:  input.SharedWith,
		CreatedBy:   creatorID,
	}

	if _, err := s.tasks.Create(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// Get returns a task to its creator or to a user it is shared with.
func (s *taskService) Get(ctx context.Context, requesterID, id int64) (*domain.Task, error) {
	task, err := s.tasks.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if task.CreatedBy != requesterID && !sharedWith(task, requesterID) {
		return nil, ErrForbidden
	}
	return task, nil
}

// GetOwned returns a task only to its creator, for operations that mutate
// the task or its attachments.
func (s *taskService) GetOwned(ctx context.Context, requesterID, id int64) (*domain.Task, error) {
	task, err := s.tasks.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if task.CreatedBy != requesterID {
		return nil, ErrForbidden
	}
	return task, nil
}

func (s *taskService) ListCreated(ctx context.Context, userID int64) ([]domain.Task, error) {
	return s.tasks.ListByCreator(ctx, userID)
}

func (s *taskService) ListShared(ctx context.Context, userID int64) ([]domain.Task, error) {
	return s.tasks.ListSharedWith(ctx, userID)
}

func (s *taskService) Update(ctx context.Context, requesterID, id int64, input TaskInput) (*domain.Task, error) {
	task, err := s.tasks.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if task.CreatedBy != requesterID {
		return nil, ErrForbidden
	}

	if err := s.validate(ctx, input); err != nil {
		return nil, err
	}

	task.Name = strings.TrimSpace(input.Name)
	task.Description = input.Description
	task.DueDate = input.DueDate
	task.Priority = input.Priority
	task.Category = input.Category
	task.SharedWith = input.SharedWith

	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *taskService) Delete(ctx context.Context, requesterID, id int64) error {
	task, err := s.tasks.Get(ctx, id)
	if err != nil {
		return err
	}
	if task.CreatedBy != requesterID {
		return ErrForbidden
	}
	return s.tasks.Delete(ctx, id)
}

func (s *taskService) validate(ctx context.Context, input TaskInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if strings.TrimSpace(input.Description) == "" {
		return fmt.Errorf("%w: description is required", ErrValidation)
	}
	if input.DueDate.IsZero() {
		return fmt.Errorf("%w: due date is required", ErrValidation)
	}
	if !input.Priority.Valid() {
		return fmt.Errorf("%w: priority must be Low, Medium or High", ErrValidation)
	}
	if strings.TrimSpace(input.Category) == "" {
		return fmt.Errorf("%w: category is required", ErrValidation)
	}
	for _, userID := range input.SharedWith {
		if _, err := s.users.GetByID(ctx, userID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%w: shared user %d does not exist", ErrValidation, userID)
			}
			return err
		}
	}
	return nil
}

func sharedWith(task *domain.Task, userID int64) bool {
	for _, id := range task.SharedWith {
		if id == userID {
			return true
		}
	}
	return false
}
