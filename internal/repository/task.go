package repository

import (
	"context"

	"taskhub/internal/domain"
)

// TaskRepository exposes persistence operations for Task aggregates,
// including the task's shared-with list.
type TaskRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, task *domain.Task) (int64, error)
	Update(ctx context.Context, task *domain.Task) error
	Delete(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (*domain.Task, error)
	ListByCreator(ctx context.Context, creatorID int64) ([]domain.Task, error)
	ListSharedWith(ctx context.Context, userID int64) ([]domain.Task, error)
	DeleteByCreator(ctx context.Context, creatorID int64) ([]int64, error)
}
