package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"taskhub/internal/domain"
	"taskhub/internal/repository"
)

func validTaskInput() TaskInput {
	return TaskInput{
		Name:        "write report",
		Description: "quarterly report for the team",
		DueDate:     time.Now().Add(48 * time.Hour),
		Priority:    domain.TaskPriorityMedium,
		Category:    "work",
	}
}

func TestTaskServiceCreate(t *testing.T) {
	users, tasks := newTestRepos(t)
	userSvc := NewUserService(users, tasks)
	svc := NewTaskService(tasks, users)
	ctx := context.Background()

	alice, err := userSvc.Register(ctx, "Alice", "alice", "secret")
	require.NoError(t, err)

	task, err := svc.Create(ctx, alice.ID, validTaskInput())
	require.NoError(t, err)
	require.NotZero(t, task.ID)
	require.Equal(t, alice.ID, task.CreatedBy)
}

func TestTaskServiceCreateValidation(t *testing.T) {
	users, tasks := newTestRepos(t)
	userSvc := NewUserService(users, tasks)
	svc := NewTaskService(tasks, users)
	ctx := context.Background()

	alice, err := userSvc.Register(ctx, "Alice", "alice", "secret")
	require.NoError(t, err)

	cases := []struct {
		name   string
		mutate func(*TaskInput)
	}{
		{"missing name", func(in *TaskInput) { in.Name = " " }},
		{"missing description", func(in *TaskInput) { in.Description = "" }},
		{"missing due date", func(in *TaskInput) { in.DueDate = time.Time{} }},
		{"bad priority", func(in *TaskInput) { in.Priority = "Urgent" }},
		{"missing category", func(in *TaskInput) { in.Category = "" }},
		{"unknown shared user", func(in *TaskInput) { in.SharedWith = []int64{9999} }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := validTaskInput()
			tc.mutate(&input)
			_, err := svc.Create(ctx, alice.ID, input)
			require.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestTaskServiceGetAccess(t *testing.T) {
	users, tasks := newTestRepos(t)
	userSvc := NewUserService(users, tasks)
	svc := NewTaskService(tasks, users)
	ctx := context.Background()

	alice, err := userSvc.Register(ctx, "Alice", "alice", "secret")
	require.NoError(t, err)
	bob, err := userSvc.Register(ctx, "Bob", "bob", "secret")
	require.NoError(t, err)
	carol, err := userSvc.Register(ctx, "Carol", "carol", "secret")
	require.NoError(t, err)

	input := validTaskInput()
	input.SharedWith = []int64{bob.ID}
	task, err := svc.Create(ctx, alice.ID, input)
	require.NoError(t, err)

	_, err = svc.Get(ctx, alice.ID, task.ID)
	require.NoError(t, err)

	_, err = svc.Get(ctx, bob.ID, task.ID)
	require.NoError(t, err, "collaborator can read a shared task")

	_, err = svc.Get(ctx, carol.ID, task.ID)
	require.ErrorIs(t, err, ErrForbidden)

	_, err = svc.Get(ctx, alice.ID, task.ID+99)
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestTaskServiceUpdateOwnership(t *testing.T) {
	users, tasks := newTestRepos(t)
	userSvc := NewUserService(users, tasks)
	svc := NewTaskService(tasks, users)
	ctx := context.Background()

	alice, err := userSvc.Register(ctx, "Alice", "alice", "secret")
	require.NoError(t, err)
	bob, err := userSvc.Register(ctx, "Bob", "bob", "secret")
	require.NoError(t, err)

	input := validTaskInput()
	input.SharedWith = []int64{bob.ID}
	task, err := svc.Create(ctx, alice.ID, input)
	require.NoError(t, err)

	update := validTaskInput()
	update.Name = "updated name"

	// a collaborator may read but not mutate
	_, err = svc.Update(ctx, bob.ID, task.ID, update)
	require.ErrorIs(t, err, ErrForbidden)

	_, err = svc.Update(ctx, alice.ID, task.ID+99, update)
	require.ErrorIs(t, err, repository.ErrNotFound)

	updated, err := svc.Update(ctx, alice.ID, task.ID, update)
	require.NoError(t, err)
	require.Equal(t, "updated name", updated.Name)
	require.Equal(t, alice.ID, updated.CreatedBy, "owner reference is immutable")
}

func TestTaskServiceDeleteOwnership(t *testing.T) {
	users, tasks := newTestRepos(t)
	userSvc := NewUserService(users, tasks)
	svc := NewTaskService(tasks, users)
	ctx := context.Background()

	alice, err := userSvc.Register(ctx, "Alice", "alice", "secret")
	require.NoError(t, err)
	bob, err := userSvc.Register(ctx, "Bob", "bob", "secret")
	require.NoError(t, err)

	task, err := svc.Create(ctx, alice.ID, validTaskInput())
	require.NoError(t, err)

	require.ErrorIs(t, svc.Delete(ctx, bob.ID, task.ID), ErrForbidden)
	require.ErrorIs(t, svc.Delete(ctx, alice.ID, task.ID+99), repository.ErrNotFound)

	require.NoError(t, svc.Delete(ctx, alice.ID, task.ID))
	_, err = svc.Get(ctx, alice.ID, task.ID)
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestTaskServiceListCreated(t *testing.T) {
	users, tasks := newTestRepos(t)
	userSvc := NewUserService(users, tasks)
	svc := NewTaskService(tasks, users)
	ctx := context.Background()

	alice, err := userSvc.Register(ctx, "Alice", "alice", "secret")
	require.NoError(t, err)
	bob, err := userSvc.Register(ctx, "Bob", "bob", "secret")
	require.NoError(t, err)

	mine, err := svc.Create(ctx, alice.ID, validTaskInput())
	require.NoError(t, err)
	input := validTaskInput()
	input.SharedWith = []int64{alice.ID}
	shared, err := svc.Create(ctx, bob.ID, input)
	require.NoError(t, err)

	created, err := svc.ListCreated(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, created, 1)
	require.Equal(t, mine.ID, created[0].ID)

	sharedWithMe, err := svc.ListShared(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, sharedWithMe, 1)
	require.Equal(t, shared.ID, sharedWithMe[0].ID)
}

func TestTaskServiceGetOwned(t *testing.T) {
	users, tasks := newTestRepos(t)
	userSvc := NewUserService(users, tasks)
	svc := NewTaskService(tasks, users)
	ctx := context.Background()

	alice, err := userSvc.Register(ctx, "Alice", "alice", "secret")
	require.NoError(t, err)
	bob, err := userSvc.Register(ctx, "Bob", "bob", "secret")
	require.NoError(t, err)

	input := validTaskInput()
	input.SharedWith = []int64{bob.ID}
	task, err := svc.Create(ctx, alice.ID, input)
	require.NoError(t, err)

	_, err = svc.GetOwned(ctx, alice.ID, task.ID)
	require.NoError(t, err)

	_, err = svc.GetOwned(ctx, bob.ID, task.ID)
	require.ErrorIs(t, err, ErrForbidden)
}
