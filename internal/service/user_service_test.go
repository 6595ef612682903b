package service

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"taskhub/internal/repository"
	"taskhub/internal/repository/sqlite"
)

func newTestRepos(t *testing.T) (repository.UserRepository, repository.TaskRepository) {
	t.Helper()

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return initRepos(t, db)
}

func initRepos(t *testing.T, db *sql.DB) (repository.UserRepository, repository.TaskRepository) {
	t.Helper()

	ctx := context.Background()
	users := sqlite.NewUserRepository(db)
	tasks := sqlite.NewTaskRepository(db)
	require.NoError(t, users.Init(ctx))
	require.NoError(t, tasks.Init(ctx))
	return users, tasks
}

func TestUserServiceRegister(t *testing.T) {
	users, tasks := newTestRepos(t)
	svc := NewUserService(users, tasks)
	ctx := context.Background()

	user, err := svc.Register(ctx, "Alice", "alice", "secret-password")
	require.NoError(t, err)
	require.NotZero(t, user.ID)
	require.Empty(t, user.PasswordHash, "sanitized user must not carry the hash")

	stored, err := users.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	require.NotEmpty(t, stored.PasswordHash)
	require.NotEqual(t, "secret-password", stored.PasswordHash)
}

func TestUserServiceRegisterValidation(t *testing.T) {
	users, tasks := newTestRepos(t)
	svc := NewUserService(users, tasks)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Alice", "", "secret")
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.Register(ctx, "Alice", "alice", "")
	require.ErrorIs(t, err, ErrValidation)
}

func TestUserServiceRegisterDuplicate(t *testing.T) {
	users, tasks := newTestRepos(t)
	svc := NewUserService(users, tasks)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Alice", "alice", "first-password")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "Imposter", "alice", "other-password")
	require.ErrorIs(t, err, ErrUserAlreadyExists)

	// original credentials still work
	_, err = svc.Authenticate(ctx, "alice", "first-password")
	require.NoError(t, err)
}

func TestUserServiceAuthenticate(t *testing.T) {
	users, tasks := newTestRepos(t)
	svc := NewUserService(users, tasks)
	ctx := context.Background()

	registered, err := svc.Register(ctx, "Alice", "alice", "secret-password")
	require.NoError(t, err)

	user, err := svc.Authenticate(ctx, "alice", "secret-password")
	require.NoError(t, err)
	require.Equal(t, registered.ID, user.ID)
	require.Empty(t, user.PasswordHash)

	_, err = svc.Authenticate(ctx, "alice", "wrong-password")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, "nobody", "secret-password")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestUserServiceDeleteAccountCascades(t *testing.T) {
	users, tasks := newTestRepos(t)
	userSvc := NewUserService(users, tasks)
	taskSvc := NewTaskService(tasks, users)
	ctx := context.Background()

	alice, err := userSvc.Register(ctx, "Alice", "alice", "secret")
	require.NoError(t, err)
	bob, err := userSvc.Register(ctx, "Bob", "bob", "secret")
	require.NoError(t, err)

	mine, err := taskSvc.Create(ctx, alice.ID, validTaskInput())
	require.NoError(t, err)
	theirs, err := taskSvc.Create(ctx, bob.ID, validTaskInput())
	require.NoError(t, err)

	deleted, err := userSvc.DeleteAccount(ctx, alice.ID)
	require.NoError(t, err)
	require.Equal(t, []int64{mine.ID}, deleted)

	_, err = users.GetByID(ctx, alice.ID)
	require.ErrorIs(t, err, repository.ErrNotFound)
	_, err = tasks.Get(ctx, mine.ID)
	require.ErrorIs(t, err, repository.ErrNotFound)

	// unrelated user and task survive
	_, err = tasks.Get(ctx, theirs.ID)
	require.NoError(t, err)
}
