package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"taskhub/internal/domain"
	"taskhub/internal/repository"
)

const (
	createTasksTable = `
CREATE TABLE IF NOT EXISTS tasks (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	description TEXT NOT NULL,
	due_date DATETIME NOT NULL,
	priority TEXT NOT NULL,
	category TEXT NOT NULL,
	created_by INTEGER NOT NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	FOREIGN KEY(created_by) REFERENCES users(id)
);
CREATE INDEX IF NOT EXISTS idx_tasks_created_by ON tasks(created_by);
`

	createTaskSharesTable = `
CREATE TABLE IF NOT EXISTS task_shares (
	task_id INTEGER NOT NULL,
	user_id INTEGER NOT NULL,
	PRIMARY KEY(task_id, user_id),
	FOREIGN KEY(task_id) REFERENCES tasks(id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_task_shares_user_id ON task_shares(user_id);
`
)

type TaskRepository struct {
	db *sql.DB
}

func NewTaskRepository(db *sql.DB) repository.TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createTasksTable); err != nil {
		return fmt.Errorf("create tasks table: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, createTaskSharesTable); err != nil {
		return fmt.Errorf("create task_shares table: %w", err)
	}
	return nil
}

func (r *TaskRepository) Create(ctx context.Context, task *domain.Task) (int64, error) {
	now := time.Now().UTC()
	task.CreatedAt = now
	task.UpdatedAt = now

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() // safe no-op on commit

	res, err := tx.ExecContext(ctx, `
INSERT INTO tasks (name, description, due_date, priority, category, created_by, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		task.Name,
		task.Description,
		task.DueDate.UTC(),
		string(task.Priority),
		task.Category,
		task.CreatedBy,
		task.CreatedAt,
		task.UpdatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert task: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("task last insert id: %w", err)
	}
	task.ID = id

	if err := replaceShares(ctx, tx, id, task.SharedWith); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit task insert: %w", err)
	}
	return id, nil
}

// Update persists mutable task fields and the shared-with list. created_by is
// never written after Create.
func (r *TaskRepository) Update(ctx context.Context, task *domain.Task) error {
	task.UpdatedAt = time.Now().UTC()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
UPDATE tasks
SET name=?, description=?, due_date=?, priority=?, category=?, updated_at=?
WHERE id=?`,
		task.Name,
		task.Description,
		task.DueDate.UTC(),
		string(task.Priority),
		task.Category,
		task.UpdatedAt,
		task.ID,
	)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("task update rows affected: %w", err)
	}
	if aff == 0 {
		return repository.ErrNotFound
	}

	if err := replaceShares(ctx, tx, task.ID, task.SharedWith); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit task update: %w", err)
	}
	return nil
}

func (r *TaskRepository) Delete(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM task_shares WHERE task_id=?`, id); err != nil {
		return fmt.Errorf("delete task shares: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("task delete rows affected: %w", err)
	}
	if aff == 0 {
		return repository.ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit task delete: %w", err)
	}
	return nil
}

func (r *TaskRepository) Get(ctx context.Context, id int64) (*domain.Task, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, name, description, due_date, priority, category, created_by, created_at, updated_at
FROM tasks
WHERE id=?`,
		id,
	)

	task, err := scanTask(row)
	if err != nil {
		return nil, err
	}

	shares, err := r.listShares(ctx, id)
	if err != nil {
		return nil, err
	}
	task.SharedWith = shares
	return task, nil
}

func (r *TaskRepository) ListByCreator(ctx context.Context, creatorID int64) ([]domain.Task, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, name, description, due_date, priority, category, created_by, created_at, updated_at
FROM tasks
WHERE created_by=?
ORDER BY id DESC`,
		creatorID,
	)
	if err != nil {
		return nil, fmt.Errorf("query tasks by creator: %w", err)
	}
	return r.collectTasks(ctx, rows)
}

func (r *TaskRepository) ListSharedWith(ctx context.Context, userID int64) ([]domain.Task, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT t.id, t.name, t.description, t.due_date, t.priority, t.category, t.created_by, t.created_at, t.updated_at
FROM tasks t
JOIN task_shares s ON s.task_id = t.id
WHERE s.user_id=?
ORDER BY t.id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query shared tasks: %w", err)
	}
	return r.collectTasks(ctx, rows)
}

// DeleteByCreator removes every task created by the given user and returns
// the deleted task IDs so callers can clean up associated attachments.
func (r *TaskRepository) DeleteByCreator(ctx context.Context, creatorID int64) ([]int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `SELECT id FROM tasks WHERE created_by=?`, creatorID)
	if err != nil {
		return nil, fmt.Errorf("query tasks for delete: %w", err)
	}

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan task id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate task ids: %w", err)
	}
	rows.Close()

	if _, err := tx.ExecContext(ctx, `
DELETE FROM task_shares WHERE task_id IN (SELECT id FROM tasks WHERE created_by=?)`, creatorID); err != nil {
		return nil, fmt.Errorf("delete task shares: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE created_by=?`, creatorID); err != nil {
		return nil, fmt.Errorf("delete tasks by creator: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tasks delete: %w", err)
	}
	return ids, nil
}

func (r *TaskRepository) collectTasks(ctx context.Context, rows *sql.Rows) ([]domain.Task, error) {
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range tasks {
		shares, err := r.listShares(ctx, tasks[i].ID)
		if err != nil {
			return nil, err
		}
		tasks[i].SharedWith = shares
	}
	return tasks, nil
}

func (r *TaskRepository) listShares(ctx context.Context, taskID int64) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT user_id
FROM task_shares
WHERE task_id=?
ORDER BY user_id ASC`, taskID)
	if err != nil {
		return nil, fmt.Errorf("query task shares: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan share: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func replaceShares(ctx context.Context, tx *sql.Tx, taskID int64, userIDs []int64) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM task_shares WHERE task_id=?`, taskID); err != nil {
		return fmt.Errorf("delete shares: %w", err)
	}
	for _, userID := range userIDs {
		if _, err := tx.ExecContext(ctx, `
INSERT OR IGNORE INTO task_shares (task_id, user_id)
VALUES (?, ?)`,
			taskID,
			userID,
		); err != nil {
			return fmt.Errorf("insert share: %w", err)
		}
	}
	return nil
}

func scanTask(scanner interface {
	Scan(dest ...any) error
}) (*domain.Task, error) {
	var (
		task     domain.Task
		priority string
		dueDate  time.Time
	)

	if err := scanner.Scan(
		&task.ID,
		&task.Name,
		&task.Description,
		&dueDate,
		&priority,
		&task.Category,
		&task.CreatedBy,
		&task.CreatedAt,
		&task.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan task: %w", err)
	}

	task.Priority = domain.TaskPriority(priority)
	task.DueDate = dueDate
	return &task, nil
}
