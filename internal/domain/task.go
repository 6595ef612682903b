package domain

import "time"

type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "Low"
	TaskPriorityMedium TaskPriority = "Medium"
	TaskPriorityHigh   TaskPriority = "High"
)

// Valid reports whether the priority is one of the fixed enumeration values.
func (p TaskPriority) Valid() bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh:
		return true
	}
	return false
}

// Task represents a task owned by a user. CreatedBy is set once at creation
// and never changes; SharedWith lists user IDs the task is shared with.
type Task struct {
	ID          int64
	Name        string
	Description string
	DueDate     time.Time
	Priority    TaskPriority
	Category    string
	SharedWith  []int64
	CreatedBy   int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
