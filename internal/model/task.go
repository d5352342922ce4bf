package model

import (
	"math"
	"time"
)

// Column limits shared by both SQL backends.
const (
	MaxTitleLength = 255
	MaxPriority    = math.MaxInt32
)

// Task is a personal to-do item owned by a single user.
type Task struct {
	ID          int64     `json:"id" db:"id"`
	UserID      int64     `json:"user_id" db:"user_id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	Priority    int       `json:"priority" db:"priority"`
	Completed   bool      `json:"completed" db:"completed"`
	Deleted     bool      `json:"deleted" db:"deleted"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// IsActive reports whether the task takes part in priority ordering.
func (t Task) IsActive() bool {
	return !t.Completed && !t.Deleted
}

// TaskSummary is the combined pending/completed projection for one user.
type TaskSummary struct {
	Pending   []Task
	Completed []Task

	// ActiveCount counts tasks that are neither completed nor deleted.
	ActiveCount int
	// TotalCount counts every task that is not deleted.
	TotalCount int
}
