package store

import (
	"context"
	"errors"
	"time"

	"github.com/nhle/taskweb/internal/model"
	"github.com/nhle/taskweb/internal/priority"
)

var (
	// ErrNotFound is returned when a row does not exist or is not visible to the owner.
	ErrNotFound = errors.New("not found")

	// ErrOwnerRequired is returned when a task query is missing its owner.
	ErrOwnerRequired = errors.New("task queries require an owner")

	// ErrDuplicateUsername is returned when a username is already registered.
	ErrDuplicateUsername = errors.New("username already exists")

	// ErrPriorityOverflow is returned when reindexing would push a task past
	// model.MaxPriority.
	ErrPriorityOverflow = errors.New("priority shift exceeds the maximum")
)

// TaskFilter controls filtering, sorting, and pagination for task queries.
// UserID is mandatory: every task query is scoped to one owner.
type TaskFilter struct {
	UserID         int64
	Completed      *bool  // nil matches both
	IncludeDeleted bool   // soft-deleted rows are hidden unless set
	Query          string // case-insensitive title substring
	SortBy         string // "priority", "created_at", "updated_at", "title"
	SortDesc       bool
	Limit          int
	Offset         int
}

// Store defines the persistence interface for users and their tasks.
type Store interface {
	// === Tasks ===

	GetTask(ctx context.Context, userID, id int64) (*model.Task, error)
	GetTasks(ctx context.Context, filter TaskFilter) ([]model.Task, error)
	GetTaskCount(ctx context.Context, filter TaskFilter) (int, error)
	SaveTask(ctx context.Context, task *model.Task, reindex bool) ([]priority.Move, error)
	ToggleTaskCompleted(ctx context.Context, userID, id int64) error
	SoftDeleteTask(ctx context.Context, userID, id int64) error

	// === Users ===

	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	SetLastLogin(ctx context.Context, id int64, at time.Time) error
	GetUsers(ctx context.Context) ([]model.UserOverview, error)

	Ping(ctx context.Context) error
}
