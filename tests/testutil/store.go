package testutil

import (
	"context"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/nhle/taskweb/internal/model"
	"github.com/nhle/taskweb/internal/store"
)

// NewTestStore creates an in-memory SQLStore with all migrations applied.
// It automatically closes the store when the test completes.
func NewTestStore(t *testing.T) *store.SQLStore {
	t.Helper()

	s, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})

	return s
}

// CreateUser registers a user with the given password hashed at the minimum
// bcrypt cost.
func CreateUser(t *testing.T, s store.Store, username, password string) *model.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hashing password: %v", err)
	}
	user := &model.User{Username: username, PasswordHash: string(hash)}
	if err := s.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("creating user %q: %v", username, err)
	}
	return user
}

// CreateTask inserts an active task without reindexing.
func CreateTask(t *testing.T, s store.Store, userID int64, title string, priority int) *model.Task {
	t.Helper()

	task := &model.Task{UserID: userID, Title: title, Priority: priority}
	if _, err := s.SaveTask(context.Background(), task, false); err != nil {
		t.Fatalf("creating task %q: %v", title, err)
	}
	return task
}

// Priorities returns the active task priorities of a user keyed by title.
func Priorities(t *testing.T, s store.Store, userID int64) map[string]int {
	t.Helper()

	pending := false
	tasks, err := s.GetTasks(context.Background(), store.TaskFilter{UserID: userID, Completed: &pending})
	if err != nil {
		t.Fatalf("listing tasks: %v", err)
	}
	out := make(map[string]int, len(tasks))
	for _, task := range tasks {
		out[task.Title] = task.Priority
	}
	return out
}
