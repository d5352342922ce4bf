package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/nhle/taskweb/internal/model"
)

const userColumns = "id, username, password_hash, date_joined, last_login"

// CreateUser inserts a new user and sets its ID.
func (s *SQLStore) CreateUser(ctx context.Context, user *model.User) error {
	if user.DateJoined.IsZero() {
		user.DateJoined = time.Now().UTC()
	}
	result, err := s.db.ExecContext(ctx,
		"INSERT INTO users (username, password_hash, date_joined, last_login) VALUES (?, ?, ?, ?)",
		user.Username, user.PasswordHash, user.DateJoined, user.LastLogin,
	)
	if err != nil {
		if s.dialect.isUniqueViolation(err) {
			return fmt.Errorf("user %q: %w", user.Username, ErrDuplicateUsername)
		}
		return fmt.Errorf("inserting user: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting user id: %w", err)
	}
	user.ID = id
	return nil
}

// GetUserByID retrieves a user by primary key.
func (s *SQLStore) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	var user model.User
	err := s.db.GetContext(ctx, &user, "SELECT "+userColumns+" FROM users WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting user %d: %w", id, err)
	}
	return &user, nil
}

// GetUserByUsername retrieves a user by exact username.
func (s *SQLStore) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	err := s.db.GetContext(ctx, &user, "SELECT "+userColumns+" FROM users WHERE username = ?", username)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %q: %w", username, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting user %q: %w", username, err)
	}
	return &user, nil
}

// SetLastLogin records a successful login.
func (s *SQLStore) SetLastLogin(ctx context.Context, id int64, at time.Time) error {
	result, err := s.db.ExecContext(ctx, "UPDATE users SET last_login = ? WHERE id = ?", at.UTC(), id)
	if err != nil {
		return fmt.Errorf("updating last login of user %d: %w", id, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	return nil
}

// GetUsers lists every user with active and total (non-deleted) task counts.
func (s *SQLStore) GetUsers(ctx context.Context) ([]model.UserOverview, error) {
	users := []model.UserOverview{}
	err := s.db.SelectContext(ctx, &users, `
		SELECT u.id, u.username, u.password_hash, u.date_joined, u.last_login,
			COALESCE(SUM(CASE WHEN t.completed = 0 THEN 1 ELSE 0 END), 0) AS active_tasks,
			COUNT(t.id) AS total_tasks
		FROM users u
		LEFT JOIN tasks t ON t.user_id = u.id AND t.deleted = 0
		GROUP BY u.id, u.username, u.password_hash, u.date_joined, u.last_login
		ORDER BY u.username ASC`)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return users, nil
}
