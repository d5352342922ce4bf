package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nhle/taskweb/internal/model"
)

const taskColumns = "id, user_id, title, description, priority, completed, deleted, created_at, updated_at"

// GetTask retrieves a single non-deleted task owned by userID.
func (s *SQLStore) GetTask(
	ctx context.Context,
	userID, id int64,
) (*model.Task, error) {
	if userID == 0 {
		return nil, ErrOwnerRequired
	}

	var task model.Task
	err := s.db.GetContext(ctx, &task,
		"SELECT "+taskColumns+" FROM tasks WHERE id = ? AND user_id = ? AND deleted = 0",
		id, userID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("task %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting task %d: %w", id, err)
	}
	return &task, nil
}

// GetTasks retrieves tasks matching the filter.
func (s *SQLStore) GetTasks(
	ctx context.Context,
	filter TaskFilter,
) ([]model.Task, error) {
	query, args, err := buildTaskQuery("SELECT "+taskColumns, filter, true)
	if err != nil {
		return nil, err
	}

	tasks := []model.Task{}
	if err := s.db.SelectContext(ctx, &tasks, query, args...); err != nil {
		return nil, fmt.Errorf("querying tasks: %w", err)
	}
	return tasks, nil
}

// GetTaskCount returns the count of tasks matching the filter.
func (s *SQLStore) GetTaskCount(
	ctx context.Context,
	filter TaskFilter,
) (int, error) {
	query, args, err := buildTaskQuery("SELECT COUNT(*)", filter, false)
	if err != nil {
		return 0, err
	}

	var count int
	if err := s.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("counting tasks: %w", err)
	}
	return count, nil
}

// ToggleTaskCompleted flips the completed flag of a non-deleted task.
// Priority and the deleted flag are left untouched.
func (s *SQLStore) ToggleTaskCompleted(ctx context.Context, userID, id int64) error {
	if userID == 0 {
		return ErrOwnerRequired
	}
	result, err := s.db.ExecContext(ctx, `
		UPDATE tasks SET
			completed = CASE WHEN completed = 0 THEN 1 ELSE 0 END,
			updated_at = ?
		WHERE id = ? AND user_id = ? AND deleted = 0`,
		time.Now().UTC(), id, userID,
	)
	if err != nil {
		return fmt.Errorf("toggling task %d: %w", id, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("task %d: %w", id, ErrNotFound)
	}
	return nil
}

// SoftDeleteTask marks a task as deleted. The row is kept.
func (s *SQLStore) SoftDeleteTask(ctx context.Context, userID, id int64) error {
	if userID == 0 {
		return ErrOwnerRequired
	}
	result, err := s.db.ExecContext(ctx,
		"UPDATE tasks SET deleted = 1, updated_at = ? WHERE id = ? AND user_id = ? AND deleted = 0",
		time.Now().UTC(), id, userID,
	)
	if err != nil {
		return fmt.Errorf("deleting task %d: %w", id, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("task %d: %w", id, ErrNotFound)
	}
	return nil
}

// buildTaskQuery constructs the SQL query and args for a TaskFilter.
func buildTaskQuery(
	selectClause string,
	filter TaskFilter,
	withOrder bool,
) (string, []interface{}, error) {
	if filter.UserID == 0 {
		return "", nil, ErrOwnerRequired
	}

	conditions := []string{"user_id = ?"}
	args := []interface{}{filter.UserID}

	if !filter.IncludeDeleted {
		conditions = append(conditions, "deleted = 0")
	}
	if filter.Completed != nil {
		conditions = append(conditions, "completed = ?")
		args = append(args, boolToInt(*filter.Completed))
	}
	if filter.Query != "" {
		conditions = append(conditions, "LOWER(title) LIKE ? ESCAPE '!'")
		args = append(args, "%"+escapeLike(strings.ToLower(filter.Query))+"%")
	}

	query := selectClause + " FROM tasks WHERE " + strings.Join(conditions, " AND ")
	if !withOrder {
		return query, args, nil
	}

	// Sort.
	sortBy := "priority"
	if filter.SortBy != "" {
		allowed := map[string]bool{
			"priority":   true,
			"created_at": true,
			"updated_at": true,
			"title":      true,
		}
		if allowed[filter.SortBy] {
			sortBy = filter.SortBy
		}
	}
	direction := "ASC"
	if filter.SortDesc {
		direction = "DESC"
	}
	query += fmt.Sprintf(" ORDER BY %s %s, id ASC", sortBy, direction)

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
		if filter.Offset > 0 {
			query += fmt.Sprintf(" OFFSET %d", filter.Offset)
		}
	}

	return query, args, nil
}

// escapeLike escapes LIKE wildcards using '!' as the escape character.
func escapeLike(s string) string {
	return strings.NewReplacer("!", "!!", "%", "!%", "_", "!_").Replace(s)
}
