package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/nhle/taskweb/internal/model"
	"github.com/nhle/taskweb/internal/priority"
)

// SaveTask inserts (ID == 0) or updates a task. When reindex is set and the
// task is active, the owner's other active tasks are shifted first so that
// the task's priority is unique among them. Shifting and saving happen in
// one transaction that holds the owner's reindex lock.
//
// The returned moves describe the shifted tasks. On insert task.ID is set.
func (s *SQLStore) SaveTask(
	ctx context.Context,
	task *model.Task,
	reindex bool,
) ([]priority.Move, error) {
	if task.UserID == 0 {
		return nil, ErrOwnerRequired
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var moves []priority.Move
	if reindex && task.IsActive() {
		active, err := s.dialect.lockActiveTasks(ctx, tx, task.UserID, task.ID)
		if err != nil {
			return nil, err
		}
		moves = priority.Plan(active, task.Priority)
		if len(moves) > 0 {
			if last := moves[len(moves)-1]; last.To > model.MaxPriority {
				return nil, fmt.Errorf("moving task %d: %w", last.TaskID, ErrPriorityOverflow)
			}
			if err := applyMoves(ctx, tx, task.UserID, moves); err != nil {
				return nil, err
			}
		}
	}

	now := time.Now().UTC()
	if task.ID == 0 {
		task.CreatedAt = now
		task.UpdatedAt = now
		result, err := tx.ExecContext(ctx, `
			INSERT INTO tasks (user_id, title, description, priority, completed, deleted, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			task.UserID, task.Title, task.Description, task.Priority,
			boolToInt(task.Completed), boolToInt(task.Deleted),
			task.CreatedAt, task.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("inserting task: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("getting task id: %w", err)
		}
		task.ID = id
	} else {
		task.UpdatedAt = now
		result, err := tx.ExecContext(ctx, `
			UPDATE tasks SET
				title = ?, description = ?, priority = ?, completed = ?, updated_at = ?
			WHERE id = ? AND user_id = ? AND deleted = 0`,
			task.Title, task.Description, task.Priority,
			boolToInt(task.Completed), task.UpdatedAt,
			task.ID, task.UserID,
		)
		if err != nil {
			return nil, fmt.Errorf("updating task %d: %w", task.ID, err)
		}
		rows, _ := result.RowsAffected()
		if rows == 0 {
			return nil, fmt.Errorf("task %d: %w", task.ID, ErrNotFound)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing task: %w", err)
	}
	return moves, nil
}

// applyMoves writes the new priorities planned for the owner's tasks.
func applyMoves(
	ctx context.Context,
	tx *sqlx.Tx,
	userID int64,
	moves []priority.Move,
) error {
	stmt, err := tx.PreparexContext(ctx,
		"UPDATE tasks SET priority = ?, updated_at = ? WHERE id = ? AND user_id = ?")
	if err != nil {
		return fmt.Errorf("preparing priority update: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, m := range moves {
		if _, err := stmt.ExecContext(ctx, m.To, now, m.TaskID, userID); err != nil {
			return fmt.Errorf("moving task %d to priority %d: %w", m.TaskID, m.To, err)
		}
	}
	return nil
}
