package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"github.com/nhle/taskweb/internal/model"
)

// dialect captures the SQL differences between the supported backends.
type dialect interface {
	name() string
	migrations() []migration
	tableExistsQuery() string

	// lockActiveTasks returns the owner's active tasks ordered by priority,
	// excluding excludeID, and holds a lock that keeps other transactions
	// from reindexing the same owner until tx ends.
	lockActiveTasks(ctx context.Context, tx *sqlx.Tx, userID, excludeID int64) ([]model.Task, error)

	isUniqueViolation(err error) bool
}

const activeTasksQuery = `SELECT ` + taskColumns + ` FROM tasks
	WHERE user_id = ? AND completed = 0 AND deleted = 0 AND id <> ?
	ORDER BY priority ASC, id ASC`

type sqliteDialect struct{}

func (sqliteDialect) name() string { return model.DriverSQLite }

func (sqliteDialect) migrations() []migration { return sqliteMigrations }

func (sqliteDialect) tableExistsQuery() string {
	return "SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name = ?"
}

// SQLite has no row locks. A write statement takes the database write lock
// for the rest of the transaction, which serializes reindexing.
func (sqliteDialect) lockActiveTasks(
	ctx context.Context,
	tx *sqlx.Tx,
	userID, excludeID int64,
) ([]model.Task, error) {
	_, err := tx.ExecContext(ctx,
		"UPDATE tasks SET priority = priority WHERE user_id = ? AND completed = 0 AND deleted = 0",
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("locking tasks of user %d: %w", userID, err)
	}

	var tasks []model.Task
	if err := tx.SelectContext(ctx, &tasks, activeTasksQuery, userID, excludeID); err != nil {
		return nil, fmt.Errorf("loading active tasks of user %d: %w", userID, err)
	}
	return tasks, nil
}

func (sqliteDialect) isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

type mysqlDialect struct{}

func (mysqlDialect) name() string { return model.DriverMySQL }

func (mysqlDialect) migrations() []migration { return mysqlMigrations }

func (mysqlDialect) tableExistsQuery() string {
	return "SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = DATABASE() AND table_name = ?"
}

func (mysqlDialect) lockActiveTasks(
	ctx context.Context,
	tx *sqlx.Tx,
	userID, excludeID int64,
) ([]model.Task, error) {
	// The owner row is locked first so that owners with no active tasks
	// still serialize.
	var owner int64
	err := tx.GetContext(ctx, &owner, "SELECT id FROM users WHERE id = ? FOR UPDATE", userID)
	if err != nil {
		return nil, fmt.Errorf("locking user %d: %w", userID, err)
	}

	var tasks []model.Task
	if err := tx.SelectContext(ctx, &tasks, activeTasksQuery+" FOR UPDATE", userID, excludeID); err != nil {
		return nil, fmt.Errorf("locking active tasks of user %d: %w", userID, err)
	}
	return tasks, nil
}

func (mysqlDialect) isUniqueViolation(err error) bool {
	var myErr *mysql.MySQLError
	return errors.As(err, &myErr) && myErr.Number == 1062
}
