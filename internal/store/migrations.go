package store

// migration holds a single schema migration with its target version and
// the statements that produce it.
type migration struct {
	version    int
	statements []string
}

// sqliteMigrations is the ordered list of SQLite schema migrations.
// Each migration's version must be sequential starting from 1.
var sqliteMigrations = []migration{
	{
		version: 1,
		statements: []string{
			`CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
)`,
			`CREATE TABLE IF NOT EXISTS users (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	username      TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	date_joined   DATETIME NOT NULL,
	last_login    DATETIME
)`,
			`CREATE TABLE IF NOT EXISTS tasks (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id     INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	title       TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	priority    INTEGER NOT NULL CHECK(priority > 0),
	completed   INTEGER NOT NULL DEFAULT 0 CHECK(completed IN (0, 1)),
	deleted     INTEGER NOT NULL DEFAULT 0 CHECK(deleted IN (0, 1)),
	created_at  DATETIME NOT NULL,
	updated_at  DATETIME NOT NULL
)`,
			`CREATE INDEX IF NOT EXISTS idx_tasks_owner_state
	ON tasks(user_id, deleted, completed, priority)`,
		},
	},
}

// mysqlMigrations mirrors sqliteMigrations for MySQL 8.
var mysqlMigrations = []migration{
	{
		version: 1,
		statements: []string{
			`CREATE TABLE IF NOT EXISTS schema_version (
	version INT NOT NULL
) ENGINE=InnoDB`,
			`CREATE TABLE IF NOT EXISTS users (
	id            BIGINT AUTO_INCREMENT PRIMARY KEY,
	username      VARCHAR(150) NOT NULL UNIQUE,
	password_hash VARCHAR(255) NOT NULL,
	date_joined   DATETIME(6) NOT NULL,
	last_login    DATETIME(6) NULL
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
			`CREATE TABLE IF NOT EXISTS tasks (
	id          BIGINT AUTO_INCREMENT PRIMARY KEY,
	user_id     BIGINT NOT NULL,
	title       VARCHAR(255) NOT NULL,
	description TEXT NOT NULL,
	priority    INT NOT NULL,
	completed   TINYINT(1) NOT NULL DEFAULT 0,
	deleted     TINYINT(1) NOT NULL DEFAULT 0,
	created_at  DATETIME(6) NOT NULL,
	updated_at  DATETIME(6) NOT NULL,
	CONSTRAINT fk_tasks_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE,
	CONSTRAINT chk_tasks_priority CHECK (priority > 0),
	INDEX idx_tasks_owner_state (user_id, deleted, completed, priority)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		},
	},
}
