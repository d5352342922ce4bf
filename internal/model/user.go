package model

import "time"

// User is an account that owns tasks.
type User struct {
	ID           int64      `json:"id" db:"id"`
	Username     string     `json:"username" db:"username"`
	PasswordHash string     `json:"-" db:"password_hash"`
	DateJoined   time.Time  `json:"date_joined" db:"date_joined"`
	LastLogin    *time.Time `json:"last_login,omitempty" db:"last_login"`
}

// UserOverview is a user row annotated with task counts, used by the admin console.
type UserOverview struct {
	User
	ActiveTasks int `db:"active_tasks"`
	TotalTasks  int `db:"total_tasks"`
}
