// Package session implements server-side cookie sessions backed by Redis or
// process memory.
package session

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by a Store when the session does not exist or has expired.
var ErrNotFound = errors.New("session not found")

// Session is the server-side state behind a session cookie.
type Session struct {
	ID         string `json:"-"`
	UserID     int64  `json:"user_id,omitempty"`
	TotalViews int    `json:"total_views,omitempty"`

	modified  bool
	destroyed bool
	previous  string
}

// Authenticated reports whether a user is logged in on this session.
func (s *Session) Authenticated() bool {
	return s.UserID != 0
}

// IncrementViews bumps the visit counter and returns the value before the bump.
func (s *Session) IncrementViews() int {
	prev := s.TotalViews
	s.TotalViews++
	s.modified = true
	return prev
}

// SetUser binds the session to userID.
func (s *Session) SetUser(userID int64) {
	s.UserID = userID
	s.modified = true
}

// Modified reports whether the session must be written back.
func (s *Session) Modified() bool {
	return s.modified
}

// Store persists sessions by id.
type Store interface {
	Get(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, sess *Session, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
}
