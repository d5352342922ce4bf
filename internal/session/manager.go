package session

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
)

const contextKey = "session"

// Config controls the session cookie.
type Config struct {
	CookieName string
	MaxAge     time.Duration
	Secure     bool
}

// Manager loads the session for each request and writes it back, together
// with the cookie, just before the response headers go out.
type Manager struct {
	store  Store
	cfg    Config
	logger *log.Logger
}

// NewManager creates a Manager over store.
func NewManager(store Store, cfg Config, logger *log.Logger) *Manager {
	if cfg.CookieName == "" {
		cfg.CookieName = "sessionid"
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Manager{store: store, cfg: cfg, logger: logger}
}

// MaxAge returns the configured session lifetime.
func (m *Manager) MaxAge() time.Duration {
	return m.cfg.MaxAge
}

// CookieName returns the session cookie name.
func (m *Manager) CookieName() string {
	return m.cfg.CookieName
}

// Middleware attaches the request's session to the echo context.
func (m *Manager) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sess := m.load(c)
			c.Set(contextKey, sess)
			c.Response().Before(func() { m.commit(c, sess) })
			return next(c)
		}
	}
}

// FromContext returns the session attached by Middleware, or an empty
// session when none is attached.
func FromContext(c echo.Context) *Session {
	if sess, ok := c.Get(contextKey).(*Session); ok {
		return sess
	}
	return &Session{}
}

// Login binds the session to userID under a fresh session id.
func (m *Manager) Login(c echo.Context, userID int64) {
	sess := FromContext(c)
	if sess.ID != "" {
		sess.previous = sess.ID
	}
	sess.ID = ""
	sess.SetUser(userID)
}

// Logout discards the session and expires the cookie.
func (m *Manager) Logout(c echo.Context) {
	sess := FromContext(c)
	if sess.ID != "" {
		sess.previous = sess.ID
	}
	sess.ID = ""
	sess.UserID = 0
	sess.TotalViews = 0
	sess.modified = false
	sess.destroyed = true
}

func (m *Manager) load(c echo.Context) *Session {
	cookie, err := c.Cookie(m.cfg.CookieName)
	if err != nil || cookie.Value == "" {
		return &Session{}
	}
	sess, err := m.store.Get(c.Request().Context(), cookie.Value)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			m.logger.WithError(err).Warn("session.load")
		}
		return &Session{}
	}
	return sess
}

func (m *Manager) commit(c echo.Context, sess *Session) {
	ctx := c.Request().Context()

	if sess.previous != "" {
		if err := m.store.Delete(ctx, sess.previous); err != nil {
			m.logger.WithError(err).Warn("session.delete")
		}
		sess.previous = ""
	}

	if sess.destroyed {
		c.SetCookie(m.cookie("", -1))
		return
	}
	if !sess.modified {
		return
	}

	if sess.ID == "" {
		sess.ID = uuid.NewString()
	}
	if err := m.store.Save(ctx, sess, m.cfg.MaxAge); err != nil {
		m.logger.WithError(err).Error("session.save")
		return
	}
	sess.modified = false
	c.SetCookie(m.cookie(sess.ID, int(m.cfg.MaxAge/time.Second)))
}

func (m *Manager) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   m.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}
