package web

import (
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"github.com/nhle/taskweb/internal/model"
	"github.com/nhle/taskweb/internal/session"
	"github.com/nhle/taskweb/internal/store"
)

// RequestLogger emits one "http.request" entry per request. Errors are
// handed to the echo error handler first so the logged status is final.
func RequestLogger(logger *log.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()
			fields := log.Fields{
				"method":     req.Method,
				"path":       req.URL.Path,
				"route":      c.Path(),
				"status":     res.Status,
				"latency_ms": float64(time.Since(start)) / float64(time.Millisecond),
				"request_id": res.Header().Get(echo.HeaderXRequestID),
			}
			if u := currentUser(c); u != nil {
				fields["user_id"] = u.ID
			}
			if err != nil {
				fields["error"] = err.Error()
			}

			entry := logger.WithFields(fields)
			switch {
			case res.Status >= http.StatusInternalServerError:
				entry.Error("http.request")
			case res.Status >= http.StatusBadRequest:
				entry.Warn("http.request")
			default:
				entry.Info("http.request")
			}
			return nil
		}
	}
}

// loadUser resolves the session's user, if any, for the rest of the chain.
func (s *Server) loadUser(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		sess := session.FromContext(c)
		if !sess.Authenticated() {
			return next(c)
		}
		user, err := s.auth.User(c.Request().Context(), sess.UserID)
		switch {
		case errors.Is(err, store.ErrNotFound):
			s.logger.WithField("user_id", sess.UserID).Warn("session.user.missing")
		case err != nil:
			return err
		default:
			c.Set(userContextKey, user)
		}
		return next(c)
	}
}

// RequireLogin redirects anonymous requests to the login page, carrying the
// requested path in "next".
func RequireLogin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if currentUser(c) == nil {
			target := loginPath + "?next=" + url.QueryEscape(c.Request().URL.RequestURI())
			return c.Redirect(http.StatusFound, target)
		}
		return next(c)
	}
}

func currentUser(c echo.Context) *model.User {
	u, _ := c.Get(userContextKey).(*model.User)
	return u
}
