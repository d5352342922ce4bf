package web

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"unicode"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"github.com/nhle/taskweb/internal/auth"
	"github.com/nhle/taskweb/internal/service"
	"github.com/nhle/taskweb/internal/session"
)

const msgInvalidLogin = "Please enter a correct username and password. Note that both fields may be case-sensitive."

func (s *Server) signup(c echo.Context) error {
	if c.Request().Method != http.MethodPost {
		return c.Render(http.StatusOK, "signup", page{"Errors": map[string]string{}})
	}

	in := auth.SignupInput{
		Username:  c.FormValue("username"),
		Password1: c.FormValue("password1"),
		Password2: c.FormValue("password2"),
	}
	_, err := s.auth.Signup(c.Request().Context(), in)
	if ve, ok := service.AsValidationError(err); ok {
		return c.Render(http.StatusOK, "signup", page{
			"Username": in.Username,
			"Errors":   ve.Fields,
		})
	}
	if err != nil {
		return err
	}
	return c.Redirect(http.StatusFound, loginPath)
}

func (s *Server) login(c echo.Context) error {
	next := c.FormValue("next")
	if c.Request().Method != http.MethodPost {
		return c.Render(http.StatusOK, "login", page{"Next": next})
	}

	username := c.FormValue("username")
	user, err := s.auth.Authenticate(c.Request().Context(), username, c.FormValue("password"))
	if errors.Is(err, auth.ErrInvalidCredentials) {
		s.logger.WithField("username", username).Info("auth.login.failed")
		return c.Render(http.StatusOK, "login", page{
			"Next":     next,
			"Username": username,
			"Error":    msgInvalidLogin,
		})
	}
	if err != nil {
		return err
	}

	s.sessions.Login(c, user.ID)
	s.logger.WithFields(log.Fields{"user_id": user.ID}).Info("auth.login")
	return c.Redirect(http.StatusFound, safeNext(next))
}

func (s *Server) logout(c echo.Context) error {
	s.sessions.Logout(c)
	return c.Redirect(http.StatusFound, loginPath)
}

func (s *Server) sessionTest(c echo.Context) error {
	sess := session.FromContext(c)
	prev := sess.IncrementViews()
	age := int(s.sessions.MaxAge().Seconds())
	return c.String(http.StatusOK, fmt.Sprintf(
		"Total views is %d %d and the user is %t", prev, age, currentUser(c) != nil))
}

// safeNext allows only local absolute paths as post-login redirect targets.
// Browsers drop control characters from Location, so "/\t/host" would
// become a protocol-relative URL.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") ||
		strings.HasPrefix(next, "//") || strings.Contains(next, `\`) ||
		strings.ContainsFunc(next, unicode.IsControl) {
		return homePath
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return homePath
	}
	return next
}
