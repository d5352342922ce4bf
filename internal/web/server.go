// Package web serves the server-rendered task pages over echo.
package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	log "github.com/sirupsen/logrus"

	"github.com/nhle/taskweb/internal/auth"
	"github.com/nhle/taskweb/internal/service"
	"github.com/nhle/taskweb/internal/session"
)

const (
	csrfContextKey = "csrf"
	csrfCookieName = "csrftoken"
	csrfFormField  = "csrfmiddlewaretoken"
	userContextKey = "user"
	loginPath      = "/user/login"
	homePath       = "/tasks/"
)

// Pinger reports database health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps bundles what the HTTP layer needs.
type Deps struct {
	Tasks         *service.TaskService
	Auth          *auth.Service
	Sessions      *session.Manager
	DB            Pinger
	Logger        *log.Logger
	SecureCookies bool
}

// Server wires handlers onto an echo instance.
type Server struct {
	echo     *echo.Echo
	tasks    *service.TaskService
	auth     *auth.Service
	sessions *session.Manager
	db       Pinger
	logger   *log.Logger
}

// New builds the echo application with all routes and middleware.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		deps.Logger = log.StandardLogger()
	}
	renderer, err := NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("loading templates: %w", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = renderer

	s := &Server{
		echo:     e,
		tasks:    deps.Tasks,
		auth:     deps.Auth,
		sessions: deps.Sessions,
		db:       deps.DB,
		logger:   deps.Logger,
	}
	e.HTTPErrorHandler = s.handleError

	e.Use(middleware.RequestID())
	e.Use(RequestLogger(deps.Logger))
	e.Use(middleware.Recover())
	e.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:      "1; mode=block",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "DENY",
		ReferrerPolicy:     "same-origin",
	}))
	e.Use(middleware.CSRFWithConfig(middleware.CSRFConfig{
		TokenLookup:    "form:" + csrfFormField,
		CookieName:     csrfCookieName,
		CookiePath:     "/",
		CookieSecure:   deps.SecureCookies,
		CookieSameSite: http.SameSiteLaxMode,
		ContextKey:     csrfContextKey,
		ErrorHandler: func(err error, c echo.Context) error {
			return echo.NewHTTPError(http.StatusForbidden, "CSRF verification failed.").SetInternal(err)
		},
	}))
	e.Use(deps.Sessions.Middleware())
	e.Use(s.loadUser)

	s.routes()
	return s, nil
}

func (s *Server) routes() {
	e := s.echo

	e.GET("/", func(c echo.Context) error {
		return c.Redirect(http.StatusFound, homePath)
	})
	e.GET("/healthz", s.healthz)
	e.GET("/sessiontest", s.sessionTest)

	both := []string{http.MethodGet, http.MethodPost}
	e.Match(both, "/user/signup", s.signup)
	e.Match(both, loginPath, s.login)
	e.Match(both, "/user/logout", s.logout)

	// Task pages.
	e.GET(homePath, s.listPending, RequireLogin)
	e.GET("/completed_tasks/", s.listCompleted, RequireLogin)
	e.GET("/all_tasks/", s.listAll, RequireLogin)
	e.GET("/detail-task/:id", s.detail, RequireLogin)
	e.Match(both, "/create-task/", s.create, RequireLogin)
	e.Match(both, "/update-task/:id", s.update, RequireLogin)
	e.Match(both, "/delete-task/:id/", s.delete, RequireLogin)
	e.Match(both, "/complete_task/:id/", s.complete, RequireLogin)
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start listens on addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) healthz(c echo.Context) error {
	if err := s.db.Ping(c.Request().Context()); err != nil {
		s.logger.WithError(err).Error("healthz.db")
		return c.String(http.StatusServiceUnavailable, "database unavailable")
	}
	return c.String(http.StatusOK, "ok")
}

func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	message := http.StatusText(code)
	var he *echo.HTTPError
	switch {
	case errors.Is(err, service.ErrNotFound):
		code = http.StatusNotFound
		message = http.StatusText(code)
	case errors.As(err, &he):
		code = he.Code
		message = http.StatusText(code)
		if m, ok := he.Message.(string); ok && code < http.StatusInternalServerError {
			message = m
		}
	}

	if code >= http.StatusInternalServerError {
		s.logger.WithFields(log.Fields{
			"path":       c.Request().URL.Path,
			"request_id": c.Response().Header().Get(echo.HeaderXRequestID),
		}).WithError(err).Error("http.error")
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.Render(code, "error", page{"Status": code, "Message": message})
	}
	if err != nil {
		s.logger.WithError(err).Error("http.error.render")
	}
}
