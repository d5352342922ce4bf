// Package auth manages user accounts: signup rules, password hashing and
// credential checks.
package auth

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/nhle/taskweb/internal/model"
	"github.com/nhle/taskweb/internal/service"
	"github.com/nhle/taskweb/internal/store"
)

var (
	// ErrInvalidCredentials is returned for an unknown username or a wrong password.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrUsernameTaken is returned when signing up with an existing username.
	ErrUsernameTaken = errors.New("username already taken")
)

// Signup form messages.
const (
	MsgUsernameInvalid  = "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters."
	MsgUsernameTooLong  = "Ensure this value has at most 150 characters."
	MsgUsernameTaken    = "A user with that username already exists."
	MsgPasswordMismatch = "The two password fields didn't match."
	MsgPasswordTooShort = "This password is too short. It must contain at least 8 characters."
	MsgPasswordNumeric  = "This password is entirely numeric."
	MsgPasswordTooLong  = "This password is too long. It must contain at most 72 bytes."
)

// maxPasswordBytes is the longest input bcrypt accepts.
const maxPasswordBytes = 72

var usernamePattern = regexp.MustCompile(`^[\p{L}\p{N}_@.+-]+$`)

// SignupInput is the signup form.
type SignupInput struct {
	Username  string `form:"username" validate:"required,max=150,username"`
	Password1 string `form:"password1" validate:"required,min=8"`
	Password2 string `form:"password2" validate:"required"`
}

var signupMessages = map[string]map[string]string{
	"username": {
		"required": service.MsgRequired,
		"max":      MsgUsernameTooLong,
		"username": MsgUsernameInvalid,
	},
	"password1": {
		"required": service.MsgRequired,
		"min":      MsgPasswordTooShort,
	},
	"password2": {
		"required": service.MsgRequired,
	},
}

// Service registers and authenticates users.
type Service struct {
	store    store.Store
	logger   *log.Logger
	validate *validator.Validate
	cost     int

	// dummyHash is compared against when the username is unknown so both
	// failure paths cost one bcrypt comparison.
	dummyHash []byte
}

// Option customizes a Service.
type Option func(*Service)

// WithBcryptCost overrides the bcrypt cost. Tests use bcrypt.MinCost.
func WithBcryptCost(cost int) Option {
	return func(s *Service) { s.cost = cost }
}

// NewService creates an auth Service.
func NewService(s store.Store, logger *log.Logger, opts ...Option) (*Service, error) {
	if logger == nil {
		logger = log.StandardLogger()
	}
	svc := &Service{
		store:    s,
		logger:   logger,
		validate: service.NewValidator(),
		cost:     bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(svc)
	}
	err := svc.validate.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})
	if err != nil {
		return nil, fmt.Errorf("registering username rule: %w", err)
	}
	svc.dummyHash, err = bcrypt.GenerateFromPassword([]byte("taskweb-dummy-password"), svc.cost)
	if err != nil {
		return nil, fmt.Errorf("hashing dummy password: %w", err)
	}
	return svc, nil
}

// Signup validates in and creates the account. Field problems are reported
// as a *service.ValidationError.
func (s *Service) Signup(ctx context.Context, in SignupInput) (*model.User, error) {
	in.Username = strings.TrimSpace(in.Username)

	ve := service.NewValidationError()
	if err := s.validate.Struct(in); err != nil {
		ve.Merge(service.ValidationErrorFrom(err, signupMessages))
	}
	if len(in.Password1) > maxPasswordBytes {
		ve.Add("password1", MsgPasswordTooLong)
	}
	if _, bad := ve.Fields["password1"]; !bad && isNumeric(in.Password1) {
		ve.Add("password1", MsgPasswordNumeric)
	}
	if in.Password1 != "" && in.Password2 != "" && in.Password1 != in.Password2 {
		ve.Add("password2", MsgPasswordMismatch)
	}
	if !ve.Empty() {
		return nil, ve
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password1), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}
	user := &model.User{
		Username:     in.Username,
		PasswordHash: string(hash),
		DateJoined:   time.Now().UTC(),
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicateUsername) {
			ve.Add("username", MsgUsernameTaken)
			return nil, fmt.Errorf("%w: %w", ErrUsernameTaken, ve)
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}

	s.logger.WithFields(log.Fields{"user_id": user.ID, "username": user.Username}).Info("auth.signup")
	return user, nil
}

// Authenticate checks the credentials and records the login time.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*model.User, error) {
	user, err := s.store.GetUserByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, store.ErrNotFound) {
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("looking up user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	now := time.Now().UTC()
	if err := s.store.SetLastLogin(ctx, user.ID, now); err != nil {
		return nil, fmt.Errorf("recording login: %w", err)
	}
	user.LastLogin = &now
	return user, nil
}

// User loads an account by id.
func (s *Service) User(ctx context.Context, id int64) (*model.User, error) {
	return s.store.GetUserByID(ctx, id)
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
