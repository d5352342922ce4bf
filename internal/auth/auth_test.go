package auth_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"golang.org/x/crypto/bcrypt"

	"github.com/nhle/taskweb/internal/auth"
	"github.com/nhle/taskweb/internal/service"
	"github.com/nhle/taskweb/internal/store"
	"github.com/nhle/taskweb/tests/testutil"
)

func newAuth(t *testing.T) (*auth.Service, store.Store) {
	t.Helper()
	s := testutil.NewTestStore(t)
	logger, _ := test.NewNullLogger()
	svc, err := auth.NewService(s, logger, auth.WithBcryptCost(bcrypt.MinCost))
	if err != nil {
		t.Fatalf("new auth service: %v", err)
	}
	return svc, s
}

func TestNewServiceRejectsInvalidCost(t *testing.T) {
	s := testutil.NewTestStore(t)
	logger, _ := test.NewNullLogger()
	if _, err := auth.NewService(s, logger, auth.WithBcryptCost(bcrypt.MaxCost+1)); err == nil {
		t.Fatalf("expected error for bcrypt cost %d", bcrypt.MaxCost+1)
	}
}

func TestSignupAndAuthenticate(t *testing.T) {
	svc, s := newAuth(t)
	ctx := context.Background()

	user, err := svc.Signup(ctx, auth.SignupInput{Username: " alice ", Password1: "correct-horse", Password2: "correct-horse"})
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if user.ID == 0 || user.Username != "alice" {
		t.Fatalf("unexpected user: %+v", user)
	}
	if user.PasswordHash == "correct-horse" {
		t.Fatalf("password stored in clear")
	}

	got, err := svc.Authenticate(ctx, "alice", "correct-horse")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if got.ID != user.ID || got.LastLogin == nil {
		t.Fatalf("unexpected authenticated user: %+v", got)
	}
	stored, err := s.GetUserByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if stored.LastLogin == nil {
		t.Fatalf("last login not recorded")
	}
}

func TestAuthenticateFailures(t *testing.T) {
	svc, _ := newAuth(t)
	ctx := context.Background()
	if _, err := svc.Signup(ctx, auth.SignupInput{Username: "alice", Password1: "correct-horse", Password2: "correct-horse"}); err != nil {
		t.Fatalf("signup: %v", err)
	}

	if _, err := svc.Authenticate(ctx, "alice", "wrong-horse"); !errors.Is(err, auth.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for bad password, got %v", err)
	}
	if _, err := svc.Authenticate(ctx, "mallory", "correct-horse"); !errors.Is(err, auth.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown user, got %v", err)
	}
}

func TestSignupValidation(t *testing.T) {
	svc, _ := newAuth(t)

	tests := []struct {
		name  string
		in    auth.SignupInput
		field string
		msg   string
	}{
		{"missing username", auth.SignupInput{Password1: "correct-horse", Password2: "correct-horse"}, "username", service.MsgRequired},
		{"bad username", auth.SignupInput{Username: "al ice", Password1: "correct-horse", Password2: "correct-horse"}, "username", auth.MsgUsernameInvalid},
		{"long username", auth.SignupInput{Username: strings.Repeat("a", 151), Password1: "correct-horse", Password2: "correct-horse"}, "username", auth.MsgUsernameTooLong},
		{"short password", auth.SignupInput{Username: "alice", Password1: "short", Password2: "short"}, "password1", auth.MsgPasswordTooShort},
		{"password over bcrypt limit", auth.SignupInput{Username: "alice", Password1: strings.Repeat("p", 80), Password2: strings.Repeat("p", 80)}, "password1", auth.MsgPasswordTooLong},
		{"multibyte password over bcrypt limit", auth.SignupInput{Username: "alice", Password1: strings.Repeat("é", 40), Password2: strings.Repeat("é", 40)}, "password1", auth.MsgPasswordTooLong},
		{"numeric password", auth.SignupInput{Username: "alice", Password1: "1234567890", Password2: "1234567890"}, "password1", auth.MsgPasswordNumeric},
		{"mismatch", auth.SignupInput{Username: "alice", Password1: "correct-horse", Password2: "correct-horse!"}, "password2", auth.MsgPasswordMismatch},
		{"missing confirmation", auth.SignupInput{Username: "alice", Password1: "correct-horse"}, "password2", service.MsgRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Signup(context.Background(), tt.in)
			ve, ok := service.AsValidationError(err)
			if !ok {
				t.Fatalf("expected validation error, got %v", err)
			}
			if ve.Fields[tt.field] != tt.msg {
				t.Fatalf("%s: got %q want %q (all: %v)", tt.field, ve.Fields[tt.field], tt.msg, ve.Fields)
			}
		})
	}
}

func TestSignupDuplicateUsername(t *testing.T) {
	svc, _ := newAuth(t)
	ctx := context.Background()
	in := auth.SignupInput{Username: "alice", Password1: "correct-horse", Password2: "correct-horse"}
	if _, err := svc.Signup(ctx, in); err != nil {
		t.Fatalf("signup: %v", err)
	}

	_, err := svc.Signup(ctx, in)
	if !errors.Is(err, auth.ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
	ve, ok := service.AsValidationError(err)
	if !ok || ve.Fields["username"] != auth.MsgUsernameTaken {
		t.Fatalf("expected username field error, got %v", err)
	}
}
