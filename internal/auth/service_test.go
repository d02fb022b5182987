package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgAuth "github.com/storebuddy/storebuddy-backend/pkg/auth"
	"github.com/storebuddy/storebuddy-backend/pkg/config"
	"github.com/storebuddy/storebuddy-backend/pkg/db/models"
	pkgerrors "github.com/storebuddy/storebuddy-backend/pkg/errors"
	"github.com/storebuddy/storebuddy-backend/pkg/security"
)

type stubUserRepo struct {
	user           *models.User
	lastLoginID    uuid.UUID
	lastLoginAt    time.Time
	updateLoginErr error
}

func (s *stubUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if s.user != nil && s.user.Email == email {
		return s.user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUserRepo) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	if s.updateLoginErr != nil {
		return s.updateLoginErr
	}
	s.lastLoginID = id
	s.lastLoginAt = at
	return nil
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "test-secret",
		Issuer:            "storebuddy",
		ExpirationMinutes: 30,
	}
}

func mustHashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := security.HashPassword(password, testPasswordConfig())
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return hash
}

func buildLoginService(t *testing.T, user *models.User) (Service, *stubUserRepo) {
	t.Helper()

	repo := &stubUserRepo{user: user}
	svc, err := NewService(ServiceParams{
		UserRepo:  repo,
		JWTConfig: testJWTConfig(),
	})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc, repo
}

func TestLoginIssuesTenantToken(t *testing.T) {
	t.Parallel()

	password := "till-operator"
	user := &models.User{
		ID:           uuid.New(),
		Email:        "owner@example.com",
		PasswordHash: mustHashPassword(t, password),
		Country:      "NL",
	}
	svc, repo := buildLoginService(t, user)

	resp, err := svc.Login(context.Background(), LoginRequest{
		Email:    "  Owner@Example.com ",
		Password: password,
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.User == nil || resp.User.ID != user.ID {
		t.Fatalf("expected user dto for %s", user.ID)
	}

	claims, err := pkgAuth.ParseAccessToken(testJWTConfig(), resp.AccessToken)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.UserID != user.ID {
		t.Fatalf("expected token user id %s, got %s", user.ID, claims.UserID)
	}
	if claims.Email != user.Email {
		t.Fatalf("expected token email %s, got %s", user.Email, claims.Email)
	}
	if claims.ID == "" {
		t.Fatalf("expected token jti to be set")
	}

	if repo.lastLoginID != user.ID {
		t.Fatalf("expected last login recorded for %s", user.ID)
	}
	if resp.User.LastLoginAt == nil {
		t.Fatalf("expected last login timestamp on user dto")
	}
}

func TestLoginWrongPassword(t *testing.T) {
	t.Parallel()

	user := &models.User{
		ID:           uuid.New(),
		Email:        "owner@example.com",
		PasswordHash: mustHashPassword(t, "right-password"),
		Country:      "NL",
	}
	svc, _ := buildLoginService(t, user)

	_, err := svc.Login(context.Background(), LoginRequest{
		Email:    user.Email,
		Password: "wrong-password",
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized error, got %v", err)
	}
	if typed.Message() != invalidCredentialsMessage {
		t.Fatalf("expected opaque credentials message, got %q", typed.Message())
	}
}

func TestLoginUnknownEmail(t *testing.T) {
	t.Parallel()

	svc, _ := buildLoginService(t, nil)

	_, err := svc.Login(context.Background(), LoginRequest{
		Email:    "ghost@example.com",
		Password: "whatever",
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized error, got %v", err)
	}
}

func TestLoginEmptyCredentials(t *testing.T) {
	t.Parallel()

	svc, _ := buildLoginService(t, nil)

	_, err := svc.Login(context.Background(), LoginRequest{})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized error, got %v", err)
	}
}
