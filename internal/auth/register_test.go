package auth

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"

	"github.com/storebuddy/storebuddy-backend/pkg/config"
	"github.com/storebuddy/storebuddy-backend/pkg/db"
	"github.com/storebuddy/storebuddy-backend/pkg/db/models"
	pkgerrors "github.com/storebuddy/storebuddy-backend/pkg/errors"
	"github.com/storebuddy/storebuddy-backend/pkg/security"
)

func testPasswordConfig() config.PasswordConfig {
	return config.PasswordConfig{
		ArgonMemoryKB:    32768,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
		MinLength:        6,
	}
}

func openTestClient(t *testing.T) *db.Client {
	t.Helper()

	cfg := config.DBConfig{
		Driver: "sqlite",
		DSN:    fmt.Sprintf("file:auth_%s?mode=memory&cache=shared", uuid.NewString()),
	}
	client, err := db.New(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := client.DB().AutoMigrate(&models.User{}); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func newRegisterService(t *testing.T, client *db.Client) RegisterService {
	t.Helper()

	svc, err := NewRegisterService(RegisterServiceParams{
		DB:             client,
		PasswordConfig: testPasswordConfig(),
	})
	if err != nil {
		t.Fatalf("build register service: %v", err)
	}
	return svc
}

func TestRegisterCreatesUser(t *testing.T) {
	t.Parallel()

	client := openTestClient(t)
	svc := newRegisterService(t, client)

	resp, err := svc.Register(context.Background(), RegisterRequest{
		Email:           "  Owner@Example.COM ",
		Password:        "hunter22",
		ConfirmPassword: "hunter22",
		Country:         "NL",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if resp.User == nil {
		t.Fatalf("expected user in response")
	}
	if resp.User.Email != "owner@example.com" {
		t.Fatalf("expected normalized email, got %q", resp.User.Email)
	}
	if resp.User.ID == uuid.Nil {
		t.Fatalf("expected user id to be assigned")
	}

	var stored models.User
	if err := client.DB().First(&stored, "id = ?", resp.User.ID).Error; err != nil {
		t.Fatalf("load stored user: %v", err)
	}
	valid, err := security.VerifyPassword("hunter22", stored.PasswordHash)
	if err != nil || !valid {
		t.Fatalf("stored hash should verify, valid=%v err=%v", valid, err)
	}
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	t.Parallel()

	client := openTestClient(t)
	svc := newRegisterService(t, client)

	req := RegisterRequest{
		Email:           "dupe@example.com",
		Password:        "hunter22",
		ConfirmPassword: "hunter22",
		Country:         "NL",
	}
	if _, err := svc.Register(context.Background(), req); err != nil {
		t.Fatalf("first register: %v", err)
	}

	_, err := svc.Register(context.Background(), req)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict error, got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	t.Parallel()

	client := openTestClient(t)
	svc := newRegisterService(t, client)

	cases := []struct {
		name string
		req  RegisterRequest
	}{
		{
			name: "missing email",
			req:  RegisterRequest{Password: "hunter22", ConfirmPassword: "hunter22", Country: "NL"},
		},
		{
			name: "short password",
			req:  RegisterRequest{Email: "a@b.com", Password: "abc", ConfirmPassword: "abc", Country: "NL"},
		},
		{
			name: "password mismatch",
			req:  RegisterRequest{Email: "a@b.com", Password: "hunter22", ConfirmPassword: "hunter23", Country: "NL"},
		},
		{
			name: "missing country",
			req:  RegisterRequest{Email: "a@b.com", Password: "hunter22", ConfirmPassword: "hunter22"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tc.req)
			typed := pkgerrors.As(err)
			if typed == nil || typed.Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}
