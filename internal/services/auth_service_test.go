package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/druk-edu/school-admin-service/internal/auth"
	"github.com/druk-edu/school-admin-service/internal/models"
	"github.com/druk-edu/school-admin-service/internal/validator"
)

func newAuthFixture(t *testing.T) (*stubUserRepo, *auth.TokenManager, AuthService) {
	t.Helper()

	userRepo := newStubUserRepo()
	repo := &mockRepository{user: userRepo}
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	service := NewAuthService(repo, nil, testLogger(), validator.New(), tokens)
	return userRepo, tokens, service
}

func TestAuthService_RegisterAndLogin(t *testing.T) {
	_, tokens, service := newAuthFixture(t)
	ctx := context.Background()

	registered, err := service.Register(ctx, &RegisterRequest{
		Username: "dorji_w",
		Email:    "dorji@example.com",
		Password: "correct-horse",
		Role:     "teacher",
	})
	if err != nil {
		t.Fatalf("Register() error: %v", err)
	}
	if registered.User.Role != models.RoleTeacher {
		t.Errorf("role = %q, want teacher", registered.User.Role)
	}
	if registered.Token == "" {
		t.Fatal("Register() returned no token")
	}

	claims, err := tokens.Parse(registered.Token)
	if err != nil {
		t.Fatalf("issued token does not parse: %v", err)
	}
	if claims.UserID != registered.User.ID || claims.Role != models.RoleTeacher {
		t.Errorf("claims = %+v, want user %d teacher", claims, registered.User.ID)
	}

	loggedIn, err := service.Login(ctx, &LoginRequest{
		Username: "dorji_w",
		Password: "correct-horse",
	})
	if err != nil {
		t.Fatalf("Login() error: %v", err)
	}
	if loggedIn.User.ID != registered.User.ID {
		t.Errorf("login returned user %d, want %d", loggedIn.User.ID, registered.User.ID)
	}
}

func TestAuthService_Register_DefaultsToStudent(t *testing.T) {
	_, _, service := newAuthFixture(t)

	resp, err := service.Register(context.Background(), &RegisterRequest{
		Username: "pema_l",
		Email:    "pema@example.com",
		Password: "correct-horse",
	})
	if err != nil {
		t.Fatalf("Register() error: %v", err)
	}
	if resp.User.Role != models.RoleStudent {
		t.Errorf("role = %q, want student", resp.User.Role)
	}
}

func TestAuthService_Register_Duplicates(t *testing.T) {
	_, _, service := newAuthFixture(t)
	ctx := context.Background()

	if _, err := service.Register(ctx, &RegisterRequest{
		Username: "dorji_w", Email: "dorji@example.com", Password: "correct-horse",
	}); err != nil {
		t.Fatalf("Register() error: %v", err)
	}

	t.Run("duplicate username", func(t *testing.T) {
		_, err := service.Register(ctx, &RegisterRequest{
			Username: "dorji_w", Email: "other@example.com", Password: "correct-horse",
		})
		if !errors.Is(err, ErrDuplicateUsername) {
			t.Fatalf("Register() error = %v, want ErrDuplicateUsername", err)
		}
	})

	t.Run("duplicate email", func(t *testing.T) {
		_, err := service.Register(ctx, &RegisterRequest{
			Username: "other_u", Email: "dorji@example.com", Password: "correct-horse",
		})
		if !errors.Is(err, ErrDuplicateEmail) {
			t.Fatalf("Register() error = %v, want ErrDuplicateEmail", err)
		}
	})
}

func TestAuthService_Register_Validation(t *testing.T) {
	_, _, service := newAuthFixture(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  *RegisterRequest
	}{
		{"short password", &RegisterRequest{Username: "dorji_w", Email: "a@b.com", Password: "short"}},
		{"bad username characters", &RegisterRequest{Username: "dorji w!", Email: "a@b.com", Password: "correct-horse"}},
		{"bad email", &RegisterRequest{Username: "dorji_w", Email: "nope", Password: "correct-horse"}},
		{"bad role", &RegisterRequest{Username: "dorji_w", Email: "a@b.com", Password: "correct-horse", Role: "headmaster"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.Register(ctx, tt.req)
			var verrs validator.ValidationErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("Register() error = %v, want ValidationErrors", err)
			}
		})
	}
}

func TestAuthService_Login_InvalidCredentials(t *testing.T) {
	_, _, service := newAuthFixture(t)
	ctx := context.Background()

	if _, err := service.Register(ctx, &RegisterRequest{
		Username: "dorji_w", Email: "dorji@example.com", Password: "correct-horse",
	}); err != nil {
		t.Fatalf("Register() error: %v", err)
	}

	// Unknown user and wrong password are indistinguishable.
	tests := []struct {
		name string
		req  *LoginRequest
	}{
		{"unknown user", &LoginRequest{Username: "ghost", Password: "correct-horse"}},
		{"wrong password", &LoginRequest{Username: "dorji_w", Password: "wrong-horse"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.Login(ctx, tt.req)
			if !errors.Is(err, ErrInvalidCredentials) {
				t.Fatalf("Login() error = %v, want ErrInvalidCredentials", err)
			}
		})
	}
}
