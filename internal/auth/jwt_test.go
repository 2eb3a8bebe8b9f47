package auth

import (
	"testing"
	"time"

	"github.com/druk-edu/school-admin-service/internal/models"
)

func TestTokenManager_RoundTrip(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Hour)

	user := &models.User{
		ID:   42,
		Role: models.RoleTeacher,
	}

	token, err := tm.Generate(user)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	claims, err := tm.Parse(token)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if claims.UserID != 42 {
		t.Errorf("UserID = %d, want 42", claims.UserID)
	}
	if claims.Role != models.RoleTeacher {
		t.Errorf("Role = %q, want %q", claims.Role, models.RoleTeacher)
	}
}

func TestTokenManager_WrongSecret(t *testing.T) {
	issuer := NewTokenManager("issuer-secret", time.Hour)
	verifier := NewTokenManager("other-secret", time.Hour)

	user := &models.User{ID: 1, Role: models.RoleStudent}
	token, err := issuer.Generate(user)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if _, err := verifier.Parse(token); err == nil {
		t.Fatal("expected parse error for token signed with another secret")
	}
}

func TestTokenManager_Expired(t *testing.T) {
	tm := NewTokenManager("test-secret", -time.Minute)

	user := &models.User{ID: 1, Role: models.RoleStudent}
	token, err := tm.Generate(user)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if _, err := tm.Parse(token); err == nil {
		t.Fatal("expected parse error for expired token")
	}
}

func TestTokenManager_Garbage(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Hour)

	for _, token := range []string{"", "not.a.token", "eyJhbGciOiJub25lIn0.e30."} {
		if _, err := tm.Parse(token); err == nil {
			t.Errorf("Parse(%q): expected error", token)
		}
	}
}
