package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/druk-edu/school-admin-service/internal/auth"
	"github.com/druk-edu/school-admin-service/internal/models"
)

func newAuthRouter(t *testing.T, tokens *auth.TokenManager, roles ...models.UserRole) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	am := NewJWTAuthMiddleware(tokens)

	router := gin.New()
	group := router.Group("/", am.AuthMiddleware())
	if len(roles) > 0 {
		group.Use(am.RequireRoleMiddleware(roles...))
	}
	group.GET("/whoami", func(c *gin.Context) {
		id, _ := c.Get("user_id")
		role, _ := c.Get("user_role")
		c.JSON(http.StatusOK, gin.H{"id": id, "role": role})
	})

	return router
}

func authRequest(router *gin.Engine, header string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	router.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	router := newAuthRouter(t, tokens)

	token, err := tokens.Generate(&models.User{ID: 42, Role: models.RoleStudent})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"valid token", "Bearer " + token, http.StatusOK},
		{"lowercase scheme", "bearer " + token, http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + token, http.StatusUnauthorized},
		{"no token", "Bearer", http.StatusUnauthorized},
		{"garbage token", "Bearer not-a-token", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := authRequest(router, tt.header); w.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", w.Code, tt.want, w.Body.String())
			}
		})
	}

	t.Run("expired token", func(t *testing.T) {
		expired := auth.NewTokenManager("test-secret", -time.Minute)
		token, err := expired.Generate(&models.User{ID: 42, Role: models.RoleStudent})
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		if w := authRequest(router, "Bearer "+token); w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
		}
	})
}

func TestRequireRoleMiddleware(t *testing.T) {
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	router := newAuthRouter(t, tokens, models.RoleTeacher)

	tests := []struct {
		name string
		role models.UserRole
		want int
	}{
		{"teacher allowed", models.RoleTeacher, http.StatusOK},
		{"admin always allowed", models.RoleAdmin, http.StatusOK},
		{"student forbidden", models.RoleStudent, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := tokens.Generate(&models.User{ID: 1, Role: tt.role})
			if err != nil {
				t.Fatalf("Generate: %v", err)
			}
			if w := authRequest(router, "Bearer "+token); w.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", w.Code, tt.want, w.Body.String())
			}
		})
	}
}
