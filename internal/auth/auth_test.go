package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		authHeader string
		wantStatus int
		wantRole   Role
	}{
		{
			"viewer token",
			"Bearer " + signTokenFor(t, testSecret, "viewer"),
			http.StatusOK, RoleViewer,
		},
		{
			"editor token",
			"Bearer " + signTokenFor(t, testSecret, "editor"),
			http.StatusOK, RoleEditor,
		},
		{
			"unknown role falls back to viewer",
			"Bearer " + signTokenFor(t, testSecret, "admin"),
			http.StatusOK, RoleViewer,
		},
		{
			"no role claim falls back to viewer",
			"Bearer " + signToken(t, testSecret, jwt.MapClaims{"sub": "x"}),
			http.StatusOK, RoleViewer,
		},
		{"missing header", "", http.StatusUnauthorized, ""},
		{"not a bearer header", "Basic abc", http.StatusUnauthorized, ""},
		{"garbage token", "Bearer not.a.token", http.StatusUnauthorized, ""},
		{
			"wrong secret",
			"Bearer " + signTokenFor(t, "other-secret", "editor"),
			http.StatusUnauthorized, "",
		},
		{
			"expired token",
			"Bearer " + signToken(t, testSecret, jwt.MapClaims{
				"role": "editor",
				"exp":  time.Now().Add(-time.Hour).Unix(),
			}),
			http.StatusUnauthorized, "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotRole Role
			handler := Middleware(testSecret, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotRole = RoleFromContext(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/v1/queries", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusOK && gotRole != tt.wantRole {
				t.Errorf("role = %q, want %q", gotRole, tt.wantRole)
			}
		})
	}
}

func signTokenFor(t *testing.T, secret, role string) string {
	t.Helper()
	return signToken(t, secret, jwt.MapClaims{"role": role})
}

func TestRequireEditor(t *testing.T) {
	var called bool
	handler := RequireEditor(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/queries", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req.WithContext(WithRole(req.Context(), RoleViewer)))
	if rec.Code != http.StatusForbidden {
		t.Errorf("viewer status = %d, want 403", rec.Code)
	}
	if called {
		t.Error("handler ran for a viewer")
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req.WithContext(WithRole(req.Context(), RoleEditor)))
	if rec.Code != http.StatusOK {
		t.Errorf("editor status = %d, want 200", rec.Code)
	}
	if !called {
		t.Error("handler did not run for an editor")
	}
}

func TestRoleFromContext_Default(t *testing.T) {
	if got := RoleFromContext(context.Background()); got != RoleViewer {
		t.Errorf("default role = %q, want viewer", got)
	}
}
