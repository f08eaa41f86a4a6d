// Package auth provides JWT bearer-token middleware and role checks for the
// HTTP API.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// Role is a caller's permission level carried in the token's "role" claim.
type Role string

const (
	// RoleViewer may read and run queries.
	RoleViewer Role = "viewer"
	// RoleEditor may additionally create, update and delete.
	RoleEditor Role = "editor"
)

type contextKey int

const roleKey contextKey = 0

// RoleFromContext returns the caller's role, or RoleViewer when none is set.
func RoleFromContext(ctx context.Context) Role {
	if r, ok := ctx.Value(roleKey).(Role); ok {
		return r
	}
	return RoleViewer
}

// WithRole returns a context carrying the given role. Used by tests and by
// the passthrough path when auth is disabled.
func WithRole(ctx context.Context, role Role) context.Context {
	return context.WithValue(ctx, roleKey, role)
}

// Middleware validates the Authorization bearer token with the given HMAC
// secret and stores the token's role claim in the request context. Requests
// without a valid token are rejected.
func Middleware(secret string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			tokenString, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || tokenString == "" {
				unauthorized(w, "missing bearer token")
				return
			}

			claims := jwt.MapClaims{}
			_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
				}
				return []byte(secret), nil
			})
			if err != nil {
				logger.Debug("token rejected", zap.Error(err))
				unauthorized(w, "invalid token")
				return
			}

			role := RoleViewer
			if claimed, ok := claims["role"].(string); ok && Role(claimed) == RoleEditor {
				role = RoleEditor
			}
			next.ServeHTTP(w, r.WithContext(WithRole(r.Context(), role)))
		})
	}
}

// RequireEditor rejects requests whose context role is below editor.
func RequireEditor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if RoleFromContext(r.Context()) != RoleEditor {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"code":"access_denied","message":"editor role required"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"code":"access_denied","message":"` + message + `"}`))
}
