package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/maskoff-app/maskoffgo/internal/utils"
)

type contextKey string

const userContextKey contextKey = "user"

// Auth returns a middleware that verifies Bearer JWT tokens and stores the
// authenticated user id in the request context
func Auth(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "Authorization header required", http.StatusUnauthorized)
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				http.Error(w, "Invalid authorization header format", http.StatusUnauthorized)
				return
			}

			claims, err := utils.ValidateToken(parts[1], jwtSecret)
			if err != nil {
				http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
				return
			}

			userID, _ := claims["id"].(string)
			if userID == "" {
				http.Error(w, "Invalid token claims", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), userContextKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserID extracts the authenticated user id from the request context.
// Returns an empty string on unauthenticated requests.
func UserID(r *http.Request) string {
	id, _ := r.Context().Value(userContextKey).(string)
	return id
}
