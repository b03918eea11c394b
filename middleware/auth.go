package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/clerk/clerk-sdk-go/v2/jwt"

	"habitgarden-api/internal/user"
)

type contextKey string

const UserIDKey contextKey = "userID"

// UserResolver is the slice of the user service the gate needs: an
// idempotent found-or-create for the provider subject id.
type UserResolver interface {
	EnsureUser(ctx context.Context, id string) (*user.User, error)
}

// AuthMiddleware validates provider-issued bearer tokens and guarantees
// a local user record exists before any habit, progress or streak
// operation runs. The resolved user id is stored on the request context.
func AuthMiddleware(users UserResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				RecordAuthRejection("missing_header")
				unauthorized(w, "Authorization header missing")
				return
			}

			token := strings.TrimPrefix(authHeader, "Bearer ")
			if token == authHeader || token == "" {
				RecordAuthRejection("malformed_header")
				unauthorized(w, "Invalid authorization header format. Use 'Bearer <token>'")
				return
			}

			claims, err := jwt.Verify(r.Context(), &jwt.VerifyParams{
				Token: token,
			})
			if err != nil {
				log.Printf("Token verification failed: %v", err)
				RecordAuthRejection("invalid_token")
				unauthorized(w, fmt.Sprintf("Invalid token: %v", err))
				return
			}

			u, err := users.EnsureUser(r.Context(), claims.Subject)
			if err != nil {
				log.Printf("Failed to resolve local user for %s: %v", claims.Subject, err)
				respondError(w, http.StatusInternalServerError, "Authentication error")
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, u.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserID extracts the authenticated user id from the request context.
func GetUserID(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDKey).(string)
	return userID, ok
}

func unauthorized(w http.ResponseWriter, message string) {
	respondError(w, http.StatusUnauthorized, message)
}

func respondError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]any{
		"success":    false,
		"message":    message,
		"statusCode": code,
	})
}
