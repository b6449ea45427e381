package middleware

import (
	"context"
	"errors"
	"net/http"

	"postboard/internal/httputil"
	"postboard/internal/model"
)

// TokenHeader carries the signed access token.
const TokenHeader = "authentication-token"

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	// UserIDKey is the context key for the authenticated user's ID
	UserIDKey contextKey = "user_id"
)

// TokenVerifier resolves a token to the user ID it was issued for.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// AuthMiddleware rejects requests without a valid token in the
// authentication-token header and stores the user ID in the request context.
// It checks identity only; any valid token may call any guarded route.
func AuthMiddleware(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := verifier.Verify(r.Header.Get(TokenHeader))
			switch {
			case err == nil:
			case errors.Is(err, model.ErrTokenMissing):
				httputil.WriteUnauthorized(w, "No token, authentication denied")
				return
			case errors.Is(err, model.ErrTokenExpired):
				httputil.WriteUnauthorizedWithCode(w, model.CodeTokenExpired, "Token has expired")
				return
			default:
				httputil.WriteUnauthorizedWithCode(w, model.CodeTokenInvalid, "Token is not valid")
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserIDFromContext extracts the user ID from the request context
func GetUserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDKey).(string)
	return userID, ok && userID != ""
}
