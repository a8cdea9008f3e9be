package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/popcornpicks/backend/internal/auth"
	"github.com/popcornpicks/backend/internal/logging"
)

// TokenVerifier validates bearer tokens.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// RequireAuth admits requests carrying a valid bearer token and stores its
// claims on the request context. A missing token is answered with 401, an
// invalid or expired one with 403.
func RequireAuth(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := logging.FromContext(r.Context())

			token := bearerToken(r.Header.Get("Authorization"))
			if token == "" {
				writeError(w, http.StatusUnauthorized, "Access token required")
				return
			}
			if verifier == nil {
				logger.Error("token verifier unavailable")
				writeError(w, http.StatusInternalServerError, "Internal server error")
				return
			}

			claims, err := verifier.Verify(token)
			if err != nil {
				if errors.Is(err, auth.ErrTokenMissing) {
					writeError(w, http.StatusUnauthorized, "Access token required")
					return
				}
				logger.Warn("rejected bearer token", "error", err)
				writeError(w, http.StatusForbidden, "Invalid or expired token")
				return
			}

			ctx := auth.WithClaims(r.Context(), claims)
			ctx = logging.WithLogger(ctx, logger.With("user_id", claims.UserID))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken extracts the credential from an "Authorization: Bearer <token>" header.
func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
