package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/tripmate/tripledger/internal/auth"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// ViewerIDKey is the context key for the authenticated viewer's member ID.
const ViewerIDKey contextKey = "viewer_id"

// GetViewerID extracts the viewer's member ID from the context.
// Returns empty string if not found.
func GetViewerID(ctx context.Context) string {
	viewerID, _ := ctx.Value(ViewerIDKey).(string)
	return viewerID
}

// ViewerIdentity returns middleware that extracts the viewer's member ID
// from a Bearer token when one is present. Requests without a token pass
// through unauthenticated; handlers that need a viewer decide for
// themselves whether to reject or fall back to an explicit parameter.
func ViewerIdentity(jwtManager *auth.JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader != "" {
				parts := strings.Split(authHeader, " ")
				if len(parts) == 2 && parts[0] == "Bearer" {
					claims, err := jwtManager.Validate(parts[1])
					if err == nil {
						ctx := context.WithValue(r.Context(), ViewerIDKey, claims.MemberID)
						r = r.WithContext(ctx)
					}
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
