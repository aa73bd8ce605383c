package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/cremaze/cremaze/pkg/auth"
	"github.com/cremaze/cremaze/pkg/response"
)

// Identity is the authenticated caller attached to the request context.
type Identity struct {
	UserID  string
	IsAdmin bool
}

type identityKey struct{}

// WithIdentity stores an identity in ctx (used by tests to fake a caller).
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromCtx returns the authenticated identity, if any.
func IdentityFromCtx(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

// Auth verifies the bearer token and attaches the caller's identity to the
// request context. Missing or invalid tokens get a 401.
func Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			response.Unauthorized(w)
			return
		}
		token := strings.TrimPrefix(header, "Bearer ")
		if token == "" {
			response.Unauthorized(w)
			return
		}

		claims, err := auth.ValidateToken(token)
		if err != nil || claims.Subject == auth.RefreshSubject {
			response.Unauthorized(w)
			return
		}

		ctx := WithIdentity(r.Context(), Identity{
			UserID:  claims.UserID,
			IsAdmin: claims.IsAdmin,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
