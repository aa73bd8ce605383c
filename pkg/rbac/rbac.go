// Package rbac provides the admin gate for back-office routes.
package rbac

import (
	"net/http"

	"github.com/cremaze/cremaze/pkg/middleware"
	"github.com/cremaze/cremaze/pkg/response"
)

// Admin allows access only to callers whose token carries the admin flag.
// Requires middleware.Auth to have already run.
func Admin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := middleware.IdentityFromCtx(r.Context())
		if !ok || !id.IsAdmin {
			response.Forbidden(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}
