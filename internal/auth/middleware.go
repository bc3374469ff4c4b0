package auth

import (
	"net/http"
	"strings"

	"github.com/worktally/worktally-backend/internal/auth/jwt"
	"github.com/worktally/worktally-backend/pkg/errors"
	"github.com/worktally/worktally-backend/pkg/httputil"
	"github.com/worktally/worktally-backend/pkg/tenant"
)

// Middleware resolves the caller's identity from the Authorization header and
// places user and tenant context on the request. Requests without a valid
// bearer token are rejected before any handler or repository runs.
//
// /health is exempt so monitoring works without credentials.
func Middleware(manager *jwt.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/health" {
				next.ServeHTTP(w, r)
				return
			}

			header := r.Header.Get("Authorization")
			if header == "" {
				httputil.Error(w, errors.Unauthorized("missing authorization header"))
				return
			}

			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				httputil.Error(w, errors.Unauthorized("malformed authorization header"))
				return
			}

			claims, err := manager.VerifyAccessToken(parts[1])
			if err != nil {
				httputil.Error(w, err)
				return
			}

			ctx := httputil.WithUserContext(r.Context(), claims.UserID, claims.Role)
			ctx = tenant.WithTenantID(ctx, claims.TenantID)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin gates a route on the resolved role claim.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if httputil.GetUserRole(r.Context()) != "admin" {
			httputil.Error(w, errors.Forbidden("admin role required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}
