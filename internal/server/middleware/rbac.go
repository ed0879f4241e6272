package middleware

import "net/http"

// RequireRole checks the authenticated user's role by exact match. There is
// no role hierarchy: with only admin and member in the system, an admin
// passes an admin check and nothing else. It must be chained after Auth.
//
// Returns 401 when no tenant context is attached and 403, naming the
// required role, on mismatch.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tc, ok := TenantContextFrom(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			if tc.Role != role {
				writeError(w, http.StatusForbidden, role+" role required")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin is a convenience wrapper for RequireRole(domain.RoleAdmin).
func RequireAdmin() func(http.Handler) http.Handler {
	return RequireRole("admin")
}
