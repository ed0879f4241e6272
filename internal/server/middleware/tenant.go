package middleware

import "net/http"

// TenantScope rewrites the request's query-parameter channel so anything a
// handler derives from it is pre-scoped to the caller's tenant. The client's
// own tenant_id parameter, if any, is overwritten. Path-addressed lookups
// are not covered by this channel: handlers pass the tenant id to every
// repository call explicitly, and repository signatures require it.
//
// Must be chained after Auth.
func TenantScope() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tc, ok := TenantContextFrom(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			filters := QueryFilters{}
			query := r.URL.Query()
			for key := range query {
				filters[key] = query.Get(key)
			}
			filters["tenant_id"] = tc.TenantID

			next.ServeHTTP(w, r.WithContext(WithFilters(r.Context(), filters)))
		})
	}
}
