package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/opsdesk/opsdesk/internal/auth"
	"github.com/opsdesk/opsdesk/internal/domain"
)

// Auth authenticates a bearer session token and attaches a TenantContext to
// the request. The three failure classes are deliberate and contractual:
//
//   - no usable Authorization header  -> 401 "access token required"
//   - bad signature or expired token  -> 403 "invalid or expired token"
//   - identity missing or deactivated -> 401 "user not found or inactive"
//
// A structurally valid token is never enough on its own: the identity is
// re-fetched so a deleted or deactivated account is rejected before its
// token expires.
func Auth(jwtSecret string, users domain.UserRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractBearer(r)
			if token == "" {
				writeError(w, http.StatusUnauthorized, "access token required")
				return
			}

			claims, err := auth.ValidateToken(jwtSecret, token)
			if err != nil {
				writeError(w, http.StatusForbidden, "invalid or expired token")
				return
			}

			userID, err := uuid.Parse(claims.UserID)
			if err != nil {
				writeError(w, http.StatusForbidden, "invalid or expired token")
				return
			}

			user, err := users.GetByID(r.Context(), userID)
			if err != nil || !user.Active {
				writeError(w, http.StatusUnauthorized, "user not found or inactive")
				return
			}

			tc := &TenantContext{
				TenantID:  claims.TenantID,
				UserID:    userID,
				Role:      claims.Role,
				Email:     user.Email,
				FirstName: user.FirstName,
				LastName:  user.LastName,
			}

			next.ServeHTTP(w, r.WithContext(WithTenantContext(r.Context(), tc)))
		})
	}
}

func extractBearer(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return header[7:]
	}
	return ""
}

func writeError(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"status":` + strconv.Itoa(status) + `,"error":"` + detail + `"}`))
}
