package middleware

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const (
	ContextKeyTenant  contextKey = "tenant_context"
	ContextKeyFilters contextKey = "query_filters"
)

// TenantContext is derived per request by the Auth middleware and never
// persisted or cached across requests. It merges token claims with live
// identity fields.
type TenantContext struct {
	TenantID  string
	UserID    uuid.UUID
	Role      string
	Email     string
	FirstName string
	LastName  string
}

// QueryFilters is the merged query-parameter set handed to list handlers.
// The tenant scope middleware guarantees its "tenant_id" key holds the
// caller's tenant, overriding anything the client supplied.
type QueryFilters map[string]string

func WithTenantContext(ctx context.Context, tc *TenantContext) context.Context {
	return context.WithValue(ctx, ContextKeyTenant, tc)
}

func TenantContextFrom(ctx context.Context) (*TenantContext, bool) {
	tc, ok := ctx.Value(ContextKeyTenant).(*TenantContext)
	return tc, ok && tc != nil
}

func WithFilters(ctx context.Context, f QueryFilters) context.Context {
	return context.WithValue(ctx, ContextKeyFilters, f)
}

func FiltersFrom(ctx context.Context) (QueryFilters, bool) {
	f, ok := ctx.Value(ContextKeyFilters).(QueryFilters)
	return f, ok
}

// ScopedTenantID returns the tenant every storage operation on this request
// must filter by. The enforced query filters win; the tenant context is the
// fallback for routes without the scope middleware.
func ScopedTenantID(ctx context.Context) (string, bool) {
	if f, ok := FiltersFrom(ctx); ok {
		if tid := f["tenant_id"]; tid != "" {
			return tid, true
		}
	}
	if tc, ok := TenantContextFrom(ctx); ok {
		return tc.TenantID, true
	}
	return "", false
}
