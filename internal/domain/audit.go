package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Audit resource types. Closed set; free-form actions reference one of these.
const (
	ResourceTicket   = "ticket"
	ResourceUser     = "user"
	ResourceWorkflow = "workflow"
	ResourceAuth     = "auth"
)

// ResourceUnknown is the resource id recorded when a route carries no id
// path parameter.
const ResourceUnknown = "unknown"

// AuditEntry is an immutable record of one successful state-changing action.
// The tenant id always equals the acting user's tenant.
type AuditEntry struct {
	ID         uuid.UUID      `json:"id"`
	TenantID   string         `json:"tenant_id"`
	UserID     uuid.UUID      `json:"user_id"`
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	ResourceID string         `json:"resource_id"`
	Details    map[string]any `json:"details"`
	IPAddress  string         `json:"ip_address"`
	UserAgent  string         `json:"user_agent"`
	CreatedAt  time.Time      `json:"created_at"`
}

// AuditFilter narrows List/Count. Zero values mean "no constraint".
type AuditFilter struct {
	Action   string
	Resource string
	Limit    int
	Offset   int
}

type AuditRepository interface {
	Record(ctx context.Context, e *AuditEntry) error
	List(ctx context.Context, tenantID string, f AuditFilter) ([]*AuditEntry, error)
	Count(ctx context.Context, tenantID string, f AuditFilter) (int64, error)
}
