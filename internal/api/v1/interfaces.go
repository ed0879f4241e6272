package v1

import (
	"context"

	"github.com/google/uuid"

	"github.com/opsdesk/opsdesk/internal/auth"
	"github.com/opsdesk/opsdesk/internal/domain"
)

// DataStore abstracts the repository accessor pattern for handler testing.
// *postgres.Store satisfies this interface.
type DataStore interface {
	Users() domain.UserRepository
	Tickets() domain.TicketRepository
	Audit() domain.AuditRepository
}

// AuthService abstracts authentication operations for handler testing.
// *auth.Service satisfies this interface.
type AuthService interface {
	Register(ctx context.Context, p auth.RegisterParams) (*domain.User, error)
	Login(ctx context.Context, email, password string) (string, *domain.User, error)
	GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error)
}

// EventPublisher fans realtime events out to the tenant's channel.
// *redis.PubSub satisfies this interface.
type EventPublisher interface {
	PublishTenantEvent(ctx context.Context, tenantID, event string, data any) error
}

// WorkflowDispatcher submits tickets for asynchronous workflow triggering.
// *workflow.Dispatcher satisfies this interface.
type WorkflowDispatcher interface {
	Enqueue(t *domain.Ticket) bool
}
