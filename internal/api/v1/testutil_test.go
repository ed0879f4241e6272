package v1_test

import (
	"context"

	"github.com/google/uuid"

	"github.com/opsdesk/opsdesk/internal/auth"
	"github.com/opsdesk/opsdesk/internal/domain"
	"github.com/opsdesk/opsdesk/internal/server/middleware"
)

// ---------------------------------------------------------------------------
// Context helpers: inject tenant/user/role into context for DoCtx
// ---------------------------------------------------------------------------

func memberCtx(tenantID string, userID uuid.UUID) context.Context {
	tc := &middleware.TenantContext{
		TenantID: tenantID,
		UserID:   userID,
		Role:     domain.RoleMember,
		Email:    "member@example.com",
	}
	ctx := middleware.WithTenantContext(context.Background(), tc)
	return middleware.WithFilters(ctx, middleware.QueryFilters{"tenant_id": tenantID})
}

func adminCtx(tenantID string, userID uuid.UUID) context.Context {
	tc := &middleware.TenantContext{
		TenantID: tenantID,
		UserID:   userID,
		Role:     domain.RoleAdmin,
		Email:    "admin@example.com",
	}
	ctx := middleware.WithTenantContext(context.Background(), tc)
	return middleware.WithFilters(ctx, middleware.QueryFilters{"tenant_id": tenantID})
}

// ---------------------------------------------------------------------------
// Mock DataStore
// ---------------------------------------------------------------------------

type mockDataStore struct {
	users   domain.UserRepository
	tickets domain.TicketRepository
	audit   domain.AuditRepository
}

func (m *mockDataStore) Users() domain.UserRepository     { return m.users }
func (m *mockDataStore) Tickets() domain.TicketRepository { return m.tickets }
func (m *mockDataStore) Audit() domain.AuditRepository    { return m.audit }

// ---------------------------------------------------------------------------
// Mock UserRepository
// ---------------------------------------------------------------------------

type mockUserRepo struct {
	createFunc     func(ctx context.Context, u *domain.User) error
	getByIDFunc    func(ctx context.Context, id uuid.UUID) (*domain.User, error)
	getByEmailFunc func(ctx context.Context, email string) (*domain.User, error)
	updateFunc     func(ctx context.Context, u *domain.User) error
	deleteFunc     func(ctx context.Context, tenantID string, id uuid.UUID) error
	listFunc       func(ctx context.Context, tenantID string) ([]*domain.User, error)
	countFunc      func(ctx context.Context, tenantID string, activeOnly bool) (int64, error)
}

func (m *mockUserRepo) Create(ctx context.Context, u *domain.User) error {
	return m.createFunc(ctx, u)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return m.getByIDFunc(ctx, id)
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return m.getByEmailFunc(ctx, email)
}

func (m *mockUserRepo) Update(ctx context.Context, u *domain.User) error {
	return m.updateFunc(ctx, u)
}

func (m *mockUserRepo) Delete(ctx context.Context, tenantID string, id uuid.UUID) error {
	return m.deleteFunc(ctx, tenantID, id)
}

func (m *mockUserRepo) List(ctx context.Context, tenantID string) ([]*domain.User, error) {
	return m.listFunc(ctx, tenantID)
}

func (m *mockUserRepo) Count(ctx context.Context, tenantID string, activeOnly bool) (int64, error) {
	return m.countFunc(ctx, tenantID, activeOnly)
}

// ---------------------------------------------------------------------------
// Mock TicketRepository
// ---------------------------------------------------------------------------

type mockTicketRepo struct {
	createFunc          func(ctx context.Context, t *domain.Ticket) error
	getByIDFunc         func(ctx context.Context, tenantID string, id uuid.UUID) (*domain.Ticket, error)
	updateFunc          func(ctx context.Context, t *domain.Ticket) error
	deleteFunc          func(ctx context.Context, tenantID string, id uuid.UUID) error
	listFunc            func(ctx context.Context, tenantID string, f domain.TicketFilter) ([]*domain.Ticket, error)
	countFunc           func(ctx context.Context, tenantID string, f domain.TicketFilter) (int64, error)
	countByPriorityFunc func(ctx context.Context, tenantID string) (map[domain.TicketPriority]int64, error)
	setWorkflowFunc     func(ctx context.Context, tenantID string, id uuid.UUID, workflowID string, status domain.WorkflowStatus) error
}

func (m *mockTicketRepo) Create(ctx context.Context, t *domain.Ticket) error {
	return m.createFunc(ctx, t)
}

func (m *mockTicketRepo) GetByID(ctx context.Context, tenantID string, id uuid.UUID) (*domain.Ticket, error) {
	return m.getByIDFunc(ctx, tenantID, id)
}

func (m *mockTicketRepo) Update(ctx context.Context, t *domain.Ticket) error {
	return m.updateFunc(ctx, t)
}

func (m *mockTicketRepo) Delete(ctx context.Context, tenantID string, id uuid.UUID) error {
	return m.deleteFunc(ctx, tenantID, id)
}

func (m *mockTicketRepo) List(ctx context.Context, tenantID string, f domain.TicketFilter) ([]*domain.Ticket, error) {
	return m.listFunc(ctx, tenantID, f)
}

func (m *mockTicketRepo) Count(ctx context.Context, tenantID string, f domain.TicketFilter) (int64, error) {
	return m.countFunc(ctx, tenantID, f)
}

func (m *mockTicketRepo) CountByPriority(ctx context.Context, tenantID string) (map[domain.TicketPriority]int64, error) {
	return m.countByPriorityFunc(ctx, tenantID)
}

func (m *mockTicketRepo) SetWorkflow(ctx context.Context, tenantID string, id uuid.UUID, workflowID string, status domain.WorkflowStatus) error {
	return m.setWorkflowFunc(ctx, tenantID, id, workflowID, status)
}

// ---------------------------------------------------------------------------
// Mock AuditRepository
// ---------------------------------------------------------------------------

type mockAuditRepo struct {
	recordFunc func(ctx context.Context, e *domain.AuditEntry) error
	listFunc   func(ctx context.Context, tenantID string, f domain.AuditFilter) ([]*domain.AuditEntry, error)
	countFunc  func(ctx context.Context, tenantID string, f domain.AuditFilter) (int64, error)
}

func (m *mockAuditRepo) Record(ctx context.Context, e *domain.AuditEntry) error {
	return m.recordFunc(ctx, e)
}

func (m *mockAuditRepo) List(ctx context.Context, tenantID string, f domain.AuditFilter) ([]*domain.AuditEntry, error) {
	return m.listFunc(ctx, tenantID, f)
}

func (m *mockAuditRepo) Count(ctx context.Context, tenantID string, f domain.AuditFilter) (int64, error) {
	return m.countFunc(ctx, tenantID, f)
}

// ---------------------------------------------------------------------------
// Mock AuthService
// ---------------------------------------------------------------------------

type mockAuthService struct {
	registerFunc func(ctx context.Context, p auth.RegisterParams) (*domain.User, error)
	loginFunc    func(ctx context.Context, email, password string) (string, *domain.User, error)
	getUserFunc  func(ctx context.Context, userID uuid.UUID) (*domain.User, error)
}

func (m *mockAuthService) Register(ctx context.Context, p auth.RegisterParams) (*domain.User, error) {
	return m.registerFunc(ctx, p)
}

func (m *mockAuthService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	return m.loginFunc(ctx, email, password)
}

func (m *mockAuthService) GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	return m.getUserFunc(ctx, userID)
}

// ---------------------------------------------------------------------------
// Mock EventPublisher / WorkflowDispatcher / audit Enqueuer
// ---------------------------------------------------------------------------

type mockPublisher struct {
	publishFunc func(ctx context.Context, tenantID, event string, data any) error
	published   []string
}

func (m *mockPublisher) PublishTenantEvent(ctx context.Context, tenantID, event string, data any) error {
	m.published = append(m.published, event)
	if m.publishFunc != nil {
		return m.publishFunc(ctx, tenantID, event, data)
	}
	return nil
}

type mockDispatcher struct {
	enqueued []*domain.Ticket
	full     bool
}

func (m *mockDispatcher) Enqueue(t *domain.Ticket) bool {
	if m.full {
		return false
	}
	m.enqueued = append(m.enqueued, t)
	return true
}

type mockEnqueuer struct {
	entries []*domain.AuditEntry
}

func (m *mockEnqueuer) Enqueue(e *domain.AuditEntry) bool {
	m.entries = append(m.entries, e)
	return true
}
