package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Role constants. Authorization is exact-match only; an admin does not
// implicitly satisfy a member requirement.
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// User is an account belonging to a single tenant. Tenants are a partition
// key on every record, not a stored entity of their own.
type User struct {
	ID           uuid.UUID `json:"id"`
	TenantID     string    `json:"tenant_id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Role         string    `json:"role"` // "admin" or "member"
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type UserRepository interface {
	Create(ctx context.Context, u *User) error
	// GetByID is deliberately unscoped: token verification must find the
	// account before any tenant context exists.
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	// GetByEmail is unscoped as well; emails are globally unique so login
	// by email alone is deterministic.
	GetByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, u *User) error
	Delete(ctx context.Context, tenantID string, id uuid.UUID) error
	List(ctx context.Context, tenantID string) ([]*User, error)
	Count(ctx context.Context, tenantID string, activeOnly bool) (int64, error)
}
