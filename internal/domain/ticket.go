package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "Open"
	TicketStatusInProgress TicketStatus = "In Progress"
	TicketStatusResolved   TicketStatus = "Resolved"
	TicketStatusClosed     TicketStatus = "Closed"
)

// Valid reports whether s is a known ticket status.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusResolved, TicketStatusClosed:
		return true
	}
	return false
}

type TicketPriority string

const (
	PriorityLow      TicketPriority = "Low"
	PriorityMedium   TicketPriority = "Medium"
	PriorityHigh     TicketPriority = "High"
	PriorityCritical TicketPriority = "Critical"
)

func (p TicketPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// WorkflowStatus tracks the asynchronous automation run attached to a ticket.
type WorkflowStatus string

const (
	WorkflowPending   WorkflowStatus = "Pending"
	WorkflowRunning   WorkflowStatus = "Running"
	WorkflowCompleted WorkflowStatus = "Completed"
	WorkflowFailed    WorkflowStatus = "Failed"
)

type Ticket struct {
	ID             uuid.UUID      `json:"id"`
	TenantID       string         `json:"tenant_id"`
	UserID         uuid.UUID      `json:"user_id"`
	AssignedTo     *uuid.UUID     `json:"assigned_to,omitempty"`
	Title          string         `json:"title"`
	Description    string         `json:"description"`
	Status         TicketStatus   `json:"status"`
	Priority       TicketPriority `json:"priority"`
	Tags           []string       `json:"tags"`
	WorkflowID     string         `json:"workflow_id,omitempty"`
	WorkflowStatus WorkflowStatus `json:"workflow_status"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// TicketFilter narrows List/Count. Zero values mean "no constraint".
type TicketFilter struct {
	Status   TicketStatus
	Priority TicketPriority
	Limit    int
	Offset   int
}

type TicketRepository interface {
	Create(ctx context.Context, t *Ticket) error
	GetByID(ctx context.Context, tenantID string, id uuid.UUID) (*Ticket, error)
	Update(ctx context.Context, t *Ticket) error
	Delete(ctx context.Context, tenantID string, id uuid.UUID) error
	List(ctx context.Context, tenantID string, f TicketFilter) ([]*Ticket, error)
	Count(ctx context.Context, tenantID string, f TicketFilter) (int64, error)
	CountByPriority(ctx context.Context, tenantID string) (map[TicketPriority]int64, error)
	// SetWorkflow updates only the workflow tracking fields.
	SetWorkflow(ctx context.Context, tenantID string, id uuid.UUID, workflowID string, status WorkflowStatus) error
}
