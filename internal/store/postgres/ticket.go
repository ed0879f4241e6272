package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/opsdesk/opsdesk/internal/domain"
)

type TicketRepo struct {
	pool *pgxpool.Pool
}

func NewTicketRepo(pool *pgxpool.Pool) *TicketRepo {
	return &TicketRepo{pool: pool}
}

const ticketColumns = `id, tenant_id, user_id, assigned_to, title, description, status, priority, tags, workflow_id, workflow_status, created_at, updated_at`

func (r *TicketRepo) Create(ctx context.Context, t *domain.Ticket) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO tickets (`+ticketColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		t.ID, t.TenantID, t.UserID, t.AssignedTo,
		t.Title, t.Description, t.Status, t.Priority, t.Tags,
		nilIfEmpty(t.WorkflowID), t.WorkflowStatus,
		t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("ticketRepo.Create: %w", err)
	}

	return nil
}

// GetByID filters on tenant_id as well as id; a ticket belonging to another
// tenant is indistinguishable from a missing one.
func (r *TicketRepo) GetByID(ctx context.Context, tenantID string, id uuid.UUID) (*domain.Ticket, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+ticketColumns+` FROM tickets WHERE tenant_id = $1 AND id = $2`,
		tenantID, id,
	)
	return scanTicket(row, "ticketRepo.GetByID")
}

func (r *TicketRepo) Update(ctx context.Context, t *domain.Ticket) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE tickets
		 SET title = $1, description = $2, status = $3, priority = $4, tags = $5,
		     assigned_to = $6, workflow_id = $7, workflow_status = $8, updated_at = now()
		 WHERE tenant_id = $9 AND id = $10`,
		t.Title, t.Description, t.Status, t.Priority, t.Tags,
		t.AssignedTo, nilIfEmpty(t.WorkflowID), t.WorkflowStatus,
		t.TenantID, t.ID,
	)
	if err != nil {
		return fmt.Errorf("ticketRepo.Update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("ticketRepo.Update: %w", domain.ErrNotFound)
	}

	return nil
}

func (r *TicketRepo) Delete(ctx context.Context, tenantID string, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM tickets WHERE tenant_id = $1 AND id = $2`,
		tenantID, id,
	)
	if err != nil {
		return fmt.Errorf("ticketRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("ticketRepo.Delete: %w", domain.ErrNotFound)
	}

	return nil
}

func (r *TicketRepo) List(ctx context.Context, tenantID string, f domain.TicketFilter) ([]*domain.Ticket, error) {
	query, args := ticketFilterQuery(`SELECT `+ticketColumns+` FROM tickets`, tenantID, f)
	query += ` ORDER BY created_at DESC, id`
	if f.Limit > 0 {
		query += ` LIMIT ` + strconv.Itoa(f.Limit) + ` OFFSET ` + strconv.Itoa(f.Offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ticketRepo.List: %w", err)
	}
	defer rows.Close()

	var tickets []*domain.Ticket
	for rows.Next() {
		t, scanErr := scanTicket(rows, "ticketRepo.List")
		if scanErr != nil {
			return nil, scanErr
		}
		tickets = append(tickets, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ticketRepo.List: rows: %w", err)
	}

	return tickets, nil
}

func (r *TicketRepo) Count(ctx context.Context, tenantID string, f domain.TicketFilter) (int64, error) {
	query, args := ticketFilterQuery(`SELECT count(*) FROM tickets`, tenantID, f)

	var n int64
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("ticketRepo.Count: %w", err)
	}

	return n, nil
}

func (r *TicketRepo) CountByPriority(ctx context.Context, tenantID string) (map[domain.TicketPriority]int64, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT priority, count(*) FROM tickets WHERE tenant_id = $1 GROUP BY priority`,
		tenantID,
	)
	if err != nil {
		return nil, fmt.Errorf("ticketRepo.CountByPriority: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.TicketPriority]int64)
	for rows.Next() {
		var p domain.TicketPriority
		var n int64
		if err := rows.Scan(&p, &n); err != nil {
			return nil, fmt.Errorf("ticketRepo.CountByPriority: scan: %w", err)
		}
		counts[p] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ticketRepo.CountByPriority: rows: %w", err)
	}

	return counts, nil
}

func (r *TicketRepo) SetWorkflow(ctx context.Context, tenantID string, id uuid.UUID, workflowID string, status domain.WorkflowStatus) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE tickets
		 SET workflow_id = $1, workflow_status = $2, updated_at = now()
		 WHERE tenant_id = $3 AND id = $4`,
		nilIfEmpty(workflowID), status, tenantID, id,
	)
	if err != nil {
		return fmt.Errorf("ticketRepo.SetWorkflow: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("ticketRepo.SetWorkflow: %w", domain.ErrNotFound)
	}

	return nil
}

// ticketFilterQuery appends tenant and optional filter predicates. tenant_id
// is always the first predicate; there is no unscoped variant.
func ticketFilterQuery(base, tenantID string, f domain.TicketFilter) (string, []any) {
	query := base + ` WHERE tenant_id = $1`
	args := []any{tenantID}

	if f.Status != "" {
		args = append(args, f.Status)
		query += ` AND status = $` + strconv.Itoa(len(args))
	}
	if f.Priority != "" {
		args = append(args, f.Priority)
		query += ` AND priority = $` + strconv.Itoa(len(args))
	}

	return query, args
}

func scanTicket(row pgx.Row, caller string) (*domain.Ticket, error) {
	var t domain.Ticket
	var workflowID *string

	err := row.Scan(
		&t.ID, &t.TenantID, &t.UserID, &t.AssignedTo,
		&t.Title, &t.Description, &t.Status, &t.Priority, &t.Tags,
		&workflowID, &t.WorkflowStatus,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", caller, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", caller, err)
	}

	t.WorkflowID = derefStr(workflowID)

	return &t, nil
}
