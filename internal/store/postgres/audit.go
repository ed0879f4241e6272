package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/opsdesk/opsdesk/internal/domain"
)

// AuditRepo is append-only from the application's point of view: there are
// no update or delete statements for audit_log.
type AuditRepo struct {
	pool *pgxpool.Pool
}

func NewAuditRepo(pool *pgxpool.Pool) *AuditRepo {
	return &AuditRepo{pool: pool}
}

func (r *AuditRepo) Record(ctx context.Context, e *domain.AuditEntry) error {
	details, err := json.Marshal(e.Details)
	if err != nil {
		return fmt.Errorf("auditRepo.Record: marshal details: %w", err)
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO audit_log (id, tenant_id, user_id, action, resource, resource_id, details, ip_address, user_agent, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		e.ID, e.TenantID, e.UserID, e.Action,
		e.Resource, e.ResourceID, details,
		e.IPAddress, e.UserAgent, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("auditRepo.Record: %w", err)
	}

	return nil
}

func (r *AuditRepo) List(ctx context.Context, tenantID string, f domain.AuditFilter) ([]*domain.AuditEntry, error) {
	query, args := auditFilterQuery(
		`SELECT id, tenant_id, user_id, action, resource, resource_id, details, ip_address, user_agent, created_at
		 FROM audit_log`, tenantID, f)
	query += ` ORDER BY created_at DESC, id`
	if f.Limit > 0 {
		query += ` LIMIT ` + strconv.Itoa(f.Limit) + ` OFFSET ` + strconv.Itoa(f.Offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("auditRepo.List: %w", err)
	}
	defer rows.Close()

	return scanAuditEntries(rows, "auditRepo.List")
}

func (r *AuditRepo) Count(ctx context.Context, tenantID string, f domain.AuditFilter) (int64, error) {
	query, args := auditFilterQuery(`SELECT count(*) FROM audit_log`, tenantID, f)

	var n int64
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("auditRepo.Count: %w", err)
	}

	return n, nil
}

func auditFilterQuery(base, tenantID string, f domain.AuditFilter) (string, []any) {
	query := base + ` WHERE tenant_id = $1`
	args := []any{tenantID}

	if f.Action != "" {
		args = append(args, f.Action)
		query += ` AND action = $` + strconv.Itoa(len(args))
	}
	if f.Resource != "" {
		args = append(args, f.Resource)
		query += ` AND resource = $` + strconv.Itoa(len(args))
	}

	return query, args
}

func scanAuditEntries(rows pgx.Rows, caller string) ([]*domain.AuditEntry, error) {
	var entries []*domain.AuditEntry
	for rows.Next() {
		var e domain.AuditEntry
		var details []byte

		if err := rows.Scan(
			&e.ID, &e.TenantID, &e.UserID, &e.Action,
			&e.Resource, &e.ResourceID, &details,
			&e.IPAddress, &e.UserAgent, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", caller, err)
		}
		if err := json.Unmarshal(details, &e.Details); err != nil {
			return nil, fmt.Errorf("%s: unmarshal details: %w", caller, err)
		}
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", caller, err)
	}

	return entries, nil
}
