package audit_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsdesk/opsdesk/internal/audit"
	"github.com/opsdesk/opsdesk/internal/domain"
)

type mockAuditRepo struct {
	mu         sync.Mutex
	recorded   []*domain.AuditEntry
	recordFunc func(ctx context.Context, e *domain.AuditEntry) error
}

func (m *mockAuditRepo) Record(ctx context.Context, e *domain.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.recordFunc != nil {
		if err := m.recordFunc(ctx, e); err != nil {
			return err
		}
	}
	m.recorded = append(m.recorded, e)
	return nil
}

func (m *mockAuditRepo) List(context.Context, string, domain.AuditFilter) ([]*domain.AuditEntry, error) {
	panic("not used")
}

func (m *mockAuditRepo) Count(context.Context, string, domain.AuditFilter) (int64, error) {
	panic("not used")
}

func (m *mockAuditRepo) entries() []*domain.AuditEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*domain.AuditEntry(nil), m.recorded...)
}

func entry(action string) *domain.AuditEntry {
	return &domain.AuditEntry{
		ID:        uuid.New(),
		TenantID:  "acme",
		UserID:    uuid.New(),
		Action:    action,
		Resource:  domain.ResourceTicket,
		CreatedAt: time.Now().UTC(),
	}
}

func TestRecorder(t *testing.T) {
	t.Parallel()

	t.Run("enqueued_entries_are_persisted", func(t *testing.T) {
		t.Parallel()

		repo := &mockAuditRepo{}
		rec := audit.NewRecorder(repo, 16, 2, time.Second)

		for range 5 {
			require.True(t, rec.Enqueue(entry("create_ticket")))
		}

		rec.Close()

		assert.Len(t, repo.entries(), 5)
	})

	t.Run("full_queue_drops_new_entries", func(t *testing.T) {
		t.Parallel()

		// Zero workers, capacity 2: the third enqueue must drop.
		repo := &mockAuditRepo{}
		rec := audit.NewRecorder(repo, 2, 0, time.Second)

		assert.True(t, rec.Enqueue(entry("a")))
		assert.True(t, rec.Enqueue(entry("b")))
		assert.False(t, rec.Enqueue(entry("c")), "enqueue past capacity must drop, not block")
	})

	t.Run("write_failure_is_swallowed", func(t *testing.T) {
		t.Parallel()

		var attempts int
		repo := &mockAuditRepo{
			recordFunc: func(_ context.Context, e *domain.AuditEntry) error {
				attempts++
				if e.Action == "poison" {
					return errors.New("insert failed")
				}
				return nil
			},
		}
		rec := audit.NewRecorder(repo, 16, 1, time.Second)

		require.True(t, rec.Enqueue(entry("poison")))
		require.True(t, rec.Enqueue(entry("create_ticket")))

		rec.Close()

		// The failed write is dropped; the one after it still lands.
		assert.Equal(t, 2, attempts)
		require.Len(t, repo.entries(), 1)
		assert.Equal(t, "create_ticket", repo.entries()[0].Action)
	})

	t.Run("close_drains_queue", func(t *testing.T) {
		t.Parallel()

		repo := &mockAuditRepo{}
		rec := audit.NewRecorder(repo, 64, 1, time.Second)

		for range 50 {
			rec.Enqueue(entry("update_ticket"))
		}

		rec.Close()

		assert.Len(t, repo.entries(), 50, "Close must wait for queued writes")
	})

	t.Run("close_is_idempotent", func(t *testing.T) {
		t.Parallel()

		rec := audit.NewRecorder(&mockAuditRepo{}, 4, 1, time.Second)
		rec.Close()
		rec.Close()
	})
}
