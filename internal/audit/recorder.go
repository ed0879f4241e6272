// Package audit persists append-only records of successful state-changing
// actions. Writes are decoupled from the request lifecycle: callers enqueue
// and never wait, a slow store drops new entries instead of accumulating
// unbounded work, and a failed write is logged and swallowed.
package audit

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/opsdesk/opsdesk/internal/domain"
)

// Recorder runs a fixed pool of workers draining a bounded queue of audit
// entries into the repository.
type Recorder struct {
	repo         domain.AuditRepository
	queue        chan *domain.AuditEntry
	writeTimeout time.Duration

	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewRecorder starts workers immediately. queueSize bounds outstanding
// writes; entries enqueued past the bound are dropped.
func NewRecorder(repo domain.AuditRepository, queueSize, workers int, writeTimeout time.Duration) *Recorder {
	r := &Recorder{
		repo:         repo,
		queue:        make(chan *domain.AuditEntry, queueSize),
		writeTimeout: writeTimeout,
	}

	for range workers {
		r.wg.Add(1)
		go r.worker()
	}

	return r
}

// Enqueue submits an entry for asynchronous persistence. It never blocks:
// when the queue is full the entry is dropped and a warning logged.
// Returns false when dropped.
func (r *Recorder) Enqueue(e *domain.AuditEntry) bool {
	select {
	case r.queue <- e:
		return true
	default:
		log.Warn().
			Str("action", e.Action).
			Str("tenant_id", e.TenantID).
			Msg("audit: queue full, dropping entry")
		return false
	}
}

// Close stops accepting entries and waits for queued writes to drain.
func (r *Recorder) Close() {
	r.closeOnce.Do(func() {
		close(r.queue)
	})
	r.wg.Wait()
}

func (r *Recorder) worker() {
	defer r.wg.Done()

	for e := range r.queue {
		ctx, cancel := context.WithTimeout(context.Background(), r.writeTimeout)
		if err := r.repo.Record(ctx, e); err != nil {
			// Non-fatal: the response this entry describes has already been
			// sent to the caller.
			log.Error().Err(err).
				Str("action", e.Action).
				Str("tenant_id", e.TenantID).
				Str("resource", e.Resource).
				Msg("audit: write failed")
		}
		cancel()
	}
}
