package workflow

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/opsdesk/opsdesk/internal/domain"
)

// Trigger abstracts the engine call for dispatcher testing. *Client
// satisfies this interface.
type Trigger interface {
	Trigger(ctx context.Context, t *domain.Ticket) (string, error)
}

// Dispatcher runs workflow triggers on a bounded pool so ticket creation
// never waits on the engine. On a successful trigger the ticket's workflow
// fields move to Running; on failure they are left Pending for later
// reconciliation and the error is logged.
type Dispatcher struct {
	trigger Trigger
	tickets domain.TicketRepository
	timeout time.Duration
	queue   chan *domain.Ticket

	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewDispatcher starts workers immediately.
func NewDispatcher(trigger Trigger, tickets domain.TicketRepository, queueSize, workers int, timeout time.Duration) *Dispatcher {
	d := &Dispatcher{
		trigger: trigger,
		tickets: tickets,
		timeout: timeout,
		queue:   make(chan *domain.Ticket, queueSize),
	}

	for range workers {
		d.wg.Add(1)
		go d.worker()
	}

	return d
}

// Enqueue submits a ticket for workflow triggering without blocking. When
// the queue is full the trigger is skipped; the ticket stays Pending.
// Returns false when dropped.
func (d *Dispatcher) Enqueue(t *domain.Ticket) bool {
	select {
	case d.queue <- t:
		return true
	default:
		log.Warn().
			Str("ticket_id", t.ID.String()).
			Str("tenant_id", t.TenantID).
			Msg("workflow: queue full, skipping trigger")
		return false
	}
}

// Close stops accepting tickets and waits for in-flight triggers.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() {
		close(d.queue)
	})
	d.wg.Wait()
}

// statusWriteTimeout bounds the workflow-field update after a trigger. The
// write never shares the trigger's deadline: a trigger that succeeds close
// to its deadline must still get its execution id recorded.
const statusWriteTimeout = 5 * time.Second

func (d *Dispatcher) worker() {
	defer d.wg.Done()

	for t := range d.queue {
		d.run(t)
	}
}

func (d *Dispatcher) run(t *domain.Ticket) {
	triggerCtx, cancel := context.WithTimeout(context.Background(), d.timeout)
	execID, err := d.trigger.Trigger(triggerCtx, t)
	cancel()
	if err != nil {
		log.Error().Err(err).
			Str("ticket_id", t.ID.String()).
			Str("tenant_id", t.TenantID).
			Msg("workflow: trigger failed")
		return
	}

	writeCtx, cancel := context.WithTimeout(context.Background(), statusWriteTimeout)
	defer cancel()

	if err := d.tickets.SetWorkflow(writeCtx, t.TenantID, t.ID, execID, domain.WorkflowRunning); err != nil {
		log.Error().Err(err).
			Str("ticket_id", t.ID.String()).
			Str("execution_id", execID).
			Msg("workflow: failed to record execution id")
		return
	}

	log.Info().
		Str("ticket_id", t.ID.String()).
		Str("execution_id", execID).
		Msg("workflow: triggered")
}
