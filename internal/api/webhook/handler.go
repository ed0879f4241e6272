// Package webhook receives asynchronous completion and failure callbacks
// from the external workflow engine. It is a trust boundary independent of
// the session-token mechanism: requests are authenticated by a shared secret
// header only, and that secret is never interchangeable with the JWT signing
// secret.
package webhook

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/opsdesk/opsdesk/internal/domain"
	redisstore "github.com/opsdesk/opsdesk/internal/store/redis"
)

// SecretHeader carries the shared secret on inbound callbacks.
const SecretHeader = "X-Webhook-Secret" //nolint:gosec // G101: header name, not a credential

// Recorder accepts audit entries for asynchronous persistence.
// *audit.Recorder satisfies this interface.
type Recorder interface {
	Enqueue(e *domain.AuditEntry) bool
}

// Publisher fans realtime events out to the tenant's channel.
// *redis.PubSub satisfies this interface.
type Publisher interface {
	PublishTenantEvent(ctx context.Context, tenantID, event string, data any) error
}

// Handler processes workflow engine callbacks.
type Handler struct {
	secret  string
	tickets domain.TicketRepository
	audit   Recorder
	events  Publisher
}

// NewHandler creates a webhook handler. The secret is immutable after
// construction.
func NewHandler(secret string, tickets domain.TicketRepository, audit Recorder, events Publisher) *Handler {
	return &Handler{
		secret:  secret,
		tickets: tickets,
		audit:   audit,
		events:  events,
	}
}

// callbackPayload is the body of both callback variants.
type callbackPayload struct {
	TicketID   string `json:"ticket_id"`
	TenantID   string `json:"tenant_id"`
	Status     string `json:"status,omitempty"`
	WorkflowID string `json:"workflow_id,omitempty"`
	Error      string `json:"error,omitempty"`
}

type callbackResponse struct {
	Success bool          `json:"success"`
	Ticket  ticketSummary `json:"ticket"`
}

type ticketSummary struct {
	ID             uuid.UUID             `json:"id"`
	Status         domain.TicketStatus   `json:"status"`
	WorkflowStatus domain.WorkflowStatus `json:"workflow_status"`
}

// TicketDone is an http.HandlerFunc for POST /webhook/ticket-done.
func (h *Handler) TicketDone(w http.ResponseWriter, r *http.Request) {
	payload, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	status := domain.TicketStatusResolved
	if payload.Status != "" {
		status = domain.TicketStatus(payload.Status)
		if !status.Valid() {
			writeJSONError(w, http.StatusBadRequest, "invalid ticket status")
			return
		}
	}

	ticket, ok := h.lookupTicket(w, r.Context(), payload)
	if !ok {
		return
	}

	previousStatus := ticket.Status
	ticket.Status = status
	ticket.WorkflowStatus = domain.WorkflowCompleted
	if payload.WorkflowID != "" {
		ticket.WorkflowID = payload.WorkflowID
	}

	if err := h.tickets.Update(r.Context(), ticket); err != nil {
		log.Error().Err(err).Str("ticket_id", ticket.ID.String()).Msg("webhook: ticket update failed")
		writeJSONError(w, http.StatusInternalServerError, "webhook processing failed")
		return
	}

	h.recordAudit(ticket, "workflow_completed", map[string]any{
		"workflow_id":     ticket.WorkflowID,
		"previous_status": previousStatus,
		"new_status":      ticket.Status,
		"source":          "workflow_webhook",
	}, r)

	h.publish(r.Context(), ticket.TenantID, redisstore.EventTicketWorkflowCompleted, map[string]any{
		"ticket":      ticket,
		"workflow_id": ticket.WorkflowID,
	})

	log.Info().
		Str("ticket_id", ticket.ID.String()).
		Str("tenant_id", ticket.TenantID).
		Msg("webhook: workflow completed")

	writeSummary(w, ticket)
}

// TicketFailed is an http.HandlerFunc for POST /webhook/ticket-failed.
func (h *Handler) TicketFailed(w http.ResponseWriter, r *http.Request) {
	payload, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	ticket, ok := h.lookupTicket(w, r.Context(), payload)
	if !ok {
		return
	}

	ticket.WorkflowStatus = domain.WorkflowFailed
	if payload.WorkflowID != "" {
		ticket.WorkflowID = payload.WorkflowID
	}

	if err := h.tickets.Update(r.Context(), ticket); err != nil {
		log.Error().Err(err).Str("ticket_id", ticket.ID.String()).Msg("webhook: ticket update failed")
		writeJSONError(w, http.StatusInternalServerError, "webhook processing failed")
		return
	}

	h.recordAudit(ticket, "workflow_failed", map[string]any{
		"workflow_id": ticket.WorkflowID,
		"error":       payload.Error,
		"source":      "workflow_webhook",
	}, r)

	h.publish(r.Context(), ticket.TenantID, redisstore.EventTicketWorkflowFailed, map[string]any{
		"ticket":      ticket,
		"workflow_id": ticket.WorkflowID,
		"error":       payload.Error,
	})

	log.Warn().
		Str("ticket_id", ticket.ID.String()).
		Str("tenant_id", ticket.TenantID).
		Str("error", payload.Error).
		Msg("webhook: workflow failed")

	writeSummary(w, ticket)
}

// authenticate verifies the shared secret before anything touches storage,
// then decodes and validates the payload. Returns ok=false after writing an
// error response.
func (h *Handler) authenticate(w http.ResponseWriter, r *http.Request) (*callbackPayload, bool) {
	provided := r.Header.Get(SecretHeader)
	if provided == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(h.secret)) != 1 {
		writeJSONError(w, http.StatusUnauthorized, "unauthorized")
		return nil, false
	}

	var payload callbackPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON")
		return nil, false
	}

	if payload.TicketID == "" || payload.TenantID == "" {
		writeJSONError(w, http.StatusBadRequest, "missing required fields: ticket_id, tenant_id")
		return nil, false
	}

	return &payload, true
}

// lookupTicket resolves the callback's ticket by id AND tenant id. A ticket
// under a different tenant is reported as not found, exactly like a missing
// one.
func (h *Handler) lookupTicket(w http.ResponseWriter, ctx context.Context, payload *callbackPayload) (*domain.Ticket, bool) {
	ticketID, err := uuid.Parse(payload.TicketID)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid ticket_id")
		return nil, false
	}

	ticket, err := h.tickets.GetByID(ctx, payload.TenantID, ticketID)
	if errors.Is(err, domain.ErrNotFound) {
		writeJSONError(w, http.StatusNotFound, "ticket not found")
		return nil, false
	}
	if err != nil {
		log.Error().Err(err).
			Str("ticket_id", payload.TicketID).
			Str("tenant_id", payload.TenantID).
			Msg("webhook: ticket lookup failed")
		writeJSONError(w, http.StatusInternalServerError, "failed to load ticket")
		return nil, false
	}

	return ticket, true
}

func (h *Handler) recordAudit(ticket *domain.Ticket, action string, details map[string]any, r *http.Request) {
	userAgent := r.UserAgent()
	if userAgent == "" {
		userAgent = "workflow-webhook"
	}

	h.audit.Enqueue(&domain.AuditEntry{
		ID:         uuid.New(),
		TenantID:   ticket.TenantID,
		UserID:     ticket.UserID,
		Action:     action,
		Resource:   domain.ResourceWorkflow,
		ResourceID: ticket.ID.String(),
		Details:    details,
		IPAddress:  r.RemoteAddr,
		UserAgent:  userAgent,
		CreatedAt:  time.Now().UTC(),
	})
}

func (h *Handler) publish(ctx context.Context, tenantID, event string, data any) {
	if err := h.events.PublishTenantEvent(ctx, tenantID, event, data); err != nil {
		log.Warn().Err(err).Str("tenant_id", tenantID).Str("event", event).Msg("webhook: event publish failed")
	}
}

func writeSummary(w http.ResponseWriter, ticket *domain.Ticket) {
	w.Header().Set("Content-Type", "application/json")
	resp := callbackResponse{
		Success: true,
		Ticket: ticketSummary{
			ID:             ticket.ID,
			Status:         ticket.Status,
			WorkflowStatus: ticket.WorkflowStatus,
		},
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Error().Err(err).Msg("webhook: encode response")
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": message}); err != nil {
		log.Error().Err(err).Msg("webhook: encode error response")
	}
}
