package v1

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/opsdesk/opsdesk/internal/domain"
	"github.com/opsdesk/opsdesk/internal/server/middleware"
	redisstore "github.com/opsdesk/opsdesk/internal/store/redis"
)

type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

type ListTicketsInput struct {
	Status   string `query:"status" enum:",Open,In Progress,Resolved,Closed" doc:"Filter by status"`
	Priority string `query:"priority" enum:",Low,Medium,High,Critical" doc:"Filter by priority"`
	Page     int    `query:"page" minimum:"1" default:"1" doc:"Page number"`
	Limit    int    `query:"limit" minimum:"1" maximum:"100" default:"10" doc:"Page size"`
}

type ListTicketsOutput struct {
	Body struct {
		Tickets    []*domain.Ticket `json:"tickets"`
		Pagination Pagination       `json:"pagination"`
	}
}

type GetTicketInput struct {
	ID uuid.UUID `path:"id" doc:"Ticket ID"`
}

type GetTicketOutput struct {
	Body *domain.Ticket
}

type CreateTicketInput struct {
	Body struct {
		Title       string   `json:"title" minLength:"1" maxLength:"500" doc:"Ticket title"`
		Description string   `json:"description" minLength:"1" doc:"Ticket description"`
		Priority    string   `json:"priority,omitempty" enum:"Low,Medium,High,Critical" doc:"Priority (defaults to Medium)"`
		Tags        []string `json:"tags,omitempty" doc:"Free-form tags"`
	}
}

type CreateTicketOutput struct {
	Body *domain.Ticket
}

type UpdateTicketInput struct {
	ID   uuid.UUID `path:"id" doc:"Ticket ID"`
	Body struct {
		Title       string     `json:"title,omitempty" maxLength:"500" doc:"Ticket title"`
		Description string     `json:"description,omitempty" doc:"Ticket description"`
		Status      string     `json:"status,omitempty" enum:"Open,In Progress,Resolved,Closed" doc:"Ticket status"`
		Priority    string     `json:"priority,omitempty" enum:"Low,Medium,High,Critical" doc:"Priority"`
		Tags        []string   `json:"tags,omitempty" doc:"Free-form tags"`
		AssignedTo  *uuid.UUID `json:"assigned_to,omitempty" doc:"Assigned user ID"`
	}
}

type UpdateTicketOutput struct {
	Body *domain.Ticket
}

type DeleteTicketInput struct {
	ID uuid.UUID `path:"id" doc:"Ticket ID"`
}

type DeleteTicketOutput struct {
	Body struct {
		Message string `json:"message"`
	}
}

func RegisterTicketRoutes(api huma.API, store DataStore, workflows WorkflowDispatcher, events EventPublisher, rec middleware.Enqueuer) {
	huma.Register(api, huma.Operation{
		OperationID: "list-tickets",
		Method:      http.MethodGet,
		Path:        "/tickets",
		Summary:     "List tickets for the caller's tenant",
		Tags:        []string{"Tickets"},
	}, func(ctx context.Context, input *ListTicketsInput) (*ListTicketsOutput, error) {
		tenantID, ok := middleware.ScopedTenantID(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing tenant context")
		}

		filter := domain.TicketFilter{
			Status:   domain.TicketStatus(input.Status),
			Priority: domain.TicketPriority(input.Priority),
			Limit:    input.Limit,
			Offset:   (input.Page - 1) * input.Limit,
		}

		tickets, err := store.Tickets().List(ctx, tenantID, filter)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list tickets", err)
		}
		if tickets == nil {
			// No rows leaves the slice nil; the response array stays [].
			tickets = []*domain.Ticket{}
		}

		total, err := store.Tickets().Count(ctx, tenantID, filter)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to count tickets", err)
		}

		out := &ListTicketsOutput{}
		out.Body.Tickets = tickets
		out.Body.Pagination = paginate(input.Page, input.Limit, total)
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-ticket",
		Method:      http.MethodGet,
		Path:        "/tickets/{id}",
		Summary:     "Get a ticket by ID",
		Tags:        []string{"Tickets"},
	}, func(ctx context.Context, input *GetTicketInput) (*GetTicketOutput, error) {
		tenantID, ok := middleware.ScopedTenantID(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing tenant context")
		}

		t, err := store.Tickets().GetByID(ctx, tenantID, input.ID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("ticket not found")
			}
			return nil, huma.Error500InternalServerError("failed to get ticket", err)
		}

		return &GetTicketOutput{Body: t}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-ticket",
		Method:        http.MethodPost,
		Path:          "/tickets",
		Summary:       "Create a new ticket",
		Tags:          []string{"Tickets"},
		DefaultStatus: http.StatusCreated,
		Middlewares:   huma.Middlewares{middleware.AuditObserver(rec, "create_ticket", domain.ResourceTicket)},
	}, func(ctx context.Context, input *CreateTicketInput) (*CreateTicketOutput, error) {
		tc, ok := middleware.TenantContextFrom(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing tenant context")
		}

		priority := domain.TicketPriority(input.Body.Priority)
		if priority == "" {
			priority = domain.PriorityMedium
		}

		tags := input.Body.Tags
		if tags == nil {
			tags = []string{}
		}

		now := time.Now()
		t := &domain.Ticket{
			ID:             uuid.New(),
			TenantID:       tc.TenantID,
			UserID:         tc.UserID,
			Title:          input.Body.Title,
			Description:    input.Body.Description,
			Status:         domain.TicketStatusOpen,
			Priority:       priority,
			Tags:           tags,
			WorkflowStatus: domain.WorkflowPending,
			CreatedAt:      now,
			UpdatedAt:      now,
		}

		if err := store.Tickets().Create(ctx, t); err != nil {
			return nil, huma.Error500InternalServerError("failed to create ticket", err)
		}

		// Best effort: creation already succeeded, the workflow run catches
		// up asynchronously and failures are reconciled later.
		workflows.Enqueue(t)

		publishTenantEvent(ctx, events, tc.TenantID, redisstore.EventTicketCreated, t)

		return &CreateTicketOutput{Body: t}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-ticket",
		Method:      http.MethodPut,
		Path:        "/tickets/{id}",
		Summary:     "Update a ticket",
		Tags:        []string{"Tickets"},
		Middlewares: huma.Middlewares{middleware.AuditObserver(rec, "update_ticket", domain.ResourceTicket)},
	}, func(ctx context.Context, input *UpdateTicketInput) (*UpdateTicketOutput, error) {
		tenantID, ok := middleware.ScopedTenantID(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing tenant context")
		}

		existing, err := store.Tickets().GetByID(ctx, tenantID, input.ID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("ticket not found")
			}
			return nil, huma.Error500InternalServerError("failed to get ticket", err)
		}

		if input.Body.Title != "" {
			existing.Title = input.Body.Title
		}
		if input.Body.Description != "" {
			existing.Description = input.Body.Description
		}
		if input.Body.Status != "" {
			existing.Status = domain.TicketStatus(input.Body.Status)
		}
		if input.Body.Priority != "" {
			existing.Priority = domain.TicketPriority(input.Body.Priority)
		}
		if input.Body.Tags != nil {
			existing.Tags = input.Body.Tags
		}
		if input.Body.AssignedTo != nil {
			existing.AssignedTo = input.Body.AssignedTo
		}
		existing.UpdatedAt = time.Now()

		if err := store.Tickets().Update(ctx, existing); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("ticket not found")
			}
			return nil, huma.Error500InternalServerError("failed to update ticket", err)
		}

		publishTenantEvent(ctx, events, tenantID, redisstore.EventTicketUpdated, existing)

		return &UpdateTicketOutput{Body: existing}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-ticket",
		Method:      http.MethodDelete,
		Path:        "/tickets/{id}",
		Summary:     "Delete a ticket",
		Tags:        []string{"Tickets"},
		Middlewares: huma.Middlewares{middleware.AuditObserver(rec, "delete_ticket", domain.ResourceTicket)},
	}, func(ctx context.Context, input *DeleteTicketInput) (*DeleteTicketOutput, error) {
		tenantID, ok := middleware.ScopedTenantID(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing tenant context")
		}

		if err := store.Tickets().Delete(ctx, tenantID, input.ID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("ticket not found")
			}
			return nil, huma.Error500InternalServerError("failed to delete ticket", err)
		}

		publishTenantEvent(ctx, events, tenantID, redisstore.EventTicketDeleted, map[string]string{"id": input.ID.String()})

		out := &DeleteTicketOutput{}
		out.Body.Message = "Ticket deleted successfully"
		return out, nil
	})
}

func paginate(page, limit int, total int64) Pagination {
	pages := int((total + int64(limit) - 1) / int64(limit))
	return Pagination{Page: page, Limit: limit, Total: total, Pages: pages}
}

// publishTenantEvent logs and swallows publish failures: realtime fan-out is
// best effort and never alters the response.
func publishTenantEvent(ctx context.Context, events EventPublisher, tenantID, event string, data any) {
	if err := events.PublishTenantEvent(ctx, tenantID, event, data); err != nil {
		log.Warn().Err(err).
			Str("tenant_id", tenantID).
			Str("event", event).
			Msg("tickets: event publish failed")
	}
}
