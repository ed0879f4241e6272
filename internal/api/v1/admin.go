package v1

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/opsdesk/opsdesk/internal/auth"
	"github.com/opsdesk/opsdesk/internal/domain"
	"github.com/opsdesk/opsdesk/internal/server/middleware"
)

type ListUsersOutput struct {
	Body []*domain.User
}

type CreateUserInput struct {
	Body struct {
		Email     string `json:"email" format:"email" maxLength:"255" doc:"User email"`
		Password  string `json:"password" minLength:"6" maxLength:"128" doc:"Password"` //nolint:gosec // G117: credential DTO
		FirstName string `json:"first_name" minLength:"1" maxLength:"255" doc:"Given name"`
		LastName  string `json:"last_name" minLength:"1" maxLength:"255" doc:"Family name"`
		Role      string `json:"role,omitempty" enum:"admin,member" doc:"Role (defaults to member)"`
	}
}

type CreateUserOutput struct {
	Body *domain.User
}

type UpdateUserInput struct {
	ID   uuid.UUID `path:"id" doc:"User ID"`
	Body struct {
		Email     string `json:"email,omitempty" format:"email" maxLength:"255" doc:"User email"`
		FirstName string `json:"first_name,omitempty" maxLength:"255" doc:"Given name"`
		LastName  string `json:"last_name,omitempty" maxLength:"255" doc:"Family name"`
		Role      string `json:"role,omitempty" enum:"admin,member" doc:"Role"`
		Active    *bool  `json:"active,omitempty" doc:"Active flag; false deactivates the account"`
	}
}

type UpdateUserOutput struct {
	Body *domain.User
}

type DeleteUserInput struct {
	ID uuid.UUID `path:"id" doc:"User ID"`
}

type DeleteUserOutput struct {
	Body struct {
		Message string `json:"message"`
	}
}

type StatsOutput struct {
	Body struct {
		Tickets struct {
			Total      int64            `json:"total"`
			Open       int64            `json:"open"`
			Resolved   int64            `json:"resolved"`
			ByPriority map[string]int64 `json:"by_priority"`
		} `json:"tickets"`
		Users struct {
			Total  int64 `json:"total"`
			Active int64 `json:"active"`
		} `json:"users"`
		RecentActivity []*domain.AuditEntry `json:"recent_activity"`
	}
}

type ListAuditLogsInput struct {
	Action   string `query:"action" doc:"Filter by action name"`
	Resource string `query:"resource" enum:",ticket,user,workflow,auth" doc:"Filter by resource type"`
	Page     int    `query:"page" minimum:"1" default:"1" doc:"Page number"`
	Limit    int    `query:"limit" minimum:"1" maximum:"100" default:"20" doc:"Page size"`
}

type ListAuditLogsOutput struct {
	Body struct {
		Logs       []*domain.AuditEntry `json:"logs"`
		Pagination Pagination           `json:"pagination"`
	}
}

// RegisterAdminRoutes wires the administrator-only endpoints. The admin role
// gate runs in the router middleware chain; handlers still scope every
// storage call by the caller's tenant.
func RegisterAdminRoutes(api huma.API, store DataStore, authSvc AuthService, rec middleware.Enqueuer) {
	huma.Register(api, huma.Operation{
		OperationID: "list-users",
		Method:      http.MethodGet,
		Path:        "/admin/users",
		Summary:     "List users for the caller's tenant",
		Tags:        []string{"Admin"},
	}, func(ctx context.Context, _ *struct{}) (*ListUsersOutput, error) {
		tenantID, ok := middleware.ScopedTenantID(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing tenant context")
		}

		users, err := store.Users().List(ctx, tenantID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list users", err)
		}
		if users == nil {
			users = []*domain.User{}
		}

		return &ListUsersOutput{Body: users}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-user",
		Method:        http.MethodPost,
		Path:          "/admin/users",
		Summary:       "Create a user in the caller's tenant",
		Tags:          []string{"Admin"},
		DefaultStatus: http.StatusCreated,
		Middlewares:   huma.Middlewares{middleware.AuditObserver(rec, "create_user", domain.ResourceUser)},
	}, func(ctx context.Context, input *CreateUserInput) (*CreateUserOutput, error) {
		tc, ok := middleware.TenantContextFrom(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing tenant context")
		}

		// Admins create users only inside their own tenant; the tenant id is
		// taken from the session, never from the request body.
		user, err := authSvc.Register(ctx, auth.RegisterParams{
			TenantID:  tc.TenantID,
			Email:     input.Body.Email,
			Password:  input.Body.Password,
			FirstName: input.Body.FirstName,
			LastName:  input.Body.LastName,
			Role:      input.Body.Role,
		})
		if err != nil {
			if errors.Is(err, auth.ErrUserAlreadyExists) {
				return nil, huma.Error400BadRequest("user already exists")
			}
			return nil, huma.Error500InternalServerError("failed to create user", err)
		}

		return &CreateUserOutput{Body: user}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-user",
		Method:      http.MethodPut,
		Path:        "/admin/users/{id}",
		Summary:     "Update a user in the caller's tenant",
		Tags:        []string{"Admin"},
		Middlewares: huma.Middlewares{middleware.AuditObserver(rec, "update_user", domain.ResourceUser)},
	}, func(ctx context.Context, input *UpdateUserInput) (*UpdateUserOutput, error) {
		tenantID, ok := middleware.ScopedTenantID(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing tenant context")
		}

		existing, err := store.Users().GetByID(ctx, input.ID)
		// A user under another tenant is reported exactly like a missing one.
		if err != nil || existing.TenantID != tenantID {
			return nil, huma.Error404NotFound("user not found")
		}

		if input.Body.Email != "" {
			existing.Email = input.Body.Email
		}
		if input.Body.FirstName != "" {
			existing.FirstName = input.Body.FirstName
		}
		if input.Body.LastName != "" {
			existing.LastName = input.Body.LastName
		}
		if input.Body.Role != "" {
			existing.Role = input.Body.Role
		}
		if input.Body.Active != nil {
			existing.Active = *input.Body.Active
		}
		existing.UpdatedAt = time.Now()

		if err := store.Users().Update(ctx, existing); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("user not found")
			}
			return nil, huma.Error500InternalServerError("failed to update user", err)
		}

		return &UpdateUserOutput{Body: existing}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-user",
		Method:      http.MethodDelete,
		Path:        "/admin/users/{id}",
		Summary:     "Delete a user in the caller's tenant",
		Tags:        []string{"Admin"},
		Middlewares: huma.Middlewares{middleware.AuditObserver(rec, "delete_user", domain.ResourceUser)},
	}, func(ctx context.Context, input *DeleteUserInput) (*DeleteUserOutput, error) {
		tc, ok := middleware.TenantContextFrom(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing tenant context")
		}

		if input.ID == tc.UserID {
			return nil, huma.Error400BadRequest("cannot delete your own account")
		}

		if err := store.Users().Delete(ctx, tc.TenantID, input.ID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("user not found")
			}
			return nil, huma.Error500InternalServerError("failed to delete user", err)
		}

		out := &DeleteUserOutput{}
		out.Body.Message = "User deleted successfully"
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-stats",
		Method:      http.MethodGet,
		Path:        "/admin/stats",
		Summary:     "Get tenant statistics",
		Tags:        []string{"Admin"},
	}, func(ctx context.Context, _ *struct{}) (*StatsOutput, error) {
		tenantID, ok := middleware.ScopedTenantID(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing tenant context")
		}

		tickets := store.Tickets()

		total, err := tickets.Count(ctx, tenantID, domain.TicketFilter{})
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to get statistics", err)
		}
		open, err := tickets.Count(ctx, tenantID, domain.TicketFilter{Status: domain.TicketStatusOpen})
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to get statistics", err)
		}
		resolved, err := tickets.Count(ctx, tenantID, domain.TicketFilter{Status: domain.TicketStatusResolved})
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to get statistics", err)
		}
		byPriority, err := tickets.CountByPriority(ctx, tenantID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to get statistics", err)
		}

		totalUsers, err := store.Users().Count(ctx, tenantID, false)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to get statistics", err)
		}
		activeUsers, err := store.Users().Count(ctx, tenantID, true)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to get statistics", err)
		}

		recent, err := store.Audit().List(ctx, tenantID, domain.AuditFilter{Limit: 10})
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to get statistics", err)
		}

		out := &StatsOutput{}
		out.Body.Tickets.Total = total
		out.Body.Tickets.Open = open
		out.Body.Tickets.Resolved = resolved
		out.Body.Tickets.ByPriority = make(map[string]int64, len(byPriority))
		for p, n := range byPriority {
			out.Body.Tickets.ByPriority[string(p)] = n
		}
		out.Body.Users.Total = totalUsers
		out.Body.Users.Active = activeUsers
		out.Body.RecentActivity = recent
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-audit-logs",
		Method:      http.MethodGet,
		Path:        "/admin/audit-logs",
		Summary:     "List audit records for the caller's tenant",
		Tags:        []string{"Admin"},
	}, func(ctx context.Context, input *ListAuditLogsInput) (*ListAuditLogsOutput, error) {
		tenantID, ok := middleware.ScopedTenantID(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing tenant context")
		}

		filter := domain.AuditFilter{
			Action:   input.Action,
			Resource: input.Resource,
			Limit:    input.Limit,
			Offset:   (input.Page - 1) * input.Limit,
		}

		logs, err := store.Audit().List(ctx, tenantID, filter)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list audit logs", err)
		}
		if logs == nil {
			logs = []*domain.AuditEntry{}
		}

		total, err := store.Audit().Count(ctx, tenantID, filter)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to count audit logs", err)
		}

		out := &ListAuditLogsOutput{}
		out.Body.Logs = logs
		out.Body.Pagination = paginate(input.Page, input.Limit, total)
		return out, nil
	})
}
