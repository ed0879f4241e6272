package v1

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/opsdesk/opsdesk/internal/auth"
	"github.com/opsdesk/opsdesk/internal/domain"
	"github.com/opsdesk/opsdesk/internal/server/middleware"
)

type LoginInput struct {
	Body struct {
		Email    string `json:"email" format:"email" maxLength:"255" doc:"User email"`
		Password string `json:"password" minLength:"6" maxLength:"128" doc:"Password"` //nolint:gosec // G117: login credential DTO
	}
}

type LoginOutput struct {
	Body struct {
		Token string       `json:"token"` //nolint:gosec // G117: auth response DTO
		User  *domain.User `json:"user"`
	}
}

type RegisterInput struct {
	Body struct {
		TenantID  string `json:"tenant_id" minLength:"1" maxLength:"63" doc:"Tenant identifier"`
		Email     string `json:"email" format:"email" maxLength:"255" doc:"User email"`
		Password  string `json:"password" minLength:"6" maxLength:"128" doc:"Password"` //nolint:gosec // G117: login credential DTO
		FirstName string `json:"first_name" minLength:"1" maxLength:"255" doc:"Given name"`
		LastName  string `json:"last_name" minLength:"1" maxLength:"255" doc:"Family name"`
		Role      string `json:"role,omitempty" enum:"admin,member" doc:"Role (defaults to member)"`
	}
}

type RegisterOutput struct {
	Body struct {
		Token string       `json:"token"` //nolint:gosec // G117: auth response DTO
		User  *domain.User `json:"user"`
	}
}

type MeOutput struct {
	Body *domain.User
}

type LogoutOutput struct {
	Body struct {
		Message string `json:"message"`
	}
}

// RegisterPublicAuthRoutes wires login and registration. These run outside
// the authenticated middleware chain.
func RegisterPublicAuthRoutes(api huma.API, authSvc AuthService) {
	huma.Register(api, huma.Operation{
		OperationID: "login",
		Method:      http.MethodPost,
		Path:        "/auth/login",
		Summary:     "Login with email and password",
		Tags:        []string{"Auth"},
	}, func(ctx context.Context, input *LoginInput) (*LoginOutput, error) {
		token, user, err := authSvc.Login(ctx, input.Body.Email, input.Body.Password)
		if err != nil {
			// Unknown email and wrong password share one message so the
			// endpoint cannot be used to enumerate accounts.
			if errors.Is(err, auth.ErrInvalidCredentials) {
				return nil, huma.Error401Unauthorized("invalid credentials")
			}
			if errors.Is(err, auth.ErrAccountInactive) {
				return nil, huma.Error401Unauthorized("account is inactive")
			}
			return nil, huma.Error500InternalServerError("login failed", err)
		}

		out := &LoginOutput{}
		out.Body.Token = token
		out.Body.User = user
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "register",
		Method:        http.MethodPost,
		Path:          "/auth/register",
		Summary:       "Register a new user",
		Tags:          []string{"Auth"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *RegisterInput) (*RegisterOutput, error) {
		user, err := authSvc.Register(ctx, auth.RegisterParams{
			TenantID:  input.Body.TenantID,
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
			return nil, huma.Error500InternalServerError("failed to register user", err)
		}

		token, _, err := authSvc.Login(ctx, input.Body.Email, input.Body.Password)
		if err != nil {
			return nil, huma.Error500InternalServerError("registered but failed to issue token", err)
		}

		out := &RegisterOutput{}
		out.Body.Token = token
		out.Body.User = user
		return out, nil
	})
}

// RegisterSessionRoutes wires the endpoints that require an authenticated
// session: profile lookup and logout.
func RegisterSessionRoutes(api huma.API, authSvc AuthService, rec middleware.Enqueuer) {
	huma.Register(api, huma.Operation{
		OperationID: "get-profile",
		Method:      http.MethodGet,
		Path:        "/auth/me",
		Summary:     "Get the current user profile",
		Tags:        []string{"Auth"},
	}, func(ctx context.Context, _ *struct{}) (*MeOutput, error) {
		tc, ok := middleware.TenantContextFrom(ctx)
		if !ok {
			return nil, huma.Error401Unauthorized("authentication required")
		}

		user, err := authSvc.GetUser(ctx, tc.UserID)
		if err != nil {
			return nil, huma.Error404NotFound("user not found")
		}

		return &MeOutput{Body: user}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "logout",
		Method:      http.MethodPost,
		Path:        "/auth/logout",
		Summary:     "Logout",
		Description: "Tokens are stateless; logout records the action and the client discards the token.",
		Tags:        []string{"Auth"},
		Middlewares: huma.Middlewares{middleware.AuditObserver(rec, "logout", domain.ResourceAuth)},
	}, func(ctx context.Context, _ *struct{}) (*LogoutOutput, error) {
		if _, ok := middleware.TenantContextFrom(ctx); !ok {
			return nil, huma.Error401Unauthorized("authentication required")
		}

		out := &LogoutOutput{}
		out.Body.Message = "Logged out successfully"
		return out, nil
	})
}
