package v1_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v1 "github.com/opsdesk/opsdesk/internal/api/v1"
	"github.com/opsdesk/opsdesk/internal/auth"
	"github.com/opsdesk/opsdesk/internal/domain"
)

// ---------------------------------------------------------------------------
// TestLogin
// ---------------------------------------------------------------------------

func TestLogin(t *testing.T) {
	t.Parallel()

	t.Run("happy_path", func(t *testing.T) {
		t.Parallel()

		user := &domain.User{ID: uuid.New(), TenantID: "acme", Email: "jane@acme.test", Role: domain.RoleMember, Active: true}
		_, api := humatest.New(t)
		v1.RegisterPublicAuthRoutes(api, &mockAuthService{
			loginFunc: func(_ context.Context, email, password string) (string, *domain.User, error) {
				assert.Equal(t, "jane@acme.test", email)
				assert.Equal(t, "hunter22", password)
				return "signed-token", user, nil
			},
		})

		resp := api.Post("/auth/login", map[string]any{
			"email":    "jane@acme.test",
			"password": "hunter22",
		})

		require.Equal(t, http.StatusOK, resp.Code)

		var body struct {
			Token string       `json:"token"`
			User  *domain.User `json:"user"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "signed-token", body.Token)
		require.NotNil(t, body.User)
		assert.Equal(t, user.Email, body.User.Email)
	})

	t.Run("invalid_credentials", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		v1.RegisterPublicAuthRoutes(api, &mockAuthService{
			loginFunc: func(_ context.Context, _, _ string) (string, *domain.User, error) {
				return "", nil, auth.ErrInvalidCredentials
			},
		})

		resp := api.Post("/auth/login", map[string]any{
			"email":    "jane@acme.test",
			"password": "wrongpass",
		})

		require.Equal(t, http.StatusUnauthorized, resp.Code)
		assert.Contains(t, resp.Body.String(), "invalid credentials")
	})

	t.Run("inactive_account", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		v1.RegisterPublicAuthRoutes(api, &mockAuthService{
			loginFunc: func(_ context.Context, _, _ string) (string, *domain.User, error) {
				return "", nil, auth.ErrAccountInactive
			},
		})

		resp := api.Post("/auth/login", map[string]any{
			"email":    "gone@acme.test",
			"password": "hunter22",
		})

		require.Equal(t, http.StatusUnauthorized, resp.Code)
		assert.Contains(t, resp.Body.String(), "account is inactive")
	})
}

// ---------------------------------------------------------------------------
// TestRegister
// ---------------------------------------------------------------------------

func TestRegister(t *testing.T) {
	t.Parallel()

	t.Run("happy_path", func(t *testing.T) {
		t.Parallel()

		var registered auth.RegisterParams
		_, api := humatest.New(t)
		v1.RegisterPublicAuthRoutes(api, &mockAuthService{
			registerFunc: func(_ context.Context, p auth.RegisterParams) (*domain.User, error) {
				registered = p
				return &domain.User{ID: uuid.New(), TenantID: p.TenantID, Email: p.Email, Role: domain.RoleMember, Active: true}, nil
			},
			loginFunc: func(_ context.Context, _, _ string) (string, *domain.User, error) {
				return "fresh-token", nil, nil
			},
		})

		resp := api.Post("/auth/register", map[string]any{
			"tenant_id":  "acme",
			"email":      "new@acme.test",
			"password":   "hunter22",
			"first_name": "New",
			"last_name":  "Hire",
		})

		require.Equal(t, http.StatusCreated, resp.Code)
		assert.Equal(t, "acme", registered.TenantID)
		assert.Equal(t, "new@acme.test", registered.Email)

		var body struct {
			Token string `json:"token"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "fresh-token", body.Token)
	})

	t.Run("duplicate_email", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		v1.RegisterPublicAuthRoutes(api, &mockAuthService{
			registerFunc: func(_ context.Context, _ auth.RegisterParams) (*domain.User, error) {
				return nil, auth.ErrUserAlreadyExists
			},
		})

		resp := api.Post("/auth/register", map[string]any{
			"tenant_id":  "acme",
			"email":      "taken@acme.test",
			"password":   "hunter22",
			"first_name": "Dup",
			"last_name":  "Licate",
		})

		require.Equal(t, http.StatusBadRequest, resp.Code)
		assert.Contains(t, resp.Body.String(), "user already exists")
	})

	t.Run("rejects_unknown_role", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		v1.RegisterPublicAuthRoutes(api, &mockAuthService{})

		resp := api.Post("/auth/register", map[string]any{
			"tenant_id":  "acme",
			"email":      "new@acme.test",
			"password":   "hunter22",
			"first_name": "New",
			"last_name":  "Hire",
			"role":       "superuser",
		})

		require.Equal(t, http.StatusBadRequest, resp.Code, "role enum must reject values outside admin/member")
	})

	t.Run("schema_validation_uses_400", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		v1.RegisterPublicAuthRoutes(api, &mockAuthService{})

		// A short password and malformed email both violate the body schema.
		resp := api.Post("/auth/register", map[string]any{
			"tenant_id":  "acme",
			"email":      "not-an-email",
			"password":   "abc",
			"first_name": "New",
			"last_name":  "Hire",
		})

		require.Equal(t, http.StatusBadRequest, resp.Code)
	})
}

// ---------------------------------------------------------------------------
// TestProfile
// ---------------------------------------------------------------------------

func TestProfile(t *testing.T) {
	t.Parallel()

	tenantID := "acme"
	userID := uuid.New()

	t.Run("happy_path", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		v1.RegisterSessionRoutes(api, &mockAuthService{
			getUserFunc: func(_ context.Context, id uuid.UUID) (*domain.User, error) {
				assert.Equal(t, userID, id)
				return &domain.User{ID: userID, TenantID: tenantID, Email: "jane@acme.test"}, nil
			},
		}, &mockEnqueuer{})

		resp := api.GetCtx(memberCtx(tenantID, userID), "/auth/me")

		require.Equal(t, http.StatusOK, resp.Code)

		var body domain.User
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, userID, body.ID)
	})

	t.Run("no_session", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		v1.RegisterSessionRoutes(api, &mockAuthService{}, &mockEnqueuer{})

		resp := api.Get("/auth/me")

		require.Equal(t, http.StatusUnauthorized, resp.Code)
	})

	t.Run("user_deleted_after_token_issued", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		v1.RegisterSessionRoutes(api, &mockAuthService{
			getUserFunc: func(_ context.Context, _ uuid.UUID) (*domain.User, error) {
				return nil, auth.ErrUserNotFound
			},
		}, &mockEnqueuer{})

		resp := api.GetCtx(memberCtx(tenantID, userID), "/auth/me")

		require.Equal(t, http.StatusNotFound, resp.Code)
	})
}

// ---------------------------------------------------------------------------
// TestLogout
// ---------------------------------------------------------------------------

func TestLogout(t *testing.T) {
	t.Parallel()

	t.Run("records_audit_entry", func(t *testing.T) {
		t.Parallel()

		rec := &mockEnqueuer{}
		_, api := humatest.New(t)
		v1.RegisterSessionRoutes(api, &mockAuthService{}, rec)

		userID := uuid.New()
		resp := api.PostCtx(memberCtx("acme", userID), "/auth/logout", map[string]any{})

		require.Equal(t, http.StatusOK, resp.Code)
		require.Len(t, rec.entries, 1)
		assert.Equal(t, "logout", rec.entries[0].Action)
		assert.Equal(t, domain.ResourceAuth, rec.entries[0].Resource)
		assert.Equal(t, "acme", rec.entries[0].TenantID)
		assert.Equal(t, userID, rec.entries[0].UserID)
	})

	t.Run("no_session", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		v1.RegisterSessionRoutes(api, &mockAuthService{}, &mockEnqueuer{})

		resp := api.Post("/auth/logout", map[string]any{})

		require.Equal(t, http.StatusUnauthorized, resp.Code)
	})
}
