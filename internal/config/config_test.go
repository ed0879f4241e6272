package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	validJWTSecret     = "jwt-secret-with-at-least-32-characters!"
	validWebhookSecret = "webhook-secret-distinct-from-jwt"
)

func strPtr(s string) *string { return &s }

// setRequired sets the two secrets every successful Load needs.
func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("OPSDESK_JWT_SECRET", validJWTSecret)
	t.Setenv("OPSDESK_WEBHOOK_SECRET", validWebhookSecret)
}

// ---------------------------------------------------------------------------
// Helper function tests
// ---------------------------------------------------------------------------

func TestGetEnv(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		setVal   *string // nil = don't set; pointer to distinguish "" from unset
		fallback string
		want     string
	}{
		{name: "returns fallback when unset", key: "OPSDESK_TEST_GETENV_UNSET", setVal: nil, fallback: "default", want: "default"},
		{name: "returns env value when set", key: "OPSDESK_TEST_GETENV_SET", setVal: strPtr("custom"), fallback: "default", want: "custom"},
		{name: "returns fallback when empty string", key: "OPSDESK_TEST_GETENV_EMPTY", setVal: strPtr(""), fallback: "default", want: "default"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.setVal != nil {
				t.Setenv(tc.key, *tc.setVal)
			}

			got := getEnv(tc.key, tc.fallback)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestGetEnvInt(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		setVal  *string
		want    int
		wantErr bool
	}{
		{name: "returns fallback when unset", key: "OPSDESK_TEST_INT_UNSET", setVal: nil, want: 42},
		{name: "parses valid int", key: "OPSDESK_TEST_INT_VALID", setVal: strPtr("8080"), want: 8080},
		{name: "errors on non-numeric", key: "OPSDESK_TEST_INT_NAN", setVal: strPtr("abc"), wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.setVal != nil {
				t.Setenv(tc.key, *tc.setVal)
			}

			got, err := getEnvInt(tc.key, 42)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestGetEnvDuration(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		setVal  *string
		want    time.Duration
		wantErr bool
	}{
		{name: "returns fallback when unset", key: "OPSDESK_TEST_DUR_UNSET", setVal: nil, want: 5 * time.Second},
		{name: "parses valid duration", key: "OPSDESK_TEST_DUR_VALID", setVal: strPtr("90s"), want: 90 * time.Second},
		{name: "errors on bare number", key: "OPSDESK_TEST_DUR_BARE", setVal: strPtr("90"), wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.setVal != nil {
				t.Setenv(tc.key, *tc.setVal)
			}

			got, err := getEnvDuration(tc.key, 5*time.Second)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestGetEnvList(t *testing.T) {
	t.Run("splits and trims", func(t *testing.T) {
		t.Setenv("OPSDESK_TEST_LIST", "https://a.test, https://b.test ,")
		got := getEnvList("OPSDESK_TEST_LIST", nil)
		assert.Equal(t, []string{"https://a.test", "https://b.test"}, got)
	})

	t.Run("returns fallback when unset", func(t *testing.T) {
		got := getEnvList("OPSDESK_TEST_LIST_UNSET", []string{"x"})
		assert.Equal(t, []string{"x"}, got)
	})
}

// ---------------------------------------------------------------------------
// Load
// ---------------------------------------------------------------------------

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 25, cfg.Database.MaxConns)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 24*time.Hour, cfg.JWT.TokenTTL)
	assert.Equal(t, 10*time.Second, cfg.Workflow.Timeout)
	assert.Equal(t, 256, cfg.Workflow.QueueSize)
	assert.Equal(t, 1024, cfg.Audit.QueueSize)
	assert.Equal(t, 5*time.Second, cfg.Audit.WriteTimeout)
	assert.Equal(t, ":8080", cfg.Server.Addr)
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("OPSDESK_DB_HOST", "db.internal")
	t.Setenv("OPSDESK_DB_PORT", "5433")
	t.Setenv("OPSDESK_JWT_TTL", "1h")
	t.Setenv("OPSDESK_WORKFLOW_BASE_URL", "http://engine.internal:5678")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 5433, cfg.Database.Port)
	assert.Equal(t, time.Hour, cfg.JWT.TokenTTL)
	assert.Equal(t, "http://engine.internal:5678", cfg.Workflow.BaseURL)
}

func TestLoad_Validation(t *testing.T) {
	t.Run("missing jwt secret", func(t *testing.T) {
		t.Setenv("OPSDESK_WEBHOOK_SECRET", validWebhookSecret)

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "OPSDESK_JWT_SECRET is required")
	})

	t.Run("short jwt secret", func(t *testing.T) {
		t.Setenv("OPSDESK_JWT_SECRET", "short")
		t.Setenv("OPSDESK_WEBHOOK_SECRET", validWebhookSecret)

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "at least 32 characters")
	})

	t.Run("missing webhook secret", func(t *testing.T) {
		t.Setenv("OPSDESK_JWT_SECRET", validJWTSecret)

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "OPSDESK_WEBHOOK_SECRET is required")
	})

	t.Run("webhook secret must differ from jwt secret", func(t *testing.T) {
		t.Setenv("OPSDESK_JWT_SECRET", validJWTSecret)
		t.Setenv("OPSDESK_WEBHOOK_SECRET", validJWTSecret)

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "must differ")
	})

	t.Run("bad port", func(t *testing.T) {
		setRequired(t)
		t.Setenv("OPSDESK_DB_PORT", "70000")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "OPSDESK_DB_PORT")
	})

	t.Run("unparsable int", func(t *testing.T) {
		setRequired(t)
		t.Setenv("OPSDESK_AUDIT_QUEUE_SIZE", "lots")

		_, err := Load()
		require.Error(t, err)
	})

	t.Run("nonpositive ttl", func(t *testing.T) {
		setRequired(t)
		t.Setenv("OPSDESK_JWT_TTL", "-1h")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "OPSDESK_JWT_TTL")
	})
}

func TestDSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "db.internal",
		Port:     5432,
		User:     "opsdesk",
		Password: "pw",
		DBName:   "opsdesk_prod",
		SSLMode:  "require",
	}

	assert.Equal(t,
		"host=db.internal port=5432 user=opsdesk password=pw dbname=opsdesk_prod sslmode=require",
		cfg.DSN(),
	)
}
