package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Webhook  WebhookConfig
	Workflow WorkflowConfig
	Audit    AuditConfig
	Server   ServerConfig
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string //nolint:gosec // G117: DB connection config
	DBName   string
	SSLMode  string
	MaxConns int
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string //nolint:gosec // G117: Redis connection config
	DB       int
}

// JWTConfig holds session token settings. The secret is process-wide and
// never derived per tenant.
type JWTConfig struct {
	Secret   string //nolint:gosec // G117: JWT signing secret config
	TokenTTL time.Duration
}

// WebhookConfig holds the shared secret for inbound workflow callbacks.
// This is a trust root independent of the JWT secret and is rotated
// independently of it.
type WebhookConfig struct {
	Secret string //nolint:gosec // G117: webhook shared secret config
}

// WorkflowConfig holds settings for the external workflow engine.
type WorkflowConfig struct {
	BaseURL     string
	CallbackURL string
	Timeout     time.Duration
	QueueSize   int
	Workers     int
}

// AuditConfig bounds the asynchronous audit writer.
type AuditConfig struct {
	QueueSize    int
	Workers      int
	WriteTimeout time.Duration
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CORSOrigins  []string
}

// Load reads configuration from environment variables.
// Defaults are safe for local development only. In production, the JWT and
// webhook secrets must be set explicitly.
func Load() (*Config, error) {
	dbPort, err := getEnvInt("OPSDESK_DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	dbMaxConns, err := getEnvInt("OPSDESK_DB_MAX_CONNS", 25)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	redisDB, err := getEnvInt("OPSDESK_REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	tokenTTL, err := getEnvDuration("OPSDESK_JWT_TTL", 24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	workflowTimeout, err := getEnvDuration("OPSDESK_WORKFLOW_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	workflowQueue, err := getEnvInt("OPSDESK_WORKFLOW_QUEUE_SIZE", 256)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	workflowWorkers, err := getEnvInt("OPSDESK_WORKFLOW_WORKERS", 2)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	auditQueue, err := getEnvInt("OPSDESK_AUDIT_QUEUE_SIZE", 1024)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	auditWorkers, err := getEnvInt("OPSDESK_AUDIT_WORKERS", 2)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	auditTimeout, err := getEnvDuration("OPSDESK_AUDIT_WRITE_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	readTimeout, err := getEnvDuration("OPSDESK_SERVER_READ_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	writeTimeout, err := getEnvDuration("OPSDESK_SERVER_WRITE_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	corsOrigins := getEnvList("OPSDESK_CORS_ORIGINS", []string{"http://localhost:3000"})

	cfg := &Config{
		Database: DatabaseConfig{
			Host:     getEnv("OPSDESK_DB_HOST", "localhost"),
			Port:     dbPort,
			User:     getEnv("OPSDESK_DB_USER", "opsdesk"),
			Password: getEnv("OPSDESK_DB_PASSWORD", ""),
			DBName:   getEnv("OPSDESK_DB_NAME", "opsdesk_dev"),
			SSLMode:  getEnv("OPSDESK_DB_SSLMODE", "disable"),
			MaxConns: dbMaxConns,
		},
		Redis: RedisConfig{
			Addr:     getEnv("OPSDESK_REDIS_ADDR", "localhost:6379"),
			Password: getEnv("OPSDESK_REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		JWT: JWTConfig{
			Secret:   getEnv("OPSDESK_JWT_SECRET", ""),
			TokenTTL: tokenTTL,
		},
		Webhook: WebhookConfig{
			Secret: getEnv("OPSDESK_WEBHOOK_SECRET", ""),
		},
		Workflow: WorkflowConfig{
			BaseURL:     getEnv("OPSDESK_WORKFLOW_BASE_URL", "http://localhost:5678"),
			CallbackURL: getEnv("OPSDESK_WORKFLOW_CALLBACK_URL", "http://localhost:8080/webhook/ticket-done"),
			Timeout:     workflowTimeout,
			QueueSize:   workflowQueue,
			Workers:     workflowWorkers,
		},
		Audit: AuditConfig{
			QueueSize:    auditQueue,
			Workers:      auditWorkers,
			WriteTimeout: auditTimeout,
		},
		Server: ServerConfig{
			Addr:         getEnv("OPSDESK_SERVER_ADDR", ":8080"),
			ReadTimeout:  readTimeout,
			WriteTimeout: writeTimeout,
			CORSOrigins:  corsOrigins,
		},
	}

	err = cfg.validate()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	return cfg, nil
}

// validate checks required fields and value bounds.
func (c *Config) validate() error {
	if c.JWT.Secret == "" {
		return errors.New("OPSDESK_JWT_SECRET is required")
	}
	if len(c.JWT.Secret) < 32 {
		return errors.New("OPSDESK_JWT_SECRET must be at least 32 characters")
	}
	if c.Webhook.Secret == "" {
		return errors.New("OPSDESK_WEBHOOK_SECRET is required")
	}
	// The two trust roots must stay disjoint: neither channel may accept the
	// other's secret.
	if c.Webhook.Secret == c.JWT.Secret {
		return errors.New("OPSDESK_WEBHOOK_SECRET must differ from OPSDESK_JWT_SECRET")
	}

	if c.Database.SSLMode == "disable" {
		log.Warn().Msg("OPSDESK_DB_SSLMODE=disable is insecure for production; set to 'require' or 'verify-full'")
	}

	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("OPSDESK_DB_PORT must be 1-65535, got %d", c.Database.Port)
	}
	if c.Database.MaxConns < 1 {
		return fmt.Errorf("OPSDESK_DB_MAX_CONNS must be >= 1, got %d", c.Database.MaxConns)
	}
	if c.JWT.TokenTTL <= 0 {
		return fmt.Errorf("OPSDESK_JWT_TTL must be positive, got %s", c.JWT.TokenTTL)
	}
	if c.Workflow.Timeout <= 0 {
		return fmt.Errorf("OPSDESK_WORKFLOW_TIMEOUT must be positive, got %s", c.Workflow.Timeout)
	}
	if c.Workflow.QueueSize < 1 || c.Workflow.Workers < 1 {
		return errors.New("OPSDESK_WORKFLOW_QUEUE_SIZE and OPSDESK_WORKFLOW_WORKERS must be >= 1")
	}
	if c.Audit.QueueSize < 1 || c.Audit.Workers < 1 {
		return errors.New("OPSDESK_AUDIT_QUEUE_SIZE and OPSDESK_AUDIT_WORKERS must be >= 1")
	}
	if c.Audit.WriteTimeout <= 0 {
		return fmt.Errorf("OPSDESK_AUDIT_WRITE_TIMEOUT must be positive, got %s", c.Audit.WriteTimeout)
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("OPSDESK_SERVER_READ_TIMEOUT must be positive, got %s", c.Server.ReadTimeout)
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("OPSDESK_SERVER_WRITE_TIMEOUT must be positive, got %s", c.Server.WriteTimeout)
	}

	return nil
}

// DSN returns the PostgreSQL connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as int: %w", key, v, err)
	}
	return n, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as duration: %w", key, v, err)
	}
	return d, nil
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
