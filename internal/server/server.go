package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/opsdesk/opsdesk/internal/api/webhook"
	"github.com/opsdesk/opsdesk/internal/api/ws"
	"github.com/opsdesk/opsdesk/internal/audit"
	"github.com/opsdesk/opsdesk/internal/auth"
	"github.com/opsdesk/opsdesk/internal/config"
	"github.com/opsdesk/opsdesk/internal/server/middleware"
	"github.com/opsdesk/opsdesk/internal/store/postgres"
	redisstore "github.com/opsdesk/opsdesk/internal/store/redis"
	"github.com/opsdesk/opsdesk/internal/workflow"
)

// Server is the HTTP server that wires all application routes and middleware.
type Server struct {
	router     chi.Router
	httpServer *http.Server
	store      *postgres.Store
	auth       *auth.Service
	pubsub     *redisstore.PubSub
	wsHub      *ws.Hub
	recorder   *audit.Recorder
	workflows  *workflow.Dispatcher
	cfg        *config.Config
}

// New creates a Server with all routes wired. The baseCtx bounds the
// lifetime of background goroutines started by middleware, such as the rate
// limiter cleanup loops.
func New(baseCtx context.Context, cfg *config.Config, store *postgres.Store, pubsub *redisstore.PubSub, authSvc *auth.Service, recorder *audit.Recorder, workflows *workflow.Dispatcher) *Server {
	router := chi.NewRouter()

	// Global middleware stack.
	router.Use(chimw.RequestID)
	router.Use(chimw.RealIP)
	router.Use(chimw.Logger)
	router.Use(chimw.Recoverer)
	router.Use(cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler)

	hub := ws.NewHub(pubsub)

	s := &Server{
		router:    router,
		store:     store,
		auth:      authSvc,
		pubsub:    pubsub,
		wsHub:     hub,
		recorder:  recorder,
		workflows: workflows,
		cfg:       cfg,
		httpServer: &http.Server{
			Addr:         cfg.Server.Addr,
			Handler:      router,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
	}

	// Mount API routes on /api/v1 with three sub-groups:
	// 1. Unauthenticated group for login and registration.
	// 2. Authenticated group for tickets and session endpoints.
	// 3. Admin-only group nested under the authenticated chain.
	router.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimitByIP(baseCtx, 10, 20))

			publicConfig := huma.DefaultConfig("OpsDesk Auth API", "1.0.0")
			publicConfig.Servers = []*huma.Server{
				{URL: "/api/v1"},
			}
			publicAPI := humachi.New(r, publicConfig)
			registerPublicRoutes(publicAPI, authSvc)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT.Secret, store.Users()))
			r.Use(middleware.TenantScope())
			r.Use(middleware.RateLimitByTenant(baseCtx, 100, 200))
			r.Use(middleware.CaptureBody())

			apiConfig := huma.DefaultConfig("OpsDesk API", "1.0.0")
			apiConfig.Servers = []*huma.Server{
				{URL: "/api/v1"},
			}
			api := humachi.New(r, apiConfig)
			registerAPIRoutes(api, store, authSvc, workflows, pubsub, recorder)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAdmin())

				adminConfig := huma.DefaultConfig("OpsDesk Admin API", "1.0.0")
				adminConfig.Servers = []*huma.Server{
					{URL: "/api/v1"},
				}
				adminAPI := humachi.New(r, adminConfig)
				registerAdminRoutes(adminAPI, store, authSvc, recorder)
			})
		})
	})

	// WebSocket routes share the JWT middleware with the REST API.
	router.Route("/ws", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT.Secret, store.Users()))
		registerWSRoutes(r, hub)
	})

	// Workflow engine callbacks. Authenticated by shared secret, never by JWT.
	router.Route("/webhook", func(r chi.Router) {
		wh := webhook.NewHandler(cfg.Webhook.Secret, store.Tickets(), recorder, pubsub)
		registerWebhookRoutes(r, wh)
	})

	// Health check (unauthenticated).
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	return s
}

// Start begins listening for HTTP requests.
func (s *Server) Start(_ context.Context) error {
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.Start: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}
