package server

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"

	v1 "github.com/opsdesk/opsdesk/internal/api/v1"
	"github.com/opsdesk/opsdesk/internal/api/webhook"
	"github.com/opsdesk/opsdesk/internal/api/ws"
	"github.com/opsdesk/opsdesk/internal/audit"
	"github.com/opsdesk/opsdesk/internal/auth"
	"github.com/opsdesk/opsdesk/internal/store/postgres"
	redisstore "github.com/opsdesk/opsdesk/internal/store/redis"
	"github.com/opsdesk/opsdesk/internal/workflow"
)

func registerPublicRoutes(api huma.API, authSvc *auth.Service) {
	v1.RegisterPublicAuthRoutes(api, authSvc)
}

func registerAPIRoutes(api huma.API, store *postgres.Store, authSvc *auth.Service, workflows *workflow.Dispatcher, pubsub *redisstore.PubSub, recorder *audit.Recorder) {
	v1.RegisterSessionRoutes(api, authSvc, recorder)
	v1.RegisterTicketRoutes(api, store, workflows, pubsub, recorder)
}

func registerAdminRoutes(api huma.API, store *postgres.Store, authSvc *auth.Service, recorder *audit.Recorder) {
	v1.RegisterAdminRoutes(api, store, authSvc, recorder)
}

func registerWSRoutes(r chi.Router, hub *ws.Hub) {
	r.Get("/tickets", hub.ServeTenant)
}

func registerWebhookRoutes(r chi.Router, handler *webhook.Handler) {
	r.Post("/ticket-done", handler.TicketDone)
	r.Post("/ticket-failed", handler.TicketFailed)
}
