package api

import (
	"context"
	_ "embed"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	temporalclient "go.temporal.io/sdk/client"

	"github.com/trainops/workshop-portal/internal/api/handler"
	mw "github.com/trainops/workshop-portal/internal/api/middleware"
	"github.com/trainops/workshop-portal/internal/config"
	"github.com/trainops/workshop-portal/internal/core"
)

//go:embed docs/swagger.json
var swaggerJSON []byte

type Server struct {
	router         chi.Router
	logger         zerolog.Logger
	services       *core.Services
	corePool       *pgxpool.Pool
	temporalClient temporalclient.Client
	cfg            *config.Config
	auditLogger    *mw.AuditLogger
}

func NewServer(logger zerolog.Logger, coreDB *pgxpool.Pool, temporalClient temporalclient.Client, services *core.Services, cfg *config.Config) *Server {
	auditLogger := mw.NewAuditLogger(coreDB, logger)

	s := &Server{
		router:         chi.NewRouter(),
		logger:         logger,
		services:       services,
		corePool:       coreDB,
		temporalClient: temporalClient,
		cfg:            cfg,
		auditLogger:    auditLogger,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(mw.RequestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(mw.Metrics)
}

func (s *Server) setupRoutes() {
	// Prometheus metrics endpoint
	s.router.Handle("/metrics", promhttp.Handler())

	// Health check endpoints
	s.router.Get("/healthz", s.handleHealthz)
	s.router.Get("/readyz", s.handleReadyz)

	// API documentation (no auth required)
	s.router.Get("/docs/openapi.json", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write(swaggerJSON)
	})
	s.router.Get("/docs", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(scalarHTML))
	})

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(mw.Auth(s.corePool))
		r.Use(s.auditLogger.Middleware)

		// Audit logs
		audit := handler.NewAudit(s.corePool)
		r.Get("/audit-logs", audit.List)

		// Workshops
		workshop := handler.NewWorkshop(s.services.Workshop)
		r.Get("/workshops", workshop.List)
		r.Post("/workshops", workshop.Create)
		r.Get("/workshops/{id}", workshop.Get)
		r.Put("/workshops/{id}", workshop.Update)
		r.Delete("/workshops/{id}", workshop.Delete)
		r.Get("/workshops/{id}/participants", workshop.Participants)
		r.Post("/workshops/{id}/participants", workshop.AddParticipants)
		r.Put("/workshops/{id}/participants/{alias}/subscription", workshop.ReassignParticipant)
		r.Get("/workshops/{id}/credentials", workshop.Credentials)

		// Costs
		cost := handler.NewCost(s.services.Cost)
		r.Get("/workshops/{id}/cost", cost.Workshop)

		// Deletion failures
		deletionFailure := handler.NewDeletionFailure(s.services.DeletionFailure)
		r.Get("/deletion-failures", deletionFailure.List)
		r.Post("/deletion-failures/retry-all", deletionFailure.RetryAll)
		r.Post("/deletion-failures/{id}/retry", deletionFailure.Retry)

		// Subscriptions
		subscription := handler.NewSubscription(s.services.Subscription)
		r.Get("/subscriptions", subscription.Catalog)
		r.Get("/subscriptions/settings", subscription.Settings)
		r.Put("/subscriptions/settings", subscription.UpdateSettings)
		r.Post("/subscriptions/{id}/invalidate", subscription.MarkInvalid)

		// Templates
		template := handler.NewTemplate(s.services.Template)
		r.Get("/templates", template.List)
		r.Get("/templates/{name}", template.Get)
		r.Put("/templates/{name}", template.Upsert)
		r.Delete("/templates/{name}", template.Delete)
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	checks := map[string]string{}
	healthy := true

	if err := s.corePool.Ping(ctx); err != nil {
		checks["core_db"] = err.Error()
		healthy = false
	} else {
		checks["core_db"] = "ok"
	}

	if _, err := s.temporalClient.CheckHealth(ctx, &temporalclient.CheckHealthRequest{}); err != nil {
		checks["temporal"] = err.Error()
		healthy = false
	} else {
		checks["temporal"] = "ok"
	}

	w.Header().Set("Content-Type", "application/json")
	if healthy {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(checks)
}

// Close flushes the async audit writer.
func (s *Server) Close() {
	s.auditLogger.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

const scalarHTML = `<!DOCTYPE html>
<html>
<head>
  <title>Workshop Portal API</title>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
</head>
<body>
  <script id="api-reference" data-url="/docs/openapi.json"></script>
  <script src="https://cdn.jsdelivr.net/npm/@scalar/api-reference"></script>
</body>
</html>`
