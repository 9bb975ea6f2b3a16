// Package rest wires the REST adapter: router, middleware, and handlers.
package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"graphdesk-backend/application/services"
	"graphdesk-backend/infrastructure/config"
	"graphdesk-backend/interfaces/http/rest/handlers"
	"graphdesk-backend/interfaces/http/rest/middleware"
)

// Router creates and configures the HTTP router
type Router struct {
	cfg      *config.Config
	session  *services.EditSession
	merger   *services.MergeService
	reach    *services.ReachabilityService
	registry *prometheus.Registry
	logger   *zap.Logger
}

// NewRouter creates a new router instance
func NewRouter(
	cfg *config.Config,
	session *services.EditSession,
	merger *services.MergeService,
	reach *services.ReachabilityService,
	registry *prometheus.Registry,
	logger *zap.Logger,
) *Router {
	return &Router{
		cfg:      cfg,
		session:  session,
		merger:   merger,
		reach:    reach,
		registry: registry,
		logger:   logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))

	if rt.cfg.EnableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"http://localhost:*", "http://127.0.0.1:*"},
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders: []string{"X-Request-ID"},
			MaxAge:         300,
		}))
	}

	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)
	if rt.cfg.EnableMetrics {
		router.Handle("/metrics", promhttp.HandlerFor(rt.registry, promhttp.HandlerOpts{}))
	}

	nodeHandler := handlers.NewNodeHandler(rt.session, rt.logger)
	edgeHandler := handlers.NewEdgeHandler(rt.session, rt.logger)
	sessionHandler := handlers.NewSessionHandler(rt.session, rt.logger)
	mergeHandler := handlers.NewMergeHandler(rt.merger, rt.logger)
	graphHandler := handlers.NewGraphHandler(rt.reach, rt.logger)

	router.Route("/api/v1", func(r chi.Router) {
		r.Route("/nodes", func(r chi.Router) {
			r.Post("/", nodeHandler.CreateNode)
			r.Get("/", nodeHandler.ListNodes)
			r.Get("/{nodeID}", nodeHandler.GetNode)
			r.Put("/{nodeID}", nodeHandler.UpdateNode)
			r.Delete("/{nodeID}", nodeHandler.DeleteNode)
			r.Get("/{nodeID}/connections", nodeHandler.GetConnections)
			r.Get("/{nodeID}/reachable", graphHandler.Reachable)
		})

		r.Route("/edges", func(r chi.Router) {
			r.Post("/", edgeHandler.CreateEdge)
			r.Get("/", edgeHandler.ListEdges)
			r.Get("/{edgeID}", edgeHandler.GetEdge)
			r.Put("/{edgeID}", edgeHandler.UpdateEdge)
			r.Delete("/{edgeID}", edgeHandler.DeleteEdge)
		})

		r.Route("/session", func(r chi.Router) {
			r.Get("/changes", sessionHandler.GetChanges)
			r.Post("/save", sessionHandler.Save)
			r.Post("/discard", sessionHandler.Discard)
		})

		r.Route("/state", func(r chi.Router) {
			r.Get("/view", sessionHandler.GetViewState)
			r.Put("/view", sessionHandler.SetViewState)
			r.Get("/filter", sessionHandler.GetFilterState)
			r.Put("/filter", sessionHandler.SetFilterState)
		})

		r.Post("/merge", mergeHandler.Merge)
	})

	return router
}

func (rt *Router) healthCheck(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

func (rt *Router) readinessCheck(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}
