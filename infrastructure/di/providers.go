// Package di wires the application dependencies with google/wire.
package di

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"graphdesk-backend/application/ports"
	"graphdesk-backend/application/services"
	"graphdesk-backend/infrastructure/config"
	"graphdesk-backend/infrastructure/persistence/sqlite"
	"graphdesk-backend/pkg/observability"
)

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// ProvideRegistry creates the prometheus registry with process collectors
func ProvideRegistry() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return registry
}

// ProvideMetrics registers the core collectors
func ProvideMetrics(registry *prometheus.Registry) *observability.Metrics {
	return observability.NewMetrics(registry)
}

// ProvideStore opens the sqlite-backed persistence gateway
func ProvideStore(cfg *config.Config, logger *zap.Logger) (ports.GraphStore, error) {
	return sqlite.Open(cfg.StorePath, logger)
}

// ProvideSourceOpener creates the merge-source opener
func ProvideSourceOpener(logger *zap.Logger) ports.SourceOpener {
	return sqlite.NewSourceOpener(logger)
}

// ProvideSession creates the edit session and loads the baseline from the store
func ProvideSession(ctx context.Context, store ports.GraphStore, logger *zap.Logger, metrics *observability.Metrics) (*services.EditSession, error) {
	session := services.NewEditSession(store, logger, metrics)
	if err := session.Load(ctx); err != nil {
		return nil, err
	}
	return session, nil
}

// ProvideMergeService creates the merge engine bound to the session
func ProvideMergeService(session *services.EditSession, opener ports.SourceOpener, logger *zap.Logger, metrics *observability.Metrics) *services.MergeService {
	return services.NewMergeService(session, opener, logger, metrics)
}

// ProvideReachabilityService creates the reachability query service
func ProvideReachabilityService(session *services.EditSession, logger *zap.Logger) *services.ReachabilityService {
	return services.NewReachabilityService(session, logger)
}
