package di

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"graphdesk-backend/application/ports"
	"graphdesk-backend/application/services"
	"graphdesk-backend/infrastructure/config"
	"graphdesk-backend/pkg/observability"
)

// Container holds all application dependencies
type Container struct {
	Config       *config.Config
	Logger       *zap.Logger
	Registry     *prometheus.Registry
	Metrics      *observability.Metrics
	Store        ports.GraphStore
	SourceOpener ports.SourceOpener
	Session      *services.EditSession
	Merger       *services.MergeService
	Reachability *services.ReachabilityService
}

// Shutdown flushes and releases the container's resources.
func (c *Container) Shutdown() error {
	err := c.Session.Close()
	c.Logger.Sync()
	return err
}
