package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/alexliesenfeld/health"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"go.uber.org/zap"
)

// Pinger is a dependency that can report its reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler responds to liveness and readiness probes.
type HealthHandler struct {
	serviceName string
	version     string
	ready       fiber.Handler
}

// NewHealthHandler returns a handler whose readiness probe pings every named dependency.
func NewHealthHandler(serviceName, version string, logger *zap.Logger, deps map[string]Pinger) *HealthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts := []health.CheckerOption{
		health.WithCacheDuration(time.Second),
		health.WithTimeout(2 * time.Second),
	}
	for name, dep := range deps {
		opts = append(opts, health.WithCheck(health.Check{
			Name:    name,
			Timeout: 2 * time.Second,
			Check: func(ctx context.Context) error {
				if err := dep.Ping(ctx); err != nil {
					return fmt.Errorf("failed to ping %s: %w", name, err)
				}
				return nil
			},
			StatusListener: func(_ context.Context, name string, state health.CheckState) {
				logger.Info("health check status changed",
					zap.String("name", name),
					zap.String("state", string(state.Status)))
			},
		}))
	}
	checker := health.NewChecker(opts...)

	return &HealthHandler{
		serviceName: serviceName,
		version:     version,
		ready:       adaptor.HTTPHandler(health.NewHandler(checker)),
	}
}

// Live reports service liveness.
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "alive",
		"service": h.serviceName,
		"version": h.version,
	})
}

// Ready reports service readiness by checking dependencies.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	return h.ready(c)
}
