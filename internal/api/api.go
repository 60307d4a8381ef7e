// Package api assembles the API module with all domain systems and route registration.
package api

import (
	"net/http"
	"time"

	"github.com/gavelworks/gavel/internal/config"
	"github.com/gavelworks/gavel/internal/infrastructure"
	"github.com/gavelworks/gavel/pkg/middleware"
	"github.com/gavelworks/gavel/pkg/module"
)

// retentionInterval is how often the audit retention pass runs.
const retentionInterval = time.Hour

// NewModule creates the API module with all domain handlers and middleware,
// and starts the run scheduler and audit retention janitor on the
// infrastructure lifecycle.
func NewModule(cfg *config.Config, infra *infrastructure.Infrastructure) (*module.Module, error) {
	runtime := NewRuntime(cfg, infra)
	domain := NewDomain(cfg, runtime)

	domain.Scheduler.Start(infra.Lifecycle)
	startRetention(domain, cfg, infra)

	mux := http.NewServeMux()
	registerRoutes(mux, domain, cfg)

	m := module.New(cfg.API.BasePath, mux)
	m.Use(middleware.CORS(&cfg.API.CORS))
	m.Use(middleware.Logger(runtime.Infrastructure.Logger))

	return m, nil
}

// startRetention runs periodic audit log cleanup until shutdown.
func startRetention(domain *Domain, cfg *config.Config, infra *infrastructure.Infrastructure) {
	retention := cfg.Audit.RetentionDuration()
	if retention <= 0 {
		return
	}

	ctx := infra.Lifecycle.Context()
	logger := infra.Logger.With("system", "audit")

	go func() {
		ticker := time.NewTicker(retentionInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				cutoff := time.Now().Add(-retention)
				removed, err := domain.Audit.Cleanup(ctx, cutoff)
				if err != nil {
					logger.Error("audit retention pass failed", "error", err)
					continue
				}
				if removed > 0 {
					logger.Info("audit retention pass complete", "removed", removed)
				}
			}
		}
	}()
}
