package api

import (
	"net/http"

	"github.com/gavelworks/gavel/internal/config"
	"github.com/gavelworks/gavel/pkg/routes"
)

func registerRoutes(
	mux *http.ServeMux,
	domain *Domain,
	cfg *config.Config,
) {
	routes.Register(
		mux,
		domain.Audit.Handler().Routes(),
		domain.Tenders.Handler().Routes(),
		domain.Documents.Handler(cfg.API.MaxUploadSizeBytes()).Routes(),
		domain.Pipelines.Handler().Routes(),
		domain.Runs.Handler(domain.Scheduler).Routes(),
		domain.Extractions.Handler().Routes(),
		domain.Checklists.Handler().Routes(),
		domain.Summaries.Handler().Routes(),
		domain.Approvals.Handler().Routes(),
	)
}
