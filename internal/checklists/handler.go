package checklists

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/gavelworks/gavel/pkg/handlers"
	"github.com/gavelworks/gavel/pkg/routes"
)

// Handler provides read endpoints for checklists and the template catalog.
// Generation happens through pipeline runs.
type Handler struct {
	sys    System
	logger *slog.Logger
}

// NewHandler creates a Handler with the given system and logger.
func NewHandler(sys System, logger *slog.Logger) *Handler {
	return &Handler{
		sys:    sys,
		logger: logger.With("handler", "checklists"),
	}
}

// Routes returns the route group definition for checklist endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/tenders/{id}/checklist", Handler: h.List},
			{Method: "GET", Pattern: "/checklist-templates", Handler: h.Templates},
		},
	}
}

// List returns the tender's checklist items.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	tenderID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidRequest)
		return
	}

	items, err := h.sys.ListByTender(r.Context(), tenderID)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, items)
}

// Templates returns the registered template catalog.
func (h *Handler) Templates(w http.ResponseWriter, r *http.Request) {
	handlers.RespondJSON(w, http.StatusOK, Templates())
}
