package summaries

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/gavelworks/gavel/pkg/handlers"
	"github.com/gavelworks/gavel/pkg/routes"
)

// Handler provides read endpoints for summaries and the template catalog.
// Generation happens through pipeline runs.
type Handler struct {
	sys    System
	logger *slog.Logger
}

// NewHandler creates a Handler with the given system and logger.
func NewHandler(sys System, logger *slog.Logger) *Handler {
	return &Handler{
		sys:    sys,
		logger: logger.With("handler", "summaries"),
	}
}

// Routes returns the route group definition for summary endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/tenders/{id}/summary", Handler: h.List},
			{Method: "GET", Pattern: "/summary-templates", Handler: h.Templates},
		},
	}
}

// List returns the tender's summary blocks in position order.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	tenderID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidRequest)
		return
	}

	blocks, err := h.sys.ListByTender(r.Context(), tenderID)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, blocks)
}

// Templates returns the registered template catalog.
func (h *Handler) Templates(w http.ResponseWriter, r *http.Request) {
	handlers.RespondJSON(w, http.StatusOK, Templates())
}
