package extraction

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/gavelworks/gavel/pkg/handlers"
	"github.com/gavelworks/gavel/pkg/routes"
)

// Handler provides read endpoints for stored extractions. Writes happen
// through pipeline runs, not through the API.
type Handler struct {
	sys    System
	logger *slog.Logger
}

// NewHandler creates a Handler with the given system and logger.
func NewHandler(sys System, logger *slog.Logger) *Handler {
	return &Handler{
		sys:    sys,
		logger: logger.With("handler", "extraction"),
	}
}

// Routes returns the route group definition for extraction endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/tenders",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/{id}/extractions", Handler: h.List},
			{Method: "GET", Pattern: "/{id}/extractions/{field}", Handler: h.Find},
		},
	}
}

// List returns every stored extraction for a tender.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	tenderID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidField)
		return
	}

	items, err := h.sys.ListByTender(r.Context(), tenderID)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, items)
}

// Find returns one field's stored extraction for a tender.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	tenderID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidField)
		return
	}

	fe, err := h.sys.Find(r.Context(), tenderID, FieldKey(r.PathValue("field")))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, fe)
}
