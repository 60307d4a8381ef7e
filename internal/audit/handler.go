package audit

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gavelworks/gavel/pkg/handlers"
	"github.com/gavelworks/gavel/pkg/pagination"
	"github.com/gavelworks/gavel/pkg/routes"
)

// Handler provides HTTP endpoints for the audit trail.
type Handler struct {
	sys        System
	logger     *slog.Logger
	pagination pagination.Config
}

// CleanupRequest carries the retention cutoff for a cleanup pass.
type CleanupRequest struct {
	OlderThan time.Time `json:"older_than"`
}

// NewHandler creates a Handler with the given system, logger, and pagination config.
func NewHandler(sys System, logger *slog.Logger, pagination pagination.Config) *Handler {
	return &Handler{
		sys:        sys,
		logger:     logger.With("handler", "audit"),
		pagination: pagination,
	}
}

// Routes returns the route group definition for audit endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/audit",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List},
			{Method: "POST", Pattern: "/cleanup", Handler: h.Cleanup},
		},
	}
}

// List returns a paginated view of audit entries with optional filters.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)
	filters := FiltersFromQuery(r.URL.Query())

	result, err := h.sys.List(r.Context(), page, filters)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Cleanup runs the retention pass, removing entries older than the cutoff.
func (h *Handler) Cleanup(w http.ResponseWriter, r *http.Request) {
	var req CleanupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidRange)
		return
	}

	removed, err := h.sys.Cleanup(r.Context(), req.OlderThan)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, map[string]int64{"removed": removed})
}
