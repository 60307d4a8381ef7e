package pipelines

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/gavelworks/gavel/pkg/handlers"
	"github.com/gavelworks/gavel/pkg/identity"
	"github.com/gavelworks/gavel/pkg/pagination"
	"github.com/gavelworks/gavel/pkg/routes"
)

// Handler provides HTTP endpoints for pipeline definition operations.
// Definitions are accepted as YAML or JSON request bodies.
type Handler struct {
	sys        System
	logger     *slog.Logger
	pagination pagination.Config
}

// NewHandler creates a Handler with the given system, logger, and pagination config.
func NewHandler(sys System, logger *slog.Logger, pagination pagination.Config) *Handler {
	return &Handler{
		sys:        sys,
		logger:     logger.With("handler", "pipelines"),
		pagination: pagination,
	}
}

// Routes returns the route group definition for pipeline endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/pipelines",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List},
			{Method: "GET", Pattern: "/{id}", Handler: h.Find},
			{Method: "POST", Pattern: "", Handler: h.Create},
			{Method: "PUT", Pattern: "/{name}", Handler: h.Update},
			{Method: "POST", Pattern: "/validate", Handler: h.Validate},
		},
	}
}

// List returns a paginated list of pipelines with optional query parameter filters.
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

// Find returns a single pipeline by its UUID path parameter.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalid)
		return
	}

	p, err := h.sys.Find(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, p)
}

// Create validates and stores a new pipeline definition.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	caller, err := identity.FromRequest(r)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusUnauthorized, err)
		return
	}

	def, ok := h.decodeDefinition(w, r)
	if !ok {
		return
	}

	p, err := h.sys.Create(r.Context(), *def, caller.UserID)
	if err != nil {
		h.respondDefinitionError(w, err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, p)
}

// Update validates and stores a new version of an existing pipeline.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	caller, err := identity.FromRequest(r)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusUnauthorized, err)
		return
	}

	def, ok := h.decodeDefinition(w, r)
	if !ok {
		return
	}

	p, err := h.sys.Update(r.Context(), r.PathValue("name"), *def, caller.UserID)
	if err != nil {
		h.respondDefinitionError(w, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, p)
}

// Validate performs a dry validation of a definition without storing it.
func (h *Handler) Validate(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalid)
		return
	}

	if _, err := ParseDefinition(body); err != nil {
		h.respondDefinitionError(w, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, map[string]bool{"valid": true})
}

func (h *Handler) decodeDefinition(w http.ResponseWriter, r *http.Request) (*Definition, bool) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalid)
		return nil, false
	}

	def, err := ParseDefinition(body)
	if err != nil {
		h.respondDefinitionError(w, err)
		return nil, false
	}
	return def, true
}

// respondDefinitionError returns the structured issue list for validation
// failures so callers can render field-level messages.
func (h *Handler) respondDefinitionError(w http.ResponseWriter, err error) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		h.logger.Warn("pipeline definition rejected", "issues", len(verr.Issues))
		handlers.RespondJSON(w, http.StatusUnprocessableEntity, verr)
		return
	}
	handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
}
