package approvals

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/gavelworks/gavel/pkg/handlers"
	"github.com/gavelworks/gavel/pkg/identity"
	"github.com/gavelworks/gavel/pkg/routes"
)

// Handler provides HTTP endpoints for approval operations.
type Handler struct {
	sys    System
	logger *slog.Logger
}

// NewHandler creates a Handler with the given system and logger.
func NewHandler(sys System, logger *slog.Logger) *Handler {
	return &Handler{
		sys:    sys,
		logger: logger.With("handler", "approvals"),
	}
}

// Routes returns the route group definition for approval endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/tenders",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/{id}/approval/eligibility", Handler: h.Validate},
			{Method: "POST", Pattern: "/{id}/approval", Handler: h.Submit},
			{Method: "GET", Pattern: "/{id}/approval/history", Handler: h.History},
		},
	}
}

// Validate returns the caller's approval eligibility for a tender.
func (h *Handler) Validate(w http.ResponseWriter, r *http.Request) {
	caller, err := identity.FromRequest(r)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusUnauthorized, err)
		return
	}

	tenderID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidDecision)
		return
	}

	eligibility, err := h.sys.Validate(r.Context(), tenderID, caller)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, eligibility)
}

// Submit records a decision on a tender.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	caller, err := identity.FromRequest(r)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusUnauthorized, err)
		return
	}

	tenderID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidDecision)
		return
	}

	var cmd SubmitCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidDecision)
		return
	}

	approval, err := h.sys.Submit(r.Context(), tenderID, caller, cmd)
	if err != nil {
		// Failed eligibility returns the structured remediation list, not
		// a flat message.
		var eerr *EligibilityError
		if errors.As(err, &eerr) {
			handlers.RespondJSON(w, http.StatusUnprocessableEntity, eerr)
			return
		}
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, approval)
}

// History returns the tender's decision history, newest first.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	tenderID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidDecision)
		return
	}

	history, err := h.sys.History(r.Context(), tenderID)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, history)
}
