// Package identity carries the caller identity supplied by the external
// authentication layer. The service trusts the X-User-Id and X-User-Role
// headers set by the gateway; it performs no authentication itself.
package identity

import (
	"errors"
	"net/http"
	"strings"
)

// Role is the authorization role assigned to a caller.
type Role string

// Caller roles recognized by the approval rules.
const (
	RoleAnalyst  Role = "ANALYST"
	RoleReviewer Role = "REVIEWER"
	RoleAdmin    Role = "ADMIN"
)

// Errors returned when the identity headers are absent or malformed.
var (
	ErrMissingUser = errors.New("missing X-User-Id header")
	ErrInvalidRole = errors.New("invalid X-User-Role header")
)

// Identity identifies the acting user on a request.
type Identity struct {
	UserID string `json:"user_id"`
	Role   Role   `json:"role"`
}

// Valid reports whether the role is one of the recognized values.
func (r Role) Valid() bool {
	switch r {
	case RoleAnalyst, RoleReviewer, RoleAdmin:
		return true
	}
	return false
}

// CanDecide reports whether the role is permitted to submit approval
// decisions. Analysts prepare tenders but cannot decide them.
func (r Role) CanDecide() bool {
	return r == RoleReviewer || r == RoleAdmin
}

// FromRequest extracts the caller identity from request headers.
func FromRequest(r *http.Request) (Identity, error) {
	userID := strings.TrimSpace(r.Header.Get("X-User-Id"))
	if userID == "" {
		return Identity{}, ErrMissingUser
	}

	role := Role(strings.ToUpper(strings.TrimSpace(r.Header.Get("X-User-Role"))))
	if !role.Valid() {
		return Identity{}, ErrInvalidRole
	}

	return Identity{UserID: userID, Role: role}, nil
}
