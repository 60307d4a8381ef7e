package identity_test

import (
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gavelworks/gavel/pkg/identity"
)

func TestRoleCanDecide(t *testing.T) {
	tests := []struct {
		role identity.Role
		want bool
	}{
		{identity.RoleAnalyst, false},
		{identity.RoleReviewer, true},
		{identity.RoleAdmin, true},
	}

	for _, tt := range tests {
		if got := tt.role.CanDecide(); got != tt.want {
			t.Errorf("%s.CanDecide() = %v, want %v", tt.role, got, tt.want)
		}
	}
}

func TestFromRequest(t *testing.T) {
	tests := []struct {
		name    string
		userID  string
		role    string
		want    identity.Identity
		wantErr error
	}{
		{
			name:   "valid headers",
			userID: "u-42",
			role:   "REVIEWER",
			want:   identity.Identity{UserID: "u-42", Role: identity.RoleReviewer},
		},
		{
			name:   "lowercase role normalized",
			userID: "u-42",
			role:   "admin",
			want:   identity.Identity{UserID: "u-42", Role: identity.RoleAdmin},
		},
		{
			name:    "missing user",
			role:    "REVIEWER",
			wantErr: identity.ErrMissingUser,
		},
		{
			name:    "blank user",
			userID:  "   ",
			role:    "REVIEWER",
			wantErr: identity.ErrMissingUser,
		},
		{
			name:    "missing role",
			userID:  "u-42",
			wantErr: identity.ErrInvalidRole,
		},
		{
			name:    "unknown role",
			userID:  "u-42",
			role:    "SUPERUSER",
			wantErr: identity.ErrInvalidRole,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			if tt.userID != "" {
				r.Header.Set("X-User-Id", tt.userID)
			}
			if tt.role != "" {
				r.Header.Set("X-User-Role", tt.role)
			}

			got, err := identity.FromRequest(r)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("identity = %+v, want %+v", got, tt.want)
			}
		})
	}
}
