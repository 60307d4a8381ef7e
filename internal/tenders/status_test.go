package tenders_test

import (
	"testing"

	"github.com/gavelworks/gavel/internal/tenders"
)

func TestStatusValid(t *testing.T) {
	for _, s := range []tenders.Status{
		tenders.StatusDraft,
		tenders.StatusProcessing,
		tenders.StatusReview,
		tenders.StatusApproved,
		tenders.StatusRejected,
	} {
		if !s.Valid() {
			t.Errorf("%s.Valid() = false, want true", s)
		}
	}

	if tenders.Status("ARCHIVED").Valid() {
		t.Error(`Status("ARCHIVED").Valid() = true, want false`)
	}
}

func TestStatusTerminal(t *testing.T) {
	tests := []struct {
		status tenders.Status
		want   bool
	}{
		{tenders.StatusDraft, false},
		{tenders.StatusProcessing, false},
		{tenders.StatusReview, false},
		{tenders.StatusApproved, true},
		{tenders.StatusRejected, true},
	}

	for _, tt := range tests {
		if got := tt.status.Terminal(); got != tt.want {
			t.Errorf("%s.Terminal() = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestStatusCanTransition(t *testing.T) {
	tests := []struct {
		name string
		from tenders.Status
		to   tenders.Status
		want bool
	}{
		{"draft to processing", tenders.StatusDraft, tenders.StatusProcessing, true},
		{"processing to review", tenders.StatusProcessing, tenders.StatusReview, true},
		{"review to approved", tenders.StatusReview, tenders.StatusApproved, true},
		{"review to rejected", tenders.StatusReview, tenders.StatusRejected, true},
		{"draft skips to review", tenders.StatusDraft, tenders.StatusReview, false},
		{"draft skips to approved", tenders.StatusDraft, tenders.StatusApproved, false},
		{"processing back to draft", tenders.StatusProcessing, tenders.StatusDraft, false},
		{"review back to processing", tenders.StatusReview, tenders.StatusProcessing, false},
		{"approved is terminal", tenders.StatusApproved, tenders.StatusRejected, false},
		{"rejected is terminal", tenders.StatusRejected, tenders.StatusReview, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.from.CanTransition(tt.to); got != tt.want {
				t.Errorf("CanTransition(%s -> %s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}
