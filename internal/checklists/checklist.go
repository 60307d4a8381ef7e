// Package checklists generates approval checklists from stored extractions
// using a fixed, code-registered template catalog.
package checklists

import (
	"time"

	"github.com/google/uuid"

	"github.com/gavelworks/gavel/internal/extraction"
)

// ItemStatus is the evaluation state of one checklist item.
type ItemStatus string

// Item evaluation states. PENDING and MISSING items block approval unless
// the item is optional.
const (
	StatusPending ItemStatus = "PENDING"
	StatusOK      ItemStatus = "OK"
	StatusMissing ItemStatus = "MISSING"
	StatusNA      ItemStatus = "N_A"
)

// Valid reports whether the status is a recognized item state.
func (s ItemStatus) Valid() bool {
	switch s {
	case StatusPending, StatusOK, StatusMissing, StatusNA:
		return true
	}
	return false
}

// ChecklistItem is one evaluated template item for a tender. Regeneration
// replaces the row; (tender_id, item_key) is unique.
type ChecklistItem struct {
	ID          uuid.UUID            `json:"id"`
	TenderID    uuid.UUID            `json:"tender_id"`
	ItemKey     string               `json:"item_key"`
	Label       string               `json:"label"`
	Status      ItemStatus           `json:"status"`
	Optional    bool                 `json:"optional"`
	Notes       *string              `json:"notes,omitempty"`
	Citations   extraction.Citations `json:"citations"`
	GeneratedAt time.Time            `json:"generated_at"`
}

// Blocking reports whether the item stands in the way of approval.
func (i ChecklistItem) Blocking() bool {
	if i.Optional {
		return false
	}
	return i.Status == StatusPending || i.Status == StatusMissing
}
