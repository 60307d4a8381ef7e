// Package approvals implements the approval eligibility validator and the
// atomic decision submission that gates a tender's terminal transition.
package approvals

import (
	"time"

	"github.com/google/uuid"

	"github.com/gavelworks/gavel/internal/tenders"
)

// Decision is a reviewer's verdict on a tender. Both values are terminal
// for the tender.
type Decision string

// Recognized decisions.
const (
	DecisionApproved Decision = "APPROVED"
	DecisionRejected Decision = "REJECTED"
)

// Valid reports whether the decision is recognized.
func (d Decision) Valid() bool {
	return d == DecisionApproved || d == DecisionRejected
}

// TenderStatus returns the tender status the decision maps to.
func (d Decision) TenderStatus() tenders.Status {
	if d == DecisionApproved {
		return tenders.StatusApproved
	}
	return tenders.StatusRejected
}

// Approval is one recorded decision. Rows are append-only; the full decision
// history for a tender is kept.
type Approval struct {
	ID        uuid.UUID `json:"id"`
	TenderID  uuid.UUID `json:"tender_id"`
	Status    Decision  `json:"status"`
	DecidedBy string    `json:"decided_by"`
	Comment   *string   `json:"comment,omitempty"`
	DecidedAt time.Time `json:"decided_at"`
}

// SubmitCommand carries a decision submission.
type SubmitCommand struct {
	Status  Decision `json:"status"`
	Comment *string  `json:"comment,omitempty"`
}

// BlockingItem is one checklist item standing in the way of approval,
// carried with enough detail for actionable remediation.
type BlockingItem struct {
	Key    string `json:"key"`
	Label  string `json:"label"`
	Status string `json:"status"`
	Reason string `json:"reason"`
}

// Eligibility is the structured result of approval validation. Errors and
// blocking items prevent approval; warnings do not.
type Eligibility struct {
	CanApprove    bool           `json:"can_approve"`
	Errors        []string       `json:"errors"`
	Warnings      []string       `json:"warnings"`
	BlockingItems []BlockingItem `json:"blocking_items"`
}

func (e *Eligibility) addError(msg string) {
	e.Errors = append(e.Errors, msg)
}

func (e *Eligibility) addWarning(msg string) {
	e.Warnings = append(e.Warnings, msg)
}

// finalize computes CanApprove from the collected findings.
func (e *Eligibility) finalize() {
	e.CanApprove = len(e.Errors) == 0 && len(e.BlockingItems) == 0
	if e.Errors == nil {
		e.Errors = []string{}
	}
	if e.Warnings == nil {
		e.Warnings = []string{}
	}
	if e.BlockingItems == nil {
		e.BlockingItems = []BlockingItem{}
	}
}
