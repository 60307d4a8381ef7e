// Package audit implements the append-only audit trail. Every state-changing
// action in the service records an entry; entries are never mutated and are
// removed only by the explicit retention cleanup pass.
package audit

import (
	"encoding/json"
	"time"
)

// Actions recorded by the service. The action string is stored verbatim so
// compliance viewers can filter on it.
const (
	ActionTenderCreate     = "TENDER_CREATE"
	ActionTenderTransition = "TENDER_TRANSITION"
	ActionPipelineCreate   = "PIPELINE_CREATE"
	ActionPipelineUpdate   = "PIPELINE_UPDATE"
	ActionRunEnqueue       = "RUN_ENQUEUE"
	ActionRunTransition    = "RUN_TRANSITION"
	ActionApprove          = "APPROVE"
	ActionReject           = "REJECT"
)

// Entry is one append-only audit record. Before and After hold the entity
// state around the action as opaque JSON; for status transitions they are
// StatusDiff documents.
type Entry struct {
	ID         int64           `json:"id"`
	ActorID    string          `json:"actor_id"`
	Action     string          `json:"action"`
	Entity     string          `json:"entity"`
	EntityID   string          `json:"entity_id"`
	Before     json.RawMessage `json:"before,omitempty"`
	After      json.RawMessage `json:"after,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// StatusDiff is the known diff shape for status transitions.
type StatusDiff struct {
	Status string `json:"status"`
}

// StatusChange builds before/after payloads for a status transition entry.
func StatusChange(before, after string) (json.RawMessage, json.RawMessage) {
	b, _ := json.Marshal(StatusDiff{Status: before})
	a, _ := json.Marshal(StatusDiff{Status: after})
	return b, a
}
