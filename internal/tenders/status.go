package tenders

// Status is the tender lifecycle state.
type Status string

// Tender lifecycle states. Transitions are monotonic and one-directional;
// APPROVED and REJECTED are terminal.
const (
	StatusDraft      Status = "DRAFT"
	StatusProcessing Status = "PROCESSING"
	StatusReview     Status = "REVIEW"
	StatusApproved   Status = "APPROVED"
	StatusRejected   Status = "REJECTED"
)

var transitions = map[Status][]Status{
	StatusDraft:      {StatusProcessing},
	StatusProcessing: {StatusReview},
	StatusReview:     {StatusApproved, StatusRejected},
}

// Valid reports whether the status is a recognized lifecycle state.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusProcessing, StatusReview, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// CanTransition reports whether the edge from s to target exists in the
// state machine.
func (s Status) CanTransition(target Status) bool {
	for _, next := range transitions[s] {
		if next == target {
			return true
		}
	}
	return false
}
