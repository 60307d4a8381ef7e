// Package tenders implements the tender domain. It provides types, data
// access, and the monotonic status machine that gates pipeline processing and
// approval decisions.
package tenders

import (
	"time"

	"github.com/google/uuid"
)

// Tender represents a procurement tender moving through the processing
// pipeline toward an approval decision.
type Tender struct {
	ID        uuid.UUID  `json:"id"`
	Reference string     `json:"reference"`
	Title     string     `json:"title"`
	Status    Status     `json:"status"`
	Deadline  *time.Time `json:"deadline"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// CreateCommand carries the data needed to register a new tender.
type CreateCommand struct {
	Reference string     `json:"reference"`
	Title     string     `json:"title"`
	Deadline  *time.Time `json:"deadline,omitempty"`
}
