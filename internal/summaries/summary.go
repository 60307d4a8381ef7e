// Package summaries renders tender brief documents from stored extractions.
// Templates are code-registered; section bodies go through the Renderer
// boundary so the output format can be swapped.
package summaries

import (
	"time"

	"github.com/google/uuid"

	"github.com/gavelworks/gavel/internal/extraction"
)

// SummaryBlock is one rendered section of a tender brief. Regeneration
// replaces the row; (tender_id, section_key) is unique.
type SummaryBlock struct {
	ID           uuid.UUID            `json:"id"`
	TenderID     uuid.UUID            `json:"tender_id"`
	SectionKey   string               `json:"section_key"`
	Title        string               `json:"title"`
	BodyMarkdown string               `json:"body_markdown"`
	Citations    extraction.Citations `json:"citations"`
	Position     int                  `json:"position"`
	GeneratedAt  time.Time            `json:"generated_at"`
}
