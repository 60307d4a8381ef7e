// Package documents implements the document domain. It provides document
// registration with blob storage, and the immutable TraceLink store that
// associates extracted text snippets with their exact source location.
package documents

import (
	"time"

	"github.com/google/uuid"
)

// Document represents a registered tender document with metadata and its
// blob storage reference.
type Document struct {
	ID          uuid.UUID `json:"id"`
	TenderID    uuid.UUID `json:"tender_id"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	PageCount   *int      `json:"page_count"`
	StorageKey  string    `json:"storage_key"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// CreateCommand carries the data needed to upload and register a new document.
// Data holds the raw file bytes. PageCount is optional and may be extracted
// by the caller via pdfcpu; nil values are stored as NULL.
type CreateCommand struct {
	TenderID    uuid.UUID
	Data        []byte
	Filename    string
	ContentType string
	PageCount   *int
}

// TraceLink associates a text snippet with its source location inside a
// document. TraceLinks are immutable once created; the external document
// parser supplies them pre-segmented.
type TraceLink struct {
	ID          uuid.UUID `json:"id"`
	DocumentID  uuid.UUID `json:"document_id"`
	Page        int       `json:"page"`
	Snippet     string    `json:"snippet"`
	SectionPath *string   `json:"section_path,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// TraceLinkCommand is one pre-segmented snippet in an ingestion batch.
type TraceLinkCommand struct {
	Page        int     `json:"page"`
	Snippet     string  `json:"snippet"`
	SectionPath *string `json:"section_path,omitempty"`
}

// TraceLinkBatch carries the parser output for one document.
type TraceLinkBatch struct {
	Links []TraceLinkCommand `json:"links"`
}
