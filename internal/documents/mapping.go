package documents

import (
	"net/url"

	"github.com/google/uuid"

	"github.com/gavelworks/gavel/pkg/query"
	"github.com/gavelworks/gavel/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "documents", "d").
	Project("id", "ID").
	Project("tender_id", "TenderID").
	Project("filename", "Filename").
	Project("content_type", "ContentType").
	Project("size_bytes", "SizeBytes").
	Project("page_count", "PageCount").
	Project("storage_key", "StorageKey").
	Project("uploaded_at", "UploadedAt")

var defaultSort = query.SortField{
	Field:      "UploadedAt",
	Descending: true,
}

// Filters contains optional filtering criteria for document queries.
// Nil fields are ignored.
type Filters struct {
	TenderID    *uuid.UUID `json:"tender_id,omitempty"`
	Filename    *string    `json:"filename,omitempty"`
	ContentType *string    `json:"content_type,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("TenderID", f.TenderID).
		WhereContains("Filename", f.Filename).
		WhereEquals("ContentType", f.ContentType)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if v := values.Get("tender_id"); v != "" {
		if id, err := uuid.Parse(v); err == nil {
			f.TenderID = &id
		}
	}
	if v := values.Get("filename"); v != "" {
		f.Filename = &v
	}
	if v := values.Get("content_type"); v != "" {
		f.ContentType = &v
	}

	return f
}

func scanDocument(s repository.Scanner) (Document, error) {
	var d Document
	err := s.Scan(
		&d.ID,
		&d.TenderID,
		&d.Filename,
		&d.ContentType,
		&d.SizeBytes,
		&d.PageCount,
		&d.StorageKey,
		&d.UploadedAt,
	)
	return d, err
}

func scanTraceLink(s repository.Scanner) (TraceLink, error) {
	var l TraceLink
	err := s.Scan(
		&l.ID,
		&l.DocumentID,
		&l.Page,
		&l.Snippet,
		&l.SectionPath,
		&l.CreatedAt,
	)
	return l, err
}
