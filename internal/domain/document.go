// Package domain contains the core domain models for the petition pipeline.
package domain

import (
	"database/sql"
	"time"

	"github.com/lib/pq"
)

// Status represents the enrichment lifecycle state of a document record.
type Status string

const (
	// StatusPending indicates a record waiting for enrichment.
	StatusPending Status = "pending"
	// StatusProcessing indicates a record claimed by a running enrichment pass.
	StatusProcessing Status = "processing"
	// StatusEnriched indicates all derived fields have been written.
	StatusEnriched Status = "enriched"
	// StatusError indicates enrichment failed; ErrorMessage holds the reason.
	StatusError Status = "error"
)

// validTransitions holds the allowed lifecycle edges. The error -> processing
// edge only fires when the operator forces reprocessing of errored records.
var validTransitions = map[Status][]Status{
	StatusPending:    {StatusProcessing},
	StatusProcessing: {StatusEnriched, StatusError},
	StatusError:      {StatusProcessing, StatusPending},
	StatusEnriched:   {StatusPending},
}

// IsValid reports whether s is a recognised lifecycle status.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusEnriched, StatusError:
		return true
	default:
		return false
	}
}

// CanTransitionTo reports whether the edge s -> next is a legal lifecycle
// transition. Resets to pending (from error or enriched) require the force
// flag and are validated by the repository, not here.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// DocumentRecord is one logical source document's lifecycle row in the
// metadata store. Original fields come verbatim from the catalog; derived
// fields are written by the enrichment engine and are non-null only when the
// record reaches StatusEnriched.
type DocumentRecord struct {
	DocumentID  string `db:"document_id"  json:"document_id"`
	FileName    string `db:"file_name"    json:"file_name"`
	ContentPath string `db:"content_path" json:"content_path"`

	// Original catalog fields.
	Title       string      `db:"title"        json:"title"`
	Summary     string      `db:"summary"      json:"summary"`
	FirstLines  string      `db:"first_lines"  json:"first_lines"`
	Category    string      `db:"category"     json:"category"`
	DocType     string      `db:"doc_type"     json:"doc_type"`
	LegalAction string      `db:"legal_action" json:"legal_action"`
	LegalDomain string      `db:"legal_domain" json:"legal_domain"`
	SubAreas    EncodedList `db:"sub_areas"    json:"sub_areas"`
	Court       string      `db:"court"        json:"court"`
	Version     string      `db:"version"      json:"version"`

	// FullTextContent is null when the raw text file was missing at ingest
	// time. Such records can never reach StatusEnriched.
	FullTextContent sql.NullString `db:"full_text_content" json:"full_text_content"`

	// ExtractedTags are derived from the file name and content keywords at
	// ingest time, stored as an encoded list.
	ExtractedTags EncodedList `db:"extracted_tags" json:"extracted_tags"`

	// Derived fields, written atomically on successful enrichment.
	SummaryTechnical sql.NullString `db:"summary_technical" json:"summary_technical"`
	SummaryPlain     sql.NullString `db:"summary_plain"     json:"summary_plain"`
	DomainTerms      pq.StringArray `db:"domain_terms"      json:"domain_terms"`

	// Best-effort structured refinement; may stay null even on enriched rows.
	LegalDomainLLM sql.NullString `db:"legal_domain_llm" json:"legal_domain_llm"`
	SubAreasLLM    EncodedList    `db:"sub_areas_llm"    json:"sub_areas_llm"`

	Status       Status         `db:"status"        json:"status"`
	ErrorMessage sql.NullString `db:"error_message" json:"error_message"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// HasContent reports whether the record carries non-empty source text, the
// precondition for calling the generation service.
func (d *DocumentRecord) HasContent() bool {
	return d.FullTextContent.Valid && d.FullTextContent.String != ""
}
