package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/jonesrussell/petition-pipeline/internal/domain"
)

// maxErrorMessageLen bounds the persisted error_message column; longer
// generation failures are truncated.
const maxErrorMessageLen = 450

// ErrDocumentNotFound is returned when a document_id does not exist.
var ErrDocumentNotFound = errors.New("document not found")

// UpsertOutcome describes what an Upsert call did with a catalog row.
type UpsertOutcome int

const (
	// UpsertInserted means the document_id was unseen and a new pending row
	// was created.
	UpsertInserted UpsertOutcome = iota
	// UpsertReset means an existing row was overwritten with fresh catalog
	// fields and reset to pending.
	UpsertReset
	// UpsertSkipped means the existing row was enriched or in flight and the
	// catalog refresh left it alone.
	UpsertSkipped
)

// documentColumns is the full select list, kept in one place so every reader
// scans the same shape.
const documentColumns = `document_id, file_name, content_path, title, summary,
	first_lines, category, doc_type, legal_action, legal_domain, sub_areas,
	court, version, full_text_content, extracted_tags, summary_technical,
	summary_plain, domain_terms, legal_domain_llm, sub_areas_llm, status,
	error_message, created_at, updated_at`

// DocumentRepository handles metadata store operations for document records.
type DocumentRepository struct {
	db *sqlx.DB
}

// NewDocumentRepository creates a new document repository.
func NewDocumentRepository(db *sqlx.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// Upsert applies the catalog upsert policy for one parsed row:
//
//   - unseen document_id: insert as pending
//   - seen and (forced, or status not in {enriched, processing}): overwrite
//     the original fields, reset to pending, clear any prior error
//   - seen, enriched or processing, not forced: skip
func (r *DocumentRepository) Upsert(ctx context.Context, rec *domain.DocumentRecord, force bool) (UpsertOutcome, error) {
	var current domain.Status
	err := r.db.QueryRowContext(ctx,
		`SELECT status FROM documents WHERE document_id = $1`,
		rec.DocumentID,
	).Scan(&current)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		return r.insert(ctx, rec)
	case err != nil:
		return 0, fmt.Errorf("failed to look up document %s: %w", rec.DocumentID, err)
	}

	if !force && (current == domain.StatusEnriched || current == domain.StatusProcessing) {
		return UpsertSkipped, nil
	}
	return r.reset(ctx, rec)
}

func (r *DocumentRepository) insert(ctx context.Context, rec *domain.DocumentRecord) (UpsertOutcome, error) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO documents (
			document_id, file_name, content_path, title, summary, first_lines,
			category, doc_type, legal_action, legal_domain, sub_areas, court,
			version, full_text_content, extracted_tags, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		rec.DocumentID, rec.FileName, rec.ContentPath, rec.Title, rec.Summary,
		rec.FirstLines, rec.Category, rec.DocType, rec.LegalAction,
		rec.LegalDomain, rec.SubAreas, rec.Court, rec.Version,
		rec.FullTextContent, rec.ExtractedTags, domain.StatusPending,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert document %s: %w", rec.DocumentID, err)
	}
	return UpsertInserted, nil
}

func (r *DocumentRepository) reset(ctx context.Context, rec *domain.DocumentRecord) (UpsertOutcome, error) {
	_, err := r.db.ExecContext(ctx, `
		UPDATE documents SET
			file_name = $2, content_path = $3, title = $4, summary = $5,
			first_lines = $6, category = $7, doc_type = $8, legal_action = $9,
			legal_domain = $10, sub_areas = $11, court = $12, version = $13,
			full_text_content = $14, extracted_tags = $15,
			status = $16, error_message = NULL, updated_at = NOW()
		WHERE document_id = $1`,
		rec.DocumentID, rec.FileName, rec.ContentPath, rec.Title, rec.Summary,
		rec.FirstLines, rec.Category, rec.DocType, rec.LegalAction,
		rec.LegalDomain, rec.SubAreas, rec.Court, rec.Version,
		rec.FullTextContent, rec.ExtractedTags, domain.StatusPending,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to reset document %s: %w", rec.DocumentID, err)
	}
	return UpsertReset, nil
}

// SelectForEnrichment returns the ids of records awaiting enrichment, oldest
// first: pending records, plus errored records when includeErrors is set,
// optionally restricted to an explicit id subset. The limit bounds one batch
// and is ignored when an explicit subset is given.
func (r *DocumentRepository) SelectForEnrichment(ctx context.Context, includeErrors bool, ids []string, limit int) ([]string, error) {
	statuses := []string{string(domain.StatusPending)}
	if includeErrors {
		statuses = append(statuses, string(domain.StatusError))
	}

	query := `SELECT document_id FROM documents WHERE status = ANY($1)`
	args := []any{pq.Array(statuses)}

	if len(ids) > 0 {
		query += ` AND document_id = ANY($2)`
		args = append(args, pq.Array(ids))
	}
	query += ` ORDER BY created_at ASC`
	if limit > 0 && len(ids) == 0 {
		query += fmt.Sprintf(` LIMIT %d`, limit)
	}

	var selected []string
	if err := r.db.SelectContext(ctx, &selected, query, args...); err != nil {
		return nil, fmt.Errorf("failed to select documents for enrichment: %w", err)
	}
	return selected, nil
}

// ClaimProcessing durably marks a record as processing before any external
// call is made. The status guard is a compare-and-swap: a record already
// claimed by another run (or since enriched) is not re-claimed, and the
// method reports false so the caller skips it.
func (r *DocumentRepository) ClaimProcessing(ctx context.Context, documentID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE documents SET status = $2, updated_at = NOW()
		WHERE document_id = $1 AND status = ANY($3)`,
		documentID, domain.StatusProcessing,
		pq.Array([]string{string(domain.StatusPending), string(domain.StatusError)}),
	)
	if err != nil {
		return false, fmt.Errorf("failed to claim document %s: %w", documentID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read claim result for %s: %w", documentID, err)
	}
	return n == 1, nil
}

// GetByID fetches a full document record.
func (r *DocumentRepository) GetByID(ctx context.Context, documentID string) (*domain.DocumentRecord, error) {
	var rec domain.DocumentRecord
	err := r.db.GetContext(ctx, &rec,
		`SELECT `+documentColumns+` FROM documents WHERE document_id = $1`,
		documentID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, documentID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document %s: %w", documentID, err)
	}
	return &rec, nil
}

// EnrichedFields carries everything MarkEnriched writes in one atomic update.
type EnrichedFields struct {
	SummaryTechnical string
	SummaryPlain     string
	DomainTerms      []string
	LegalDomainLLM   sql.NullString
	SubAreasLLM      domain.EncodedList
}

// MarkEnriched atomically writes all derived fields, sets the record to
// enriched and clears any prior error. Re-enrichment fully overwrites the
// previous derived values.
func (r *DocumentRepository) MarkEnriched(ctx context.Context, documentID string, fields *EnrichedFields) error {
	terms := fields.DomainTerms
	if terms == nil {
		terms = []string{}
	}
	_, err := r.db.ExecContext(ctx, `
		UPDATE documents SET
			summary_technical = $2, summary_plain = $3, domain_terms = $4,
			legal_domain_llm = $5, sub_areas_llm = $6,
			status = $7, error_message = NULL, updated_at = NOW()
		WHERE document_id = $1`,
		documentID, fields.SummaryTechnical, fields.SummaryPlain,
		pq.Array(terms), fields.LegalDomainLLM, fields.SubAreasLLM,
		domain.StatusEnriched,
	)
	if err != nil {
		return fmt.Errorf("failed to mark document %s enriched: %w", documentID, err)
	}
	return nil
}

// MarkError sets the record to error with a truncated reason.
func (r *DocumentRepository) MarkError(ctx context.Context, documentID, reason string) error {
	if len(reason) > maxErrorMessageLen {
		reason = reason[:maxErrorMessageLen]
	}
	_, err := r.db.ExecContext(ctx, `
		UPDATE documents SET status = $2, error_message = $3, updated_at = NOW()
		WHERE document_id = $1`,
		documentID, domain.StatusError, reason,
	)
	if err != nil {
		return fmt.Errorf("failed to mark document %s errored: %w", documentID, err)
	}
	return nil
}

// FetchEnrichedPage returns one page of enriched records ordered by
// document_id, for the projector's full resync.
func (r *DocumentRepository) FetchEnrichedPage(ctx context.Context, limit, offset int) ([]*domain.DocumentRecord, error) {
	var page []*domain.DocumentRecord
	err := r.db.SelectContext(ctx, &page,
		`SELECT `+documentColumns+` FROM documents
		 WHERE status = $1 ORDER BY document_id LIMIT $2 OFFSET $3`,
		domain.StatusEnriched, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch enriched page: %w", err)
	}
	return page, nil
}
