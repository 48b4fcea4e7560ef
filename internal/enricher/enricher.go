// Package enricher drives document enrichment: it claims records awaiting
// work, generates summaries and classifications, matches glossary terms, and
// persists the result, one record at a time so a bad document never takes a
// batch down with it.
package enricher

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jonesrussell/petition-pipeline/internal/config"
	"github.com/jonesrussell/petition-pipeline/internal/database"
	"github.com/jonesrussell/petition-pipeline/internal/domain"
	"github.com/jonesrussell/petition-pipeline/internal/logger"
)

// DocumentStore defines the metadata store operations the enricher needs.
type DocumentStore interface {
	SelectForEnrichment(ctx context.Context, includeErrors bool, ids []string, limit int) ([]string, error)
	ClaimProcessing(ctx context.Context, documentID string) (bool, error)
	GetByID(ctx context.Context, documentID string) (*domain.DocumentRecord, error)
	MarkEnriched(ctx context.Context, documentID string, fields *database.EnrichedFields) error
	MarkError(ctx context.Context, documentID, reason string) error
}

// Generator defines the text-generation operations the enricher needs.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	GenerateStructured(ctx context.Context, prompt string, out any) error
}

// TermMatcher finds glossary terms in document text.
type TermMatcher interface {
	Match(text string) []string
}

// Options selects which records one enrichment run covers.
type Options struct {
	// IncludeErrors reprocesses records that previously failed.
	IncludeErrors bool
	// IDs restricts the run to an explicit set of document ids.
	IDs []string
}

// Result counts what one enrichment run did.
type Result struct {
	Processed int
	Enriched  int
	Failed    int
	Skipped   int
}

// Enricher runs the enrichment state machine over records awaiting work.
type Enricher struct {
	store     DocumentStore
	generator Generator
	matcher   TermMatcher
	cfg       *config.PipelineConfig
	logger    logger.Logger
}

// New creates an enricher.
func New(store DocumentStore, generator Generator, matcher TermMatcher, cfg *config.PipelineConfig, log logger.Logger) *Enricher {
	return &Enricher{
		store:     store,
		generator: generator,
		matcher:   matcher,
		cfg:       cfg,
		logger:    log,
	}
}

// Run drains the enrichment backlog in batches until no selectable records
// remain or the context is cancelled. Failures of individual records are
// recorded on the record itself and never abort the run.
func (e *Enricher) Run(ctx context.Context, opts Options) (*Result, error) {
	result := &Result{}
	attempted := make(map[string]bool)
	for batch := 1; ; batch++ {
		// Records that failed earlier in this run are still selectable and
		// sort first; widening the limit lets the select reach past them.
		limit := e.cfg.EnrichBatchSize + len(attempted)
		selected, err := e.store.SelectForEnrichment(ctx, opts.IncludeErrors, opts.IDs, limit)
		if err != nil {
			return result, err
		}

		// A record that failed this run goes back to error status and would
		// be reselected forever; each id gets one attempt per run.
		ids := selected[:0:0]
		for _, id := range selected {
			if attempted[id] {
				continue
			}
			attempted[id] = true
			ids = append(ids, id)
			if len(ids) == e.cfg.EnrichBatchSize {
				break
			}
		}
		if len(ids) == 0 {
			break
		}

		e.logger.Info("enrichment batch selected",
			logger.Int("batch", batch),
			logger.Int("documents", len(ids)))

		for _, id := range ids {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			e.enrichOne(ctx, id, result)
		}

		// An explicit id subset is selected in one shot; looping again would
		// reselect records that just failed.
		if len(opts.IDs) > 0 {
			break
		}
		if err := pause(ctx, e.cfg.BatchPause); err != nil {
			return result, err
		}
	}

	e.logger.Info("enrichment run complete",
		logger.Int("processed", result.Processed),
		logger.Int("enriched", result.Enriched),
		logger.Int("failed", result.Failed),
		logger.Int("skipped", result.Skipped))
	return result, nil
}

// enrichOne moves a single record through claim, generation, term matching
// and the final atomic write. Every failure path lands the record in the
// error state with a reason.
func (e *Enricher) enrichOne(ctx context.Context, documentID string, result *Result) {
	claimed, err := e.store.ClaimProcessing(ctx, documentID)
	if err != nil {
		e.logger.Error("failed to claim document",
			logger.String("document_id", documentID), logger.Error(err))
		result.Failed++
		return
	}
	if !claimed {
		e.logger.Debug("document no longer claimable, skipping",
			logger.String("document_id", documentID))
		result.Skipped++
		return
	}
	result.Processed++

	rec, err := e.store.GetByID(ctx, documentID)
	if err != nil {
		e.markFailed(ctx, documentID, result, fmt.Errorf("load record: %w", err))
		return
	}

	if !rec.HasContent() {
		e.markFailed(ctx, documentID, result,
			fmt.Errorf("document has no text content (path %s)", rec.ContentPath))
		return
	}

	text := truncateForPrompt(rec.FullTextContent.String, e.cfg.PromptMaxChars)

	technical, err := e.generator.Generate(ctx, technicalPrompt(text))
	if err != nil {
		e.markFailed(ctx, documentID, result, fmt.Errorf("technical summary: %w", err))
		return
	}
	if err := pause(ctx, e.cfg.CallPause); err != nil {
		e.markFailed(ctx, documentID, result, err)
		return
	}
	plain, err := e.generator.Generate(ctx, plainPrompt(text))
	if err != nil {
		e.markFailed(ctx, documentID, result, fmt.Errorf("plain summary: %w", err))
		return
	}

	fields := &database.EnrichedFields{
		SummaryTechnical: technical,
		SummaryPlain:     plain,
		DomainTerms:      e.matchTerms(rec),
	}
	e.refine(ctx, rec, text, fields)

	if err := e.store.MarkEnriched(ctx, documentID, fields); err != nil {
		e.logger.Error("failed to persist enrichment",
			logger.String("document_id", documentID), logger.Error(err))
		result.Failed++
		return
	}

	result.Enriched++
	e.logger.Info("document enriched",
		logger.String("document_id", documentID),
		logger.Int("domain_terms", len(fields.DomainTerms)),
		logger.Bool("classified", fields.LegalDomainLLM.Valid))
}

// refine asks the model for a structured legal-domain classification. It is
// best effort: a refusal or malformed payload leaves the fields empty and
// never fails the record.
func (e *Enricher) refine(ctx context.Context, rec *domain.DocumentRecord, text string, fields *database.EnrichedFields) {
	if err := pause(ctx, e.cfg.CallPause); err != nil {
		return
	}

	var refined refinementResult
	if err := e.generator.GenerateStructured(ctx, refinementPrompt(text), &refined); err != nil {
		e.logger.Warn("structured classification failed, keeping catalog values",
			logger.String("document_id", rec.DocumentID), logger.Error(err))
		return
	}

	if d := strings.TrimSpace(refined.LegalDomain); d != "" {
		fields.LegalDomainLLM = sql.NullString{String: d, Valid: true}
	}
	subAreas := make(domain.EncodedList, 0, len(refined.SubAreas))
	for _, area := range refined.SubAreas {
		if area = strings.TrimSpace(area); area != "" {
			subAreas = append(subAreas, area)
		}
	}
	fields.SubAreasLLM = subAreas
}

// matchTerms runs the glossary automaton over the full document text, not the
// prompt-truncated slice, so long documents still surface late terms.
func (e *Enricher) matchTerms(rec *domain.DocumentRecord) []string {
	if e.matcher == nil {
		return []string{}
	}
	return e.matcher.Match(rec.FullTextContent.String)
}

func (e *Enricher) markFailed(ctx context.Context, documentID string, result *Result, cause error) {
	result.Failed++
	e.logger.Warn("document enrichment failed",
		logger.String("document_id", documentID), logger.Error(cause))
	if err := e.store.MarkError(ctx, documentID, cause.Error()); err != nil {
		e.logger.Error("failed to record enrichment error",
			logger.String("document_id", documentID), logger.Error(err))
	}
}

// pause sleeps for d unless the context is cancelled first.
func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
