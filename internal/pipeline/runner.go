// Package pipeline orchestrates one end-to-end run: index setup, catalog
// ingestion, enrichment and projection into the search index.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jonesrussell/petition-pipeline/internal/catalog"
	"github.com/jonesrussell/petition-pipeline/internal/config"
	"github.com/jonesrussell/petition-pipeline/internal/elasticsearch/mappings"
	"github.com/jonesrussell/petition-pipeline/internal/enricher"
	"github.com/jonesrussell/petition-pipeline/internal/logger"
	"github.com/jonesrussell/petition-pipeline/internal/projector"
)

// IndexManager prepares the search index before a run.
type IndexManager interface {
	EnsureIndex(ctx context.Context, indexName string, mapping any) error
	RecreateIndex(ctx context.Context, indexName string, mapping any) error
}

// CatalogIngestor loads the source catalog into the metadata store.
type CatalogIngestor interface {
	Ingest(ctx context.Context, forceIDs []string) (*catalog.IngestResult, error)
}

// EnrichmentRunner drains the enrichment backlog.
type EnrichmentRunner interface {
	Run(ctx context.Context, opts enricher.Options) (*enricher.Result, error)
}

// ProjectionRunner resyncs enriched records into the search index.
type ProjectionRunner interface {
	Run(ctx context.Context, batchSize int) (*projector.Result, error)
}

// Options control one pipeline run.
type Options struct {
	// RecreateIndex drops and rebuilds the search index before projecting.
	RecreateIndex bool
	// BatchSize is the projection page size.
	BatchSize int
	// ForceReprocessErrors reprocesses records that previously failed.
	ForceReprocessErrors bool
	// IDs restricts enrichment to an explicit set of document ids. With
	// ForceReprocessErrors, those ids are also reset during ingestion.
	IDs []string
}

// Summary aggregates the counters of one run.
type Summary struct {
	RunID     string
	Ingest    catalog.IngestResult
	Enrich    enricher.Result
	Project   projector.Result
	Duration  time.Duration
	StartedAt time.Time
}

// Runner executes the pipeline phases in order.
type Runner struct {
	index     IndexManager
	ingestor  CatalogIngestor
	enricher  EnrichmentRunner
	projector ProjectionRunner
	cfg       *config.Config
	logger    logger.Logger
}

// New creates a pipeline runner.
func New(index IndexManager, ingestor CatalogIngestor, enrichmentRunner EnrichmentRunner,
	projectionRunner ProjectionRunner, cfg *config.Config, log logger.Logger) *Runner {
	return &Runner{
		index:     index,
		ingestor:  ingestor,
		enricher:  enrichmentRunner,
		projector: projectionRunner,
		cfg:       cfg,
		logger:    log,
	}
}

// Run executes index setup, ingestion, enrichment and projection. Phase
// failures are fatal: a run that cannot ingest or project stops rather than
// report partial success. Individual document failures inside enrichment are
// not fatal and only surface in the summary counters.
func (r *Runner) Run(ctx context.Context, opts Options) (*Summary, error) {
	summary := &Summary{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
	}
	log := r.logger.With(logger.String("run_id", summary.RunID))

	log.Info("pipeline run starting",
		logger.String("index", r.cfg.Elasticsearch.Index),
		logger.Bool("recreate_index", opts.RecreateIndex),
		logger.Bool("force_reprocess_errors", opts.ForceReprocessErrors),
		logger.Int("explicit_ids", len(opts.IDs)))

	mapping := mappings.GetPetitionMapping()
	if opts.RecreateIndex {
		if err := r.index.RecreateIndex(ctx, r.cfg.Elasticsearch.Index, mapping); err != nil {
			return summary, fmt.Errorf("recreate index: %w", err)
		}
		log.Info("index recreated", logger.String("index", r.cfg.Elasticsearch.Index))
	} else {
		if err := r.index.EnsureIndex(ctx, r.cfg.Elasticsearch.Index, mapping); err != nil {
			return summary, fmt.Errorf("ensure index: %w", err)
		}
	}

	var forceIDs []string
	if opts.ForceReprocessErrors {
		forceIDs = opts.IDs
	}
	ingest, err := r.ingestor.Ingest(ctx, forceIDs)
	if err != nil {
		return summary, fmt.Errorf("catalog ingestion: %w", err)
	}
	summary.Ingest = *ingest

	enrich, err := r.enricher.Run(ctx, enricher.Options{
		IncludeErrors: opts.ForceReprocessErrors,
		IDs:           opts.IDs,
	})
	if enrich != nil {
		summary.Enrich = *enrich
	}
	if err != nil {
		return summary, fmt.Errorf("enrichment: %w", err)
	}

	project, err := r.projector.Run(ctx, opts.BatchSize)
	if project != nil {
		summary.Project = *project
	}
	if err != nil {
		return summary, fmt.Errorf("projection: %w", err)
	}

	summary.Duration = time.Since(summary.StartedAt)
	log.Info("pipeline run complete",
		logger.Int("ingested", summary.Ingest.Inserted+summary.Ingest.Reset),
		logger.Int("enriched", summary.Enrich.Enriched),
		logger.Int("enrich_failed", summary.Enrich.Failed),
		logger.Int("indexed", summary.Project.Indexed),
		logger.Int("index_rejected", summary.Project.Rejected),
		logger.Duration("duration", summary.Duration))
	return summary, nil
}
