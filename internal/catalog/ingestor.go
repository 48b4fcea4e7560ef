package catalog

import (
	"context"
	"fmt"

	"github.com/jonesrussell/petition-pipeline/internal/database"
	"github.com/jonesrussell/petition-pipeline/internal/domain"
	"github.com/jonesrussell/petition-pipeline/internal/logger"
)

// DocumentStore is the slice of the metadata store the ingestor needs.
type DocumentStore interface {
	Upsert(ctx context.Context, rec *domain.DocumentRecord, force bool) (database.UpsertOutcome, error)
}

// IngestResult counts what one catalog ingestion did.
type IngestResult struct {
	Inserted int
	Reset    int
	Skipped  int
}

// Ingestor upserts parsed catalog rows into the metadata store.
type Ingestor struct {
	reader *Reader
	store  DocumentStore
	logger logger.Logger
}

// NewIngestor creates a catalog ingestor.
func NewIngestor(reader *Reader, store DocumentStore, log logger.Logger) *Ingestor {
	return &Ingestor{reader: reader, store: store, logger: log}
}

// Ingest reads the catalog and applies the upsert policy row by row. The ids
// in forceIDs are reset to pending even when already enriched or in flight.
// A store failure on a single row is fatal: the store is the pipeline's
// source of truth and a partial ingest would leave it unaccounted for.
func (i *Ingestor) Ingest(ctx context.Context, forceIDs []string) (*IngestResult, error) {
	records, err := i.reader.Read()
	if err != nil {
		return nil, err
	}

	forced := make(map[string]bool, len(forceIDs))
	for _, id := range forceIDs {
		forced[id] = true
	}

	result := &IngestResult{}
	for _, rec := range records {
		outcome, upsertErr := i.store.Upsert(ctx, rec, forced[rec.DocumentID])
		if upsertErr != nil {
			return nil, fmt.Errorf("catalog ingest failed at document %s: %w", rec.DocumentID, upsertErr)
		}
		switch outcome {
		case database.UpsertInserted:
			result.Inserted++
			i.logger.Info("document inserted as pending",
				logger.String("document_id", rec.DocumentID),
				logger.Bool("has_content", rec.HasContent()))
		case database.UpsertReset:
			result.Reset++
			i.logger.Debug("document reset to pending",
				logger.String("document_id", rec.DocumentID),
				logger.Bool("has_content", rec.HasContent()))
		case database.UpsertSkipped:
			result.Skipped++
		}
	}

	i.logger.Info("catalog ingestion complete",
		logger.Int("inserted", result.Inserted),
		logger.Int("reset_to_pending", result.Reset),
		logger.Int("skipped", result.Skipped))
	return result, nil
}
