// Package projector performs the full resync of enriched records from the
// metadata store into the search index.
package projector

import (
	"context"
	"time"

	"github.com/jonesrussell/petition-pipeline/internal/config"
	"github.com/jonesrussell/petition-pipeline/internal/domain"
	"github.com/jonesrussell/petition-pipeline/internal/elasticsearch"
	"github.com/jonesrussell/petition-pipeline/internal/logger"
)

// rejectionSampleSize bounds how many per-document rejections each page logs.
const rejectionSampleSize = 5

// EnrichedSource pages through enriched records in the metadata store.
type EnrichedSource interface {
	FetchEnrichedPage(ctx context.Context, limit, offset int) ([]*domain.DocumentRecord, error)
}

// Indexer is the slice of the search client the projector needs.
type Indexer interface {
	BulkUpsert(ctx context.Context, indexName string, docs []elasticsearch.BulkDocument) (int, []elasticsearch.BulkError, error)
}

// Result counts what one projection run did.
type Result struct {
	Pages    int
	Indexed  int
	Rejected int
}

// Projector streams enriched records into the search index page by page.
type Projector struct {
	source  EnrichedSource
	indexer Indexer
	cfg     *config.ElasticsearchConfig
	logger  logger.Logger

	// now is swappable so tests get a stable indexed_at.
	now func() time.Time
}

// New creates a projector.
func New(source EnrichedSource, indexer Indexer, cfg *config.ElasticsearchConfig, log logger.Logger) *Projector {
	return &Projector{
		source:  source,
		indexer: indexer,
		cfg:     cfg,
		logger:  log,
		now:     time.Now,
	}
}

// Run resyncs every enriched record into the index, batchSize records per
// page. Per-document rejections are counted and sampled in the log but never
// abort the run; a transport failure on a page does.
func (p *Projector) Run(ctx context.Context, batchSize int) (*Result, error) {
	if batchSize <= 0 {
		batchSize = config.DefaultBatchSize
	}

	result := &Result{}
	for offset := 0; ; offset += batchSize {
		page, err := p.source.FetchEnrichedPage(ctx, batchSize, offset)
		if err != nil {
			return result, err
		}
		if len(page) == 0 {
			break
		}
		result.Pages++

		docs := make([]elasticsearch.BulkDocument, 0, len(page))
		for _, rec := range page {
			docs = append(docs, elasticsearch.BulkDocument{
				ID:   rec.DocumentID,
				Body: p.project(rec),
			})
		}

		accepted, rejections, err := p.indexer.BulkUpsert(ctx, p.cfg.Index, docs)
		if err != nil {
			return result, err
		}
		result.Indexed += accepted
		result.Rejected += len(rejections)

		if len(rejections) > 0 {
			sample := rejections
			if len(sample) > rejectionSampleSize {
				sample = sample[:rejectionSampleSize]
			}
			for _, rejection := range sample {
				p.logger.Warn("document rejected by index",
					logger.String("document_id", rejection.DocumentID),
					logger.Int("status", rejection.Status),
					logger.String("reason", rejection.Reason))
			}
			p.logger.Warn("page had rejections",
				logger.Int("page", result.Pages),
				logger.Int("rejected", len(rejections)))
		}

		p.logger.Info("page indexed",
			logger.Int("page", result.Pages),
			logger.Int("accepted", accepted))

		if len(page) < batchSize {
			break
		}
		if err := pause(ctx, p.cfg.PagePause); err != nil {
			return result, err
		}
	}

	p.logger.Info("projection complete",
		logger.Int("pages", result.Pages),
		logger.Int("indexed", result.Indexed),
		logger.Int("rejected", result.Rejected))
	return result, nil
}

// project flattens a record into the index document shape. List fields are
// decoded from their stored encodings and timestamps are normalized to
// RFC 3339 UTC.
func (p *Projector) project(rec *domain.DocumentRecord) map[string]any {
	doc := map[string]any{
		"document_id":         rec.DocumentID,
		"file_name":           rec.FileName,
		"title":               rec.Title,
		"summary":             rec.Summary,
		"first_lines":         rec.FirstLines,
		"category":            rec.Category,
		"doc_type":            rec.DocType,
		"legal_action":        rec.LegalAction,
		"legal_domain":        rec.LegalDomain,
		"sub_areas":           listOrEmpty(rec.SubAreas),
		"jurisprudence_court": rec.Court,
		"version":             rec.Version,
		"extracted_tags":      listOrEmpty(rec.ExtractedTags),
		"sub_areas_llm":       listOrEmpty(rec.SubAreasLLM),
		"domain_terms":        stringsOrEmpty(rec.DomainTerms),
		"indexed_at":          p.now().UTC().Format(time.RFC3339),
		"created_at":          rec.CreatedAt.UTC().Format(time.RFC3339),
		"updated_at":          rec.UpdatedAt.UTC().Format(time.RFC3339),
	}

	if rec.FullTextContent.Valid {
		doc["full_text_content"] = rec.FullTextContent.String
	}
	if rec.SummaryTechnical.Valid {
		doc["summary_technical"] = rec.SummaryTechnical.String
	}
	if rec.SummaryPlain.Valid {
		doc["summary_plain"] = rec.SummaryPlain.String
	}
	if rec.LegalDomainLLM.Valid {
		doc["legal_domain_llm"] = rec.LegalDomainLLM.String
	}
	return doc
}

func listOrEmpty(list domain.EncodedList) []string {
	if list == nil {
		return []string{}
	}
	return list
}

func stringsOrEmpty(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}

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
