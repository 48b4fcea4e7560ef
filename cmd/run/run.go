// Package run implements the run command: one end-to-end pipeline pass over
// the petition catalog.
package run

import (
	"fmt"

	"github.com/spf13/cobra"

	cmdcommon "github.com/jonesrussell/petition-pipeline/cmd/common"
	"github.com/jonesrussell/petition-pipeline/internal/catalog"
	"github.com/jonesrussell/petition-pipeline/internal/config"
	"github.com/jonesrussell/petition-pipeline/internal/database"
	"github.com/jonesrussell/petition-pipeline/internal/elasticsearch"
	"github.com/jonesrussell/petition-pipeline/internal/enricher"
	"github.com/jonesrussell/petition-pipeline/internal/generation"
	"github.com/jonesrussell/petition-pipeline/internal/glossary"
	"github.com/jonesrussell/petition-pipeline/internal/logger"
	"github.com/jonesrussell/petition-pipeline/internal/pipeline"
	"github.com/jonesrussell/petition-pipeline/internal/projector"
)

// Command returns the run command.
func Command() *cobra.Command {
	var (
		recreateIndex        bool
		batchSize            int
		forceReprocessErrors bool
		ids                  []string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the full ingest, enrich and index pipeline",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := cmdcommon.LoadConfig(cmd)
			if err != nil {
				return err
			}
			log, err := cmdcommon.NewLogger(cfg)
			if err != nil {
				return fmt.Errorf("failed to create logger: %w", err)
			}
			defer func() { _ = log.Sync() }()

			return execute(cmd, cfg, log, pipeline.Options{
				RecreateIndex:        recreateIndex,
				BatchSize:            batchSize,
				ForceReprocessErrors: forceReprocessErrors,
				IDs:                  ids,
			})
		},
	}

	cmd.Flags().BoolVar(&recreateIndex, "recreate-index", false,
		"delete and recreate the search index before projecting")
	cmd.Flags().IntVar(&batchSize, "batch-size", config.DefaultBatchSize,
		"projection page size")
	cmd.Flags().BoolVar(&forceReprocessErrors, "force-reprocess-errors", false,
		"reprocess records that previously failed enrichment")
	cmd.Flags().StringSliceVar(&ids, "ids", nil,
		"restrict enrichment to these document ids")

	return cmd
}

func execute(cmd *cobra.Command, cfg *config.Config, log logger.Logger, opts pipeline.Options) error {
	ctx := cmd.Context()

	db, err := database.NewPostgresConnection(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() { _ = db.Close() }()

	if err := database.Migrate(ctx, db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	esClient, err := elasticsearch.NewClient(&cfg.Elasticsearch)
	if err != nil {
		return fmt.Errorf("failed to connect to Elasticsearch: %w", err)
	}

	repo := database.NewDocumentRepository(db)

	matcher := loadGlossary(cfg, log)
	tagger := catalog.NewTagger(cfg.Catalog.TagKeywords)
	reader := catalog.NewReader(cfg.Catalog.MetadataPath, cfg.Catalog.DocumentsDir, tagger, log)
	ingestor := catalog.NewIngestor(reader, repo, log)

	generator := generation.NewClient(&cfg.Generation)
	enrich := enricher.New(repo, generator, matcher, &cfg.Pipeline, log)
	project := projector.New(repo, esClient, &cfg.Elasticsearch, log)

	runner := pipeline.New(esClient, ingestor, enrich, project, cfg, log)
	summary, err := runner.Run(ctx, opts)
	if err != nil {
		return err
	}

	if total, countErr := esClient.CountDocuments(ctx, cfg.Elasticsearch.Index); countErr == nil {
		log.Info("index document count",
			logger.String("index", cfg.Elasticsearch.Index),
			logger.Int64("total", total))
	}

	fmt.Printf("run %s: %d ingested, %d enriched, %d failed, %d indexed (%s)\n",
		summary.RunID,
		summary.Ingest.Inserted+summary.Ingest.Reset,
		summary.Enrich.Enriched,
		summary.Enrich.Failed,
		summary.Project.Indexed,
		summary.Duration)
	return nil
}

// loadGlossary builds the term matcher. A missing glossary file downgrades to
// an empty matcher rather than failing the run: enrichment still works, the
// records just carry no domain terms.
func loadGlossary(cfg *config.Config, log logger.Logger) *glossary.Matcher {
	terms, err := glossary.LoadTerms(cfg.Catalog.GlossaryPath)
	if err != nil {
		log.Warn("glossary unavailable, domain term matching disabled",
			logger.String("path", cfg.Catalog.GlossaryPath),
			logger.Error(err))
		return glossary.NewMatcher(nil)
	}
	log.Info("glossary loaded",
		logger.String("path", cfg.Catalog.GlossaryPath),
		logger.Int("terms", len(terms)))
	return glossary.NewMatcher(terms)
}
