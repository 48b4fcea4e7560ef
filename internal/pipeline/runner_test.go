package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/petition-pipeline/internal/catalog"
	"github.com/jonesrussell/petition-pipeline/internal/config"
	"github.com/jonesrussell/petition-pipeline/internal/enricher"
	"github.com/jonesrussell/petition-pipeline/internal/logger"
	"github.com/jonesrussell/petition-pipeline/internal/projector"
)

type fakeIndex struct {
	ensured   bool
	recreated bool
	err       error
}

func (f *fakeIndex) EnsureIndex(context.Context, string, any) error {
	f.ensured = true
	return f.err
}

func (f *fakeIndex) RecreateIndex(context.Context, string, any) error {
	f.recreated = true
	return f.err
}

type fakeIngestor struct {
	forceIDs []string
	result   catalog.IngestResult
	err      error
}

func (f *fakeIngestor) Ingest(_ context.Context, forceIDs []string) (*catalog.IngestResult, error) {
	f.forceIDs = forceIDs
	if f.err != nil {
		return nil, f.err
	}
	return &f.result, nil
}

type fakeEnricher struct {
	opts   enricher.Options
	result enricher.Result
	err    error
}

func (f *fakeEnricher) Run(_ context.Context, opts enricher.Options) (*enricher.Result, error) {
	f.opts = opts
	return &f.result, f.err
}

type fakeProjector struct {
	batchSize int
	result    projector.Result
	err       error
	called    bool
}

func (f *fakeProjector) Run(_ context.Context, batchSize int) (*projector.Result, error) {
	f.called = true
	f.batchSize = batchSize
	return &f.result, f.err
}

func pipelineConfig() *config.Config {
	return &config.Config{
		Elasticsearch: config.ElasticsearchConfig{Index: "legal_petitions_index"},
	}
}

func newTestRunner(index *fakeIndex, ingestor *fakeIngestor, enrich *fakeEnricher, project *fakeProjector) *Runner {
	return New(index, ingestor, enrich, project, pipelineConfig(), logger.NewNop())
}

func TestRun_AllPhasesInOrder(t *testing.T) {
	index := &fakeIndex{}
	ingestor := &fakeIngestor{result: catalog.IngestResult{Inserted: 3, Skipped: 1}}
	enrich := &fakeEnricher{result: enricher.Result{Processed: 3, Enriched: 3}}
	project := &fakeProjector{result: projector.Result{Pages: 1, Indexed: 3}}

	summary, err := newTestRunner(index, ingestor, enrich, project).
		Run(context.Background(), Options{BatchSize: 500})
	require.NoError(t, err)

	assert.True(t, index.ensured)
	assert.False(t, index.recreated)
	assert.Equal(t, 3, summary.Ingest.Inserted)
	assert.Equal(t, 3, summary.Enrich.Enriched)
	assert.Equal(t, 3, summary.Project.Indexed)
	assert.Equal(t, 500, project.batchSize)
	assert.NotEmpty(t, summary.RunID)
}

func TestRun_RecreateIndex(t *testing.T) {
	index := &fakeIndex{}

	_, err := newTestRunner(index, &fakeIngestor{}, &fakeEnricher{}, &fakeProjector{}).
		Run(context.Background(), Options{RecreateIndex: true})
	require.NoError(t, err)

	assert.True(t, index.recreated)
	assert.False(t, index.ensured)
}

func TestRun_ForceReprocessPropagates(t *testing.T) {
	ingestor := &fakeIngestor{}
	enrich := &fakeEnricher{}

	_, err := newTestRunner(&fakeIndex{}, ingestor, enrich, &fakeProjector{}).
		Run(context.Background(), Options{
			ForceReprocessErrors: true,
			IDs:                  []string{"doc-1"},
		})
	require.NoError(t, err)

	assert.True(t, enrich.opts.IncludeErrors)
	assert.Equal(t, []string{"doc-1"}, enrich.opts.IDs)
	assert.Equal(t, []string{"doc-1"}, ingestor.forceIDs)
}

func TestRun_IDsWithoutForceDoNotResetIngest(t *testing.T) {
	ingestor := &fakeIngestor{}

	_, err := newTestRunner(&fakeIndex{}, ingestor, &fakeEnricher{}, &fakeProjector{}).
		Run(context.Background(), Options{IDs: []string{"doc-1"}})
	require.NoError(t, err)

	assert.Empty(t, ingestor.forceIDs)
}

func TestRun_IndexFailureIsFatal(t *testing.T) {
	index := &fakeIndex{err: errors.New("cluster unreachable")}
	project := &fakeProjector{}

	_, err := newTestRunner(index, &fakeIngestor{}, &fakeEnricher{}, project).
		Run(context.Background(), Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ensure index")
	assert.False(t, project.called)
}

func TestRun_IngestFailureIsFatal(t *testing.T) {
	ingestor := &fakeIngestor{err: errors.New("catalog unreadable")}
	project := &fakeProjector{}

	_, err := newTestRunner(&fakeIndex{}, ingestor, &fakeEnricher{}, project).
		Run(context.Background(), Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "catalog ingestion")
	assert.False(t, project.called)
}

func TestRun_ProjectionFailureIsFatal(t *testing.T) {
	project := &fakeProjector{err: errors.New("bulk request failed")}

	summary, err := newTestRunner(&fakeIndex{}, &fakeIngestor{}, &fakeEnricher{result: enricher.Result{Enriched: 2}}, project).
		Run(context.Background(), Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "projection")
	// Enrichment already happened and its counters survive the failure.
	assert.Equal(t, 2, summary.Enrich.Enriched)
}
