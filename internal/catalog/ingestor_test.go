package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/petition-pipeline/internal/database"
	"github.com/jonesrussell/petition-pipeline/internal/domain"
	"github.com/jonesrussell/petition-pipeline/internal/logger"
)

type fakeStore struct {
	outcomes map[string]database.UpsertOutcome
	forced   map[string]bool
	err      error
}

func (f *fakeStore) Upsert(_ context.Context, rec *domain.DocumentRecord, force bool) (database.UpsertOutcome, error) {
	if f.err != nil {
		return 0, f.err
	}
	if f.forced == nil {
		f.forced = make(map[string]bool)
	}
	f.forced[rec.DocumentID] = force
	return f.outcomes[rec.DocumentID], nil
}

func ingestFixture(t *testing.T) *Reader {
	t.Helper()
	dir := t.TempDir()
	rows := "doc-new\tnew.txt\t\t\t\t\t\t\t\t\t\t\t\n" +
		"doc-changed\tchanged.txt\t\t\t\t\t\t\t\t\t\t\t\n" +
		"doc-same\tsame.txt\t\t\t\t\t\t\t\t\t\t\t\n"
	path := writeCatalog(t, dir, rows)
	return NewReader(path, dir, nil, logger.NewNop())
}

func TestIngestor_CountsOutcomes(t *testing.T) {
	store := &fakeStore{outcomes: map[string]database.UpsertOutcome{
		"doc-new":     database.UpsertInserted,
		"doc-changed": database.UpsertReset,
		"doc-same":    database.UpsertSkipped,
	}}

	ingestor := NewIngestor(ingestFixture(t), store, logger.NewNop())
	result, err := ingestor.Ingest(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Inserted)
	assert.Equal(t, 1, result.Reset)
	assert.Equal(t, 1, result.Skipped)
	assert.False(t, store.forced["doc-new"])
}

func TestIngestor_ForceIDsPropagate(t *testing.T) {
	store := &fakeStore{outcomes: map[string]database.UpsertOutcome{}}

	ingestor := NewIngestor(ingestFixture(t), store, logger.NewNop())
	_, err := ingestor.Ingest(context.Background(), []string{"doc-same"})
	require.NoError(t, err)

	assert.True(t, store.forced["doc-same"])
	assert.False(t, store.forced["doc-new"])
}

func TestIngestor_StoreFailureIsFatal(t *testing.T) {
	store := &fakeStore{err: errors.New("connection reset")}

	ingestor := NewIngestor(ingestFixture(t), store, logger.NewNop())
	_, err := ingestor.Ingest(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "catalog ingest failed")
}

func TestIngestor_ReaderFailureIsFatal(t *testing.T) {
	reader := NewReader(filepath.Join(os.TempDir(), "does-not-exist.tsv"), "", nil, logger.NewNop())
	ingestor := NewIngestor(reader, &fakeStore{}, logger.NewNop())
	_, err := ingestor.Ingest(context.Background(), nil)
	require.Error(t, err)
}
