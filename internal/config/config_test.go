package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	// An explicitly named but missing config file is an error; without a file
	// the defaults must stand on their own.
	_, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.Error(t, err)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.Pipeline.EnrichBatchSize)
	assert.Equal(t, 3*time.Second, cfg.Pipeline.BatchPause)
	assert.Equal(t, 500*time.Millisecond, cfg.Pipeline.CallPause)
	assert.Equal(t, 15000, cfg.Pipeline.PromptMaxChars)
	assert.Equal(t, "legal_petitions_index", cfg.Elasticsearch.Index)
	assert.Equal(t, 200*time.Millisecond, cfg.Elasticsearch.PagePause)
	assert.Equal(t, "http://localhost:11434", cfg.Generation.URL)
	assert.Equal(t, "mistral:7b", cfg.Generation.Model)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_FileOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
pipeline:
  enrich_batch_size: 25
elasticsearch:
  index: petitions_test
generation:
  model: llama3:8b
catalog:
  tag_keywords:
    despejo: [locação]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 25, cfg.Pipeline.EnrichBatchSize)
	assert.Equal(t, "petitions_test", cfg.Elasticsearch.Index)
	assert.Equal(t, "llama3:8b", cfg.Generation.Model)
	assert.Equal(t, []string{"locação"}, cfg.Catalog.TagKeywords["despejo"])
	// Untouched keys keep their defaults.
	assert.Equal(t, 3*time.Second, cfg.Pipeline.BatchPause)
}

func TestLoad_EnvOnlyCredentials(t *testing.T) {
	// Credentials must resolve from the environment with no config file at
	// all, which requires their keys to be registered as defaults.
	t.Setenv("PETITION_DATABASE_PASSWORD", "s3cret")
	t.Setenv("PETITION_ELASTICSEARCH_USERNAME", "elastic")
	t.Setenv("PETITION_ELASTICSEARCH_PASSWORD", "changeme")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "s3cret", cfg.Database.Password)
	assert.Equal(t, "elastic", cfg.Elasticsearch.Username)
	assert.Equal(t, "changeme", cfg.Elasticsearch.Password)
}

func TestValidate(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	cfg.Pipeline.EnrichBatchSize = 0
	assert.Error(t, cfg.Validate())

	cfg.Pipeline.EnrichBatchSize = 10
	cfg.Elasticsearch.Index = ""
	assert.Error(t, cfg.Validate())

	cfg.Elasticsearch.Index = "idx"
	cfg.Generation.Model = ""
	assert.Error(t, cfg.Validate())
}
