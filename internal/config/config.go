// Package config holds the typed configuration for the petition pipeline.
// One Config value is constructed at startup and passed by reference into
// each component's constructor.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/jonesrussell/petition-pipeline/internal/logger"
)

// Default configuration values.
const (
	DefaultBatchSize       = 500
	defaultEnrichBatchSize = 10
	defaultBatchPause      = 3 * time.Second
	defaultCallPause       = 500 * time.Millisecond
	defaultPromptMaxChars  = 15000

	defaultDBHost    = "localhost"
	defaultDBPort    = 5432
	defaultDBUser    = "postgres"
	defaultDBName    = "petitions"
	defaultDBSSLMode = "disable"

	defaultESURL        = "http://localhost:9200"
	defaultESIndex      = "legal_petitions_index"
	defaultESMaxRetries = 3
	defaultESTimeout    = 30 * time.Second
	defaultESPagePause  = 200 * time.Millisecond

	defaultGenerationURL     = "http://localhost:11434"
	defaultGenerationModel   = "mistral:7b"
	defaultGenerationTimeout = 120 * time.Second
)

// Config holds all configuration for the pipeline.
type Config struct {
	Pipeline      PipelineConfig      `mapstructure:"pipeline"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Generation    GenerationConfig    `mapstructure:"generation"`
	Catalog       CatalogConfig       `mapstructure:"catalog"`
	Logging       logger.Config       `mapstructure:"logging"`
}

// PipelineConfig holds enrichment run settings.
type PipelineConfig struct {
	// EnrichBatchSize bounds how many records each enrichment batch claims.
	EnrichBatchSize int `mapstructure:"enrich_batch_size"`
	// BatchPause is the sleep between enrichment batches.
	BatchPause time.Duration `mapstructure:"batch_pause"`
	// CallPause is the sleep between the two generation calls per record.
	CallPause time.Duration `mapstructure:"call_pause"`
	// PromptMaxChars truncates document text before prompting.
	PromptMaxChars int `mapstructure:"prompt_max_chars"`
}

// DatabaseConfig holds metadata store configuration.
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"sslmode"`
}

// ElasticsearchConfig holds search index configuration.
type ElasticsearchConfig struct {
	URL        string        `mapstructure:"url"`
	Username   string        `mapstructure:"username"`
	Password   string        `mapstructure:"password"`
	Index      string        `mapstructure:"index"`
	MaxRetries int           `mapstructure:"max_retries"`
	Timeout    time.Duration `mapstructure:"timeout"`
	// PagePause is the sleep between projection pages.
	PagePause time.Duration `mapstructure:"page_pause"`
}

// GenerationConfig holds the text-generation service configuration.
type GenerationConfig struct {
	// URL is the base URL of an Ollama-compatible endpoint.
	URL     string        `mapstructure:"url"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// CatalogConfig holds source catalog paths.
type CatalogConfig struct {
	// MetadataPath is the TSV catalog of petition templates.
	MetadataPath string `mapstructure:"metadata_path"`
	// DocumentsDir is the base directory of raw .txt files.
	DocumentsDir string `mapstructure:"documents_dir"`
	// GlossaryPath is the TSV glossary of legal terms.
	GlossaryPath string `mapstructure:"glossary_path"`
	// TagKeywords maps a content keyword to the tags it implies.
	TagKeywords map[string][]string `mapstructure:"tag_keywords"`
}

// Load reads configuration from the given file (or the default search path)
// plus environment variable overrides, and returns the populated Config.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("PETITION")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		// No config file is fine; defaults plus env cover everything.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults registers default values for every key.
func setDefaults(v *viper.Viper) {
	v.SetDefault("pipeline.enrich_batch_size", defaultEnrichBatchSize)
	v.SetDefault("pipeline.batch_pause", defaultBatchPause)
	v.SetDefault("pipeline.call_pause", defaultCallPause)
	v.SetDefault("pipeline.prompt_max_chars", defaultPromptMaxChars)

	v.SetDefault("database.host", defaultDBHost)
	v.SetDefault("database.port", defaultDBPort)
	v.SetDefault("database.user", defaultDBUser)
	// Credentials default to empty so AutomaticEnv can resolve them: viper
	// only consults the environment for keys it already knows about.
	v.SetDefault("database.password", "")
	v.SetDefault("database.database", defaultDBName)
	v.SetDefault("database.sslmode", defaultDBSSLMode)

	v.SetDefault("elasticsearch.url", defaultESURL)
	v.SetDefault("elasticsearch.username", "")
	v.SetDefault("elasticsearch.password", "")
	v.SetDefault("elasticsearch.index", defaultESIndex)
	v.SetDefault("elasticsearch.max_retries", defaultESMaxRetries)
	v.SetDefault("elasticsearch.timeout", defaultESTimeout)
	v.SetDefault("elasticsearch.page_pause", defaultESPagePause)

	v.SetDefault("generation.url", defaultGenerationURL)
	v.SetDefault("generation.model", defaultGenerationModel)
	v.SetDefault("generation.timeout", defaultGenerationTimeout)

	v.SetDefault("catalog.metadata_path", "./shared_data/source_metadata.tsv")
	v.SetDefault("catalog.documents_dir", "./source_documents/petitions")
	v.SetDefault("catalog.glossary_path", "./shared_data/glossario.tsv")

	v.SetDefault("logging.level", "info")
}

// Validate checks the parts of the configuration that cannot be defaulted.
func (c *Config) Validate() error {
	if c.Pipeline.EnrichBatchSize <= 0 {
		return errors.New("pipeline.enrich_batch_size must be positive")
	}
	if c.Elasticsearch.Index == "" {
		return errors.New("elasticsearch.index must not be empty")
	}
	if c.Generation.URL == "" {
		return errors.New("generation.url must not be empty")
	}
	if c.Generation.Model == "" {
		return errors.New("generation.model must not be empty")
	}
	return nil
}
