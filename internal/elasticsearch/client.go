// Package elasticsearch wraps the official client with the index and bulk
// operations the petition pipeline needs.
package elasticsearch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	es "github.com/elastic/go-elasticsearch/v8"

	"github.com/jonesrussell/petition-pipeline/internal/config"
)

// Client wraps the Elasticsearch client with index management and bulk
// upsert operations.
type Client struct {
	esClient *es.Client
}

// NewClient creates an Elasticsearch client and verifies the connection.
func NewClient(cfg *config.ElasticsearchConfig) (*Client, error) {
	addresses := []string{cfg.URL}
	if !strings.HasPrefix(cfg.URL, "http://") && !strings.HasPrefix(cfg.URL, "https://") {
		addresses = []string{"http://" + cfg.URL}
	}

	clientConfig := es.Config{
		Addresses:  addresses,
		MaxRetries: cfg.MaxRetries,
	}
	if cfg.Username != "" && cfg.Password != "" {
		clientConfig.Username = cfg.Username
		clientConfig.Password = cfg.Password
	}

	esClient, err := es.NewClient(clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Elasticsearch client: %w", err)
	}

	res, err := esClient.Ping()
	if err != nil {
		return nil, fmt.Errorf("failed to ping Elasticsearch: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("error pinging Elasticsearch: %s", res.String())
	}

	return &Client{esClient: esClient}, nil
}

// NewClientWithES wraps an already constructed client. Used by tests.
func NewClientWithES(esClient *es.Client) *Client {
	return &Client{esClient: esClient}
}

// IndexExists checks if an index exists.
func (c *Client) IndexExists(ctx context.Context, indexName string) (bool, error) {
	res, err := c.esClient.Indices.Exists([]string{indexName},
		c.esClient.Indices.Exists.WithContext(ctx))
	if err != nil {
		return false, fmt.Errorf("failed to check index existence: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if res.IsError() {
		return false, fmt.Errorf("error checking index existence: %s", res.String())
	}
	return true, nil
}

// CreateIndex creates a new index with the given mapping.
func (c *Client) CreateIndex(ctx context.Context, indexName string, mapping any) error {
	var mappingReader io.Reader
	if mapping != nil {
		mappingBytes, err := json.Marshal(mapping)
		if err != nil {
			return fmt.Errorf("failed to marshal mapping: %w", err)
		}
		mappingReader = strings.NewReader(string(mappingBytes))
	}

	res, err := c.esClient.Indices.Create(indexName,
		c.esClient.Indices.Create.WithBody(mappingReader),
		c.esClient.Indices.Create.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return fmt.Errorf("error creating index: %s", string(body))
	}
	return nil
}

// EnsureIndex creates the index if it does not exist yet. Idempotent.
func (c *Client) EnsureIndex(ctx context.Context, indexName string, mapping any) error {
	exists, err := c.IndexExists(ctx, indexName)
	if err != nil {
		return fmt.Errorf("failed to check if index exists: %w", err)
	}
	if exists {
		return nil
	}
	return c.CreateIndex(ctx, indexName, mapping)
}

// RecreateIndex deletes the index if present and creates it fresh with the
// given mapping. Used when the operator asks for a clean rebuild.
func (c *Client) RecreateIndex(ctx context.Context, indexName string, mapping any) error {
	exists, err := c.IndexExists(ctx, indexName)
	if err != nil {
		return fmt.Errorf("failed to check if index exists: %w", err)
	}
	if exists {
		if err := c.DeleteIndex(ctx, indexName); err != nil {
			return err
		}
	}
	return c.CreateIndex(ctx, indexName, mapping)
}

// DeleteIndex deletes an index.
func (c *Client) DeleteIndex(ctx context.Context, indexName string) error {
	res, err := c.esClient.Indices.Delete([]string{indexName},
		c.esClient.Indices.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to delete index: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return fmt.Errorf("error deleting index: %s", string(body))
	}
	return nil
}

// CountDocuments returns the number of documents in an index.
func (c *Client) CountDocuments(ctx context.Context, indexName string) (int64, error) {
	res, err := c.esClient.Count(
		c.esClient.Count.WithIndex(indexName),
		c.esClient.Count.WithContext(ctx))
	if err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return 0, fmt.Errorf("error counting documents: %s", string(body))
	}

	var countResp struct {
		Count int64 `json:"count"`
	}
	if err := json.NewDecoder(res.Body).Decode(&countResp); err != nil {
		return 0, fmt.Errorf("failed to decode count response: %w", err)
	}
	return countResp.Count, nil
}
