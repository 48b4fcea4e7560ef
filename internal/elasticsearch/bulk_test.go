package elasticsearch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	es "github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBulkTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	esClient, err := es.NewClient(es.Config{Addresses: []string{server.URL}})
	require.NoError(t, err)
	return NewClientWithES(esClient)
}

func TestBulkUpsert_AllAccepted(t *testing.T) {
	client := newBulkTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"took": 5, "errors": false,
			"items": [
				{"index": {"_id": "doc-1", "status": 201}},
				{"index": {"_id": "doc-2", "status": 200}}
			]
		}`))
	})

	docs := []BulkDocument{
		{ID: "doc-1", Body: map[string]any{"title": "Ação de Alimentos"}},
		{ID: "doc-2", Body: map[string]any{"title": "Habeas Corpus"}},
	}
	accepted, rejections, err := client.BulkUpsert(context.Background(), "legal_petitions_index", docs)
	require.NoError(t, err)
	assert.Equal(t, 2, accepted)
	assert.Empty(t, rejections)
}

func TestBulkUpsert_PartialRejection(t *testing.T) {
	client := newBulkTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"took": 5, "errors": true,
			"items": [
				{"index": {"_id": "doc-1", "status": 201}},
				{"index": {"_id": "doc-2", "status": 400,
					"error": {"type": "mapper_parsing_exception", "reason": "failed to parse field [created_at]"}}}
			]
		}`))
	})

	docs := []BulkDocument{
		{ID: "doc-1", Body: map[string]any{"title": "ok"}},
		{ID: "doc-2", Body: map[string]any{"created_at": "not-a-date"}},
	}
	accepted, rejections, err := client.BulkUpsert(context.Background(), "legal_petitions_index", docs)
	require.NoError(t, err)
	assert.Equal(t, 1, accepted)
	require.Len(t, rejections, 1)
	assert.Equal(t, "doc-2", rejections[0].DocumentID)
	assert.Equal(t, 400, rejections[0].Status)
	assert.Contains(t, rejections[0].Reason, "failed to parse")
}

func TestBulkUpsert_EmptyBatch(t *testing.T) {
	client := newBulkTestClient(t, func(_ http.ResponseWriter, _ *http.Request) {
		t.Fatal("no request expected for an empty batch")
	})

	accepted, rejections, err := client.BulkUpsert(context.Background(), "legal_petitions_index", nil)
	require.NoError(t, err)
	assert.Zero(t, accepted)
	assert.Empty(t, rejections)
}

func TestBulkUpsert_TransportError(t *testing.T) {
	client := newBulkTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	docs := []BulkDocument{{ID: "doc-1", Body: map[string]any{}}}
	_, _, err := client.BulkUpsert(context.Background(), "legal_petitions_index", docs)
	require.Error(t, err)
}
