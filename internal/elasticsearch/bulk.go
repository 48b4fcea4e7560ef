package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
)

// BulkDocument is one document headed for the index, addressed by its
// document id so repeated projections overwrite instead of duplicating.
type BulkDocument struct {
	ID   string
	Body map[string]any
}

// BulkError describes one rejected document from a bulk request.
type BulkError struct {
	DocumentID string
	Status     int
	Reason     string
}

func (e BulkError) Error() string {
	return fmt.Sprintf("document %s rejected with status %d: %s", e.DocumentID, e.Status, e.Reason)
}

// BulkUpsert indexes docs in one bulk request, overwriting existing documents
// with the same id. It returns how many documents were accepted and the
// per-document rejections; a transport-level failure is returned as err with
// zero accepted.
func (c *Client) BulkUpsert(ctx context.Context, indexName string, docs []BulkDocument) (int, []BulkError, error) {
	if len(docs) == 0 {
		return 0, nil, nil
	}

	var buf bytes.Buffer
	for _, doc := range docs {
		action := map[string]any{
			"index": map[string]any{
				"_index": indexName,
				"_id":    doc.ID,
			},
		}
		if err := json.NewEncoder(&buf).Encode(action); err != nil {
			return 0, nil, fmt.Errorf("failed to encode bulk action: %w", err)
		}
		if err := json.NewEncoder(&buf).Encode(doc.Body); err != nil {
			return 0, nil, fmt.Errorf("failed to encode document %s: %w", doc.ID, err)
		}
	}

	res, err := c.esClient.Bulk(bytes.NewReader(buf.Bytes()),
		c.esClient.Bulk.WithIndex(indexName),
		c.esClient.Bulk.WithContext(ctx))
	if err != nil {
		return 0, nil, fmt.Errorf("bulk request failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return 0, nil, fmt.Errorf("bulk request returned error: %s", string(body))
	}

	var bulkResp bulkResponse
	if err := json.NewDecoder(res.Body).Decode(&bulkResp); err != nil {
		return 0, nil, fmt.Errorf("failed to decode bulk response: %w", err)
	}

	accepted := 0
	var rejections []BulkError
	for _, item := range bulkResp.Items {
		result := item.Index
		if result == nil {
			continue
		}
		if result.Error != nil {
			rejections = append(rejections, BulkError{
				DocumentID: result.ID,
				Status:     result.Status,
				Reason:     result.Error.Reason,
			})
			continue
		}
		accepted++
	}
	return accepted, rejections, nil
}

type bulkResponse struct {
	Errors bool `json:"errors"`
	Items  []struct {
		Index *bulkItemResult `json:"index"`
	} `json:"items"`
}

type bulkItemResult struct {
	ID     string `json:"_id"`
	Status int    `json:"status"`
	Error  *struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	} `json:"error"`
}
