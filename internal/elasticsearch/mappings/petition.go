// Package mappings defines the Elasticsearch index mappings used by the
// petition pipeline.
package mappings

// GetPetitionMapping returns the mapping for the legal petitions index.
// Identity and facet fields are keywords; prose fields use a Portuguese
// analyzer with asciifolding so accented and unaccented queries match.
func GetPetitionMapping() map[string]any {
	return map[string]any{
		"settings": map[string]any{
			"number_of_shards":   1,
			"number_of_replicas": 1,
			"analysis": map[string]any{
				"analyzer": map[string]any{
					"portuguese_analyzer": map[string]any{
						"type":      "custom",
						"tokenizer": "standard",
						"filter":    []string{"lowercase", "asciifolding"},
					},
				},
			},
		},
		"mappings": map[string]any{
			"properties": map[string]any{
				"document_id": map[string]any{
					"type": "keyword",
				},
				"file_name": map[string]any{
					"type": "keyword",
				},
				"title": map[string]any{
					"type":     "text",
					"analyzer": "portuguese_analyzer",
				},
				"summary": map[string]any{
					"type":     "text",
					"analyzer": "portuguese_analyzer",
				},
				"summary_technical": map[string]any{
					"type":     "text",
					"analyzer": "portuguese_analyzer",
				},
				"summary_plain": map[string]any{
					"type":     "text",
					"analyzer": "portuguese_analyzer",
				},
				"first_lines": map[string]any{
					"type":     "text",
					"analyzer": "portuguese_analyzer",
				},
				"full_text_content": map[string]any{
					"type":     "text",
					"analyzer": "portuguese_analyzer",
				},
				"category": map[string]any{
					"type": "keyword",
				},
				"doc_type": map[string]any{
					"type": "keyword",
				},
				"legal_action": map[string]any{
					"type": "keyword",
				},
				"legal_domain": map[string]any{
					"type": "keyword",
				},
				"legal_domain_llm": map[string]any{
					"type": "keyword",
				},
				"sub_areas": map[string]any{
					"type": "keyword",
				},
				"sub_areas_llm": map[string]any{
					"type": "keyword",
				},
				"jurisprudence_court": map[string]any{
					"type": "keyword",
				},
				"version": map[string]any{
					"type": "keyword",
				},
				"domain_terms": map[string]any{
					"type": "keyword",
				},
				"extracted_tags": map[string]any{
					"type": "keyword",
				},
				"indexed_at": map[string]any{
					"type": "date",
				},
				"created_at": map[string]any{
					"type": "date",
				},
				"updated_at": map[string]any{
					"type": "date",
				},
			},
		},
	}
}
