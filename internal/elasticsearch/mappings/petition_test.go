package mappings_test

import (
	"testing"

	"github.com/jonesrussell/petition-pipeline/internal/elasticsearch/mappings"
)

func TestGetPetitionMapping(t *testing.T) {
	mapping := mappings.GetPetitionMapping()

	props, ok := mapping["mappings"].(map[string]any)["properties"].(map[string]any)
	if !ok {
		t.Fatal("mapping has no properties block")
	}

	keywordFields := []string{
		"document_id", "file_name", "category", "legal_domain",
		"legal_domain_llm", "sub_areas", "sub_areas_llm",
		"domain_terms", "extracted_tags",
	}
	for _, field := range keywordFields {
		prop, ok := props[field].(map[string]any)
		if !ok {
			t.Errorf("field %s missing from mapping", field)
			continue
		}
		if prop["type"] != "keyword" {
			t.Errorf("field %s type = %v, want keyword", field, prop["type"])
		}
	}

	textFields := []string{"title", "summary_technical", "summary_plain", "full_text_content"}
	for _, field := range textFields {
		prop, ok := props[field].(map[string]any)
		if !ok {
			t.Errorf("field %s missing from mapping", field)
			continue
		}
		if prop["type"] != "text" {
			t.Errorf("field %s type = %v, want text", field, prop["type"])
		}
		if prop["analyzer"] != "portuguese_analyzer" {
			t.Errorf("field %s analyzer = %v, want portuguese_analyzer", field, prop["analyzer"])
		}
	}

	analysis := mapping["settings"].(map[string]any)["analysis"].(map[string]any)
	if _, ok := analysis["analyzer"].(map[string]any)["portuguese_analyzer"]; !ok {
		t.Error("portuguese_analyzer missing from settings")
	}
}
