package generation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/petition-pipeline/internal/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(&config.GenerationConfig{
		URL:   server.URL,
		Model: "mistral:7b",
	})
}

func TestClient_Generate(t *testing.T) {
	var gotReq generateRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		_ = json.NewEncoder(w).Encode(generateResponse{
			Response: "  Resumo técnico da petição.  ",
			Done:     true,
		})
	})

	text, err := client.Generate(context.Background(), "Resuma a petição.")
	require.NoError(t, err)
	assert.Equal(t, "Resumo técnico da petição.", text)
	assert.Equal(t, "mistral:7b", gotReq.Model)
	assert.False(t, gotReq.Stream)
	assert.Empty(t, gotReq.Format)
}

func TestClient_GenerateEmptyResponse(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(generateResponse{Response: "   ", Done: true})
	})

	_, err := client.Generate(context.Background(), "prompt")
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestClient_GenerateServiceError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(generateResponse{Error: "model not found"})
	})

	_, err := client.Generate(context.Background(), "prompt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model not found")
}

func TestClient_GenerateHTTPError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.Generate(context.Background(), "prompt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestClient_GenerateStructured(t *testing.T) {
	var gotReq generateRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		_ = json.NewEncoder(w).Encode(generateResponse{
			Response: `{"legal_domain":"Direito de Família","sub_areas":["alimentos"]}`,
			Done:     true,
		})
	})

	var out struct {
		LegalDomain string   `json:"legal_domain"`
		SubAreas    []string `json:"sub_areas"`
	}
	require.NoError(t, client.GenerateStructured(context.Background(), "classifique", &out))
	assert.Equal(t, "Direito de Família", out.LegalDomain)
	assert.Equal(t, []string{"alimentos"}, out.SubAreas)
	assert.Equal(t, "json", gotReq.Format)
}

func TestClient_GenerateStructuredEmbeddedString(t *testing.T) {
	// Some models return the JSON object wrapped in a JSON string.
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(generateResponse{
			Response: `"{\"legal_domain\":\"Direito Penal\"}"`,
			Done:     true,
		})
	})

	var out struct {
		LegalDomain string `json:"legal_domain"`
	}
	require.NoError(t, client.GenerateStructured(context.Background(), "classifique", &out))
	assert.Equal(t, "Direito Penal", out.LegalDomain)
}

func TestClient_GenerateStructuredPlainText(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(generateResponse{
			Response: "não consigo responder em JSON",
			Done:     true,
		})
	})

	var out map[string]any
	err := client.GenerateStructured(context.Background(), "classifique", &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not valid JSON")
}
