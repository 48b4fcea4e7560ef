// Package generation talks to an Ollama-compatible text-generation endpoint.
// It covers the two shapes the pipeline needs: free-text completion and
// structured JSON completion decoded into a caller-supplied value.
package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jonesrussell/petition-pipeline/internal/config"
)

const defaultTimeout = 120 * time.Second

// generateTemperature keeps completions deterministic enough for repeatable
// summaries.
const generateTemperature = 0.2

// ErrEmptyResponse is returned when the model produced no text at all.
var ErrEmptyResponse = errors.New("generation service returned an empty response")

// generateRequest is the body for POST /api/generate.
type generateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Format  string         `json:"format,omitempty"`
	Options map[string]any `json:"options,omitempty"`
}

// generateResponse is the non-streaming response shape.
type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error"`
}

// Client is a text-generation client bound to one model.
type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

// NewClient creates a generation client from configuration.
func NewClient(cfg *config.GenerationConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		model:      cfg.Model,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Generate sends prompt to the model and returns its text completion.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	text, err := c.generate(ctx, prompt, "")
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// GenerateStructured asks the model for a JSON completion and decodes it into
// out. Some models wrap the JSON object in a JSON string; when the first
// decode yields a bare string, that string is decoded a second time. A
// completion that is not JSON at all is an error.
func (c *Client) GenerateStructured(ctx context.Context, prompt string, out any) error {
	text, err := c.generate(ctx, prompt, "json")
	if err != nil {
		return err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyResponse
	}

	if err := json.Unmarshal([]byte(text), out); err == nil {
		return nil
	}

	var embedded string
	if err := json.Unmarshal([]byte(text), &embedded); err == nil {
		if err := json.Unmarshal([]byte(embedded), out); err != nil {
			return fmt.Errorf("structured response carried non-JSON string payload: %w", err)
		}
		return nil
	}

	return fmt.Errorf("structured response is not valid JSON: %q", truncateForError(text))
}

func (c *Client) generate(ctx context.Context, prompt, format string) (string, error) {
	body, err := json.Marshal(generateRequest{
		Model:   c.model,
		Prompt:  prompt,
		Stream:  false,
		Format:  format,
		Options: map[string]any{"temperature": generateTemperature},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("generation request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("generation service returned %d", resp.StatusCode)
	}

	var genResp generateResponse
	if decodeErr := json.NewDecoder(resp.Body).Decode(&genResp); decodeErr != nil {
		return "", fmt.Errorf("decode response: %w", decodeErr)
	}
	if genResp.Error != "" {
		return "", fmt.Errorf("generation service error: %s", genResp.Error)
	}
	return genResp.Response, nil
}

func truncateForError(s string) string {
	const max = 120
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
