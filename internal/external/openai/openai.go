// Package openai is an HTTP-based external.Embedder backed by OpenAI's
// embeddings API, adapted directly from the teacher's raw-http provider.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/kestrelresearch/scout/internal/external"
)

// Embedder generates embeddings using OpenAI's API.
type Embedder struct {
	apiKey string
	model  string
	client *http.Client
}

// NewEmbedder returns an Embedder for the given API key and model
// ("" defaults to text-embedding-3-small).
func NewEmbedder(apiKey, model string) *Embedder {
	if model == "" {
		model = "text-embedding-3-small"
	}
	return &Embedder{apiKey: apiKey, model: model, client: &http.Client{}}
}

// Dimensions returns external.Dimensions, the width requested of OpenAI.
func (e *Embedder) Dimensions() int { return external.Dimensions }

type embeddingRequest struct {
	Input      string `json:"input"`
	Model      string `json:"model"`
	Dimensions int    `json:"dimensions,omitempty"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Embed generates an embedding using the OpenAI API.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(embeddingRequest{
		Input:      text,
		Model:      e.model,
		Dimensions: external.Dimensions,
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "https://api.openai.com/v1/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling OpenAI: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	var result embeddingResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}
	if result.Error != nil {
		return nil, fmt.Errorf("OpenAI error: %s", result.Error.Message)
	}
	if len(result.Data) == 0 {
		return nil, fmt.Errorf("no embeddings returned")
	}
	return result.Data[0].Embedding, nil
}
