// Package embedding implements EmbeddingClient (spec §4.1/C1): produces a
// fixed-dimensional vector for arbitrary text and, when a Redis client is
// configured, caches results by content hash so repeated ingestion of the
// same fact is served from the cache. Without Redis every call reaches the
// provider.
package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrProviderNotConfigured is returned when the HTTP provider is missing an
// endpoint or API key.
var ErrProviderNotConfigured = errors.New("embedding: provider not configured")

// Provider produces a fixed-dimensional embedding for a string. Implementations
// must not panic on empty input.
type Provider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// HTTPProvider calls an OpenAI-compatible /embeddings endpoint.
type HTTPProvider struct {
	endpoint   string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewHTTPProvider builds an HTTPProvider.
func NewHTTPProvider(endpoint, apiKey, model string) *HTTPProvider {
	return &HTTPProvider{
		endpoint:   endpoint,
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

type embeddingRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// Embed implements Provider.
func (p *HTTPProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	if p.endpoint == "" || p.apiKey == "" {
		return nil, ErrProviderNotConfigured
	}

	payload, err := json.Marshal(embeddingRequest{Model: p.model, Input: text})
	if err != nil {
		return nil, fmt.Errorf("embedding: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("embedding: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("embedding: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embedding: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var parsed embeddingResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("embedding: decode response: %w", err)
	}
	if len(parsed.Data) == 0 {
		return nil, fmt.Errorf("embedding: empty data in response")
	}
	return parsed.Data[0].Embedding, nil
}
