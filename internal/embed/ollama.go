package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/storyseek/storyseek/internal/errors"
)

const (
	// DefaultHost is the default Ollama API endpoint.
	DefaultHost = "http://localhost:11434"

	// DefaultModel is the default embedding model.
	DefaultModel = "nomic-embed-text"

	// DefaultDimensions matches nomic-embed-text output.
	DefaultDimensions = 768

	// DefaultTimeout bounds a single embedding request.
	DefaultTimeout = 60 * time.Second
)

// OllamaConfig configures the Ollama embedder.
type OllamaConfig struct {
	Host       string
	Model      string
	Dimensions int
	Timeout    time.Duration
}

// DefaultOllamaConfig returns the defaults used when fields are unset.
func DefaultOllamaConfig() OllamaConfig {
	return OllamaConfig{
		Host:       DefaultHost,
		Model:      DefaultModel,
		Dimensions: DefaultDimensions,
		Timeout:    DefaultTimeout,
	}
}

// OllamaEmbedder calls the Ollama /api/embed endpoint.
type OllamaEmbedder struct {
	config OllamaConfig
	client *http.Client

	mu     sync.RWMutex
	closed bool
}

var _ Embedder = (*OllamaEmbedder)(nil)

// ollamaEmbedRequest is the /api/embed request body.
type ollamaEmbedRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

// ollamaEmbedResponse is the /api/embed response body.
type ollamaEmbedResponse struct {
	Model      string      `json:"model"`
	Embeddings [][]float64 `json:"embeddings"`
}

// ollamaTagsResponse is the /api/tags response body.
type ollamaTagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// NewOllamaEmbedder creates an embedder. Zero-value config fields fall
// back to defaults. No network call happens here; use Available to
// probe the provider.
func NewOllamaEmbedder(config OllamaConfig) *OllamaEmbedder {
	defaults := DefaultOllamaConfig()
	if config.Host == "" {
		config.Host = defaults.Host
	}
	if config.Model == "" {
		config.Model = defaults.Model
	}
	if config.Dimensions <= 0 {
		config.Dimensions = defaults.Dimensions
	}
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}

	return &OllamaEmbedder{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
	}
}

// Embed generates the embedding for a single text.
func (e *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e.mu.RLock()
	if e.closed {
		e.mu.RUnlock()
		return nil, errors.New(errors.ErrCodeProviderUnreachable, "embedder is closed", nil)
	}
	e.mu.RUnlock()

	if strings.TrimSpace(text) == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "cannot embed empty text", nil)
	}

	url := e.config.Host + "/api/embed"
	body, err := json.Marshal(ollamaEmbedRequest{Model: e.config.Model, Input: text})
	if err != nil {
		return nil, fmt.Errorf("marshal embed request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, errors.ProviderError("embedding provider unreachable", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, errors.New(errors.ErrCodeModelNotLoaded,
			fmt.Sprintf("embedding model %q is not loaded", e.config.Model), nil)
	}
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, errors.ProviderError(
			fmt.Sprintf("embedding failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody))), nil)
	}

	var result ollamaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, errors.ProviderError("decode embed response", err)
	}
	if len(result.Embeddings) == 0 || len(result.Embeddings[0]) == 0 {
		return nil, errors.New(errors.ErrCodeEmptyEmbedding, "provider returned an empty embedding", nil)
	}

	raw := result.Embeddings[0]
	if len(raw) != e.config.Dimensions {
		return nil, errors.New(errors.ErrCodeEmptyEmbedding,
			fmt.Sprintf("provider returned %d dimensions, expected %d", len(raw), e.config.Dimensions), nil)
	}

	vector := make([]float32, len(raw))
	for i, v := range raw {
		vector[i] = float32(v)
	}
	return vector, nil
}

// Dimensions returns the configured vector dimension.
func (e *OllamaEmbedder) Dimensions() int {
	return e.config.Dimensions
}

// ModelName returns the configured model identifier.
func (e *OllamaEmbedder) ModelName() string {
	return e.config.Model
}

// Available checks that Ollama is reachable and the model is installed.
func (e *OllamaEmbedder) Available(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.config.Host+"/api/tags", nil)
	if err != nil {
		return fmt.Errorf("build tags request: %w", err)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return errors.ProviderError("embedding provider unreachable", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return errors.ProviderError(
			fmt.Sprintf("embedding provider returned status %d", resp.StatusCode), nil)
	}

	var tags ollamaTagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return errors.ProviderError("decode tags response", err)
	}
	for _, m := range tags.Models {
		if m.Name == e.config.Model || strings.HasPrefix(m.Name, e.config.Model+":") {
			return nil
		}
	}
	return errors.New(errors.ErrCodeModelNotLoaded,
		fmt.Sprintf("embedding model %q is not installed", e.config.Model), nil)
}

// Close marks the embedder closed. Idle connections are released.
func (e *OllamaEmbedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.closed = true
	e.client.CloseIdleConnections()
	return nil
}
