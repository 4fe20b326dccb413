// Package summarize produces short story summaries through an Ollama
// chat model. Summaries are generated once at ingestion time and then
// served from the store.
package summarize

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/storyseek/storyseek/internal/errors"
)

const (
	// DefaultModel is the default summarization model.
	DefaultModel = "gemma3:1b"

	// DefaultTimeout bounds a single generation request. Summarizing a
	// full story is much slower than embedding it.
	DefaultTimeout = 120 * time.Second
)

const promptTemplate = "Summarize the following story in one or two sentences. " +
	"Reply with only the summary, no preamble.\n\nTitle: %s\n\n%s"

// Summarizer produces a short summary of story content.
type Summarizer interface {
	Summarize(ctx context.Context, title, content string) (string, error)
	Close() error
}

// OllamaConfig configures the Ollama summarizer.
type OllamaConfig struct {
	Host    string
	Model   string
	Timeout time.Duration
}

// OllamaSummarizer calls the Ollama /api/generate endpoint with
// streaming disabled.
type OllamaSummarizer struct {
	config OllamaConfig
	client *http.Client
}

var _ Summarizer = (*OllamaSummarizer)(nil)

// ollamaGenerateRequest is the /api/generate request body.
type ollamaGenerateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

// ollamaGenerateResponse is the non-streaming /api/generate response body.
type ollamaGenerateResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// NewOllamaSummarizer creates a summarizer. Zero-value config fields
// fall back to defaults.
func NewOllamaSummarizer(config OllamaConfig) *OllamaSummarizer {
	if config.Host == "" {
		config.Host = "http://localhost:11434"
	}
	if config.Model == "" {
		config.Model = DefaultModel
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	return &OllamaSummarizer{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
	}
}

// Summarize generates a one-to-two sentence summary of the story.
func (s *OllamaSummarizer) Summarize(ctx context.Context, title, content string) (string, error) {
	if strings.TrimSpace(content) == "" {
		return "", errors.New(errors.ErrCodeInvalidInput, "cannot summarize empty content", nil)
	}

	body, err := json.Marshal(ollamaGenerateRequest{
		Model:  s.config.Model,
		Prompt: fmt.Sprintf(promptTemplate, title, content),
		Stream: false,
	})
	if err != nil {
		return "", fmt.Errorf("marshal generate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.Host+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", errors.ProviderError("summarization provider unreachable", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return "", errors.New(errors.ErrCodeModelNotLoaded,
			fmt.Sprintf("summarization model %q is not loaded", s.config.Model), nil)
	}
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", errors.ProviderError(
			fmt.Sprintf("summarization failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody))), nil)
	}

	var result ollamaGenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", errors.ProviderError("decode generate response", err)
	}

	summary := strings.TrimSpace(result.Response)
	if summary == "" {
		return "", errors.New(errors.ErrCodeEmptySummary, "provider returned an empty summary", nil)
	}
	return summary, nil
}

// Close releases idle connections.
func (s *OllamaSummarizer) Close() error {
	s.client.CloseIdleConnections()
	return nil
}
