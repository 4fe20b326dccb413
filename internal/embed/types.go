// Package embed turns text into fixed-dimension vectors through an
// Ollama embedding model. The retrieval engine and the ingestion
// pipeline both depend only on the Embedder interface.
package embed

import "context"

// Embedder produces dense vector representations of text.
type Embedder interface {
	// Embed returns the embedding for the given text. The returned
	// vector always has exactly Dimensions() elements.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the vector dimension this embedder produces.
	Dimensions() int

	// ModelName returns the model identifier, used for cache keying.
	ModelName() string

	// Available reports whether the provider is reachable and the
	// model is loaded.
	Available(ctx context.Context) error

	// Close releases any held resources.
	Close() error
}
