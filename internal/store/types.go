// Package store provides story persistence (SQLite), the lexical search
// index (bleve) and the vector index (HNSW), plus the adapter that exposes
// the two ranked primitive queries the retrieval engine is built on.
package store

import (
	"context"
	"fmt"

	"github.com/storyseek/storyseek/internal/model"
)

// Hit is a story paired with a relevance score. Lists of hits are always
// ordered non-increasing by score.
type Hit struct {
	Story *model.Story `json:"story"`
	Score float64      `json:"score"`
}

// LexicalResult is a raw lexical index match before story join.
type LexicalResult struct {
	DocID string
	Score float64
}

// VectorResult is a raw vector index match before story join.
type VectorResult struct {
	DocID string
	// Score is 1 - cosine_distance mapped to [0,1].
	Score float64
}

// StoryStore persists stories in SQLite.
type StoryStore interface {
	// Save inserts a new story and returns it with the assigned ID.
	Save(ctx context.Context, story *model.Story) (*model.Story, error)

	// Replace overwrites every column of an existing story, keeping its ID.
	Replace(ctx context.Context, story *model.Story) error

	// GetByID returns the story or nil when absent.
	GetByID(ctx context.Context, id int64) (*model.Story, error)

	// GetByTitle returns the story with the given title or nil when absent.
	// Title is the logical identity used by ingestion change detection.
	GetByTitle(ctx context.Context, title string) (*model.Story, error)

	// GetByIDs loads stories in bulk, keyed by ID. Unknown IDs are
	// silently absent from the result.
	GetByIDs(ctx context.Context, ids []int64) (map[int64]*model.Story, error)

	// ApplyBatch commits inserts and replaces atomically and returns
	// the inserted stories with assigned IDs, in input order.
	ApplyBatch(ctx context.Context, inserts, replaces []*model.Story) ([]*model.Story, error)

	// List returns all stories ordered by ID.
	List(ctx context.Context) ([]*model.Story, error)

	// Count returns the number of persisted stories.
	Count(ctx context.Context) (int, error)

	// Close releases the database handle.
	Close() error
}

// LexicalIndex ranks stories by full-text match against a web-style query
// (bare terms, quoted phrases, leading - negation). Ranking and truncation
// execute inside the index; stories with no match are excluded.
type LexicalIndex interface {
	Index(ctx context.Context, stories []*model.Story) error
	Search(ctx context.Context, query string, limit int) ([]*LexicalResult, error)
	Delete(ctx context.Context, ids []string) error
	Count() (int, error)
	Close() error
}

// VectorIndex ranks stories by cosine similarity to a query vector.
// Top-K selection executes inside the index; stories that were never
// embedded are absent from it and therefore excluded.
type VectorIndex interface {
	Add(ctx context.Context, ids []string, vectors [][]float32) error
	Search(ctx context.Context, query []float32, k int) ([]*VectorResult, error)
	Delete(ctx context.Context, ids []string) error

	// Contains reports whether a live vector exists for the doc ID.
	// Ingestion uses this to detect rows whose derived index entries
	// never landed and need rebuilding.
	Contains(id string) bool
	Count() int
	Save(path string) error
	Load(path string) error
	Close() error
}

// ErrDimensionMismatch indicates a vector with the wrong dimension.
type ErrDimensionMismatch struct {
	Expected int
	Got      int
}

func (e ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Got)
}
