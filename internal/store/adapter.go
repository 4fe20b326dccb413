package store

import (
	"context"

	"github.com/storyseek/storyseek/internal/errors"
)

// Adapter bundles the three storage backends behind the two read
// operations the retrieval engine needs. Top-K selection is pushed
// down into each index; the adapter only joins doc IDs back to story
// rows, preserving index order.
type Adapter struct {
	Stories StoryStore
	Lexical LexicalIndex
	Vectors VectorIndex
}

// NewAdapter wires the backends together.
func NewAdapter(stories StoryStore, lexical LexicalIndex, vectors VectorIndex) *Adapter {
	return &Adapter{Stories: stories, Lexical: lexical, Vectors: vectors}
}

// LexicalSearch runs a query-string search and hydrates the matching
// stories. Hits keep the index's relevance order. A doc ID with no
// matching story row is skipped rather than failing the search.
func (a *Adapter) LexicalSearch(ctx context.Context, query string, limit int) ([]*Hit, error) {
	results, err := a.Lexical.Search(ctx, query, limit)
	if err != nil {
		return nil, errors.StoreError("lexical search failed", err)
	}
	if len(results) == 0 {
		return []*Hit{}, nil
	}

	ids := make([]int64, 0, len(results))
	for _, r := range results {
		id, err := ParseDocID(r.DocID)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}

	stories, err := a.Stories.GetByIDs(ctx, ids)
	if err != nil {
		return nil, errors.StoreError("load stories for lexical hits", err)
	}

	hits := make([]*Hit, 0, len(results))
	for _, r := range results {
		id, err := ParseDocID(r.DocID)
		if err != nil {
			continue
		}
		story, ok := stories[id]
		if !ok {
			continue
		}
		hits = append(hits, &Hit{Story: story, Score: r.Score})
	}
	return hits, nil
}

// SemanticSearch finds the nearest stories by cosine similarity and
// hydrates them, keeping descending-similarity order.
func (a *Adapter) SemanticSearch(ctx context.Context, vector []float32, limit int) ([]*Hit, error) {
	results, err := a.Vectors.Search(ctx, vector, limit)
	if err != nil {
		return nil, errors.StoreError("semantic search failed", err)
	}
	if len(results) == 0 {
		return []*Hit{}, nil
	}

	ids := make([]int64, 0, len(results))
	for _, r := range results {
		id, err := ParseDocID(r.DocID)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}

	stories, err := a.Stories.GetByIDs(ctx, ids)
	if err != nil {
		return nil, errors.StoreError("load stories for semantic hits", err)
	}

	hits := make([]*Hit, 0, len(results))
	for _, r := range results {
		id, err := ParseDocID(r.DocID)
		if err != nil {
			continue
		}
		story, ok := stories[id]
		if !ok {
			continue
		}
		hits = append(hits, &Hit{Story: story, Score: r.Score})
	}
	return hits, nil
}

// Close shuts down all backends, returning the first error seen.
func (a *Adapter) Close() error {
	var firstErr error
	if err := a.Lexical.Close(); err != nil {
		firstErr = err
	}
	if err := a.Vectors.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := a.Stories.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
