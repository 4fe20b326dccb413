package search

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/storyseek/storyseek/internal/embed"
	"github.com/storyseek/storyseek/internal/errors"
	"github.com/storyseek/storyseek/internal/store"
)

// candidateMultiplier sizes the per-strategy fetch in hybrid mode.
// Fetching more than the final limit gives fusion real rankings to
// work with instead of two already-truncated lists.
const candidateMultiplier = 2

// Engine orchestrates retrieval across the store and the embedder.
type Engine struct {
	retriever Retriever
	embedder  embed.Embedder
	logger    *slog.Logger
}

// NewEngine creates a search engine.
func NewEngine(retriever Retriever, embedder embed.Embedder, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{retriever: retriever, embedder: embedder, logger: logger}
}

// Search runs a query in the requested mode.
//
// An empty or whitespace query and a non-positive limit both yield an
// empty result rather than an error; there is nothing to rank, and
// that is not the caller's mistake worth failing over. An embedding
// failure in semantic or hybrid mode aborts the search. Hybrid never
// silently degrades to lexical-only.
func (e *Engine) Search(ctx context.Context, opts Options) ([]*store.Hit, error) {
	query := strings.TrimSpace(opts.Query)
	if query == "" || opts.Limit <= 0 {
		return []*store.Hit{}, nil
	}

	mode := opts.Mode
	if mode == "" {
		mode = ModeHybrid
	}

	start := time.Now()
	var (
		hits []*store.Hit
		err  error
	)
	switch mode {
	case ModeLexical:
		hits, err = e.retriever.LexicalSearch(ctx, query, opts.Limit)
	case ModeSemantic:
		hits, err = e.semanticSearch(ctx, query, opts.Limit)
	case ModeHybrid:
		hits, err = e.hybridSearch(ctx, query, opts.Limit)
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidMode, "unknown search mode %q", string(mode))
	}
	if err != nil {
		return nil, err
	}

	e.logger.Debug("search completed",
		"mode", string(mode),
		"limit", opts.Limit,
		"hits", len(hits),
		"duration", time.Since(start),
	)
	return hits, nil
}

func (e *Engine) semanticSearch(ctx context.Context, query string, limit int) ([]*store.Hit, error) {
	vector, err := e.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}
	return e.retriever.SemanticSearch(ctx, vector, limit)
}

// hybridSearch embeds the query first, then runs both strategies
// concurrently. Either failure cancels the sibling and fails the
// whole search.
func (e *Engine) hybridSearch(ctx context.Context, query string, limit int) ([]*store.Hit, error) {
	vector, err := e.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	fetchLimit := limit * candidateMultiplier

	var (
		lexicalHits  []*store.Hit
		semanticHits []*store.Hit
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		lexicalHits, err = e.retriever.LexicalSearch(gctx, query, fetchLimit)
		return err
	})
	g.Go(func() error {
		var err error
		semanticHits, err = e.retriever.SemanticSearch(gctx, vector, fetchLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return FuseRankings(limit, lexicalHits, semanticHits), nil
}
