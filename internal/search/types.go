// Package search implements the hybrid retrieval engine: lexical and
// semantic searches run against the store and their rankings are
// combined with reciprocal rank fusion.
package search

import (
	"context"
	"strings"

	"github.com/storyseek/storyseek/internal/errors"
	"github.com/storyseek/storyseek/internal/store"
)

// Mode selects which retrieval strategy a search uses.
type Mode string

const (
	// ModeLexical ranks by full-text match only.
	ModeLexical Mode = "lexical"

	// ModeSemantic ranks by embedding similarity only.
	ModeSemantic Mode = "semantic"

	// ModeHybrid fuses lexical and semantic rankings. This is the
	// default when no mode is given.
	ModeHybrid Mode = "hybrid"
)

// ParseMode normalizes a mode string. An empty string means hybrid;
// anything unrecognized is a caller error.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return ModeHybrid, nil
	case ModeLexical:
		return ModeLexical, nil
	case ModeSemantic:
		return ModeSemantic, nil
	case ModeHybrid:
		return ModeHybrid, nil
	default:
		return "", errors.Newf(errors.ErrCodeInvalidMode,
			"unknown search mode %q (expected lexical, semantic or hybrid)", s)
	}
}

// Options carries the parameters of a single search.
type Options struct {
	Query string
	Mode  Mode
	Limit int
}

// Retriever is the store surface the engine depends on. Both methods
// return hits ordered non-increasing by score with top-K already done.
type Retriever interface {
	LexicalSearch(ctx context.Context, query string, limit int) ([]*store.Hit, error)
	SemanticSearch(ctx context.Context, vector []float32, limit int) ([]*store.Hit, error)
}
