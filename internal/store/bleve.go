package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/storyseek/storyseek/internal/errors"
	"github.com/storyseek/storyseek/internal/model"
)

// BleveLexicalIndex implements LexicalIndex using bleve's query string
// syntax, which gives the web-style grammar the search endpoint promises:
// bare terms, "quoted phrases" and -negation.
type BleveLexicalIndex struct {
	mu     sync.RWMutex
	index  bleve.Index
	path   string
	closed bool
}

var _ LexicalIndex = (*BleveLexicalIndex)(nil)

// lexicalDocument mirrors the field set the ranking covers: the same
// fields the original search vector was generated from.
type lexicalDocument struct {
	Title   string `json:"title"`
	Author  string `json:"author"`
	Genre   string `json:"genre"`
	Summary string `json:"summary"`
	Content string `json:"content"`
}

// NewBleveLexicalIndex opens (or creates) the lexical index.
// If path is empty an in-memory index is used, for tests.
func NewBleveLexicalIndex(path string) (*BleveLexicalIndex, error) {
	indexMapping := buildLexicalMapping()

	var (
		idx bleve.Index
		err error
	)
	if path == "" {
		idx, err = bleve.NewMemOnly(indexMapping)
	} else {
		if mkErr := os.MkdirAll(filepath.Dir(path), 0o755); mkErr != nil {
			return nil, fmt.Errorf("create index directory: %w", mkErr)
		}
		idx, err = bleve.Open(path)
		if err == bleve.ErrorIndexPathDoesNotExist {
			idx, err = bleve.New(path, indexMapping)
		}
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreUnavailable, "open lexical index", err)
	}

	return &BleveLexicalIndex{index: idx, path: path}, nil
}

func buildLexicalMapping() *mapping.IndexMappingImpl {
	text := bleve.NewTextFieldMapping()
	text.Analyzer = en.AnalyzerName

	doc := bleve.NewDocumentMapping()
	doc.AddFieldMappingsAt("title", text)
	doc.AddFieldMappingsAt("author", text)
	doc.AddFieldMappingsAt("genre", text)
	doc.AddFieldMappingsAt("summary", text)
	doc.AddFieldMappingsAt("content", text)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = en.AnalyzerName
	indexMapping.DefaultMapping = doc
	return indexMapping
}

// Index adds or replaces stories in the index, keyed by story ID.
func (b *BleveLexicalIndex) Index(ctx context.Context, stories []*model.Story) error {
	if len(stories) == 0 {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return errors.New(errors.ErrCodeStoreUnavailable, "lexical index is closed", nil)
	}

	batch := b.index.NewBatch()
	for _, story := range stories {
		doc := lexicalDocument{
			Title:   story.Title,
			Author:  story.Author,
			Genre:   story.Genre,
			Summary: story.Summary,
			Content: story.Content,
		}
		if err := batch.Index(DocID(story.ID), doc); err != nil {
			return errors.Wrap(errors.ErrCodeStoreWrite, fmt.Sprintf("index story %d", story.ID), err)
		}
	}

	if err := b.index.Batch(batch); err != nil {
		return errors.Wrap(errors.ErrCodeStoreWrite, "execute lexical index batch", err)
	}
	return nil
}

// Search ranks stories against the query expression. Ranking and the
// limit truncation run inside bleve; stories with no match are excluded
// from the result rather than scored zero.
func (b *BleveLexicalIndex) Search(ctx context.Context, query string, limit int) ([]*LexicalResult, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil, errors.New(errors.ErrCodeStoreUnavailable, "lexical index is closed", nil)
	}
	if strings.TrimSpace(query) == "" || limit <= 0 {
		return []*LexicalResult{}, nil
	}

	req := bleve.NewSearchRequest(bleve.NewQueryStringQuery(query))
	req.Size = limit

	res, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreQuery, "lexical search", err)
	}

	results := make([]*LexicalResult, 0, len(res.Hits))
	for _, hit := range res.Hits {
		results = append(results, &LexicalResult{
			DocID: hit.ID,
			Score: hit.Score,
		})
	}
	return results, nil
}

// Delete removes stories from the index.
func (b *BleveLexicalIndex) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return errors.New(errors.ErrCodeStoreUnavailable, "lexical index is closed", nil)
	}

	batch := b.index.NewBatch()
	for _, id := range ids {
		batch.Delete(id)
	}
	if err := b.index.Batch(batch); err != nil {
		return errors.Wrap(errors.ErrCodeStoreWrite, "delete from lexical index", err)
	}
	return nil
}

// Count returns the number of indexed stories.
func (b *BleveLexicalIndex) Count() (int, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return 0, errors.New(errors.ErrCodeStoreUnavailable, "lexical index is closed", nil)
	}
	n, err := b.index.DocCount()
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeStoreQuery, "count lexical documents", err)
	}
	return int(n), nil
}

// Close closes the index.
func (b *BleveLexicalIndex) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	return b.index.Close()
}

// DocID converts a story ID to its index document key.
func DocID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// ParseDocID converts an index document key back to a story ID.
func ParseDocID(docID string) (int64, error) {
	return strconv.ParseInt(docID, 10, 64)
}
