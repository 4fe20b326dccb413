package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storyseek/storyseek/internal/model"
)

func newTestAdapter(t *testing.T) *Adapter {
	t.Helper()
	stories := newTestStoryStore(t)
	lexical := newTestLexicalIndex(t)
	vectors := newTestVectorIndex(t, 3)
	return NewAdapter(stories, lexical, vectors)
}

func seedAdapter(t *testing.T, a *Adapter) []*model.Story {
	t.Helper()
	ctx := context.Background()

	seeds := []struct {
		story  *model.Story
		vector []float32
	}{
		{&model.Story{Title: "The Gift of the Magi", Author: "O. Henry", Genre: "Romance", Content: "A young couple sells their treasures to buy each other gifts."}, []float32{1, 0, 0}},
		{&model.Story{Title: "The Monkey's Paw", Author: "W. W. Jacobs", Genre: "Horror", Content: "A cursed talisman grants three wishes with terrible consequences."}, []float32{0, 1, 0}},
		{&model.Story{Title: "The Last Leaf", Author: "O. Henry", Genre: "Drama", Content: "An ailing artist counts leaves while a neighbor paints one final gift."}, []float32{0.9, 0.1, 0}},
	}

	stories := make([]*model.Story, 0, len(seeds))
	for _, seed := range seeds {
		saved, err := a.Stories.Save(ctx, seed.story)
		require.NoError(t, err)
		stories = append(stories, saved)
		require.NoError(t, a.Vectors.Add(ctx, []string{DocID(saved.ID)}, [][]float32{seed.vector}))
	}
	require.NoError(t, a.Lexical.Index(ctx, stories))
	return stories
}

func TestAdapter_LexicalSearch(t *testing.T) {
	a := newTestAdapter(t)
	seedAdapter(t, a)

	hits, err := a.LexicalSearch(context.Background(), "henry", 10)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	for _, h := range hits {
		require.NotNil(t, h.Story)
		assert.Equal(t, "O. Henry", h.Story.Author)
		assert.Greater(t, h.Score, 0.0)
	}
}

func TestAdapter_LexicalSearchNoMatches(t *testing.T) {
	a := newTestAdapter(t)
	seedAdapter(t, a)

	hits, err := a.LexicalSearch(context.Background(), "spaceship", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestAdapter_SemanticSearch(t *testing.T) {
	a := newTestAdapter(t)
	stories := seedAdapter(t, a)

	hits, err := a.SemanticSearch(context.Background(), []float32{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, stories[0].ID, hits[0].Story.ID)
	assert.Equal(t, stories[2].ID, hits[1].Story.ID)
	assert.GreaterOrEqual(t, hits[0].Score, hits[1].Score)
}

func TestAdapter_SemanticSearchSkipsStaleDocs(t *testing.T) {
	a := newTestAdapter(t)
	ctx := context.Background()

	// A vector whose story row no longer exists must not surface.
	require.NoError(t, a.Vectors.Add(ctx, []string{DocID(777)}, [][]float32{{1, 0, 0}}))

	hits, err := a.SemanticSearch(ctx, []float32{1, 0, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, hits)
}
