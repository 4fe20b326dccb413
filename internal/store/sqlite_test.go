package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storyseek/storyseek/internal/model"
)

func newTestStoryStore(t *testing.T) *SQLiteStoryStore {
	t.Helper()
	s, err := NewSQLiteStoryStore("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testStory(title string) *model.Story {
	return &model.Story{
		Title:         title,
		Author:        "Ursula K. Le Guin",
		Genre:         "Science Fiction",
		PublishedYear: 1969,
		Summary:       "An envoy navigates a planet of ambisexual humans.",
		Content:       "The story content goes here.",
		ContentHash:   "abc123",
		Embedding:     []float32{0.1, 0.2, 0.3},
	}
}

func TestSQLiteStoryStore_SaveAndGet(t *testing.T) {
	s := newTestStoryStore(t)
	ctx := context.Background()

	story := testStory("The Left Hand of Darkness")
	saved, err := s.Save(ctx, story)
	require.NoError(t, err)
	assert.Greater(t, saved.ID, int64(0))

	got, err := s.GetByID(ctx, saved.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "The Left Hand of Darkness", got.Title)
	assert.Equal(t, "Ursula K. Le Guin", got.Author)
	assert.Equal(t, 1969, got.PublishedYear)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, got.Embedding)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestSQLiteStoryStore_GetByTitle(t *testing.T) {
	s := newTestStoryStore(t)
	ctx := context.Background()

	_, err := s.Save(ctx, testStory("The Dispossessed"))
	require.NoError(t, err)

	got, err := s.GetByTitle(ctx, "The Dispossessed")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "The Dispossessed", got.Title)

	missing, err := s.GetByTitle(ctx, "No Such Story")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestSQLiteStoryStore_GetByIDMissing(t *testing.T) {
	s := newTestStoryStore(t)

	got, err := s.GetByID(context.Background(), 9999)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLiteStoryStore_Replace(t *testing.T) {
	s := newTestStoryStore(t)
	ctx := context.Background()

	saved, err := s.Save(ctx, testStory("The Word for World Is Forest"))
	require.NoError(t, err)

	saved.Summary = "Updated summary after re-ingestion."
	saved.ContentHash = "def456"
	require.NoError(t, s.Replace(ctx, saved))

	got, err := s.GetByID(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, "Updated summary after re-ingestion.", got.Summary)
	assert.Equal(t, "def456", got.ContentHash)

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSQLiteStoryStore_ReplaceMissing(t *testing.T) {
	s := newTestStoryStore(t)

	ghost := testStory("Ghost")
	ghost.ID = 4242
	assert.Error(t, s.Replace(context.Background(), ghost))
}

func TestSQLiteStoryStore_GetByIDs(t *testing.T) {
	s := newTestStoryStore(t)
	ctx := context.Background()

	a, err := s.Save(ctx, testStory("Story A"))
	require.NoError(t, err)
	b, err := s.Save(ctx, testStory("Story B"))
	require.NoError(t, err)

	stories, err := s.GetByIDs(ctx, []int64{a.ID, b.ID, 9999})
	require.NoError(t, err)
	assert.Len(t, stories, 2)
	assert.Equal(t, "Story A", stories[a.ID].Title)
	assert.Equal(t, "Story B", stories[b.ID].Title)
}

func TestSQLiteStoryStore_ApplyBatch(t *testing.T) {
	s := newTestStoryStore(t)
	ctx := context.Background()

	existing, err := s.Save(ctx, testStory("Pre-existing"))
	require.NoError(t, err)

	existing.Summary = "Refreshed."
	inserted, err := s.ApplyBatch(ctx,
		[]*model.Story{testStory("Batch A"), testStory("Batch B")},
		[]*model.Story{existing},
	)
	require.NoError(t, err)
	require.Len(t, inserted, 2)
	assert.Greater(t, inserted[0].ID, int64(0))
	assert.Equal(t, "Batch A", inserted[0].Title)

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	got, err := s.GetByID(ctx, existing.ID)
	require.NoError(t, err)
	assert.Equal(t, "Refreshed.", got.Summary)
}

func TestSQLiteStoryStore_ApplyBatchRollsBack(t *testing.T) {
	s := newTestStoryStore(t)
	ctx := context.Background()

	ghost := testStory("Ghost")
	ghost.ID = 777
	_, err := s.ApplyBatch(ctx, []*model.Story{testStory("Doomed Insert")}, []*model.Story{ghost})
	require.Error(t, err)

	// The failed replace rolled back the insert too.
	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestSQLiteStoryStore_List(t *testing.T) {
	s := newTestStoryStore(t)
	ctx := context.Background()

	for _, title := range []string{"Zeta", "Alpha", "Midway"} {
		_, err := s.Save(ctx, testStory(title))
		require.NoError(t, err)
	}

	stories, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, stories, 3)
	// List orders by ID, which matches insertion order.
	assert.Equal(t, "Zeta", stories[0].Title)
	assert.Equal(t, "Alpha", stories[1].Title)
	assert.Equal(t, "Midway", stories[2].Title)
}

func TestSQLiteStoryStore_NilEmbedding(t *testing.T) {
	s := newTestStoryStore(t)
	ctx := context.Background()

	story := testStory("No Vector")
	story.Embedding = nil
	saved, err := s.Save(ctx, story)
	require.NoError(t, err)

	got, err := s.GetByID(ctx, saved.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Embedding)
	assert.False(t, got.HasEmbedding())
}

func TestSQLiteStoryStore_PersistsToDisk(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "stories.db")

	s, err := NewSQLiteStoryStore(path)
	require.NoError(t, err)
	_, err = s.Save(ctx, testStory("Persistent"))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	reopened, err := NewSQLiteStoryStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.GetByTitle(ctx, "Persistent")
	require.NoError(t, err)
	require.NotNil(t, got)
}

func TestEmbeddingRoundTrip(t *testing.T) {
	vec := []float32{0.5, -1.25, 3.75, 0}
	assert.Equal(t, vec, decodeEmbedding(encodeEmbedding(vec)))

	assert.Nil(t, encodeEmbedding(nil))
	assert.Nil(t, decodeEmbedding(nil))
}
