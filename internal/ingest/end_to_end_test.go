package ingest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storyseek/storyseek/internal/search"
	"github.com/storyseek/storyseek/internal/store"
)

// Ingest two stories, change one, re-ingest, then run a hybrid query
// that lexically matches only the unchanged story and semantically
// matches only the changed one. Both must surface in the fused top two.
func TestIngestThenHybridSearch(t *testing.T) {
	f := newPipelineFixture(t)
	ctx := context.Background()

	harbor := ManifestEntry{Title: "The Harbor Master", Author: "E. Lund", Genre: "Drama", PublishedYear: 1964}
	orchard := ManifestEntry{Title: "Orchard of Glass", Author: "P. Devi", Genre: "Fantasy", PublishedYear: 2003}
	f.writeManifest(t, []ManifestEntry{harbor, orchard})
	f.writeStory(t, harbor, "The harbor master logged every ship that never returned.")
	f.writeStory(t, orchard, "The trees rang softly when the wind came down the hill.")

	_, err := f.pipeline.Run(ctx, f.corpusDir)
	require.NoError(t, err)

	// Second run: only the orchard story changed.
	f.writeStory(t, orchard, "The trees rang like bells when the wind came down the hill.")
	report, err := f.pipeline.Run(ctx, f.corpusDir)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 1, report.Replaced)

	// Steer the query embedding next to the orchard story's vector.
	// The fixture embedder keys vectors off text length, so reuse the
	// replaced content as the query for a near-exact semantic match.
	replaced, err := f.stories.GetByTitle(ctx, "Orchard of Glass")
	require.NoError(t, err)

	adapter := store.NewAdapter(f.stories, f.lexical, f.vectors)
	engine := search.NewEngine(adapter, f.embedder, nil)

	hits, err := engine.Search(ctx, search.Options{
		// Lexically this only matches the harbor story; the embedder
		// maps it near the orchard story's vector.
		Query: "harbor master " + pad(len(replaced.Content)-len("harbor master ")),
		Mode:  search.ModeHybrid,
		Limit: 2,
	})
	require.NoError(t, err)
	require.Len(t, hits, 2)

	titles := []string{hits[0].Story.Title, hits[1].Story.Title}
	assert.Contains(t, titles, "The Harbor Master")
	assert.Contains(t, titles, "Orchard of Glass")
}

// pad builds a filler term so the fixture embedder, which derives the
// vector from text length, lands on the wanted story.
func pad(n int) string {
	if n <= 0 {
		return ""
	}
	b := make([]byte, n)
	for i := range b {
		b[i] = 'x'
	}
	return string(b)
}
