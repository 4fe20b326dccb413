package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeTitle(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"The Lighthouse Keeper", "The_Lighthouse_Keeper"},
		{"The Captain's Log", "The_Captains_Log"},
		{"What -- A Day!", "What_A_Day"},
		{"  Edges  ", "Edges"},
		{"...", ""},
		{"Already_Clean", "Already_Clean"},
		{"Voyage: 2049", "Voyage_2049"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizeTitle(tt.title), "title %q", tt.title)
	}
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	manifest := `[
		{"title": "First", "author": "A", "genre": "Drama", "published_year": 1990},
		{"title": "Second", "author": "B", "genre": "Horror", "published_year": 2001}
	]`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ManifestName), []byte(manifest), 0o644))

	entries, err := LoadManifest(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "First", entries[0].Title)
	assert.Equal(t, 2001, entries[1].PublishedYear)
}

func TestLoadManifest_Missing(t *testing.T) {
	_, err := LoadManifest(t.TempDir())
	assert.Error(t, err)
}

func TestLoadManifest_Malformed(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ManifestName), []byte("{not json"), 0o644))

	_, err := LoadManifest(dir)
	assert.Error(t, err)
}

func TestFindSourceFile_CaseInsensitive(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "the_lighthouse_keeper.TXT"), []byte("x"), 0o644))

	path, err := findSourceFile(dir, "The_Lighthouse_Keeper")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "the_lighthouse_keeper.TXT"), path)

	missing, err := findSourceFile(dir, "Nothing_Here")
	require.NoError(t, err)
	assert.Empty(t, missing)
}
