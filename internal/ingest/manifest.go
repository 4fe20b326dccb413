// Package ingest loads stories from a corpus directory into the store.
// Change detection is content-addressed: each story's canonical text is
// hashed and compared against the stored hash, so re-runs only pay the
// summarization and embedding cost for content that actually changed.
package ingest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/storyseek/storyseek/internal/errors"
)

// ManifestName is the manifest filename inside the corpus directory.
const ManifestName = "metadata.json"

// ManifestEntry describes one logical story in the corpus.
type ManifestEntry struct {
	Title         string `json:"title"`
	Author        string `json:"author"`
	Genre         string `json:"genre"`
	PublishedYear int    `json:"published_year"`
}

// LoadManifest reads and parses the corpus manifest. A missing or
// malformed manifest fails the whole ingestion run.
func LoadManifest(corpusDir string) ([]ManifestEntry, error) {
	path := filepath.Join(corpusDir, ManifestName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeManifestInvalid, "read corpus manifest", err)
	}

	var entries []ManifestEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, errors.Wrap(errors.ErrCodeManifestInvalid, "parse corpus manifest", err)
	}
	return entries, nil
}

// SanitizeTitle derives the expected source filename stem from a story
// title: apostrophes are dropped, every other non-alphanumeric rune
// becomes an underscore, runs of underscores collapse to one, and
// leading/trailing underscores are trimmed.
func SanitizeTitle(title string) string {
	var b strings.Builder
	b.Grow(len(title))
	for _, r := range strings.ReplaceAll(title, "'", "") {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}

	sanitized := b.String()
	for strings.Contains(sanitized, "__") {
		sanitized = strings.ReplaceAll(sanitized, "__", "_")
	}
	return strings.Trim(sanitized, "_")
}

// findSourceFile matches a sanitized title against the .txt files in
// the corpus directory, case-insensitively. Returns "" when no file
// matches.
func findSourceFile(corpusDir, sanitizedTitle string) (string, error) {
	dirEntries, err := os.ReadDir(corpusDir)
	if err != nil {
		return "", err
	}

	want := strings.ToLower(sanitizedTitle)
	for _, entry := range dirEntries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.EqualFold(filepath.Ext(name), ".txt") {
			continue
		}
		stem := strings.TrimSuffix(name, filepath.Ext(name))
		if strings.ToLower(stem) == want {
			return filepath.Join(corpusDir, name), nil
		}
	}
	return "", nil
}
