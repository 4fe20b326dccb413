//go:build ignore

// Package main generates a synthetic story corpus for testing the
// ingestion pipeline and search quality.
// Usage: go run scripts/generate-corpus.go -stories 50 -output testdata/corpus
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
)

var (
	numStories = flag.Int("stories", 50, "Number of stories to generate")
	outputDir  = flag.String("output", "testdata/corpus", "Output directory")
	seed       = flag.Int64("seed", 42, "Random seed for reproducibility")
)

var (
	titleLead = []string{"The", "A", "Last", "First", "Silent", "Hidden", "Broken", "Distant"}
	titleNoun = []string{"Lighthouse", "Harvest", "Garden", "Voyage", "Letter", "Winter", "River", "Door", "Signal", "Orchard"}
	authors   = []string{"Anna Reyes", "Tom Black", "J. Moss", "R. Vane", "M. Hale", "Elena Brandt", "Sam Okafor", "Petra Lindqvist"}
	genres    = []string{"Drama", "Mystery", "Science Fiction", "Horror", "Romance", "Adventure", "War", "Fantasy"}

	sentences = []string{
		"The morning fog had not yet lifted from the valley.",
		"Nobody in the village spoke of what happened that winter.",
		"She kept the letter unopened for eleven years.",
		"The machine hummed in a register just below hearing.",
		"By the third day the water had reached the church steps.",
		"He counted the lights on the far shore every night.",
		"The orchard gave fruit only in the years someone died.",
		"It was not the silence that frightened them but its shape.",
		"The captain wrote the same sentence in the log twice.",
		"Spring came late, and with it the strangers.",
	}
)

type metadataEntry struct {
	Title         string `json:"title"`
	Author        string `json:"author"`
	Genre         string `json:"genre"`
	PublishedYear int    `json:"published_year"`
}

func main() {
	flag.Parse()
	rng := rand.New(rand.NewSource(*seed))

	if err := os.MkdirAll(*outputDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "create output dir: %v\n", err)
		os.Exit(1)
	}

	entries := make([]metadataEntry, 0, *numStories)
	seen := map[string]bool{}
	for len(entries) < *numStories {
		title := fmt.Sprintf("%s %s %d",
			titleLead[rng.Intn(len(titleLead))],
			titleNoun[rng.Intn(len(titleNoun))],
			len(entries)+1)
		if seen[title] {
			continue
		}
		seen[title] = true

		entry := metadataEntry{
			Title:         title,
			Author:        authors[rng.Intn(len(authors))],
			Genre:         genres[rng.Intn(len(genres))],
			PublishedYear: 1920 + rng.Intn(100),
		}
		entries = append(entries, entry)

		if err := writeStory(entry, rng); err != nil {
			fmt.Fprintf(os.Stderr, "write story %q: %v\n", title, err)
			os.Exit(1)
		}
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "marshal metadata: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(filepath.Join(*outputDir, "metadata.json"), data, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "write metadata: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Generated %d stories in %s\n", len(entries), *outputDir)
}

func writeStory(entry metadataEntry, rng *rand.Rand) error {
	var b strings.Builder
	// Header block matching what ingestion strips.
	fmt.Fprintf(&b, "%s\n%s\n%d\n%s\n\n", entry.Title, entry.Author, entry.PublishedYear, entry.Genre)

	paragraphs := 3 + rng.Intn(5)
	for p := 0; p < paragraphs; p++ {
		for s := 0; s < 4+rng.Intn(4); s++ {
			b.WriteString(sentences[rng.Intn(len(sentences))])
			b.WriteByte(' ')
		}
		b.WriteString("\n\n")
	}

	name := sanitize(entry.Title) + ".txt"
	return os.WriteFile(filepath.Join(*outputDir, name), []byte(b.String()), 0o644)
}

func sanitize(title string) string {
	out := strings.ReplaceAll(title, "'", "")
	out = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return r
		}
		return '_'
	}, out)
	for strings.Contains(out, "__") {
		out = strings.ReplaceAll(out, "__", "_")
	}
	return strings.Trim(out, "_")
}
