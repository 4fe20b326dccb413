// Package model defines the core domain types shared across the service.
package model

import "time"

// Story is a single narrative document and its derived artifacts.
//
// Embedding and ContentHash travel together: a story row is only ever
// written with the embedding that was computed from the content the hash
// describes. A story with an empty hash has no derived artifacts yet.
type Story struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	Author        string    `json:"author"`
	Genre         string    `json:"genre"`
	PublishedYear int       `json:"publishedYear"`
	Summary       string    `json:"summary"`
	Content       string    `json:"content"`
	ContentHash   string    `json:"-"`
	Embedding     []float32 `json:"-"`
	CreatedAt     time.Time `json:"-"`
	UpdatedAt     time.Time `json:"-"`
}

// HasEmbedding reports whether derived artifacts have been computed.
func (s *Story) HasEmbedding() bool {
	return len(s.Embedding) > 0
}
