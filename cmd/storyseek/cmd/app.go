package cmd

import (
	"log/slog"
	"os"

	"github.com/storyseek/storyseek/internal/config"
	"github.com/storyseek/storyseek/internal/embed"
	"github.com/storyseek/storyseek/internal/store"
	"github.com/storyseek/storyseek/internal/summarize"
)

// appStack holds the wired storage and provider layers shared by the
// serve, ingest and search commands.
type appStack struct {
	cfg        *config.Config
	logger     *slog.Logger
	stories    *store.SQLiteStoryStore
	lexical    *store.BleveLexicalIndex
	vectors    *store.HNSWVectorIndex
	adapter    *store.Adapter
	embedder   embed.Embedder
	summarizer summarize.Summarizer
}

// openStack opens every backend. The vector index is loaded from disk
// when a previous ingestion saved one.
func openStack(cfg *config.Config, logger *slog.Logger) (*appStack, error) {
	stories, err := store.NewSQLiteStoryStore(cfg.DatabasePath())
	if err != nil {
		return nil, err
	}

	lexical, err := store.NewBleveLexicalIndex(cfg.LexicalIndexPath())
	if err != nil {
		_ = stories.Close()
		return nil, err
	}

	vectors, err := store.NewHNSWVectorIndex(cfg.Ollama.Dimensions)
	if err != nil {
		_ = lexical.Close()
		_ = stories.Close()
		return nil, err
	}
	if _, statErr := os.Stat(cfg.VectorIndexPath()); statErr == nil {
		if err := vectors.Load(cfg.VectorIndexPath()); err != nil {
			_ = vectors.Close()
			_ = lexical.Close()
			_ = stories.Close()
			return nil, err
		}
		logger.Debug("vector index loaded", "path", cfg.VectorIndexPath(), "vectors", vectors.Count())
	}

	embedder := embed.NewCachedEmbedder(embed.NewOllamaEmbedder(embed.OllamaConfig{
		Host:       cfg.Ollama.Host,
		Model:      cfg.Ollama.EmbedModel,
		Dimensions: cfg.Ollama.Dimensions,
		Timeout:    cfg.Ollama.EmbedTimeout,
	}), cfg.Search.CacheSize)

	summarizer := summarize.NewOllamaSummarizer(summarize.OllamaConfig{
		Host:    cfg.Ollama.Host,
		Model:   cfg.Ollama.ChatModel,
		Timeout: cfg.Ollama.SummarizeTimeout,
	})

	return &appStack{
		cfg:        cfg,
		logger:     logger,
		stories:    stories,
		lexical:    lexical,
		vectors:    vectors,
		adapter:    store.NewAdapter(stories, lexical, vectors),
		embedder:   embedder,
		summarizer: summarizer,
	}, nil
}

func (a *appStack) close() {
	_ = a.embedder.Close()
	_ = a.summarizer.Close()
	_ = a.adapter.Close()
}
