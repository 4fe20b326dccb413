package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/storyseek/storyseek/internal/ingest"
)

func newIngestCmd() *cobra.Command {
	var corpusDir string
	var watch bool

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Load the story corpus into the search index",
		Long: `Ingest reads the corpus manifest, hashes each story's content and
inserts or replaces only what changed since the last run. Summaries and
embeddings are regenerated for changed stories only.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, cleanup, err := loadConfig()
			if err != nil {
				return err
			}
			defer cleanup()

			if corpusDir != "" {
				cfg.Ingest.CorpusDir = corpusDir
			}

			stack, err := openStack(cfg, logger)
			if err != nil {
				return err
			}
			defer stack.close()

			pipeline := ingest.NewPipeline(ingest.Options{
				Stories:         stack.stories,
				Lexical:         stack.lexical,
				Vectors:         stack.vectors,
				Embedder:        stack.embedder,
				Summarizer:      stack.summarizer,
				Logger:          logger,
				LockPath:        cfg.IngestLockPath(),
				VectorIndexPath: cfg.VectorIndexPath(),
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			report, err := pipeline.Run(ctx, cfg.Ingest.CorpusDir)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Ingestion complete: %s\n", report)

			if watch {
				if err := pipeline.Watch(ctx, cfg.Ingest.CorpusDir, cfg.Ingest.WatchDebounce); err != nil && ctx.Err() == nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&corpusDir, "corpus", "", "Corpus directory (overrides config)")
	cmd.Flags().BoolVar(&watch, "watch", false, "Keep running and re-ingest when the corpus changes")
	return cmd
}
