package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/storyseek/storyseek/internal/search"
)

func newSearchCmd() *cobra.Command {
	var mode string
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Run a one-off search from the command line",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, cleanup, err := loadConfig()
			if err != nil {
				return err
			}
			defer cleanup()

			parsedMode, err := search.ParseMode(mode)
			if err != nil {
				return err
			}
			if limit <= 0 {
				limit = cfg.Search.DefaultLimit
			}

			stack, err := openStack(cfg, logger)
			if err != nil {
				return err
			}
			defer stack.close()

			engine := search.NewEngine(stack.adapter, stack.embedder, logger)
			hits, err := engine.Search(cmd.Context(), search.Options{
				Query: strings.Join(args, " "),
				Mode:  parsedMode,
				Limit: limit,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(hits)
			}

			if len(hits) == 0 {
				fmt.Fprintln(out, "No results.")
				return nil
			}
			for i, hit := range hits {
				fmt.Fprintf(out, "%2d. %s by %s (%s, %d)  score=%.4f\n",
					i+1, hit.Story.Title, hit.Story.Author, hit.Story.Genre,
					hit.Story.PublishedYear, hit.Score)
				if hit.Story.Summary != "" {
					fmt.Fprintf(out, "    %s\n", hit.Story.Summary)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&mode, "mode", "", "Search mode: lexical, semantic or hybrid (default hybrid)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of results (default from config)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print results as JSON")
	return cmd
}
