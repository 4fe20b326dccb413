package cmd

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/storyseek/storyseek/internal/search"
	"github.com/storyseek/storyseek/internal/server"
)

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP search API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, cleanup, err := loadConfig()
			if err != nil {
				return err
			}
			defer cleanup()

			if addr != "" {
				cfg.Server.Addr = addr
			}

			stack, err := openStack(cfg, logger)
			if err != nil {
				return err
			}
			defer stack.close()

			engine := search.NewEngine(stack.adapter, stack.embedder, logger)
			srv := server.New(server.Options{
				Engine:        engine,
				Stories:       stack.stories,
				Logger:        logger,
				Addr:          cfg.Server.Addr,
				GinMode:       cfg.Server.Mode,
				DefaultLimit:  cfg.Search.DefaultLimit,
				MaxLimit:      cfg.Search.MaxLimit,
				SearchTimeout: cfg.Search.Timeout,
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() { errCh <- srv.ListenAndServe() }()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
				logger.Info("shutting down")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			}
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides config)")
	return cmd
}
