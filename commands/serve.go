package commands

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"studio/cache"
	"studio/database"
	"studio/feeds"
	"studio/handlers"
	"studio/logging"
	"studio/middleware"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		// Initialize JWT secret
		middleware.SetJWTSecret(cfg.Auth.JWTSecret)

		// Initialize database
		if err := database.Init(cfg.Database.Driver, cfg.Database.URL, logging.GormLevel(cfg.App.LogLevel), logger); err != nil {
			return err
		}
		defer database.Close()

		feedCache, closeCache, err := openCache(ctx)
		if err != nil {
			return err
		}
		defer closeCache()

		server := &http.Server{
			Addr:              ":" + cfg.Server.Port,
			Handler:           handlers.NewRouter(cfg, feeds.NewService(cfg, feedCache, logger), logger),
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			logger.Info("server starting", zap.String("addr", server.Addr), zap.String("env", cfg.App.Environment))
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	},
}

// openCache connects to Redis when REDIS_URL is set. Without it feeds are
// fetched on every request.
func openCache(ctx context.Context) (cache.Cache, func(), error) {
	if cfg.Cache.RedisURL == "" {
		logger.Info("feed cache disabled")
		return cache.Noop{}, func() {}, nil
	}
	client, err := cache.Dial(ctx, cfg.Cache.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("feed cache enabled", zap.Duration("ttl", cfg.Cache.FeedTTL))
	return client, func() { client.Close() }, nil
}
