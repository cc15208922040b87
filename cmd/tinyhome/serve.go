package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"tinyhome/internal/infra/config"
	ginserver "tinyhome/internal/infra/http/gin"
	"tinyhome/internal/infra/obs"
)

func newServeCmd() *cobra.Command {
	var warm bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, the outbox worker and the cache invalidation consumer",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := obs.NewLogger(cfg.Env, cfg.LogLevel)

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			app, err := buildApplication(cfg, logger, dependencies{})
			if err != nil {
				return err
			}
			defer func() {
				if err := app.Close(); err != nil {
					logger.Warn("shutdown: close failed", "error", err)
				}
			}()

			if warm {
				if _, _, err := app.feed.Get(ctx, time.Now()); err != nil {
					logger.Warn("calendar warm-up failed", "error", err)
				}
			}

			server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, app.health, app.handlers)

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				err := app.worker.Run(gctx)
				if errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			})
			if app.consumer != nil {
				g.Go(func() error {
					logger.Info("invalidation consumer starting", "topic", cfg.InvalidationTopic)
					err := app.consumer.Run(gctx, []string{cfg.InvalidationTopic})
					if errors.Is(err, context.Canceled) {
						return nil
					}
					return err
				})
			}
			g.Go(func() error {
				<-gctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					logger.Error("http shutdown failed", "error", err)
				}
				// publish whatever the last requests recorded
				if err := app.worker.Drain(shutdownCtx); err != nil {
					logger.Warn("outbox drain failed", "error", err)
				}
				return nil
			})
			g.Go(func() error {
				logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "env", cfg.Env, "paypal", cfg.PayPalEnv, "cache", cfg.CacheBackend)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				cancel()
				return nil
			})

			if err := g.Wait(); err != nil {
				logger.Error("server stopped with error", "error", err)
				return err
			}
			logger.Info("HTTP server stopped")
			return nil
		},
	}

	cmd.Flags().BoolVar(&warm, "warm", true, "fetch the calendar feed once before accepting requests")
	return cmd
}
