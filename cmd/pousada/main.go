package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"pousada/internal/infra/config"
	ginserver "pousada/internal/infra/http/gin"
	"pousada/internal/infra/obs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		obs.NewLogger("prod", slog.LevelInfo).Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logger := obs.NewLogger(cfg.Env, cfg.LogLevel)

	app, err := buildApplication(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer app.close(logger)

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, app.health, app.handlers)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("HTTP server starting", "addr", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		return ignoreCanceled(app.worker.Run(gctx))
	})
	g.Go(func() error {
		app.sweepCaches(gctx, cfg.CacheTTL)
		return nil
	})
	if app.consumer != nil {
		g.Go(func() error {
			logger.Info("change feed consumer starting", "topic", cfg.KafkaInvalidationTopic)
			return ignoreCanceled(app.consumer.Run(gctx, []string{cfg.KafkaInvalidationTopic}))
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error("console stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("HTTP server stopped")
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
