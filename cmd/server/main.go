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

	"healthbot/internal/app"
	"healthbot/internal/config"
	httpserver "healthbot/internal/http"
	"healthbot/internal/logger"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
)

func main() {
	log := logger.New("server")
	cfg, err := config.LoadServer()
	if err != nil {
		log.Error("load config", slog.Any("err", err))
		os.Exit(1)
	}
	if err := run(log, cfg); err != nil {
		log.Error("server stopped", slog.Any("err", err))
		os.Exit(1)
	}
}

func run(log *slog.Logger, cfg *config.Server) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	startCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	a, err := app.New(startCtx, &cfg.Common, log, app.Options{Registerer: prometheus.DefaultRegisterer})
	cancel()
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Error("close app", slog.Any("err", err))
		}
	}()

	srv := httpserver.NewServer(a.Agent, a.Syncer, a.Repo, log.With(slog.String("component", "http")), prometheus.DefaultGatherer)
	httpServer := &http.Server{
		Addr:              cfg.BindAddr,
		Handler:           srv,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		// Two model round trips plus a feed fetch.
		WriteTimeout: 90 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("server starting", slog.String("addr", cfg.BindAddr), slog.String("driver", cfg.Database.Driver))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if cfg.Outbreak.SyncInterval > 0 {
		g.Go(func() error {
			a.Syncer.RunPeriodic(ctx, cfg.Outbreak.SyncInterval)
			return nil
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
