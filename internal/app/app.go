// Package app wires the storage, synchronizer, tool catalog and agent from
// configuration.  Both binaries build their runtime through New.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"healthbot/internal/config"
	"healthbot/internal/core"
	"healthbot/internal/db"
	"healthbot/internal/dedupe"
	"healthbot/internal/llm"
	"healthbot/internal/metrics"
	"healthbot/internal/outbreak"
	"healthbot/internal/tools"

	"github.com/prometheus/client_golang/prometheus"
)

// App holds the long-lived components of a running assistant.
type App struct {
	DB      *sql.DB
	Repo    *db.Repository
	Syncer  *outbreak.Syncer
	Catalog *tools.Catalog
	Agent   *core.Agent
	Metrics *metrics.Metrics

	closers []func() error
}

// Options overrides parts of the wiring.  Zero values use the defaults.
type Options struct {
	// LLM replaces the OpenAI client built from cfg.OpenAI.
	LLM llm.Client

	// Feed replaces the HTTP feed client built from cfg.Outbreak.
	Feed outbreak.Feed

	// Registerer receives the metrics.  Nil uses a private registry.
	Registerer prometheus.Registerer

	// SkipSeed leaves the reference collections empty.
	SkipSeed bool
}

// New opens and migrates the store, seeds the reference collections and
// builds the agent.  The caller must call Close.
func New(ctx context.Context, cfg *config.Common, log *slog.Logger, opts Options) (*App, error) {
	conn, err := db.Open(ctx, cfg.Database.Driver, cfg.Database.URL)
	if err != nil {
		return nil, err
	}
	a := &App{DB: conn}
	a.closers = append(a.closers, conn.Close)

	if err := db.Migrate(ctx, conn); err != nil {
		a.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	a.Repo = db.NewRepository(conn, cfg.Database.Driver)

	if !opts.SkipSeed {
		res, err := a.Repo.Seed(ctx)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("seed: %w", err)
		}
		log.Info("reference data seeded",
			slog.Int("vaccination_schedules", res.VaccinationSchedules),
			slog.Int("symptom_guides", res.SymptomGuides))
	}

	reg := opts.Registerer
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	a.Metrics = metrics.New(reg)

	var announcers []outbreak.Announcer
	if cfg.Database.Driver == db.DriverPostgres && cfg.Database.NotifyChannel != "" {
		announcers = append(announcers, db.NewNotifier(conn, cfg.Database.NotifyChannel))
	}
	if len(cfg.Outbreak.KafkaBrokers) > 0 {
		k := outbreak.NewKafkaAnnouncer(cfg.Outbreak.KafkaBrokers, cfg.Outbreak.KafkaTopic)
		announcers = append(announcers, k)
		a.closers = append(a.closers, k.Close)
	}

	feed := opts.Feed
	if feed == nil {
		feed = outbreak.NewFeedClient(cfg.Outbreak.FeedURL, cfg.Outbreak.FetchTimeout)
	}
	a.Syncer = outbreak.NewSyncer(a.Repo, feed, outbreak.Options{
		BatchSize:  cfg.Outbreak.BatchSize,
		ItemURL:    cfg.Outbreak.ItemURL,
		Cache:      dedupe.NewTitleCache(cfg.Outbreak.DedupeCapacity, cfg.Outbreak.DedupeTTL),
		Announcers: announcers,
		Logger:     log.With(slog.String("component", "outbreak")),
		Metrics:    a.Metrics,
	})

	a.Catalog = tools.NewCatalog(a.Repo, a.Syncer)

	client := opts.LLM
	if client == nil {
		client = llm.NewOpenAIClient(llm.Config{
			APIKey:      cfg.OpenAI.APIKey,
			BaseURL:     cfg.OpenAI.BaseURL,
			Model:       cfg.OpenAI.Model,
			Temperature: cfg.OpenAI.Temperature,
		})
	}
	a.Agent = core.NewAgent(client, a.Catalog, log.With(slog.String("component", "agent")), a.Metrics)

	return a, nil
}

// Close releases the announcers and the database in reverse order of
// acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
