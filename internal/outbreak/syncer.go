package outbreak

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"healthbot/internal/dedupe"
	"healthbot/internal/logger"
	"healthbot/internal/metrics"
	"healthbot/pkg"
)

// MaxBatch is the upper bound on entries processed by a single Sync.
const MaxBatch = 10

// Store is the slice of the knowledge store the synchronizer needs.
type Store interface {
	Ping(ctx context.Context) error
	OutbreakExists(ctx context.Context, title string) (bool, error)
	InsertOutbreak(ctx context.Context, o *pkg.DiseaseOutbreak) error
}

// Announcer is told about outbreaks that a sync inserted.
type Announcer interface {
	Announce(ctx context.Context, outbreaks []pkg.DiseaseOutbreak) error
}

// Result describes one sync run.  A feed failure is carried in Err rather
// than returned, so callers can hand Message() straight to the user.
type Result struct {
	Fetched    int
	Inserted   int
	Duplicates int
	Skipped    int
	New        []pkg.DiseaseOutbreak
	Err        error
}

// Message renders the result as a sentence for the model or the user.
func (r Result) Message() string {
	if r.Err != nil {
		return fmt.Sprintf("Failed to sync outbreak reports: %v", r.Err)
	}
	msg := fmt.Sprintf("Synced %d new outbreak report(s) from %d fetched (%d already stored", r.Inserted, r.Fetched, r.Duplicates)
	if r.Skipped > 0 {
		msg += fmt.Sprintf(", %d skipped without title", r.Skipped)
	}
	msg += ")."
	if len(r.New) > 0 {
		titles := make([]string, 0, len(r.New))
		for _, o := range r.New {
			titles = append(titles, o.Title)
		}
		msg += " New: " + strings.Join(titles, "; ") + "."
	}
	return msg
}

// Options configures a Syncer.
type Options struct {
	BatchSize  int
	ItemURL    string
	Cache      *dedupe.TitleCache
	Announcers []Announcer
	Logger     *slog.Logger
	Metrics    *metrics.Metrics
}

// Syncer reconciles the store's outbreak collection with the external feed,
// using the title as natural key.
//
// The existence check and the insert are two separate store operations, so
// two concurrent syncs can both decide a new title is absent and both insert
// it.  With batches of at most MaxBatch entries this produces at most one
// duplicate row per concurrent sync and is accepted.
type Syncer struct {
	store      Store
	feed       Feed
	batch      int
	itemURL    string
	cache      *dedupe.TitleCache
	announcers []Announcer
	log        *slog.Logger
	metrics    *metrics.Metrics
}

// NewSyncer constructs a Syncer.  BatchSize outside 1..MaxBatch is clamped.
func NewSyncer(store Store, feed Feed, opts Options) *Syncer {
	batch := opts.BatchSize
	if batch <= 0 || batch > MaxBatch {
		batch = MaxBatch
	}
	log := opts.Logger
	if log == nil {
		log = logger.Discard()
	}
	return &Syncer{
		store:      store,
		feed:       feed,
		batch:      batch,
		itemURL:    opts.ItemURL,
		cache:      opts.Cache,
		announcers: opts.Announcers,
		log:        log,
		metrics:    opts.Metrics,
	}
}

// Sync pulls up to the batch size of recent entries and inserts those whose
// title is not stored yet.  Feed failures are reported in Result.Err; a
// returned error means the store itself failed.
func (s *Syncer) Sync(ctx context.Context) (Result, error) {
	entries, err := s.feed.Fetch(ctx, s.batch)
	if err != nil {
		s.metrics.IncrementSyncFailure()
		s.log.Warn("fetch outbreak feed", slog.Any("err", err))
		return Result{Err: err}, nil
	}
	if len(entries) > s.batch {
		entries = entries[:s.batch]
	}

	res := Result{Fetched: len(entries)}
	// Cache hits skip the store, so check it is reachable before trusting them.
	if len(entries) > 0 {
		if err := s.store.Ping(ctx); err != nil {
			return res, fmt.Errorf("sync outbreaks: %w", err)
		}
	}
	for _, e := range entries {
		if e.Title == nil || strings.TrimSpace(*e.Title) == "" {
			res.Skipped++
			s.log.Warn("skip outbreak entry without title", slog.String("item", e.UrlName))
			continue
		}
		title := strings.TrimSpace(*e.Title)

		if s.cache.Known(title) {
			res.Duplicates++
			continue
		}
		exists, err := s.store.OutbreakExists(ctx, title)
		if err != nil {
			return res, fmt.Errorf("sync outbreaks: %w", err)
		}
		if exists {
			s.cache.Remember(title)
			res.Duplicates++
			continue
		}

		record := pkg.DiseaseOutbreak{
			Title:           title,
			Summary:         CleanSummary(e.Overview),
			PublicationDate: CleanDate(e.PublicationDate),
			URL:             ItemURL(s.itemURL, e.UrlName),
		}
		if err := s.store.InsertOutbreak(ctx, &record); err != nil {
			return res, fmt.Errorf("sync outbreaks: %w", err)
		}
		s.cache.Remember(title)
		res.Inserted++
		res.New = append(res.New, record)
		s.log.Debug("stored outbreak", slog.String("id", record.ID), slog.String("title", title))
	}

	s.metrics.AddSyncEntries("inserted", res.Inserted)
	s.metrics.AddSyncEntries("duplicate", res.Duplicates)
	s.metrics.AddSyncEntries("skipped", res.Skipped)
	s.log.Info("outbreak sync finished",
		slog.Int("fetched", res.Fetched),
		slog.Int("inserted", res.Inserted),
		slog.Int("duplicates", res.Duplicates),
		slog.Int("skipped", res.Skipped),
	)

	s.announce(ctx, res.New)
	return res, nil
}

func (s *Syncer) announce(ctx context.Context, outbreaks []pkg.DiseaseOutbreak) {
	if len(outbreaks) == 0 {
		return
	}
	for _, a := range s.announcers {
		if err := a.Announce(ctx, outbreaks); err != nil {
			s.log.Warn("announce outbreaks", slog.Any("err", err), slog.Int("count", len(outbreaks)))
		}
	}
}
