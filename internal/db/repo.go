package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"healthbot/pkg"

	"github.com/google/uuid"
)

// ErrUnavailable is returned (wrapped) whenever the underlying engine cannot
// serve a query.  Callers must not treat it as an empty result.
var ErrUnavailable = errors.New("knowledge store unavailable")

// Repository is the knowledge store.  It owns the vaccination schedule,
// symptom guide and disease outbreak collections; every read and write goes
// through it.  Each method is a single statement (or a single transaction for
// seeding) so concurrent exchanges never observe partial writes.
type Repository struct {
	DB     *sql.DB
	driver string
}

// NewRepository constructs a new Repository from an existing sql.DB.
// The caller is responsible for managing the DB connection lifecycle.
func NewRepository(db *sql.DB, driver string) *Repository {
	return &Repository{DB: db, driver: driver}
}

// Ping reports whether the store is reachable.
func (r *Repository) Ping(ctx context.Context) error {
	if err := r.DB.PingContext(ctx); err != nil {
		return unavailable("ping", err)
	}
	return nil
}

// FindVaccineSchedules returns every schedule whose target disease contains
// the given substring.  Matching is case-sensitive.
func (r *Repository) FindVaccineSchedules(ctx context.Context, disease string) ([]pkg.VaccinationSchedule, error) {
	rows, err := r.DB.QueryContext(ctx, r.rebind(
		`SELECT id, target_disease, age_group, schedule_details
         FROM vaccination_schedules
         WHERE `+r.contains("target_disease")+`
         ORDER BY target_disease, age_group`), disease)
	if err != nil {
		return nil, unavailable("find vaccine schedules", err)
	}
	defer rows.Close()
	out := []pkg.VaccinationSchedule{}
	for rows.Next() {
		var v pkg.VaccinationSchedule
		if err := rows.Scan(&v.ID, &v.TargetDisease, &v.AgeGroup, &v.ScheduleDetails); err != nil {
			return nil, unavailable("scan vaccine schedule", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("find vaccine schedules", err)
	}
	return out, nil
}

// FindSymptomGuides returns every guide whose disease name contains the
// given substring.
func (r *Repository) FindSymptomGuides(ctx context.Context, disease string) ([]pkg.SymptomGuide, error) {
	rows, err := r.DB.QueryContext(ctx, r.rebind(
		`SELECT id, disease_name, common_symptoms, prevention
         FROM symptom_guides
         WHERE `+r.contains("disease_name")+`
         ORDER BY disease_name`), disease)
	if err != nil {
		return nil, unavailable("find symptom guides", err)
	}
	defer rows.Close()
	out := []pkg.SymptomGuide{}
	for rows.Next() {
		var g pkg.SymptomGuide
		if err := rows.Scan(&g.ID, &g.DiseaseName, &g.CommonSymptoms, &g.Prevention); err != nil {
			return nil, unavailable("scan symptom guide", err)
		}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("find symptom guides", err)
	}
	return out, nil
}

// FindOutbreaks returns outbreak reports whose title contains the query,
// most recently stored first.
func (r *Repository) FindOutbreaks(ctx context.Context, query string) ([]pkg.DiseaseOutbreak, error) {
	rows, err := r.DB.QueryContext(ctx, r.rebind(
		`SELECT id, title, summary, publication_date, url
         FROM disease_outbreaks
         WHERE `+r.contains("title")+`
         ORDER BY created_at DESC, title`), query)
	if err != nil {
		return nil, unavailable("find outbreaks", err)
	}
	defer rows.Close()
	out := []pkg.DiseaseOutbreak{}
	for rows.Next() {
		var o pkg.DiseaseOutbreak
		if err := rows.Scan(&o.ID, &o.Title, &o.Summary, &o.PublicationDate, &o.URL); err != nil {
			return nil, unavailable("scan outbreak", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("find outbreaks", err)
	}
	return out, nil
}

// OutbreakExists reports whether an outbreak with exactly this title is
// stored.
func (r *Repository) OutbreakExists(ctx context.Context, title string) (bool, error) {
	var exists bool
	err := r.DB.QueryRowContext(ctx, r.rebind(
		`SELECT EXISTS (SELECT 1 FROM disease_outbreaks WHERE title = ?)`), title).Scan(&exists)
	if err != nil {
		return false, unavailable("check outbreak", err)
	}
	return exists, nil
}

// InsertOutbreak appends a new outbreak report.  An ID is generated when the
// record has none.  No uniqueness is enforced here; see outbreak.Syncer.
func (r *Repository) InsertOutbreak(ctx context.Context, o *pkg.DiseaseOutbreak) error {
	if o == nil {
		return errors.New("outbreak record is required")
	}
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	_, err := r.DB.ExecContext(ctx, r.rebind(
		`INSERT INTO disease_outbreaks (id, title, summary, publication_date, url)
         VALUES (?, ?, ?, ?, ?)`),
		o.ID, o.Title, o.Summary, o.PublicationDate, o.URL,
	)
	if err != nil {
		return unavailable("insert outbreak", err)
	}
	return nil
}

// Counts returns the number of rows in each collection.
func (r *Repository) Counts(ctx context.Context) (pkg.Counts, error) {
	var c pkg.Counts
	err := r.DB.QueryRowContext(ctx,
		`SELECT
            (SELECT COUNT(*) FROM vaccination_schedules),
            (SELECT COUNT(*) FROM symptom_guides),
            (SELECT COUNT(*) FROM disease_outbreaks)`,
	).Scan(&c.VaccinationSchedules, &c.SymptomGuides, &c.DiseaseOutbreaks)
	if err != nil {
		return pkg.Counts{}, unavailable("count records", err)
	}
	return c, nil
}

// contains renders a case-sensitive substring predicate for column.  LIKE is
// avoided: it is case-insensitive on SQLite and treats % and _ as wildcards.
func (r *Repository) contains(column string) string {
	if r.driver == DriverPostgres {
		return "strpos(" + column + ", ?) > 0"
	}
	return "instr(" + column + ", ?) > 0"
}

// rebind rewrites ? placeholders into the $n form PostgreSQL expects.
func (r *Repository) rebind(query string) string {
	if r.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, ch := range query {
		if ch == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(ch)
	}
	return b.String()
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrUnavailable, op, err)
}
