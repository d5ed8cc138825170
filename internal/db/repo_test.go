package db_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"healthbot/internal/db"
	"healthbot/pkg"

	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) *db.Repository {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "health.db") + "?_pragma=busy_timeout(5000)"
	conn, err := db.Open(context.Background(), db.DriverSQLite, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, db.Migrate(context.Background(), conn))
	return db.NewRepository(conn, db.DriverSQLite)
}

func TestMigrateIsIdempotent(t *testing.T) {
	repo := newTestRepo(t)
	require.NoError(t, db.Migrate(context.Background(), repo.DB))
}

func TestSeedIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	first, err := repo.Seed(ctx)
	require.NoError(t, err)
	require.Positive(t, first.VaccinationSchedules)
	require.Positive(t, first.SymptomGuides)
	once, err := repo.Counts(ctx)
	require.NoError(t, err)

	second, err := repo.Seed(ctx)
	require.NoError(t, err)
	require.Zero(t, second.VaccinationSchedules)
	require.Zero(t, second.SymptomGuides)
	twice, err := repo.Counts(ctx)
	require.NoError(t, err)

	require.Equal(t, once, twice)
	require.Equal(t, first.VaccinationSchedules, twice.VaccinationSchedules)
	require.Equal(t, first.SymptomGuides, twice.SymptomGuides)
}

func TestSeedSkipsCollectionWithAnyRow(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	_, err := repo.DB.ExecContext(ctx,
		`INSERT INTO vaccination_schedules (id, target_disease, age_group, schedule_details)
         VALUES ('manual', 'Rabies', 'Adults', 'Pre-exposure: 2 doses')`)
	require.NoError(t, err)

	res, err := repo.Seed(ctx)
	require.NoError(t, err)
	require.Zero(t, res.VaccinationSchedules)
	require.Positive(t, res.SymptomGuides)

	polio, err := repo.FindVaccineSchedules(ctx, "Polio")
	require.NoError(t, err)
	require.Empty(t, polio)
}

func TestFindVaccineSchedules(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	_, err := repo.Seed(ctx)
	require.NoError(t, err)

	found, err := repo.FindVaccineSchedules(ctx, "Polio")
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Equal(t, "Polio", found[0].TargetDisease)
	require.NotEmpty(t, found[0].ID)

	partial, err := repo.FindVaccineSchedules(ctx, "Hepat")
	require.NoError(t, err)
	require.Len(t, partial, 1)
	require.Equal(t, "Hepatitis B", partial[0].TargetDisease)

	none, err := repo.FindVaccineSchedules(ctx, "xyz-nonexistent")
	require.NoError(t, err)
	require.NotNil(t, none)
	require.Empty(t, none)
}

func TestFindIsCaseSensitive(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	_, err := repo.Seed(ctx)
	require.NoError(t, err)

	lower, err := repo.FindSymptomGuides(ctx, "cholera")
	require.NoError(t, err)
	require.Empty(t, lower)

	exact, err := repo.FindSymptomGuides(ctx, "Cholera")
	require.NoError(t, err)
	require.Len(t, exact, 1)
	require.Equal(t, "Cholera", exact[0].DiseaseName)
	require.NotEmpty(t, exact[0].CommonSymptoms)
}

func TestFindTreatsWildcardsLiterally(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	_, err := repo.Seed(ctx)
	require.NoError(t, err)

	found, err := repo.FindSymptomGuides(ctx, "%")
	require.NoError(t, err)
	require.Empty(t, found)
}

func TestOutbreakInsertExistsAndFind(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	exists, err := repo.OutbreakExists(ctx, "Cholera - Sudan")
	require.NoError(t, err)
	require.False(t, exists)

	o := &pkg.DiseaseOutbreak{
		Title:           "Cholera - Sudan",
		Summary:         "Cases reported in several states.",
		PublicationDate: "2024-10-01T00:00:00Z",
		URL:             "https://example.org/item/cholera-sudan",
	}
	require.NoError(t, repo.InsertOutbreak(ctx, o))
	require.NotEmpty(t, o.ID)

	exists, err = repo.OutbreakExists(ctx, "Cholera - Sudan")
	require.NoError(t, err)
	require.True(t, exists)

	exists, err = repo.OutbreakExists(ctx, "Cholera")
	require.NoError(t, err)
	require.False(t, exists, "existence check is exact, not substring")

	found, err := repo.FindOutbreaks(ctx, "Cholera")
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Equal(t, *o, found[0])

	all, err := repo.FindOutbreaks(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 1)
}

func TestClosedStoreReportsUnavailable(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	require.NoError(t, repo.DB.Close())

	_, err := repo.FindVaccineSchedules(ctx, "Polio")
	require.Error(t, err)
	require.True(t, errors.Is(err, db.ErrUnavailable))

	_, err = repo.OutbreakExists(ctx, "x")
	require.ErrorIs(t, err, db.ErrUnavailable)

	require.ErrorIs(t, repo.Ping(ctx), db.ErrUnavailable)
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := db.Open(context.Background(), "mysql", "dsn")
	require.Error(t, err)
}

func TestConcurrentSeedFillsEachCollectionOnce(t *testing.T) {
	ctx := context.Background()
	dsn := "file:" + filepath.Join(t.TempDir(), "shared.db") + "?_pragma=busy_timeout(5000)"

	const starters = 4
	repos := make([]*db.Repository, 0, starters)
	for range starters {
		conn, err := db.Open(ctx, db.DriverSQLite, dsn)
		require.NoError(t, err)
		t.Cleanup(func() { _ = conn.Close() })
		require.NoError(t, db.Migrate(ctx, conn))
		repos = append(repos, db.NewRepository(conn, db.DriverSQLite))
	}

	var wg sync.WaitGroup
	results := make(chan db.SeedResult, starters)
	errs := make(chan error, starters)
	for _, repo := range repos {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := repo.Seed(ctx)
			if err != nil {
				errs <- err
				return
			}
			results <- res
		}()
	}
	wg.Wait()
	close(results)
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	var schedules, guides int
	for res := range results {
		schedules += res.VaccinationSchedules
		guides += res.SymptomGuides
	}
	counts, err := repos[0].Counts(ctx)
	require.NoError(t, err)
	require.Equal(t, counts.VaccinationSchedules, schedules)
	require.Equal(t, counts.SymptomGuides, guides)
	require.Equal(t, 5, counts.VaccinationSchedules)
	require.Equal(t, 5, counts.SymptomGuides)
}
