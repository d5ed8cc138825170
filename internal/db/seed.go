package db

import (
	"context"
	"database/sql"
	"fmt"
	"hash/fnv"

	"healthbot/pkg"

	"github.com/google/uuid"
)

// SeedResult reports how many reference rows Seed inserted per collection.
type SeedResult struct {
	VaccinationSchedules int
	SymptomGuides        int
}

var seedSchedules = []pkg.VaccinationSchedule{
	{TargetDisease: "Polio", AgeGroup: "Infants", ScheduleDetails: "Oral or inactivated polio vaccine at 2, 4 and 6-18 months, booster at 4-6 years."},
	{TargetDisease: "Measles", AgeGroup: "Children", ScheduleDetails: "Two doses of MMR: first at 12-15 months, second at 4-6 years."},
	{TargetDisease: "Cholera", AgeGroup: "Travellers and residents of endemic areas (2 years+)", ScheduleDetails: "Two doses of oral cholera vaccine given 1-6 weeks apart; booster after 2 years if risk continues."},
	{TargetDisease: "Hepatitis B", AgeGroup: "Newborns", ScheduleDetails: "Birth dose within 24 hours, followed by doses at 1-2 months and 6-18 months."},
	{TargetDisease: "Influenza", AgeGroup: "Everyone 6 months and older", ScheduleDetails: "One dose every year before the flu season; two doses four weeks apart for children under 9 receiving it for the first time."},
}

var seedGuides = []pkg.SymptomGuide{
	{DiseaseName: "Polio", CommonSymptoms: "Fever, fatigue, headache, vomiting, stiff neck, pain in the limbs; rarely sudden paralysis.", Prevention: "Complete the polio vaccination series; safe water and good hand hygiene."},
	{DiseaseName: "Measles", CommonSymptoms: "High fever, cough, runny nose, red watery eyes, then a red blotchy rash spreading from the face.", Prevention: "Two doses of MMR vaccine; isolate infected people for four days after the rash appears."},
	{DiseaseName: "Cholera", CommonSymptoms: "Sudden profuse watery diarrhoea, vomiting, leg cramps and rapid dehydration.", Prevention: "Drink safe boiled or treated water, eat thoroughly cooked food, wash hands with soap, oral cholera vaccine in outbreak areas."},
	{DiseaseName: "Hepatitis B", CommonSymptoms: "Yellowing of skin and eyes, dark urine, extreme fatigue, nausea, abdominal pain.", Prevention: "Hepatitis B vaccination, safe blood transfusions, no sharing of needles, safer sex."},
	{DiseaseName: "Influenza", CommonSymptoms: "Sudden fever, dry cough, headache, muscle and joint pain, sore throat, runny nose.", Prevention: "Yearly vaccination, hand washing, covering coughs and sneezes, staying home when sick."},
}

// Seed inserts the reference vaccination schedules and symptom guides.  It is
// safe to call on every start: a collection that already holds any row is
// left untouched, regardless of which diseases it contains.
func (r *Repository) Seed(ctx context.Context) (SeedResult, error) {
	var res SeedResult
	n, err := r.seedCollection(ctx, "vaccination_schedules", func(tx *sql.Tx) (int, error) {
		for _, s := range seedSchedules {
			if _, err := tx.ExecContext(ctx, r.rebind(
				`INSERT INTO vaccination_schedules (id, target_disease, age_group, schedule_details)
                 VALUES (?, ?, ?, ?)`),
				uuid.NewString(), s.TargetDisease, s.AgeGroup, s.ScheduleDetails,
			); err != nil {
				return 0, err
			}
		}
		return len(seedSchedules), nil
	})
	if err != nil {
		return res, err
	}
	res.VaccinationSchedules = n

	n, err = r.seedCollection(ctx, "symptom_guides", func(tx *sql.Tx) (int, error) {
		for _, g := range seedGuides {
			if _, err := tx.ExecContext(ctx, r.rebind(
				`INSERT INTO symptom_guides (id, disease_name, common_symptoms, prevention)
                 VALUES (?, ?, ?, ?)`),
				uuid.NewString(), g.DiseaseName, g.CommonSymptoms, g.Prevention,
			); err != nil {
				return 0, err
			}
		}
		return len(seedGuides), nil
	})
	if err != nil {
		return res, err
	}
	res.SymptomGuides = n
	return res, nil
}

func seedLockKey(table string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte("healthbot.seed." + table))
	return int64(h.Sum64())
}

// seedCollection runs insert inside a transaction when table is empty.
// table is always one of the package constants above, never user input.
func (r *Repository) seedCollection(ctx context.Context, table string, insert func(*sql.Tx) (int, error)) (int, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, unavailable("begin seed "+table, err)
	}
	defer func() { _ = tx.Rollback() }()

	if r.driver == DriverPostgres {
		// Serialises concurrent starters; released at commit or rollback.
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, seedLockKey(table)); err != nil {
			return 0, unavailable("lock seed "+table, err)
		}
	}

	var exists bool
	if err := tx.QueryRowContext(ctx, fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s)`, table)).Scan(&exists); err != nil {
		return 0, unavailable("check seed "+table, err)
	}
	if exists {
		return 0, nil
	}
	n, err := insert(tx)
	if err != nil {
		return 0, fmt.Errorf("seed %s: %w", table, err)
	}
	if err := tx.Commit(); err != nil {
		return 0, unavailable("commit seed "+table, err)
	}
	return n, nil
}
