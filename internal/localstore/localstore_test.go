package localstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"fitcoach/internal/domain"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		// INFO: https://github.com/go-redis/redis/issues/1029
		goleak.IgnoreTopFunction(
			"github.com/go-redis/redis/v8/internal/pool.(*ConnPool).reaper",
		),
	)
}

// fullStudent returns a student with every field of the aggregate populated.
func fullStudent(id string) domain.Student {
	created := time.Date(2026, 2, 10, 18, 30, 0, 0, time.UTC)
	last := created.Add(time.Hour)
	return domain.Student{
		ID:       id,
		Name:     gofakeit.Name(),
		Email:    gofakeit.Email(),
		PhotoURL: "data:image/jpeg;base64,/9j/4AAQ",
		Sex:      domain.SexFemale,
		Workouts: []domain.Workout{{
			ID:    "w-" + id,
			Title: "Lower body A",
			Exercises: []domain.Exercise{
				{Name: "Back squat", Sets: 4, Reps: "8-10", Load: "60kg", Rest: "90s", Notes: gofakeit.Sentence(5), VideoURL: gofakeit.URL()},
				{Name: "Romanian deadlift", Sets: 3, Reps: "10"},
			},
			StartDate:         "2026-02-02",
			EndDate:           "2026-03-01",
			FrequencyPerWeek:  3,
			ProjectedSessions: 12,
		}},
		WorkoutHistory: []domain.WorkoutHistoryEntry{{
			ID: "h1", WorkoutID: "w-" + id, Name: "Lower body A", DurationSeconds: 3120, Date: "2026-02-10", CreatedAt: created,
		}},
		PhysicalAssessments: []domain.PhysicalAssessment{{
			ID: "a1", Date: "2026-02-01", WeightKg: 62.4, HeightCm: 168, BodyFatPct: 24.1, MuscleMassKg: 25.3,
			BodyWaterPct: 52.2, VisceralFatLevel: 4, BasalMetabolicRate: 1390,
			Circumferences: map[string]float64{"waist": 71, "hip": 98},
			Skinfolds:      map[string]float64{"triceps": 18},
			CreatedAt:      created,
		}},
		Analytics: &domain.Analytics{TotalSessions: 1, TotalMinutes: 52, SessionsLast30d: 1, LastSessionAt: &last},
		Nutrition: &domain.NutritionProfile{
			Goal:         "recomposition",
			Restrictions: []string{"lactose"},
			Targets:      domain.MacroTargets{Calories: 1900, ProteinG: 130, CarbsG: 190, FatG: 60},
			Logs:         []domain.MealLog{{ID: "l1", Date: "2026-02-10", Meal: "lunch", Description: "rice and chicken", Calories: 640, ProteinG: 45, CarbsG: 70, FatG: 15, CreatedAt: created}},
			MealPlans: []domain.MealPlan{{
				ID: "mp1", Title: "Week 1", CreatedAt: created,
				Meals: []domain.PlannedMeal{{Name: "Breakfast", Time: "07:00", Items: []string{"oats", "eggs"}}},
			}},
		},
		StrengthPlan: &domain.PeriodizationPlan{
			ID: "p1", Discipline: domain.DisciplineStrength, Title: "Block 1", StartDate: "2026-02-02", CreatedAt: created,
			Microcycles: []domain.Microcycle{{Week: 1, Focus: "Adaptation", RepRange: "12-15", RPE: "6"}},
		},
		RunningPlan: &domain.PeriodizationPlan{
			ID: "p2", Discipline: domain.DisciplineRunning, StartDate: "2026-02-09", CreatedAt: created,
			Microcycles: []domain.Microcycle{{Week: 1, Focus: "Base", RepRange: "Z2", RPE: "5"}},
		},
	}
}

func TestSnapshot_RoundTrip(t *testing.T) {
	students := []domain.Student{fullStudent("fixed-andre"), fullStudent("fixed-marcelly"), {ID: "bare", Name: "Bare"}}
	snap := NewSnapshot(students)
	assert.Len(t, snap.CachedPrescribedWorkouts, 2)
	assert.Len(t, snap.CachedExecutedWorkouts, 2)

	data, err := Encode(snap)
	require.NoError(t, err)
	decoded, err := Decode(data)
	require.NoError(t, err)

	assert.Equal(t, students, decoded.Students)
	assert.Equal(t, snap.CachedPrescribedWorkouts, decoded.CachedPrescribedWorkouts)

	_, err = Decode([]byte("{broken"))
	assert.Error(t, err)
}

func TestFileSlot(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "nested")
	slot := NewFileSlot(dir, "")
	assert.Equal(t, filepath.Join(dir, DefaultKey+".json"), slot.Path())

	_, err := slot.Load(ctx)
	assert.ErrorIs(t, err, ErrSlotEmpty)

	students := []domain.Student{fullStudent("s1")}
	require.NoError(t, slot.Save(ctx, NewSnapshot(students)))

	loaded, err := slot.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, students, loaded.Students)

	// overwrite leaves no temp files behind
	require.NoError(t, slot.Save(ctx, NewSnapshot(nil)))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	require.NoError(t, os.WriteFile(slot.Path(), []byte("garbage"), 0o644))
	_, err = slot.Load(ctx)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrSlotEmpty)
}

func TestRedisSlot(t *testing.T) {
	ctx := context.Background()
	db, mock := redismock.NewClientMock()
	defer db.Close()

	slot := NewRedisSlot(db, "test-state")

	mock.ExpectGet("test-state").RedisNil()
	_, err := slot.Load(ctx)
	assert.ErrorIs(t, err, ErrSlotEmpty)

	snap := NewSnapshot([]domain.Student{fullStudent("s1")})
	data, err := Encode(snap)
	require.NoError(t, err)

	mock.ExpectSet("test-state", string(data), 0).SetVal("OK")
	require.NoError(t, slot.Save(ctx, snap))

	mock.ExpectGet("test-state").SetVal(string(data))
	loaded, err := slot.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, snap.Students, loaded.Students)

	mock.ExpectSet("test-state", string(data), 0).SetErr(assert.AnError)
	assert.ErrorIs(t, slot.Save(ctx, snap), assert.AnError)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMemorySlot(t *testing.T) {
	ctx := context.Background()
	slot := NewMemorySlot()
	_, err := slot.Load(ctx)
	assert.ErrorIs(t, err, ErrSlotEmpty)

	students := []domain.Student{fullStudent("s1")}
	require.NoError(t, slot.Save(ctx, NewSnapshot(students)))
	loaded, err := slot.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, students, loaded.Students)
	assert.Equal(t, 1, slot.Saves())
}
