package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkout_Projected(t *testing.T) {
	tests := []struct {
		name    string
		workout Workout
		want    int
	}{
		{"four weeks three a week", Workout{StartDate: "2026-03-02", EndDate: "2026-03-29", FrequencyPerWeek: 3}, 12},
		{"partial week rounds up", Workout{StartDate: "2026-03-02", EndDate: "2026-03-04", FrequencyPerWeek: 5}, 3},
		{"open ended", Workout{StartDate: "2026-03-02", FrequencyPerWeek: 3}, 0},
		{"end before start", Workout{StartDate: "2026-03-10", EndDate: "2026-03-01", FrequencyPerWeek: 3}, 0},
		{"bad date", Workout{StartDate: "03/02/2026", EndDate: "2026-03-29", FrequencyPerWeek: 3}, 0},
		{"no frequency", Workout{StartDate: "2026-03-02", EndDate: "2026-03-29"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.workout.Projected())
			assert.Equal(t, tt.want, tt.workout.WithProjection().ProjectedSessions)
		})
	}
}

func TestComputeAnalytics(t *testing.T) {
	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	history := []WorkoutHistoryEntry{
		{ID: "1", DurationSeconds: 1800, CreatedAt: now.Add(-2 * time.Hour)},
		{ID: "2", DurationSeconds: 2700, CreatedAt: now.Add(-40 * 24 * time.Hour)},
		{ID: "3", DurationSeconds: 3600, CreatedAt: now.Add(-5 * 24 * time.Hour)},
	}
	a := ComputeAnalytics(history, now)
	assert.Equal(t, 3, a.TotalSessions)
	assert.Equal(t, 135, a.TotalMinutes)
	assert.Equal(t, 2, a.SessionsLast30d)
	require.NotNil(t, a.LastSessionAt)
	assert.Equal(t, now.Add(-2*time.Hour), *a.LastSessionAt)

	empty := ComputeAnalytics(nil, now)
	assert.Zero(t, empty.TotalSessions)
	assert.Nil(t, empty.LastSessionAt)
}

func TestPeriodizationPlan_CurrentWeek(t *testing.T) {
	plan := PeriodizationPlan{
		StartDate: "2026-03-02",
		Microcycles: []Microcycle{
			{Week: 1, Focus: "Adaptation", RepRange: "12-15", RPE: "6"},
			{Week: 2, Focus: "Hypertrophy", RepRange: "8-12", RPE: "7"},
		},
	}
	at := func(day string) time.Time {
		d, err := time.Parse(DateLayout, day)
		require.NoError(t, err)
		return d.Add(15 * time.Hour)
	}

	assert.Equal(t, 0, plan.CurrentWeek(at("2026-03-01")))
	assert.Equal(t, 1, plan.CurrentWeek(at("2026-03-02")))
	assert.Equal(t, 1, plan.CurrentWeek(at("2026-03-08")))
	assert.Equal(t, 2, plan.CurrentWeek(at("2026-03-09")))

	m, ok := plan.CurrentMicrocycle(at("2026-03-10"))
	require.True(t, ok)
	assert.Equal(t, "Hypertrophy", m.Focus)

	_, ok = plan.CurrentMicrocycle(at("2026-04-30"))
	assert.False(t, ok)

	assert.Equal(t, 0, PeriodizationPlan{StartDate: "bogus"}.CurrentWeek(at("2026-03-10")))
}

func TestParseDiscipline(t *testing.T) {
	d, err := ParseDiscipline("running")
	require.NoError(t, err)
	assert.Equal(t, DisciplineRunning, d)
	_, err = ParseDiscipline("swimming")
	assert.ErrorIs(t, err, ErrUnknownDiscipline)
}

func TestNutritionProfile_LatestMealPlan(t *testing.T) {
	now := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	n := NutritionProfile{MealPlans: []MealPlan{
		{ID: "a", CreatedAt: now.Add(-time.Hour)},
		{ID: "b", CreatedAt: now},
		{ID: "c", CreatedAt: now.Add(-2 * time.Hour)},
	}}
	p, ok := n.LatestMealPlan()
	require.True(t, ok)
	assert.Equal(t, "b", p.ID)
	assert.Len(t, n.MealPlans, 3)

	_, ok = NutritionProfile{}.LatestMealPlan()
	assert.False(t, ok)
}

func TestPhysicalAssessment_Formulas(t *testing.T) {
	a := PhysicalAssessment{WeightKg: 80, HeightCm: 200, BodyFatPct: 20}
	assert.InDelta(t, 20.0, a.BMI(), 0.001)
	assert.InDelta(t, 64.0, a.LeanMassKg(), 0.001)
	assert.InDelta(t, 10*80+6.25*200-5*30+5, a.EstimatedBMR(SexMale, 30), 0.001)
	assert.InDelta(t, 10*80+6.25*200-5*30-161, a.EstimatedBMR(SexFemale, 30), 0.001)
	assert.Zero(t, a.EstimatedBMR("", 30))
	assert.Zero(t, PhysicalAssessment{}.BMI())
}

func TestStudent_CloneIsDeep(t *testing.T) {
	s := Student{
		ID:                  "s1",
		Workouts:            []Workout{{ID: "w", Exercises: []Exercise{{Name: "Squat"}}}},
		PhysicalAssessments: []PhysicalAssessment{{ID: "a", Circumferences: map[string]float64{"waist": 80}}},
		Nutrition:           &NutritionProfile{MealPlans: []MealPlan{{ID: "p", Meals: []PlannedMeal{{Name: "x", Items: []string{"egg"}}}}}},
	}
	c := s.Clone()
	c.Workouts[0].Exercises[0].Name = "Deadlift"
	c.PhysicalAssessments[0].Circumferences["waist"] = 90
	c.Nutrition.MealPlans[0].Meals[0].Items[0] = "oat"

	assert.Equal(t, "Squat", s.Workouts[0].Exercises[0].Name)
	assert.Equal(t, 80.0, s.PhysicalAssessments[0].Circumferences["waist"])
	assert.Equal(t, "egg", s.Nutrition.MealPlans[0].Meals[0].Items[0])
	assert.Nil(t, CloneStudents(nil))
}

func TestValidateDate(t *testing.T) {
	assert.NoError(t, ValidateDate("2026-02-01"))
	for _, bad := range []string{"2026-2-1", "01/02/2026", "", "2026-13-01"} {
		assert.ErrorIs(t, ValidateDate(bad), ErrInvalidDate, bad)
	}
}
