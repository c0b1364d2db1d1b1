package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestShallowMerge_SequentialPatchesAccumulate(t *testing.T) {
	s := Student{ID: "fixed-andre", Name: "André"}

	s = ShallowMerge(s, StudentPatch{PhotoURL: strPtr("data:image/png;base64,AAAA")})
	s = ShallowMerge(s, StudentPatch{Sex: func() *Sex { v := SexMale; return &v }()})

	assert.Equal(t, "André", s.Name)
	assert.Equal(t, "data:image/png;base64,AAAA", s.PhotoURL)
	assert.Equal(t, SexMale, s.Sex)
}

func TestShallowMerge_LastWriteWinsPerField(t *testing.T) {
	s := Student{ID: "s1", Name: "first"}
	patches := []StudentPatch{
		{Name: strPtr("second")},
		{Email: strPtr("a@b.com")},
		{Name: strPtr("third")},
	}
	for _, p := range patches {
		s = ShallowMerge(s, p)
	}
	assert.Equal(t, "third", s.Name)
	assert.Equal(t, "a@b.com", s.Email)
	assert.Equal(t, "s1", s.ID)
}

func TestShallowMerge_NestedObjectIsReplacedWhole(t *testing.T) {
	s := Student{
		ID: "s1",
		Nutrition: &NutritionProfile{
			Goal:    "cut",
			Targets: MacroTargets{Calories: 2000},
			Logs:    []MealLog{{ID: "m1", Meal: "lunch"}},
		},
	}
	s = ShallowMerge(s, StudentPatch{Nutrition: &NutritionProfile{Goal: "bulk"}})

	require.NotNil(t, s.Nutrition)
	assert.Equal(t, "bulk", s.Nutrition.Goal)
	assert.Zero(t, s.Nutrition.Targets.Calories)
	assert.Nil(t, s.Nutrition.Logs)
}

func TestShallowMerge_DoesNotAliasInput(t *testing.T) {
	workouts := []Workout{{ID: "w1", Title: "A"}}
	s := ShallowMerge(Student{ID: "s1"}, StudentPatch{Workouts: &workouts})
	workouts[0].Title = "changed"
	assert.Equal(t, "A", s.Workouts[0].Title)
}

func TestStudentPatch_Fields(t *testing.T) {
	plan := PeriodizationPlan{ID: "p1", Discipline: DisciplineRunning}
	p := StudentPatch{
		PhotoURL:    strPtr("https://cdn/x.png"),
		RunningPlan: &plan,
	}
	fields := p.Fields()
	assert.Len(t, fields, 2)
	assert.Equal(t, "https://cdn/x.png", fields["photoUrl"])
	assert.Equal(t, plan, fields["runningPeriodization"])

	assert.True(t, StudentPatch{}.IsEmpty())
	assert.False(t, p.IsEmpty())
	assert.Empty(t, StudentPatch{}.Fields())
}

func TestPatchFromStudent_SkipsEmptyEmail(t *testing.T) {
	fields := PatchFromStudent(Student{ID: "s1", Name: "N"}).Fields()
	_, hasEmail := fields["email"]
	assert.False(t, hasEmail)
	assert.Equal(t, "N", fields["name"])

	fields = PatchFromStudent(Student{ID: "s1", Email: "x@y.com"}).Fields()
	assert.Equal(t, "x@y.com", fields["email"])
}

func TestDecodeStudentPatch(t *testing.T) {
	raw := []byte(`{"name":"Marcelly","photoUrl":"data:...","favoriteColor":"blue","a":1}`)
	p, unknown, err := DecodeStudentPatch(raw)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "favoriteColor"}, unknown)
	require.NotNil(t, p.Name)
	assert.Equal(t, "Marcelly", *p.Name)
	require.NotNil(t, p.PhotoURL)
	assert.Nil(t, p.Email)

	_, _, err = DecodeStudentPatch([]byte(`not json`))
	assert.Error(t, err)

	_, _, err = DecodeStudentPatch([]byte(`{"name": 12}`))
	assert.Error(t, err)
}

func TestStudent_SortedHistoryAndAssessments(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	s := Student{
		ID: "s1",
		WorkoutHistory: []WorkoutHistoryEntry{
			{ID: "old", CreatedAt: base},
			{ID: "new", CreatedAt: base.Add(48 * time.Hour)},
			{ID: "mid", CreatedAt: base.Add(24 * time.Hour)},
		},
		PhysicalAssessments: []PhysicalAssessment{
			{ID: "jan", Date: "2026-01-10"},
			{ID: "mar", Date: "2026-03-02"},
			{ID: "feb", Date: "2026-02-01"},
		},
	}

	hist := s.SortedHistory()
	assert.Equal(t, []string{"new", "mid", "old"}, []string{hist[0].ID, hist[1].ID, hist[2].ID})
	assert.Equal(t, "old", s.WorkoutHistory[0].ID, "stored order must not change")

	latest, ok := s.LatestAssessment()
	require.True(t, ok)
	assert.Equal(t, "mar", latest.ID)

	ordered := s.Ordered()
	assert.Equal(t, "feb", ordered.PhysicalAssessments[1].ID)

	_, ok = (&Student{}).LatestAssessment()
	assert.False(t, ok)
}

func TestStudent_Validate(t *testing.T) {
	assert.ErrorIs(t, (&Student{}).Validate(), ErrStudentIDRequired)
	assert.ErrorIs(t, (&Student{ID: "x", Email: "nope"}).Validate(), ErrInvalidEmail)
	assert.ErrorIs(t, (&Student{ID: "x", Sex: "other"}).Validate(), ErrInvalidSex)
	assert.NoError(t, (&Student{ID: "x", Email: "a@b.com", Sex: SexFemale}).Validate())
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "britodeandrade@gmail.com", NormalizeEmail("  BritoDeAndrade@Gmail.com "))
}

func TestDecodeStudentPatch_CaseVariantKeysAreNotMerged(t *testing.T) {
	p, unknown, err := DecodeStudentPatch([]byte(`{"PhotoURL":"evil","NAME":"x","email":"a@b.com"}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"NAME", "PhotoURL"}, unknown)
	assert.Nil(t, p.PhotoURL)
	assert.Nil(t, p.Name)
	require.NotNil(t, p.Email)
	assert.Equal(t, "a@b.com", *p.Email)
}

func TestStudentPatch_CoachOwnedFields(t *testing.T) {
	assert.Empty(t, StudentPatch{Name: strPtr("x")}.CoachOwnedFields())

	workouts := []Workout{}
	p := StudentPatch{
		Workouts:     &workouts,
		StrengthPlan: &PeriodizationPlan{},
		Nutrition:    &NutritionProfile{},
	}
	assert.Equal(t, []string{"workouts", "nutrition", "periodization"}, p.CoachOwnedFields())
}

func TestStudentPatch_Validate(t *testing.T) {
	p := StudentPatch{Email: strPtr("  new@example.com ")}
	require.NoError(t, p.Validate())
	assert.Equal(t, "new@example.com", *p.Email)

	for _, bad := range []string{"not-an-email", "", "  ", "Name <a@b.com>"} {
		p := StudentPatch{Email: strPtr(bad)}
		assert.ErrorIs(t, p.Validate(), ErrInvalidEmail, bad)
	}

	sex := Sex("other")
	assert.ErrorIs(t, (&StudentPatch{Sex: &sex}).Validate(), ErrInvalidSex)
	assert.NoError(t, (&StudentPatch{}).Validate())
}
