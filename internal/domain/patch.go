package domain

import (
	"encoding/json"
	"reflect"
	"sort"
	"strings"
)

// StudentPatch carries a partial update of a Student. A nil field is left
// untouched; a non-nil field replaces the whole top-level value, nested
// objects included.
type StudentPatch struct {
	Name     *string `json:"name,omitempty"`
	Email    *string `json:"email,omitempty"`
	PhotoURL *string `json:"photoUrl,omitempty"`
	Sex      *Sex    `json:"sex,omitempty"`

	Workouts            *[]Workout             `json:"workouts,omitempty"`
	WorkoutHistory      *[]WorkoutHistoryEntry `json:"workoutHistory,omitempty"`
	PhysicalAssessments *[]PhysicalAssessment  `json:"physicalAssessments,omitempty"`
	Analytics           *Analytics             `json:"analytics,omitempty"`
	Nutrition           *NutritionProfile      `json:"nutrition,omitempty"`
	StrengthPlan        *PeriodizationPlan     `json:"periodization,omitempty"`
	RunningPlan         *PeriodizationPlan     `json:"runningPeriodization,omitempty"`
}

// MergeFunc applies a patch to a student and returns the result.
type MergeFunc func(current Student, patch StudentPatch) Student

// ShallowMerge is the default MergeFunc: last write per top-level field wins.
var _ MergeFunc = ShallowMerge

func ShallowMerge(current Student, p StudentPatch) Student {
	out := current.Clone()
	if p.Name != nil {
		out.Name = *p.Name
	}
	if p.Email != nil {
		out.Email = *p.Email
	}
	if p.PhotoURL != nil {
		out.PhotoURL = *p.PhotoURL
	}
	if p.Sex != nil {
		out.Sex = *p.Sex
	}
	if p.Workouts != nil {
		out.Workouts = Student{Workouts: *p.Workouts}.Clone().Workouts
	}
	if p.WorkoutHistory != nil {
		out.WorkoutHistory = cloneSlice(*p.WorkoutHistory)
	}
	if p.PhysicalAssessments != nil {
		out.PhysicalAssessments = Student{PhysicalAssessments: *p.PhysicalAssessments}.Clone().PhysicalAssessments
	}
	if p.Analytics != nil {
		a := p.Analytics.Clone()
		out.Analytics = &a
	}
	if p.Nutrition != nil {
		n := p.Nutrition.Clone()
		out.Nutrition = &n
	}
	if p.StrengthPlan != nil {
		pl := p.StrengthPlan.Clone()
		out.StrengthPlan = &pl
	}
	if p.RunningPlan != nil {
		pl := p.RunningPlan.Clone()
		out.RunningPlan = &pl
	}
	return out
}

// IsEmpty reports whether the patch sets no field at all.
func (p StudentPatch) IsEmpty() bool {
	return p == StudentPatch{}
}

// Fields renders the set fields as a merge-write document keyed by the
// remote document field names.
func (p StudentPatch) Fields() map[string]any {
	fields := make(map[string]any)
	v := reflect.ValueOf(p)
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		fv := v.Field(i)
		if fv.IsNil() {
			continue
		}
		fields[patchFieldName(t.Field(i))] = fv.Elem().Interface()
	}
	return fields
}

// PatchFromStudent builds a patch that sets every field of s except the id.
func PatchFromStudent(s Student) StudentPatch {
	s = s.Clone()
	p := StudentPatch{
		Name:                &s.Name,
		PhotoURL:            &s.PhotoURL,
		Sex:                 &s.Sex,
		Workouts:            &s.Workouts,
		WorkoutHistory:      &s.WorkoutHistory,
		PhysicalAssessments: &s.PhysicalAssessments,
		Analytics:           s.Analytics,
		Nutrition:           s.Nutrition,
		StrengthPlan:        s.StrengthPlan,
		RunningPlan:         s.RunningPlan,
	}
	// An empty email stays unset so the sparse unique index ignores it.
	if s.Email != "" {
		p.Email = &s.Email
	}
	return p
}

var knownPatchFields = func() map[string]struct{} {
	known := make(map[string]struct{})
	t := reflect.TypeOf(StudentPatch{})
	for i := 0; i < t.NumField(); i++ {
		known[patchFieldName(t.Field(i))] = struct{}{}
	}
	return known
}()

func patchFieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	return name
}

// DecodeStudentPatch decodes a JSON patch. Only keys that exactly match a
// student field name are merged; the others are returned sorted so the
// caller can report them.
func DecodeStudentPatch(raw []byte) (StudentPatch, []string, error) {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(raw, &keys); err != nil {
		return StudentPatch{}, nil, err
	}
	var unknown []string
	known := make(map[string]json.RawMessage, len(keys))
	for k, v := range keys {
		if _, ok := knownPatchFields[k]; ok {
			known[k] = v
		} else {
			unknown = append(unknown, k)
		}
	}
	sort.Strings(unknown)

	// encoding/json matches keys case-insensitively, so decode only the
	// exact matches collected above.
	filtered, err := json.Marshal(known)
	if err != nil {
		return StudentPatch{}, unknown, err
	}
	var p StudentPatch
	if err := json.Unmarshal(filtered, &p); err != nil {
		return StudentPatch{}, unknown, err
	}
	return p, unknown, nil
}

// CoachOwnedFields returns the names of the set fields that only the coach
// may write: prescriptions, plans and nutrition.
func (p StudentPatch) CoachOwnedFields() []string {
	var owned []string
	if p.Workouts != nil {
		owned = append(owned, "workouts")
	}
	if p.Nutrition != nil {
		owned = append(owned, "nutrition")
	}
	if p.StrengthPlan != nil {
		owned = append(owned, "periodization")
	}
	if p.RunningPlan != nil {
		owned = append(owned, "runningPeriodization")
	}
	return owned
}

// Validate checks the scalar fields the patch sets. A set email is trimmed
// in place and must be a non-empty valid address.
func (p *StudentPatch) Validate() error {
	if p.Email != nil {
		email := strings.TrimSpace(*p.Email)
		if err := ValidateEmail(email); err != nil {
			return err
		}
		p.Email = &email
	}
	if p.Sex != nil && !p.Sex.Valid() {
		return ErrInvalidSex
	}
	return nil
}
