package domain

import (
	"errors"
	"net/mail"
	"strings"
	"time"
)

// Role distinguishes the two kinds of session subjects.
type Role string

const (
	RoleCoach   Role = "coach"
	RoleStudent Role = "student"
)

// Sex is used by the body-composition formulas.
type Sex string

const (
	SexMale   Sex = "male"
	SexFemale Sex = "female"
)

// Valid reports whether s is empty (unknown) or one of the known values.
func (s Sex) Valid() bool {
	return s == "" || s == SexMale || s == SexFemale
}

var (
	ErrStudentIDRequired = errors.New("student id is required")
	ErrInvalidEmail      = errors.New("student email is not a valid address")
	ErrInvalidSex        = errors.New("student sex must be male or female")
)

// Student is the aggregate for one athlete. Every nested collection is owned
// by the student and has no lifecycle of its own.
type Student struct {
	ID       string `bson:"_id" json:"id"`
	Name     string `bson:"name" json:"name"`
	Email    string `bson:"email,omitempty" json:"email,omitempty"` // login key, compared normalized
	PhotoURL string `bson:"photoUrl,omitempty" json:"photoUrl,omitempty"`
	Sex      Sex    `bson:"sex,omitempty" json:"sex,omitempty"`

	Workouts            []Workout             `bson:"workouts,omitempty" json:"workouts,omitempty"`
	WorkoutHistory      []WorkoutHistoryEntry `bson:"workoutHistory,omitempty" json:"workoutHistory,omitempty"`
	PhysicalAssessments []PhysicalAssessment  `bson:"physicalAssessments,omitempty" json:"physicalAssessments,omitempty"`
	Analytics           *Analytics            `bson:"analytics,omitempty" json:"analytics,omitempty"`
	Nutrition           *NutritionProfile     `bson:"nutrition,omitempty" json:"nutrition,omitempty"`

	// One plan per discipline, two distinct slots.
	StrengthPlan *PeriodizationPlan `bson:"periodization,omitempty" json:"periodization,omitempty"`
	RunningPlan  *PeriodizationPlan `bson:"runningPeriodization,omitempty" json:"runningPeriodization,omitempty"`
}

// NormalizeEmail trims and lowercases an email (or login input) for comparison.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail accepts a bare address such as "name@example.com".
func ValidateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return ErrInvalidEmail
	}
	return nil
}

// Validate checks the invariants a student must satisfy before it enters the store.
func (s *Student) Validate() error {
	if strings.TrimSpace(s.ID) == "" {
		return ErrStudentIDRequired
	}
	if s.Email != "" {
		if err := ValidateEmail(s.Email); err != nil {
			return err
		}
	}
	if !s.Sex.Valid() {
		return ErrInvalidSex
	}
	return nil
}

// SortedHistory returns the workout history ordered most recent first by
// creation timestamp. The stored order is left untouched.
func (s *Student) SortedHistory() []WorkoutHistoryEntry {
	return sortHistory(s.WorkoutHistory)
}

// SortedAssessments returns the assessments ordered most recent first.
func (s *Student) SortedAssessments() []PhysicalAssessment {
	return sortAssessments(s.PhysicalAssessments)
}

// LatestAssessment returns the most recent assessment by date, if any.
func (s *Student) LatestAssessment() (PhysicalAssessment, bool) {
	sorted := s.SortedAssessments()
	if len(sorted) == 0 {
		return PhysicalAssessment{}, false
	}
	return sorted[0], true
}

// Ordered returns a copy of the student whose time-ordered collections are
// sorted for display.
func (s Student) Ordered() Student {
	out := s.Clone()
	if out.WorkoutHistory != nil {
		out.WorkoutHistory = sortHistory(out.WorkoutHistory)
	}
	if out.PhysicalAssessments != nil {
		out.PhysicalAssessments = sortAssessments(out.PhysicalAssessments)
	}
	return out
}

// Clone returns a deep copy of the student.
func (s Student) Clone() Student {
	out := s
	if s.Workouts != nil {
		out.Workouts = make([]Workout, len(s.Workouts))
		for i, w := range s.Workouts {
			out.Workouts[i] = w.Clone()
		}
	}
	out.WorkoutHistory = cloneSlice(s.WorkoutHistory)
	if s.PhysicalAssessments != nil {
		out.PhysicalAssessments = make([]PhysicalAssessment, len(s.PhysicalAssessments))
		for i, a := range s.PhysicalAssessments {
			out.PhysicalAssessments[i] = a.Clone()
		}
	}
	if s.Analytics != nil {
		a := s.Analytics.Clone()
		out.Analytics = &a
	}
	if s.Nutrition != nil {
		n := s.Nutrition.Clone()
		out.Nutrition = &n
	}
	if s.StrengthPlan != nil {
		p := s.StrengthPlan.Clone()
		out.StrengthPlan = &p
	}
	if s.RunningPlan != nil {
		p := s.RunningPlan.Clone()
		out.RunningPlan = &p
	}
	return out
}

// CloneStudents deep copies a student collection, preserving nil.
func CloneStudents(students []Student) []Student {
	if students == nil {
		return nil
	}
	out := make([]Student, len(students))
	for i, s := range students {
		out[i] = s.Clone()
	}
	return out
}

func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
