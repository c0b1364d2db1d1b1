package domain

import (
	"errors"
	"sort"
	"time"
)

// DateLayout is the calendar-day format used across the aggregate.
const DateLayout = "2006-01-02"

// Workout is a prescription owned by exactly one student.
type Workout struct {
	ID                string     `bson:"id" json:"id"`
	Title             string     `bson:"title" json:"title"`
	Exercises         []Exercise `bson:"exercises,omitempty" json:"exercises,omitempty"`
	StartDate         string     `bson:"startDate,omitempty" json:"startDate,omitempty"`
	EndDate           string     `bson:"endDate,omitempty" json:"endDate,omitempty"`
	FrequencyPerWeek  int        `bson:"frequencyPerWeek,omitempty" json:"frequencyPerWeek,omitempty"`
	ProjectedSessions int        `bson:"projectedSessions,omitempty" json:"projectedSessions,omitempty"` // derived, see Projected
}

var ErrInvalidDate = errors.New("date must be formatted as YYYY-MM-DD")

// ValidateDate checks that s is a calendar date in DateLayout. Dates are
// compared as strings when ordering, so the zero padding matters.
func ValidateDate(s string) error {
	if _, err := time.Parse(DateLayout, s); err != nil {
		return ErrInvalidDate
	}
	return nil
}

// Projected computes how many sessions fit in the scheduling window at the
// weekly frequency. Zero when the window is open-ended or malformed.
func (w Workout) Projected() int {
	if w.FrequencyPerWeek <= 0 || w.StartDate == "" || w.EndDate == "" {
		return 0
	}
	start, err := time.Parse(DateLayout, w.StartDate)
	if err != nil {
		return 0
	}
	end, err := time.Parse(DateLayout, w.EndDate)
	if err != nil || end.Before(start) {
		return 0
	}
	days := int(end.Sub(start).Hours()/24) + 1
	// ceil(days * freq / 7)
	return (days*w.FrequencyPerWeek + 6) / 7
}

// WithProjection returns the workout with ProjectedSessions recomputed.
func (w Workout) WithProjection() Workout {
	w.ProjectedSessions = w.Projected()
	return w
}

func (w Workout) Clone() Workout {
	w.Exercises = cloneSlice(w.Exercises)
	return w
}

// WorkoutHistoryEntry records one executed session. Entries are append-only.
type WorkoutHistoryEntry struct {
	ID              string    `bson:"id" json:"id"`
	WorkoutID       string    `bson:"workoutId,omitempty" json:"workoutId,omitempty"` // weak reference
	Name            string    `bson:"name" json:"name"`                               // snapshot of the workout title
	DurationSeconds int       `bson:"durationSeconds" json:"durationSeconds"`
	Date            string    `bson:"date" json:"date"`
	CreatedAt       time.Time `bson:"createdAt" json:"createdAt"`
}

func sortHistory(in []WorkoutHistoryEntry) []WorkoutHistoryEntry {
	out := cloneSlice(in)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// Analytics is a summary derived from the workout history.
type Analytics struct {
	TotalSessions   int        `bson:"totalSessions" json:"totalSessions"`
	TotalMinutes    int        `bson:"totalMinutes" json:"totalMinutes"`
	SessionsLast30d int        `bson:"sessionsLast30d" json:"sessionsLast30d"`
	LastSessionAt   *time.Time `bson:"lastSessionAt,omitempty" json:"lastSessionAt,omitempty"`
}

func (a Analytics) Clone() Analytics {
	a.LastSessionAt = cloneTime(a.LastSessionAt)
	return a
}

// ComputeAnalytics summarizes a history as of now.
func ComputeAnalytics(history []WorkoutHistoryEntry, now time.Time) Analytics {
	var a Analytics
	var totalSeconds int
	cutoff := now.Add(-30 * 24 * time.Hour)
	for _, h := range history {
		a.TotalSessions++
		totalSeconds += h.DurationSeconds
		if h.CreatedAt.After(cutoff) {
			a.SessionsLast30d++
		}
		if a.LastSessionAt == nil || h.CreatedAt.After(*a.LastSessionAt) {
			t := h.CreatedAt
			a.LastSessionAt = &t
		}
	}
	a.TotalMinutes = totalSeconds / 60
	return a
}
