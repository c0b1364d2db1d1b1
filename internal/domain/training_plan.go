// internal/domain/training_plan.go
package domain

import (
	"errors"
	"math"
	"time"
)

// Discipline selects which periodization slot of the student a plan occupies.
type Discipline string

const (
	DisciplineStrength Discipline = "strength"
	DisciplineRunning  Discipline = "running"
)

var ErrUnknownDiscipline = errors.New("unknown periodization discipline")

// ParseDiscipline validates a discipline name.
func ParseDiscipline(s string) (Discipline, error) {
	switch d := Discipline(s); d {
	case DisciplineStrength, DisciplineRunning:
		return d, nil
	}
	return "", ErrUnknownDiscipline
}

// Microcycle is one week-long block of a plan.
type Microcycle struct {
	Week     int    `bson:"week" json:"week"`
	Focus    string `bson:"focus" json:"focus"`       // e.g. "Hypertrophy", "Deload"
	RepRange string `bson:"repRange" json:"repRange"` // e.g. "8-12"
	RPE      string `bson:"rpe" json:"rpe"`           // perceived exertion label
}

// PeriodizationPlan is a coach-generated plan for one discipline.
type PeriodizationPlan struct {
	ID          string       `bson:"id" json:"id"`
	Discipline  Discipline   `bson:"discipline" json:"discipline"`
	Title       string       `bson:"title,omitempty" json:"title,omitempty"`
	StartDate   string       `bson:"startDate" json:"startDate"`
	Microcycles []Microcycle `bson:"microcycles,omitempty" json:"microcycles,omitempty"`
	CreatedAt   time.Time    `bson:"createdAt" json:"createdAt"`
}

func (p PeriodizationPlan) Clone() PeriodizationPlan {
	p.Microcycles = cloneSlice(p.Microcycles)
	return p
}

// CurrentWeek returns the 1-based plan week containing now, computed from the
// calendar-day difference to the start date. It returns 0 before the start
// date or when the start date cannot be parsed.
func (p PeriodizationPlan) CurrentWeek(now time.Time) int {
	start, err := time.ParseInLocation(DateLayout, p.StartDate, now.Location())
	if err != nil {
		return 0
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if today.Before(start) {
		return 0
	}
	days := int(math.Round(today.Sub(start).Hours() / 24))
	return days/7 + 1
}

// CurrentMicrocycle returns the microcycle scheduled for the current week.
func (p PeriodizationPlan) CurrentMicrocycle(now time.Time) (Microcycle, bool) {
	week := p.CurrentWeek(now)
	for _, m := range p.Microcycles {
		if m.Week == week {
			return m, true
		}
	}
	return Microcycle{}, false
}
