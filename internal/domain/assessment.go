package domain

import (
	"sort"
	"time"
)

// PhysicalAssessment is a dated snapshot of anthropometric and bioimpedance
// measurements.
type PhysicalAssessment struct {
	ID                 string             `bson:"id" json:"id"`
	Date               string             `bson:"date" json:"date"`
	WeightKg           float64            `bson:"weightKg,omitempty" json:"weightKg,omitempty"`
	HeightCm           float64            `bson:"heightCm,omitempty" json:"heightCm,omitempty"`
	BodyFatPct         float64            `bson:"bodyFatPct,omitempty" json:"bodyFatPct,omitempty"`
	MuscleMassKg       float64            `bson:"muscleMassKg,omitempty" json:"muscleMassKg,omitempty"`
	BodyWaterPct       float64            `bson:"bodyWaterPct,omitempty" json:"bodyWaterPct,omitempty"`
	VisceralFatLevel   float64            `bson:"visceralFatLevel,omitempty" json:"visceralFatLevel,omitempty"`
	BasalMetabolicRate float64            `bson:"basalMetabolicRate,omitempty" json:"basalMetabolicRate,omitempty"`
	Circumferences     map[string]float64 `bson:"circumferences,omitempty" json:"circumferences,omitempty"` // cm, keyed by site
	Skinfolds          map[string]float64 `bson:"skinfolds,omitempty" json:"skinfolds,omitempty"`           // mm, keyed by site
	CreatedAt          time.Time          `bson:"createdAt" json:"createdAt"`
}

func (a PhysicalAssessment) Clone() PhysicalAssessment {
	a.Circumferences = cloneMap(a.Circumferences)
	a.Skinfolds = cloneMap(a.Skinfolds)
	return a
}

// BMI returns the body mass index, or 0 when weight or height is missing.
func (a PhysicalAssessment) BMI() float64 {
	if a.WeightKg <= 0 || a.HeightCm <= 0 {
		return 0
	}
	m := a.HeightCm / 100
	return a.WeightKg / (m * m)
}

// LeanMassKg returns the fat-free mass derived from weight and body fat.
func (a PhysicalAssessment) LeanMassKg() float64 {
	if a.WeightKg <= 0 || a.BodyFatPct <= 0 {
		return 0
	}
	return a.WeightKg * (1 - a.BodyFatPct/100)
}

// EstimatedBMR estimates the basal metabolic rate with the Mifflin-St Jeor
// equation. Returns 0 when sex, age, weight or height is unknown.
func (a PhysicalAssessment) EstimatedBMR(sex Sex, ageYears int) float64 {
	if a.WeightKg <= 0 || a.HeightCm <= 0 || ageYears <= 0 {
		return 0
	}
	base := 10*a.WeightKg + 6.25*a.HeightCm - 5*float64(ageYears)
	switch sex {
	case SexMale:
		return base + 5
	case SexFemale:
		return base - 161
	}
	return 0
}

// sortAssessments orders by calendar date, then creation time, newest first.
func sortAssessments(in []PhysicalAssessment) []PhysicalAssessment {
	out := cloneSlice(in)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date > out[j].Date
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func cloneMap(in map[string]float64) map[string]float64 {
	if in == nil {
		return nil
	}
	out := make(map[string]float64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
