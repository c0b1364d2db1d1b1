package domain

import "time"

// MacroTargets are the daily nutrition targets.
type MacroTargets struct {
	Calories int `bson:"calories" json:"calories"`
	ProteinG int `bson:"proteinG" json:"proteinG"`
	CarbsG   int `bson:"carbsG" json:"carbsG"`
	FatG     int `bson:"fatG" json:"fatG"`
}

// NutritionProfile owns the meal log and the generated meal plans.
type NutritionProfile struct {
	Goal         string       `bson:"goal,omitempty" json:"goal,omitempty"`
	Restrictions []string     `bson:"restrictions,omitempty" json:"restrictions,omitempty"`
	Targets      MacroTargets `bson:"targets" json:"targets"`
	Logs         []MealLog    `bson:"logs,omitempty" json:"logs,omitempty"`
	MealPlans    []MealPlan   `bson:"mealPlans,omitempty" json:"mealPlans,omitempty"`
}

func (n NutritionProfile) Clone() NutritionProfile {
	n.Restrictions = cloneSlice(n.Restrictions)
	n.Logs = cloneSlice(n.Logs)
	if n.MealPlans != nil {
		plans := make([]MealPlan, len(n.MealPlans))
		for i, p := range n.MealPlans {
			plans[i] = p.Clone()
		}
		n.MealPlans = plans
	}
	return n
}

// LatestMealPlan returns the most recently created plan. All plans are kept
// but only the latest one is surfaced.
func (n NutritionProfile) LatestMealPlan() (MealPlan, bool) {
	var latest MealPlan
	found := false
	for _, p := range n.MealPlans {
		if !found || p.CreatedAt.After(latest.CreatedAt) {
			latest = p
			found = true
		}
	}
	return latest, found
}

// MealLog is one logged meal. Append-only.
type MealLog struct {
	ID          string    `bson:"id" json:"id"`
	Date        string    `bson:"date" json:"date"`
	Meal        string    `bson:"meal" json:"meal"` // e.g. "breakfast"
	Description string    `bson:"description,omitempty" json:"description,omitempty"`
	Calories    int       `bson:"calories,omitempty" json:"calories,omitempty"`
	ProteinG    int       `bson:"proteinG,omitempty" json:"proteinG,omitempty"`
	CarbsG      int       `bson:"carbsG,omitempty" json:"carbsG,omitempty"`
	FatG        int       `bson:"fatG,omitempty" json:"fatG,omitempty"`
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`
}

// PlannedMeal is a meal within a generated plan.
type PlannedMeal struct {
	Name  string   `bson:"name" json:"name"`
	Time  string   `bson:"time,omitempty" json:"time,omitempty"`
	Items []string `bson:"items,omitempty" json:"items,omitempty"`
}

// MealPlan is a generated daily plan.
type MealPlan struct {
	ID        string        `bson:"id" json:"id"`
	Title     string        `bson:"title" json:"title"`
	Meals     []PlannedMeal `bson:"meals,omitempty" json:"meals,omitempty"`
	CreatedAt time.Time     `bson:"createdAt" json:"createdAt"`
}

func (p MealPlan) Clone() MealPlan {
	if p.Meals != nil {
		meals := make([]PlannedMeal, len(p.Meals))
		for i, m := range p.Meals {
			m.Items = cloneSlice(m.Items)
			meals[i] = m
		}
		p.Meals = meals
	}
	return p
}
