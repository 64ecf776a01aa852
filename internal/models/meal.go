package models

import (
	"time"

	"nutrilog/internal/nutrition"
)

const (
	MealComputed       = "computed"
	MealManualOverride = "manualOverride"
)

// MacroTotals is the macro part of a meal or day total, in grams.
type MacroTotals struct {
	Protein float64 `json:"protein"`
	Carbs   float64 `json:"carbs"`
	Fats    float64 `json:"fats"`
}

// Meal keeps a snapshot of its totals taken when it was submitted or edited.
type Meal struct {
	ID            int64                `json:"id"`
	UserID        int64                `json:"userId"`
	Date          time.Time            `json:"date"`
	Foods         []nutrition.LineItem `json:"foods"`
	TotalCalories float64              `json:"totalCalories"`
	TotalMacros   MacroTotals          `json:"totalMacros"`
	CreatedVia    string               `json:"createdVia"`
	CreatedAt     time.Time            `json:"createdAt"`
	UpdatedAt     time.Time            `json:"updatedAt"`
}

func (m *Meal) Totals() nutrition.Totals {
	return nutrition.Totals{
		Calories:      m.TotalCalories,
		Protein:       m.TotalMacros.Protein,
		Carbohydrates: m.TotalMacros.Carbs,
		Fat:           m.TotalMacros.Fats,
	}
}

func (m *Meal) SetTotals(t nutrition.Totals) {
	m.TotalCalories = t.Calories
	m.TotalMacros = MacroTotals{Protein: t.Protein, Carbs: t.Carbohydrates, Fats: t.Fat}
}

// NutritionLog is the ledger row for one user and one calendar day.
type NutritionLog struct {
	ID                  int64              `json:"id"`
	UserID              int64              `json:"userId"`
	Date                time.Time          `json:"date"`
	TotalCalories       float64            `json:"totalCalories"`
	TotalMacros         MacroTotals        `json:"totalMacros"`
	ProgressTowardsGoal nutrition.Progress `json:"progressTowardsGoal"`
	UpdatedAt           time.Time          `json:"updatedAt"`
}

func (l *NutritionLog) Totals() nutrition.Totals {
	return nutrition.Totals{
		Calories:      l.TotalCalories,
		Protein:       l.TotalMacros.Protein,
		Carbohydrates: l.TotalMacros.Carbs,
		Fat:           l.TotalMacros.Fats,
	}
}

func (l *NutritionLog) SetTotals(t nutrition.Totals) {
	l.TotalCalories = t.Calories
	l.TotalMacros = MacroTotals{Protein: t.Protein, Carbs: t.Carbohydrates, Fats: t.Fat}
}
