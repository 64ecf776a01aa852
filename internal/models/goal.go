package models

import (
	"time"

	"nutrilog/internal/nutrition"
)

const (
	GoalWeightLoss  = "Weight Loss"
	GoalMuscleGain  = "Muscle Gain"
	GoalMaintenance = "Maintenance"
)

// MacroGoal is the per-day macro target, in grams.
type MacroGoal struct {
	Protein float64 `json:"protein"`
	Carbs   float64 `json:"carbs"`
	Fats    float64 `json:"fats"`
}

// Goal is a user's active daily target. There is at most one per user.
type Goal struct {
	ID               int64      `json:"id"`
	UserID           int64      `json:"userId"`
	GoalType         string     `json:"goalType"`
	TargetWeight     *float64   `json:"targetWeight"`
	DailyCalorieGoal float64    `json:"dailyCalorieGoal"`
	DailyMacrosGoal  MacroGoal  `json:"dailyMacrosGoal"`
	MacroID          int64      `json:"-"`
	StartDate        time.Time  `json:"startDate"`
	EndDate          *time.Time `json:"endDate"`
}

// Target converts the goal into the progress denominator. A nil goal gives nil.
func (g *Goal) Target() *nutrition.Target {
	if g == nil {
		return nil
	}
	return &nutrition.Target{
		Calories:      g.DailyCalorieGoal,
		Protein:       g.DailyMacrosGoal.Protein,
		Carbohydrates: g.DailyMacrosGoal.Carbs,
		Fat:           g.DailyMacrosGoal.Fats,
	}
}

// MacroProfile is the stored form of the goal's targets.
func (g *Goal) MacroProfile() nutrition.MacroProfile {
	return nutrition.MacroProfile{
		ID:            g.MacroID,
		Calories:      g.DailyCalorieGoal,
		Protein:       g.DailyMacrosGoal.Protein,
		Fat:           g.DailyMacrosGoal.Fats,
		Carbohydrates: g.DailyMacrosGoal.Carbs,
	}
}

func ValidGoalType(t string) bool {
	switch t {
	case GoalWeightLoss, GoalMuscleGain, GoalMaintenance:
		return true
	}
	return false
}
