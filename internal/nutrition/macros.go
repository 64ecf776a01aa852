// Package nutrition holds the calorie and macronutrient arithmetic shared by
// meals, daily logs and goals. Everything here is pure: no I/O, no shared state.
package nutrition

import (
	"fmt"
	"math"
)

// MacroProfile is the nutrient content of one serving of a food, or the
// daily target embedded in a goal. Fiber and Sugar are optional.
type MacroProfile struct {
	ID            int64    `json:"id,omitempty"`
	Calories      float64  `json:"calories"`
	Protein       float64  `json:"protein"`
	Fat           float64  `json:"fat"`
	Carbohydrates float64  `json:"carbohydrates"`
	Fiber         *float64 `json:"fiber,omitempty"`
	Sugar         *float64 `json:"sugar,omitempty"`
}

// Validate rejects negative or non-finite values.
func (m MacroProfile) Validate() error {
	amounts := []amount{
		{"calories", m.Calories},
		{"protein", m.Protein},
		{"fat", m.Fat},
		{"carbohydrates", m.Carbohydrates},
	}
	if m.Fiber != nil {
		amounts = append(amounts, amount{"fiber", *m.Fiber})
	}
	if m.Sugar != nil {
		amounts = append(amounts, amount{"sugar", *m.Sugar})
	}
	return checkAmounts(amounts)
}

// Totals is the calorie/macro sum of a meal or a day.
type Totals struct {
	Calories      float64 `json:"calories"`
	Protein       float64 `json:"protein"`
	Carbohydrates float64 `json:"carbs"`
	Fat           float64 `json:"fats"`
}

func (t Totals) Add(o Totals) Totals {
	return Totals{
		Calories:      t.Calories + o.Calories,
		Protein:       t.Protein + o.Protein,
		Carbohydrates: t.Carbohydrates + o.Carbohydrates,
		Fat:           t.Fat + o.Fat,
	}
}

func (t Totals) Sub(o Totals) Totals {
	return t.Add(o.Neg())
}

func (t Totals) Neg() Totals {
	return Totals{
		Calories:      -t.Calories,
		Protein:       -t.Protein,
		Carbohydrates: -t.Carbohydrates,
		Fat:           -t.Fat,
	}
}

// Scale multiplies every field by a serving multiplier.
func (t Totals) Scale(q float64) Totals {
	return Totals{
		Calories:      t.Calories * q,
		Protein:       t.Protein * q,
		Carbohydrates: t.Carbohydrates * q,
		Fat:           t.Fat * q,
	}
}

func (t Totals) IsZero() bool {
	return t == Totals{}
}

// Validate rejects negative or non-finite totals. Used for manual overrides.
func (t Totals) Validate() error {
	return checkAmounts([]amount{
		{"totalCalories", t.Calories},
		{"totalMacros.protein", t.Protein},
		{"totalMacros.carbs", t.Carbohydrates},
		{"totalMacros.fats", t.Fat},
	})
}

// PerServing returns the contribution of one serving of m.
func PerServing(m MacroProfile) Totals {
	return Totals{
		Calories:      m.Calories,
		Protein:       m.Protein,
		Carbohydrates: m.Carbohydrates,
		Fat:           m.Fat,
	}
}

type amount struct {
	name  string
	value float64
}

func checkAmounts(amounts []amount) error {
	for _, a := range amounts {
		if math.IsNaN(a.value) || math.IsInf(a.value, 0) {
			return fmt.Errorf("%s must be a finite number", a.name)
		}
		if a.value < 0 {
			return fmt.Errorf("%s must not be negative", a.name)
		}
	}
	return nil
}
