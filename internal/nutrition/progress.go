package nutrition

import "math"

// Target is the daily goal a ledger is measured against.
type Target struct {
	Calories      float64 `json:"calories"`
	Protein       float64 `json:"protein"`
	Carbohydrates float64 `json:"carbs"`
	Fat           float64 `json:"fats"`
}

// Progress is the percentage of each target reached. A nil field means the
// target was zero or missing.
type Progress struct {
	Calories      *float64 `json:"calories"`
	Protein       *float64 `json:"protein"`
	Carbohydrates *float64 `json:"carbs"`
	Fat           *float64 `json:"fats"`
}

// ComputeProgress maps totals against target. A nil target yields all-nil progress.
func ComputeProgress(t Totals, target *Target) Progress {
	if target == nil {
		return Progress{}
	}
	return Progress{
		Calories:      percent(t.Calories, target.Calories),
		Protein:       percent(t.Protein, target.Protein),
		Carbohydrates: percent(t.Carbohydrates, target.Carbohydrates),
		Fat:           percent(t.Fat, target.Fat),
	}
}

func percent(consumed, target float64) *float64 {
	if target <= 0 || math.IsNaN(target) || math.IsInf(target, 0) {
		return nil
	}
	p := consumed / target * 100
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return nil
	}
	return &p
}
