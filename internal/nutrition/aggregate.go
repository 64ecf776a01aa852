package nutrition

import "fmt"

// LineItem is one (food, servings) pair of a meal submission.
type LineItem struct {
	FoodID   int64   `json:"foodId"`
	Quantity float64 `json:"quantity"`
}

// Food is what the aggregator needs to know about a catalog entry.
// Macros is nil when the entry has no macro profile attached.
type Food struct {
	ID          int64
	Description string
	Macros      *MacroProfile
}

// MissingFoodError names the first line item whose food could not be resolved.
type MissingFoodError struct {
	FoodID int64
}

func (e *MissingFoodError) Error() string {
	return fmt.Sprintf("food not found: %d", e.FoodID)
}

// Warning flags a line item that was skipped from the sum.
type Warning struct {
	FoodID  int64  `json:"foodId"`
	Message string `json:"message"`
}

// ValidateItems rejects empty submissions and non-positive quantities.
func ValidateItems(items []LineItem) error {
	if len(items) == 0 {
		return fmt.Errorf("foods must contain at least one item")
	}
	for i, it := range items {
		if it.FoodID <= 0 {
			return fmt.Errorf("foods[%d].foodId is required", i)
		}
		if err := checkAmounts([]amount{{fmt.Sprintf("foods[%d].quantity", i), it.Quantity}}); err != nil {
			return err
		}
		if it.Quantity == 0 {
			return fmt.Errorf("foods[%d].quantity must be greater than zero", i)
		}
	}
	return nil
}

// DistinctFoodIDs returns each food id once, in first-seen order, so the
// caller can resolve the whole meal in a single lookup.
func DistinctFoodIDs(items []LineItem) []int64 {
	seen := make(map[int64]struct{}, len(items))
	ids := make([]int64, 0, len(items))
	for _, it := range items {
		if _, ok := seen[it.FoodID]; ok {
			continue
		}
		seen[it.FoodID] = struct{}{}
		ids = append(ids, it.FoodID)
	}
	return ids
}

// Aggregate sums macros × quantity over items using the resolved foods.
// An unresolved food aborts with *MissingFoodError. A food without a macro
// profile contributes nothing and yields a Warning.
func Aggregate(items []LineItem, foods map[int64]Food) (Totals, []Warning, error) {
	var (
		total    Totals
		warnings []Warning
	)
	for _, it := range items {
		f, ok := foods[it.FoodID]
		if !ok {
			return Totals{}, nil, &MissingFoodError{FoodID: it.FoodID}
		}
		if f.Macros == nil {
			warnings = append(warnings, Warning{
				FoodID:  it.FoodID,
				Message: fmt.Sprintf("no macros for food %d (%s), counted as zero", f.ID, f.Description),
			})
			continue
		}
		total = total.Add(PerServing(*f.Macros).Scale(it.Quantity))
	}
	return total, warnings, nil
}
