package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"nutrilog/internal/metrics"
	"nutrilog/internal/models"
	"nutrilog/internal/nutrition"
	"nutrilog/internal/store"
)

// MealInput is a meal submission. Override, when set, wins over Foods and
// no food is resolved. A zero Date means today on create and "unchanged" on
// edit.
type MealInput struct {
	Date     time.Time
	Foods    []nutrition.LineItem
	Override *nutrition.Totals
}

// MealResult is a saved meal together with the ledger row it landed in.
type MealResult struct {
	Meal     *models.Meal         `json:"meal"`
	Log      *models.NutritionLog `json:"nutritionLog"`
	Warnings []nutrition.Warning  `json:"warnings,omitempty"`
}

// mealTotals runs the aggregator for one submission. It returns the totals,
// how they were obtained and any skipped-item warnings.
func (s *Service) mealTotals(ctx context.Context, in MealInput) (nutrition.Totals, string, []nutrition.Warning, error) {
	if in.Override != nil {
		if err := in.Override.Validate(); err != nil {
			return nutrition.Totals{}, "", nil, invalid("overrideTotals", err.Error())
		}
		return *in.Override, models.MealManualOverride, nil, nil
	}

	if err := nutrition.ValidateItems(in.Foods); err != nil {
		return nutrition.Totals{}, "", nil, invalid("foods", err.Error())
	}

	resolved, err := s.store.ResolveFoodsByIDs(ctx, nutrition.DistinctFoodIDs(in.Foods))
	if err != nil {
		return nutrition.Totals{}, "", nil, fmt.Errorf("failed to resolve foods: %w", err)
	}
	foods := make(map[int64]nutrition.Food, len(resolved))
	for id, f := range resolved {
		foods[id] = f.AggregateInput()
	}

	totals, warnings, err := nutrition.Aggregate(in.Foods, foods)
	if err != nil {
		var missing *nutrition.MissingFoodError
		if errors.As(err, &missing) {
			return nutrition.Totals{}, "", nil, &NotFoundError{Resource: "food", ID: missing.FoodID}
		}
		return nutrition.Totals{}, "", nil, err
	}
	for _, w := range warnings {
		s.log.Warnw("food has no macros, counted as zero", "food_id", w.FoodID)
	}
	s.metrics.MissingMacros(len(warnings))
	return totals, models.MealComputed, warnings, nil
}

// CreateMeal aggregates the submission, stores the meal and adds its totals
// to the user's ledger row for that day, all in one transaction.
func (s *Service) CreateMeal(ctx context.Context, userID int64, in MealInput) (*MealResult, error) {
	totals, via, warnings, err := s.mealTotals(ctx, in)
	if err != nil {
		return nil, err
	}

	day := in.Date
	if day.IsZero() {
		day = s.now()
	}
	meal := &models.Meal{
		UserID:     userID,
		Date:       nutrition.NormalizeDate(day),
		Foods:      in.Foods,
		CreatedVia: via,
	}
	if via == models.MealManualOverride {
		meal.Foods = []nutrition.LineItem{}
	}
	meal.SetTotals(totals)

	var (
		entry *models.NutritionLog
		ops   []string
	)
	err = s.store.InTx(ctx, func(tx store.Repository) error {
		if err := tx.CreateMeal(ctx, meal); err != nil {
			return fmt.Errorf("failed to save meal: %w", err)
		}
		var err error
		entry, err = s.recordMeal(ctx, tx, userID, meal.Date, totals)
		ops = append(ops, metrics.LedgerIncrement)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.metrics.MealRecorded(via)
	s.recordOps(ops)
	s.log.Infow("meal recorded", "user_id", userID, "meal_id", meal.ID, "date", meal.Date.Format(nutrition.DateLayout), "created_via", via)
	return &MealResult{Meal: meal, Log: entry, Warnings: warnings}, nil
}

// UpdateMeal recomputes the meal and moves the ledger by the difference
// between its old and new totals. With neither foods nor an override the
// meal keeps its totals, which is how a meal is moved to another day. The
// old totals are read under a row lock in the same transaction as the
// ledger update.
func (s *Service) UpdateMeal(ctx context.Context, userID, mealID int64, in MealInput) (*MealResult, error) {
	recompute := in.Override != nil || len(in.Foods) > 0
	if !recompute && in.Date.IsZero() {
		return nil, invalid("foods", "foods, overrideTotals or date is required")
	}

	var (
		newTotals nutrition.Totals
		via       string
		warnings  []nutrition.Warning
	)
	if recompute {
		var err error
		newTotals, via, warnings, err = s.mealTotals(ctx, in)
		if err != nil {
			return nil, err
		}
	}

	var (
		meal  *models.Meal
		entry *models.NutritionLog
		ops   []string
	)
	err := s.store.InTx(ctx, func(tx store.Repository) error {
		var err error
		meal, err = tx.GetMealForUpdate(ctx, userID, mealID)
		if err != nil {
			return notFoundOr(err, "meal", mealID)
		}
		oldTotals, oldDay := meal.Totals(), meal.Date

		if recompute {
			meal.Foods = in.Foods
			if via == models.MealManualOverride {
				meal.Foods = []nutrition.LineItem{}
			}
			meal.CreatedVia = via
		} else {
			newTotals = oldTotals
		}
		if !in.Date.IsZero() {
			meal.Date = nutrition.NormalizeDate(in.Date)
		}
		meal.SetTotals(newTotals)

		if err := tx.UpdateMeal(ctx, meal); err != nil {
			return notFoundOr(err, "meal", mealID)
		}

		if meal.Date.Equal(oldDay) {
			adjusted, op, err := s.adjustMeal(ctx, tx, userID, oldDay, oldTotals, newTotals)
			entry = adjusted
			ops = append(ops, op)
			return err
		}

		withdrawn, err := s.withdrawMeal(ctx, tx, userID, oldDay, oldTotals)
		if err != nil {
			return err
		}
		if withdrawn {
			ops = append(ops, metrics.LedgerDelta)
		}
		entry, err = s.recordMeal(ctx, tx, userID, meal.Date, newTotals)
		ops = append(ops, metrics.LedgerIncrement)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.recordOps(ops)
	s.log.Infow("meal updated", "user_id", userID, "meal_id", meal.ID, "date", meal.Date.Format(nutrition.DateLayout))
	return &MealResult{Meal: meal, Log: entry, Warnings: warnings}, nil
}

func (s *Service) GetMeal(ctx context.Context, userID, mealID int64) (*models.Meal, error) {
	m, err := s.store.GetMeal(ctx, userID, mealID)
	if err != nil {
		return nil, notFoundOr(err, "meal", mealID)
	}
	return m, nil
}

func (s *Service) ListMeals(ctx context.Context, userID int64) ([]models.Meal, error) {
	meals, err := s.store.ListMeals(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list meals: %w", err)
	}
	return meals, nil
}

func (s *Service) recordOps(ops []string) {
	for _, op := range ops {
		s.metrics.LedgerOp(op)
	}
}
