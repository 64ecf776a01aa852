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

// recordMeal adds totals to the (user, day) ledger row, creating it on the
// first meal of the day, and refreshes its progress.
func (s *Service) recordMeal(ctx context.Context, tx store.Repository, userID int64, day time.Time, totals nutrition.Totals) (*models.NutritionLog, error) {
	entry, err := tx.IncrementLedger(ctx, userID, day, totals)
	if err != nil {
		return nil, fmt.Errorf("failed to update nutrition log: %w", err)
	}
	if err := s.refreshProgress(ctx, tx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// adjustMeal applies newTotals - oldTotals to an existing row. A meal whose
// row has gone missing gets the row recreated from newTotals.
func (s *Service) adjustMeal(ctx context.Context, tx store.Repository, userID int64, day time.Time, oldTotals, newTotals nutrition.Totals) (*models.NutritionLog, string, error) {
	op := metrics.LedgerDelta
	entry, err := tx.ApplyLedgerDelta(ctx, userID, day, newTotals.Sub(oldTotals))
	if errors.Is(err, store.ErrNotFound) {
		s.log.Warnw("nutrition log missing for edited meal, recreating", "user_id", userID, "date", day.Format(nutrition.DateLayout))
		op = metrics.LedgerRecreate
		entry, err = tx.IncrementLedger(ctx, userID, day, newTotals)
	}
	if err != nil {
		return nil, op, fmt.Errorf("failed to adjust nutrition log: %w", err)
	}
	if err := s.refreshProgress(ctx, tx, entry); err != nil {
		return nil, op, err
	}
	return entry, op, nil
}

// withdrawMeal takes a meal's totals off the day it is leaving. It reports
// false when that day has no row.
func (s *Service) withdrawMeal(ctx context.Context, tx store.Repository, userID int64, day time.Time, totals nutrition.Totals) (bool, error) {
	entry, err := tx.ApplyLedgerDelta(ctx, userID, day, totals.Neg())
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to adjust nutrition log: %w", err)
	}
	return true, s.refreshProgress(ctx, tx, entry)
}

// refreshProgress recomputes the row's percentages from the user's goal.
// No goal means all-null progress.
func (s *Service) refreshProgress(ctx context.Context, tx store.Repository, entry *models.NutritionLog) error {
	goal, err := tx.GetGoalForUser(ctx, entry.UserID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("failed to load goal: %w", err)
	}

	entry.ProgressTowardsGoal = nutrition.ComputeProgress(entry.Totals(), goal.Target())
	if err := tx.SetLedgerProgress(ctx, entry.ID, entry.ProgressTowardsGoal); err != nil {
		return fmt.Errorf("failed to save progress: %w", err)
	}
	return nil
}

// ListNutritionLogs returns the user's ledger rows, newest day first.
func (s *Service) ListNutritionLogs(ctx context.Context, userID int64) ([]models.NutritionLog, error) {
	logs, err := s.store.ListNutritionLogs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list nutrition logs: %w", err)
	}
	return logs, nil
}

func (s *Service) GetNutritionLog(ctx context.Context, userID int64, day time.Time) (*models.NutritionLog, error) {
	entry, err := s.store.GetNutritionLog(ctx, userID, day)
	if err != nil {
		return nil, notFoundOr(err, "nutrition log", nutrition.NormalizeDate(day).Format(nutrition.DateLayout))
	}
	return entry, nil
}
