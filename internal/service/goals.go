package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"nutrilog/internal/models"
	"nutrilog/internal/nutrition"
	"nutrilog/internal/store"
)

type GoalInput struct {
	GoalType         string           `json:"goalType"`
	TargetWeight     *float64         `json:"targetWeight"`
	DailyCalorieGoal float64          `json:"dailyCalorieGoal"`
	DailyMacrosGoal  models.MacroGoal `json:"dailyMacrosGoal"`
	StartDate        *time.Time       `json:"startDate"`
	EndDate          *time.Time       `json:"endDate"`
}

// validate checks the input. seed relaxes the calorie target so registration
// can store a zero-filled goal.
func (in GoalInput) validate(seed bool) error {
	if !models.ValidGoalType(in.GoalType) {
		return invalid("goalType", fmt.Sprintf("must be one of %q, %q, %q",
			models.GoalWeightLoss, models.GoalMuscleGain, models.GoalMaintenance))
	}
	cal := in.DailyCalorieGoal
	if math.IsNaN(cal) || math.IsInf(cal, 0) || cal < 0 || (cal == 0 && !seed) {
		return invalid("dailyCalorieGoal", "must be greater than zero")
	}
	macros := nutrition.MacroProfile{
		Protein:       in.DailyMacrosGoal.Protein,
		Carbohydrates: in.DailyMacrosGoal.Carbs,
		Fat:           in.DailyMacrosGoal.Fats,
	}
	if err := macros.Validate(); err != nil {
		return invalid("dailyMacrosGoal", err.Error())
	}
	if in.TargetWeight != nil && !(*in.TargetWeight > 0) {
		return invalid("targetWeight", "must be greater than zero")
	}
	if in.StartDate != nil && in.EndDate != nil && in.EndDate.Before(*in.StartDate) {
		return invalid("endDate", "must not be before startDate")
	}
	return nil
}

func (s *Service) goalFrom(userID int64, in GoalInput) *models.Goal {
	g := &models.Goal{
		UserID:           userID,
		GoalType:         in.GoalType,
		TargetWeight:     in.TargetWeight,
		DailyCalorieGoal: in.DailyCalorieGoal,
		DailyMacrosGoal:  in.DailyMacrosGoal,
		StartDate:        nutrition.NormalizeDate(s.now()),
		EndDate:          in.EndDate,
	}
	if in.StartDate != nil {
		g.StartDate = *in.StartDate
	}
	return g
}

// MyGoal returns the caller's goal, or nil when none is set.
func (s *Service) MyGoal(ctx context.Context, userID int64) (*models.Goal, error) {
	g, err := s.store.GetGoalForUser(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load goal: %w", err)
	}
	return g, nil
}

// CreateGoal sets the caller's goal, replacing the one they had.
func (s *Service) CreateGoal(ctx context.Context, userID int64, in GoalInput) (*models.Goal, error) {
	if err := in.validate(false); err != nil {
		return nil, err
	}
	g := s.goalFrom(userID, in)
	if err := s.store.UpsertGoal(ctx, g); err != nil {
		return nil, fmt.Errorf("failed to save goal: %w", err)
	}
	s.log.Infow("goal set", "user_id", userID, "goal_id", g.ID, "goal_type", g.GoalType)
	return g, nil
}

// UpdateGoal edits a goal owned by the caller. Admins may edit any goal.
func (s *Service) UpdateGoal(ctx context.Context, caller Caller, id int64, in GoalInput) (*models.Goal, error) {
	cur, err := s.store.GetGoal(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "goal", id)
	}
	if cur.UserID != caller.UserID && !caller.Admin {
		return nil, ErrForbidden
	}
	if err := in.validate(false); err != nil {
		return nil, err
	}

	g := s.goalFrom(cur.UserID, in)
	g.ID = cur.ID
	if in.StartDate == nil {
		g.StartDate = cur.StartDate
	}
	if err := s.store.UpdateGoal(ctx, g); err != nil {
		return nil, notFoundOr(err, "goal", id)
	}
	return g, nil
}

func (s *Service) GetGoal(ctx context.Context, id int64) (*models.Goal, error) {
	g, err := s.store.GetGoal(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "goal", id)
	}
	return g, nil
}

func (s *Service) ListGoals(ctx context.Context) ([]models.Goal, error) {
	goals, err := s.store.ListGoals(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list goals: %w", err)
	}
	return goals, nil
}

func (s *Service) DeleteGoal(ctx context.Context, id int64) error {
	if err := s.store.DeleteGoal(ctx, id); err != nil {
		return notFoundOr(err, "goal", id)
	}
	return nil
}
