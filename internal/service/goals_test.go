package service

import (
	"context"
	"errors"
	"testing"

	"nutrilog/internal/models"
)

func validGoal(calories float64) GoalInput {
	return GoalInput{
		GoalType:         models.GoalWeightLoss,
		DailyCalorieGoal: calories,
		DailyMacrosGoal:  models.MacroGoal{Protein: 120, Carbs: 150, Fats: 60},
	}
}

func TestMyGoal_NoneIsNil(t *testing.T) {
	svc, _ := newTestService(t)
	g, err := svc.MyGoal(context.Background(), 7)
	if err != nil {
		t.Fatalf("MyGoal: %v", err)
	}
	if g != nil {
		t.Errorf("goal = %+v, want nil", g)
	}
}

func TestCreateGoal_Supersedes(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.CreateGoal(ctx, 1, validGoal(1800))
	if err != nil {
		t.Fatalf("CreateGoal: %v", err)
	}
	second, err := svc.CreateGoal(ctx, 1, validGoal(2200))
	if err != nil {
		t.Fatalf("CreateGoal: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("second goal id = %d, want superseded row %d", second.ID, first.ID)
	}

	goals, err := svc.ListGoals(ctx)
	if err != nil {
		t.Fatalf("ListGoals: %v", err)
	}
	if len(goals) != 1 || goals[0].DailyCalorieGoal != 2200 {
		t.Errorf("goals = %+v, want one goal at 2200", goals)
	}

	mine, _ := svc.MyGoal(ctx, 1)
	if mine == nil || mine.DailyCalorieGoal != 2200 {
		t.Errorf("my goal = %+v", mine)
	}
	if !mine.StartDate.Equal(day("2024-03-01")) {
		t.Errorf("start date = %v, want today", mine.StartDate)
	}
}

func TestCreateGoal_Validation(t *testing.T) {
	svc, _ := newTestService(t)
	neg := -3.0

	tests := []struct {
		name  string
		mod   func(*GoalInput)
		field string
	}{
		{"unknown type", func(g *GoalInput) { g.GoalType = "Bulk" }, "goalType"},
		{"zero calories", func(g *GoalInput) { g.DailyCalorieGoal = 0 }, "dailyCalorieGoal"},
		{"negative protein", func(g *GoalInput) { g.DailyMacrosGoal.Protein = -1 }, "dailyMacrosGoal"},
		{"negative weight", func(g *GoalInput) { g.TargetWeight = &neg }, "targetWeight"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validGoal(2000)
			tt.mod(&in)
			_, err := svc.CreateGoal(context.Background(), 1, in)
			var ve *ValidationError
			if !errors.As(err, &ve) || ve.Field != tt.field {
				t.Errorf("err = %v, want ValidationError on %s", err, tt.field)
			}
		})
	}
}

func TestUpdateGoal_OwnerOrAdmin(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	g, err := svc.CreateGoal(ctx, 1, validGoal(1800))
	if err != nil {
		t.Fatalf("CreateGoal: %v", err)
	}

	if _, err := svc.UpdateGoal(ctx, Caller{UserID: 2}, g.ID, validGoal(2500)); !errors.Is(err, ErrForbidden) {
		t.Errorf("stranger update err = %v, want ErrForbidden", err)
	}

	updated, err := svc.UpdateGoal(ctx, Caller{UserID: 1}, g.ID, validGoal(1900))
	if err != nil {
		t.Fatalf("owner update: %v", err)
	}
	if updated.UserID != 1 || updated.DailyCalorieGoal != 1900 {
		t.Errorf("updated = %+v", updated)
	}

	if _, err := svc.UpdateGoal(ctx, Caller{UserID: 99, Admin: true}, g.ID, validGoal(2100)); err != nil {
		t.Errorf("admin update: %v", err)
	}
	got, _ := svc.GetGoal(ctx, g.ID)
	if got.DailyCalorieGoal != 2100 || got.UserID != 1 {
		t.Errorf("stored goal = %+v", got)
	}

	var nf *NotFoundError
	if _, err := svc.UpdateGoal(ctx, Caller{UserID: 1}, 4040, validGoal(1900)); !errors.As(err, &nf) {
		t.Errorf("missing goal err = %v, want NotFoundError", err)
	}
}

func TestDeleteGoal(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	g, err := svc.CreateGoal(ctx, 1, validGoal(1800))
	if err != nil {
		t.Fatalf("CreateGoal: %v", err)
	}
	if err := svc.DeleteGoal(ctx, g.ID); err != nil {
		t.Fatalf("DeleteGoal: %v", err)
	}
	var nf *NotFoundError
	if err := svc.DeleteGoal(ctx, g.ID); !errors.As(err, &nf) {
		t.Errorf("second delete err = %v, want NotFoundError", err)
	}
	if mine, _ := svc.MyGoal(ctx, 1); mine != nil {
		t.Errorf("goal still present: %+v", mine)
	}
}
