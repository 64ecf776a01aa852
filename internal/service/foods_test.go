package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"nutrilog/internal/nutrition"
)

func TestSearchFoods_Paginates(t *testing.T) {
	svc, _ := newTestService(t)
	svc.WithPageSize(2)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		addFood(t, svc, fmt.Sprintf("Greek yogurt %d", i), nil)
	}
	addFood(t, svc, "Brown rice", nil)

	tests := []struct {
		keyword   string
		page      int
		wantFoods int
		wantPage  int
		wantPages int
	}{
		{"yogurt", 1, 2, 1, 3},
		{"YOGURT", 3, 1, 3, 3},
		{"yogurt", 0, 2, 1, 3},
		{"yogurt", 9, 0, 9, 3},
		{"", 1, 2, 1, 3},
		{"quinoa", 1, 0, 1, 0},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/%d", tt.keyword, tt.page), func(t *testing.T) {
			page, err := svc.SearchFoods(ctx, tt.keyword, tt.page)
			if err != nil {
				t.Fatalf("SearchFoods: %v", err)
			}
			if len(page.Foods) != tt.wantFoods || page.Page != tt.wantPage || page.Pages != tt.wantPages {
				t.Errorf("got %d foods, page %d/%d; want %d foods, page %d/%d",
					len(page.Foods), page.Page, page.Pages, tt.wantFoods, tt.wantPage, tt.wantPages)
			}
		})
	}
}

func TestAddReview_RecomputesRating(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	for id, email := range map[int64]string{1: "a@example.com", 2: "b@example.com"} {
		if _, err := svc.Register(ctx, id, ProfileInput{Name: email, Email: email}); err != nil {
			t.Fatalf("Register: %v", err)
		}
	}
	food := addFood(t, svc, "Oats", &nutrition.MacroProfile{Calories: 150})

	if _, err := svc.AddReview(ctx, 1, food, ReviewInput{Rating: 5, Comment: "great"}); err != nil {
		t.Fatalf("AddReview: %v", err)
	}
	r, err := svc.AddReview(ctx, 2, food, ReviewInput{Rating: 2})
	if err != nil {
		t.Fatalf("AddReview: %v", err)
	}
	if r.Name != "b@example.com" {
		t.Errorf("review name = %q", r.Name)
	}

	f, _ := svc.GetFood(ctx, food)
	if f.ReviewCount != 2 || !approx(f.Rating, 3.5) {
		t.Errorf("rating = %v over %d reviews, want 3.5 over 2", f.Rating, f.ReviewCount)
	}

	_, err = svc.AddReview(ctx, 1, food, ReviewInput{Rating: 1})
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Reason != "food already reviewed" {
		t.Errorf("duplicate review err = %v", err)
	}
	f, _ = svc.GetFood(ctx, food)
	if f.ReviewCount != 2 {
		t.Errorf("duplicate review changed count to %d", f.ReviewCount)
	}
}

func TestAddReview_Rejects(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	if _, err := svc.Register(ctx, 1, ProfileInput{Name: "Ann", Email: "ann@example.com"}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	food := addFood(t, svc, "Oats", nil)

	var ve *ValidationError
	for _, rating := range []float64{0, 5.5, -1} {
		if _, err := svc.AddReview(ctx, 1, food, ReviewInput{Rating: rating}); !errors.As(err, &ve) {
			t.Errorf("rating %v: err = %v, want ValidationError", rating, err)
		}
	}

	var nf *NotFoundError
	if _, err := svc.AddReview(ctx, 1, 777, ReviewInput{Rating: 4}); !errors.As(err, &nf) || nf.Resource != "food" {
		t.Errorf("unknown food err = %v", err)
	}
	if _, err := svc.AddReview(ctx, 9, food, ReviewInput{Rating: 4}); !errors.As(err, &nf) || nf.Resource != "user" {
		t.Errorf("unregistered user err = %v", err)
	}
}

func TestTopFoods(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	ratings := []float64{1, 5, 3, 4, 2}
	ids := make([]int64, len(ratings))
	for i := range ratings {
		ids[i] = addFood(t, svc, fmt.Sprintf("food %d", i), nil)
	}
	for i, rating := range ratings {
		uid := int64(100 + i)
		if _, err := svc.Register(ctx, uid, ProfileInput{Name: "u", Email: fmt.Sprintf("u%d@example.com", i)}); err != nil {
			t.Fatalf("Register: %v", err)
		}
		if _, err := svc.AddReview(ctx, uid, ids[i], ReviewInput{Rating: rating}); err != nil {
			t.Fatalf("AddReview: %v", err)
		}
	}

	top, err := svc.TopFoods(ctx)
	if err != nil {
		t.Fatalf("TopFoods: %v", err)
	}
	if len(top) != 4 {
		t.Fatalf("top = %d foods, want 4", len(top))
	}
	want := []float64{5, 4, 3, 2}
	for i, f := range top {
		if f.Rating != want[i] {
			t.Errorf("top[%d].rating = %v, want %v", i, f.Rating, want[i])
		}
	}
}

func TestFoodCRUD(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.CreateFood(ctx, FoodInput{Description: "  "}); err == nil {
		t.Error("blank description accepted")
	}
	if _, err := svc.CreateFood(ctx, FoodInput{Description: "x", Macros: &nutrition.MacroProfile{Protein: -1}}); err == nil {
		t.Error("negative macros accepted")
	}

	fdc := int64(1234)
	f, err := svc.CreateFood(ctx, FoodInput{FdcID: &fdc, Description: "Apple", Macros: &nutrition.MacroProfile{Calories: 52}})
	if err != nil {
		t.Fatalf("CreateFood: %v", err)
	}
	var ve *ValidationError
	if _, err := svc.CreateFood(ctx, FoodInput{FdcID: &fdc, Description: "Apple again"}); !errors.As(err, &ve) {
		t.Errorf("duplicate fdcId err = %v", err)
	}

	updated, err := svc.UpdateFood(ctx, f.ID, FoodInput{FdcID: &fdc, Description: "Red apple"})
	if err != nil {
		t.Fatalf("UpdateFood: %v", err)
	}
	if updated.Macros == nil || updated.Macros.Calories != 52 {
		t.Errorf("update without macros dropped the profile: %+v", updated.Macros)
	}

	var nf *NotFoundError
	if _, err := svc.UpdateFood(ctx, 999, FoodInput{Description: "ghost"}); !errors.As(err, &nf) {
		t.Errorf("update missing err = %v", err)
	}
	if err := svc.DeleteFood(ctx, f.ID); err != nil {
		t.Fatalf("DeleteFood: %v", err)
	}
	if _, err := svc.GetFood(ctx, f.ID); !errors.As(err, &nf) {
		t.Errorf("get deleted err = %v", err)
	}
}
