package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"nutrilog/internal/models"
	"nutrilog/internal/nutrition"
	"nutrilog/internal/store"
)

type FoodInput struct {
	FdcID         *int64                  `json:"fdcId"`
	Description   string                  `json:"description"`
	Brand         string                  `json:"brandOwner"`
	Category      string                  `json:"brandedFoodCategory"`
	MarketCountry string                  `json:"marketCountry"`
	ServingSize   float64                 `json:"servingSize"`
	ServingUnit   string                  `json:"servingSizeUnit"`
	Image         string                  `json:"image"`
	Macros        *nutrition.MacroProfile `json:"macros"`
}

func (in FoodInput) validate() error {
	if strings.TrimSpace(in.Description) == "" {
		return invalid("description", "is required")
	}
	if math.IsNaN(in.ServingSize) || math.IsInf(in.ServingSize, 0) || in.ServingSize < 0 {
		return invalid("servingSize", "must not be negative")
	}
	if in.Macros != nil {
		if err := in.Macros.Validate(); err != nil {
			return invalid("macros", err.Error())
		}
	}
	return nil
}

func (in FoodInput) item(id int64) *models.FoodItem {
	return &models.FoodItem{
		ID:            id,
		FdcID:         in.FdcID,
		Description:   strings.TrimSpace(in.Description),
		Brand:         in.Brand,
		Category:      in.Category,
		MarketCountry: in.MarketCountry,
		ServingSize:   in.ServingSize,
		ServingUnit:   in.ServingUnit,
		Image:         in.Image,
		Macros:        in.Macros,
	}
}

// SearchFoods returns one page of foods whose description or category
// contains keyword. Pages start at 1.
func (s *Service) SearchFoods(ctx context.Context, keyword string, page int) (*models.FoodPage, error) {
	if page < 1 {
		page = 1
	}
	foods, total, err := s.store.SearchFoods(ctx, store.FoodQuery{
		Keyword: strings.TrimSpace(keyword),
		Limit:   s.pageSize,
		Offset:  (page - 1) * s.pageSize,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search foods: %w", err)
	}
	return &models.FoodPage{
		Foods: foods,
		Page:  page,
		Pages: (total + s.pageSize - 1) / s.pageSize,
	}, nil
}

func (s *Service) TopFoods(ctx context.Context) ([]models.FoodItem, error) {
	foods, err := s.store.TopFoods(ctx, topFoodsLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load top foods: %w", err)
	}
	return foods, nil
}

func (s *Service) GetFood(ctx context.Context, id int64) (*models.FoodItem, error) {
	f, err := s.store.GetFood(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "food", id)
	}
	return f, nil
}

func (s *Service) CreateFood(ctx context.Context, in FoodInput) (*models.FoodItem, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	f := in.item(0)
	if err := s.store.CreateFood(ctx, f); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, invalid("fdcId", "a food with this FDC id already exists")
		}
		return nil, fmt.Errorf("failed to create food: %w", err)
	}
	s.log.Infow("food created", "food_id", f.ID, "description", f.Description)
	return f, nil
}

// UpdateFood rewrites the catalog entry. Rating and review count are
// left as they are; a nil Macros keeps the current profile.
func (s *Service) UpdateFood(ctx context.Context, id int64, in FoodInput) (*models.FoodItem, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	f := in.item(id)
	if err := s.store.UpdateFood(ctx, f); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return nil, &NotFoundError{Resource: "food", ID: id}
		case errors.Is(err, store.ErrConflict):
			return nil, invalid("fdcId", "a food with this FDC id already exists")
		}
		return nil, fmt.Errorf("failed to update food: %w", err)
	}
	return s.GetFood(ctx, id)
}

// DeleteFood removes the food. Meals that used it keep their totals.
func (s *Service) DeleteFood(ctx context.Context, id int64) error {
	if err := s.store.DeleteFood(ctx, id); err != nil {
		return notFoundOr(err, "food", id)
	}
	s.log.Infow("food deleted", "food_id", id)
	return nil
}

type ReviewInput struct {
	Rating  float64 `json:"rating"`
	Comment string  `json:"comment"`
}

// AddReview records the caller's review and refreshes the food's rating.
// A user reviews a food at most once.
func (s *Service) AddReview(ctx context.Context, userID, foodID int64, in ReviewInput) (*models.Review, error) {
	if !(in.Rating >= 1 && in.Rating <= 5) {
		return nil, invalid("rating", "must be between 1 and 5")
	}
	if _, err := s.store.GetFood(ctx, foodID); err != nil {
		return nil, notFoundOr(err, "food", foodID)
	}
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, notFoundOr(err, "user", userID)
	}

	r := &models.Review{
		FoodID:  foodID,
		UserID:  userID,
		Name:    u.Name,
		Rating:  in.Rating,
		Comment: strings.TrimSpace(in.Comment),
	}
	if err := s.store.AddReview(ctx, r); err != nil {
		switch {
		case errors.Is(err, store.ErrConflict):
			return nil, invalid("food", "food already reviewed")
		case errors.Is(err, store.ErrNotFound):
			return nil, &NotFoundError{Resource: "food", ID: foodID}
		}
		return nil, fmt.Errorf("failed to add review: %w", err)
	}
	return r, nil
}
