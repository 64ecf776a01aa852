package models

import (
	"time"

	"nutrilog/internal/nutrition"
)

// FoodItem is a catalog entry. Macros is nil when no profile is attached.
type FoodItem struct {
	ID            int64                   `json:"id"`
	FdcID         *int64                  `json:"fdcId,omitempty"`
	Description   string                  `json:"description"`
	Brand         string                  `json:"brandOwner"`
	Category      string                  `json:"brandedFoodCategory"`
	MarketCountry string                  `json:"marketCountry"`
	ServingSize   float64                 `json:"servingSize"`
	ServingUnit   string                  `json:"servingSizeUnit"`
	Image         string                  `json:"image"`
	Macros        *nutrition.MacroProfile `json:"macros"`
	Rating        float64                 `json:"rating"`
	ReviewCount   int                     `json:"numReviews"`
	CreatedAt     time.Time               `json:"createdAt"`
	UpdatedAt     time.Time               `json:"updatedAt"`
}

// AggregateInput strips the entry down to what meal aggregation needs.
func (f *FoodItem) AggregateInput() nutrition.Food {
	return nutrition.Food{ID: f.ID, Description: f.Description, Macros: f.Macros}
}

type Review struct {
	ID        int64     `json:"id"`
	FoodID    int64     `json:"foodId"`
	UserID    int64     `json:"userId"`
	Name      string    `json:"name"`
	Rating    float64   `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"createdAt"`
}

// FoodPage is one page of a catalog query.
type FoodPage struct {
	Foods []FoodItem `json:"foods"`
	Page  int        `json:"page"`
	Pages int        `json:"pages"`
}
