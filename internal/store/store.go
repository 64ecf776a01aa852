// Package store declares the persistence contract the services run against.
// internal/db implements it on PostgreSQL, internal/db/memdb in memory.
package store

import (
	"context"
	"errors"
	"time"

	"nutrilog/internal/models"
	"nutrilog/internal/nutrition"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a write violates a uniqueness constraint.
	ErrConflict = errors.New("record already exists")
)

// FoodQuery is a simple filtered, paginated catalog query.
type FoodQuery struct {
	Keyword string
	Limit   int
	Offset  int
}

type Foods interface {
	// ResolveFoodsByIDs loads every requested food in one round trip.
	// Ids with no matching row are absent from the result.
	ResolveFoodsByIDs(ctx context.Context, ids []int64) (map[int64]*models.FoodItem, error)
	GetFood(ctx context.Context, id int64) (*models.FoodItem, error)
	SearchFoods(ctx context.Context, q FoodQuery) ([]models.FoodItem, int, error)
	TopFoods(ctx context.Context, limit int) ([]models.FoodItem, error)
	CreateFood(ctx context.Context, f *models.FoodItem) error
	UpdateFood(ctx context.Context, f *models.FoodItem) error
	DeleteFood(ctx context.Context, id int64) error
	// AddReview inserts the review and recomputes the food's rating and
	// review count. ErrConflict if the user already reviewed the food.
	AddReview(ctx context.Context, r *models.Review) error
}

type Goals interface {
	GetGoalForUser(ctx context.Context, userID int64) (*models.Goal, error)
	GetGoal(ctx context.Context, id int64) (*models.Goal, error)
	ListGoals(ctx context.Context) ([]models.Goal, error)
	// UpsertGoal replaces the user's goal if one exists.
	UpsertGoal(ctx context.Context, g *models.Goal) error
	UpdateGoal(ctx context.Context, g *models.Goal) error
	DeleteGoal(ctx context.Context, id int64) error
}

type Meals interface {
	CreateMeal(ctx context.Context, m *models.Meal) error
	GetMeal(ctx context.Context, userID, id int64) (*models.Meal, error)
	// GetMealForUpdate reads the meal and locks it until the enclosing
	// transaction ends. Call it on the Repository handed to InTx.
	GetMealForUpdate(ctx context.Context, userID, id int64) (*models.Meal, error)
	UpdateMeal(ctx context.Context, m *models.Meal) error
	ListMeals(ctx context.Context, userID int64) ([]models.Meal, error)
}

// Ledger mutations are atomic per row: implementations must not lose a
// concurrent increment.
type Ledger interface {
	// IncrementLedger adds delta to the (user, day) row, creating it if absent.
	IncrementLedger(ctx context.Context, userID int64, day time.Time, delta nutrition.Totals) (*models.NutritionLog, error)
	// ApplyLedgerDelta adds delta to an existing row. ErrNotFound if none.
	ApplyLedgerDelta(ctx context.Context, userID int64, day time.Time, delta nutrition.Totals) (*models.NutritionLog, error)
	SetLedgerProgress(ctx context.Context, logID int64, p nutrition.Progress) error
	GetNutritionLog(ctx context.Context, userID int64, day time.Time) (*models.NutritionLog, error)
	ListNutritionLogs(ctx context.Context, userID int64) ([]models.NutritionLog, error)
	LatestNutritionLog(ctx context.Context, userID int64) (*models.NutritionLog, error)
}

type Users interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id int64) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	// UpdateUser rewrites every profile field, IsAdmin included.
	UpdateUser(ctx context.Context, u *models.User) error
	DeleteUser(ctx context.Context, id int64) error
}

// Repository is every query, usable inside or outside a transaction.
type Repository interface {
	Foods
	Goals
	Meals
	Ledger
	Users
}

// Store is a Repository that can also open a transaction.
type Store interface {
	Repository
	InTx(ctx context.Context, fn func(tx Repository) error) error
}
