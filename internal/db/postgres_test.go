package db

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"

	"nutrilog/internal/config"
	"nutrilog/internal/models"
	"nutrilog/internal/nutrition"
	"nutrilog/internal/store"
)

func TestErrorMapping(t *testing.T) {
	if err := notFound(pgx.ErrNoRows, "get meal"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("notFound(ErrNoRows) = %v", err)
	}
	other := errors.New("connection reset")
	if err := notFound(other, "get meal"); !errors.Is(err, other) || errors.Is(err, store.ErrNotFound) {
		t.Errorf("notFound(other) = %v", err)
	}

	dup := fmt.Errorf("insert: %w", &pgconn.PgError{Code: uniqueViolation})
	if err := conflict(dup, "create user"); !errors.Is(err, store.ErrConflict) {
		t.Errorf("conflict(23505) = %v", err)
	}
	fk := &pgconn.PgError{Code: "23503"}
	if err := conflict(fk, "add review"); errors.Is(err, store.ErrConflict) {
		t.Errorf("conflict(23503) = %v, want a plain wrapped error", err)
	}
}

// testDB connects to the database named by NUTRILOG_TEST_DB_* and skips the
// test when none is configured. Every test runs against a freshly migrated
// schema.
func testDB(t *testing.T) *PostgresDB {
	t.Helper()
	host := os.Getenv("NUTRILOG_TEST_DB_HOST")
	if host == "" {
		t.Skip("NUTRILOG_TEST_DB_HOST not set")
	}
	cfg := config.Database{
		Host:         host,
		Port:         envOr("NUTRILOG_TEST_DB_PORT", "5432"),
		User:         envOr("NUTRILOG_TEST_DB_USER", "postgres"),
		Password:     os.Getenv("NUTRILOG_TEST_DB_PASSWORD"),
		DBName:       envOr("NUTRILOG_TEST_DB_NAME", "nutrilog_test"),
		SSLMode:      "disable",
		MaxOpenConns: 10,
		MaxIdleConns: 1,
		ConnLifetime: time.Minute,
	}
	database, err := NewPostgresDB(cfg)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(database.Close)

	ctx := context.Background()
	_, err = database.pool.Exec(ctx, `DROP TABLE IF EXISTS nutrition_logs, meal_items, meals, goals, reviews, foods, macros, users CASCADE`)
	if err != nil {
		t.Fatalf("reset schema: %v", err)
	}
	if err := database.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return database
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func TestIncrementLedger_ConcurrentSameDay(t *testing.T) {
	database := testDB(t)
	ctx := context.Background()
	day := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	const n = 25
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := database.IncrementLedger(ctx, 1, day, nutrition.Totals{Calories: 10, Protein: 1}); err != nil {
				t.Errorf("IncrementLedger: %v", err)
			}
		}()
	}
	wg.Wait()

	logs, err := database.ListNutritionLogs(ctx, 1)
	if err != nil {
		t.Fatalf("ListNutritionLogs: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("logs = %d, want 1", len(logs))
	}
	if logs[0].TotalCalories != n*10 || logs[0].TotalMacros.Protein != n {
		t.Errorf("totals = %+v, want %d calories", logs[0].Totals(), n*10)
	}
}

func TestInTx_RollsBackMealAndLedger(t *testing.T) {
	database := testDB(t)
	ctx := context.Background()
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	boom := errors.New("boom")

	err := database.InTx(ctx, func(tx store.Repository) error {
		m := &models.Meal{UserID: 1, Date: day, CreatedVia: models.MealComputed,
			Foods: []nutrition.LineItem{{FoodID: 1, Quantity: 2}}}
		if err := tx.CreateMeal(ctx, m); err != nil {
			return err
		}
		if _, err := tx.IncrementLedger(ctx, 1, day, nutrition.Totals{Calories: 100}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("InTx err = %v", err)
	}

	meals, err := database.ListMeals(ctx, 1)
	if err != nil {
		t.Fatalf("ListMeals: %v", err)
	}
	if len(meals) != 0 {
		t.Errorf("meals = %d after rollback", len(meals))
	}
	if _, err := database.GetNutritionLog(ctx, 1, day); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("log after rollback err = %v", err)
	}
}

func TestMeals_RoundTripKeepsItemOrder(t *testing.T) {
	database := testDB(t)
	ctx := context.Background()

	m := &models.Meal{
		UserID:     1,
		Date:       time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		CreatedVia: models.MealComputed,
		Foods:      []nutrition.LineItem{{FoodID: 9, Quantity: 1}, {FoodID: 3, Quantity: 2.5}, {FoodID: 9, Quantity: 1}},
	}
	m.SetTotals(nutrition.Totals{Calories: 420, Protein: 12})
	if err := database.CreateMeal(ctx, m); err != nil {
		t.Fatalf("CreateMeal: %v", err)
	}

	got, err := database.GetMeal(ctx, 1, m.ID)
	if err != nil {
		t.Fatalf("GetMeal: %v", err)
	}
	if len(got.Foods) != 3 || got.Foods[1].FoodID != 3 || got.Foods[1].Quantity != 2.5 {
		t.Errorf("foods = %+v", got.Foods)
	}
	if got.TotalCalories != 420 {
		t.Errorf("calories = %v", got.TotalCalories)
	}
	if _, err := database.GetMeal(ctx, 2, m.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("other user's meal err = %v", err)
	}
}

func TestGoalsAndReviews(t *testing.T) {
	database := testDB(t)
	ctx := context.Background()

	for _, u := range []*models.User{{ID: 1, Name: "Ann", Email: "ann@example.com"}, {ID: 2, Name: "Bo", Email: "bo@example.com"}} {
		if err := database.CreateUser(ctx, u); err != nil {
			t.Fatalf("CreateUser: %v", err)
		}
	}
	if err := database.CreateUser(ctx, &models.User{ID: 3, Name: "Dup", Email: "ann@example.com"}); !errors.Is(err, store.ErrConflict) {
		t.Errorf("duplicate email err = %v", err)
	}

	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	first := &models.Goal{UserID: 1, GoalType: models.GoalMaintenance, DailyCalorieGoal: 2000, StartDate: start}
	second := &models.Goal{UserID: 1, GoalType: models.GoalWeightLoss, DailyCalorieGoal: 1700, StartDate: start,
		DailyMacrosGoal: models.MacroGoal{Protein: 120}}
	for _, g := range []*models.Goal{first, second} {
		if err := database.UpsertGoal(ctx, g); err != nil {
			t.Fatalf("UpsertGoal: %v", err)
		}
	}
	goals, err := database.ListGoals(ctx)
	if err != nil {
		t.Fatalf("ListGoals: %v", err)
	}
	if len(goals) != 1 || goals[0].DailyCalorieGoal != 1700 || goals[0].DailyMacrosGoal.Protein != 120 {
		t.Errorf("goals = %+v", goals)
	}

	food := &models.FoodItem{Description: "Oats", Macros: &nutrition.MacroProfile{Calories: 150}}
	if err := database.CreateFood(ctx, food); err != nil {
		t.Fatalf("CreateFood: %v", err)
	}
	for i, r := range []*models.Review{{FoodID: food.ID, UserID: 1, Rating: 5}, {FoodID: food.ID, UserID: 2, Rating: 2}} {
		if err := database.AddReview(ctx, r); err != nil {
			t.Fatalf("AddReview %d: %v", i, err)
		}
	}
	if err := database.AddReview(ctx, &models.Review{FoodID: food.ID, UserID: 1, Rating: 1}); !errors.Is(err, store.ErrConflict) {
		t.Errorf("duplicate review err = %v", err)
	}
	got, err := database.GetFood(ctx, food.ID)
	if err != nil {
		t.Fatalf("GetFood: %v", err)
	}
	if got.ReviewCount != 2 || got.Rating != 3.5 {
		t.Errorf("rating = %v over %d", got.Rating, got.ReviewCount)
	}
}

func TestGetMealForUpdate_SerialisesEdits(t *testing.T) {
	database := testDB(t)
	ctx := context.Background()

	m := &models.Meal{UserID: 1, Date: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), CreatedVia: models.MealManualOverride}
	m.SetTotals(nutrition.Totals{Calories: 100})
	if err := database.CreateMeal(ctx, m); err != nil {
		t.Fatalf("CreateMeal: %v", err)
	}

	locked := make(chan struct{})
	release := make(chan struct{})
	first := make(chan error, 1)
	go func() {
		first <- database.InTx(ctx, func(tx store.Repository) error {
			cur, err := tx.GetMealForUpdate(ctx, 1, m.ID)
			if err != nil {
				return err
			}
			close(locked)
			<-release
			cur.SetTotals(nutrition.Totals{Calories: 300})
			return tx.UpdateMeal(ctx, cur)
		})
	}()
	<-locked

	seen := make(chan float64, 1)
	second := make(chan error, 1)
	go func() {
		second <- database.InTx(ctx, func(tx store.Repository) error {
			cur, err := tx.GetMealForUpdate(ctx, 1, m.ID)
			if err != nil {
				return err
			}
			seen <- cur.TotalCalories
			return nil
		})
	}()

	select {
	case c := <-seen:
		t.Fatalf("second reader got %v while the row was locked", c)
	case <-time.After(200 * time.Millisecond):
	}
	close(release)

	if err := <-first; err != nil {
		t.Fatalf("first tx: %v", err)
	}
	if err := <-second; err != nil {
		t.Fatalf("second tx: %v", err)
	}
	if c := <-seen; c != 300 {
		t.Errorf("second reader saw %v calories, want 300", c)
	}
	if _, err := database.GetMealForUpdate(ctx, 2, m.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("other user's meal err = %v", err)
	}
}
