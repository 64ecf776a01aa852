package db

import (
	"context"
	"fmt"

	"nutrilog/internal/models"
	"nutrilog/internal/nutrition"
	"nutrilog/internal/store"
)

const mealColumns = `id, user_id, meal_date, total_calories, total_protein, total_carbs, total_fats,
	created_via, created_at, updated_at`

func scanMeal(row scanner) (*models.Meal, error) {
	var m models.Meal
	err := row.Scan(
		&m.ID, &m.UserID, &m.Date,
		&m.TotalCalories, &m.TotalMacros.Protein, &m.TotalMacros.Carbs, &m.TotalMacros.Fats,
		&m.CreatedVia, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (q *Queries) insertMealItems(ctx context.Context, mealID int64, items []nutrition.LineItem) error {
	for i, it := range items {
		_, err := q.q.Exec(ctx,
			`INSERT INTO meal_items (meal_id, position, food_id, quantity) VALUES ($1, $2, $3, $4)`,
			mealID, i, it.FoodID, it.Quantity,
		)
		if err != nil {
			return fmt.Errorf("failed to save meal item %d: %w", i, err)
		}
	}
	return nil
}

// loadMealItems fills Foods for every meal in one query.
func (q *Queries) loadMealItems(ctx context.Context, meals []*models.Meal) error {
	if len(meals) == 0 {
		return nil
	}
	ids := make([]int64, len(meals))
	byID := make(map[int64]*models.Meal, len(meals))
	for i, m := range meals {
		ids[i] = m.ID
		byID[m.ID] = m
		m.Foods = make([]nutrition.LineItem, 0)
	}

	rows, err := q.q.Query(ctx,
		`SELECT meal_id, food_id, quantity FROM meal_items WHERE meal_id = ANY($1) ORDER BY meal_id, position`,
		ids,
	)
	if err != nil {
		return fmt.Errorf("failed to load meal items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			mealID int64
			it     nutrition.LineItem
		)
		if err := rows.Scan(&mealID, &it.FoodID, &it.Quantity); err != nil {
			return fmt.Errorf("failed to scan meal item: %w", err)
		}
		if m, ok := byID[mealID]; ok {
			m.Foods = append(m.Foods, it)
		}
	}
	return rows.Err()
}

func (q *Queries) CreateMeal(ctx context.Context, m *models.Meal) error {
	return inTx(ctx, q.q, func(tx *Queries) error {
		query := `
            INSERT INTO meals (user_id, meal_date, total_calories, total_protein, total_carbs, total_fats, created_via)
            VALUES ($1, $2, $3, $4, $5, $6, $7)
            RETURNING id, created_at, updated_at
        `
		err := tx.q.QueryRow(ctx, query,
			m.UserID, m.Date, m.TotalCalories, m.TotalMacros.Protein, m.TotalMacros.Carbs, m.TotalMacros.Fats, m.CreatedVia,
		).Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to save meal: %w", err)
		}
		return tx.insertMealItems(ctx, m.ID, m.Foods)
	})
}

func (q *Queries) GetMeal(ctx context.Context, userID, id int64) (*models.Meal, error) {
	return q.getMeal(ctx, `SELECT `+mealColumns+` FROM meals WHERE id = $1 AND user_id = $2`, userID, id)
}

// GetMealForUpdate holds a row lock on the meal, so concurrent edits of one
// meal see each other's totals.
func (q *Queries) GetMealForUpdate(ctx context.Context, userID, id int64) (*models.Meal, error) {
	return q.getMeal(ctx, `SELECT `+mealColumns+` FROM meals WHERE id = $1 AND user_id = $2 FOR UPDATE`, userID, id)
}

func (q *Queries) getMeal(ctx context.Context, query string, userID, id int64) (*models.Meal, error) {
	m, err := scanMeal(q.q.QueryRow(ctx, query, id, userID))
	if err != nil {
		return nil, notFound(err, "get meal")
	}
	if err := q.loadMealItems(ctx, []*models.Meal{m}); err != nil {
		return nil, err
	}
	return m, nil
}

// UpdateMeal replaces the meal's date, totals and line items.
func (q *Queries) UpdateMeal(ctx context.Context, m *models.Meal) error {
	return inTx(ctx, q.q, func(tx *Queries) error {
		query := `
            UPDATE meals
            SET meal_date = $3, total_calories = $4, total_protein = $5, total_carbs = $6, total_fats = $7,
                created_via = $8, updated_at = NOW()
            WHERE id = $1 AND user_id = $2
            RETURNING updated_at
        `
		err := tx.q.QueryRow(ctx, query,
			m.ID, m.UserID, m.Date, m.TotalCalories, m.TotalMacros.Protein, m.TotalMacros.Carbs, m.TotalMacros.Fats, m.CreatedVia,
		).Scan(&m.UpdatedAt)
		if err != nil {
			return notFound(err, "update meal")
		}
		if _, err := tx.q.Exec(ctx, `DELETE FROM meal_items WHERE meal_id = $1`, m.ID); err != nil {
			return fmt.Errorf("failed to clear meal items: %w", err)
		}
		return tx.insertMealItems(ctx, m.ID, m.Foods)
	})
}

func (q *Queries) ListMeals(ctx context.Context, userID int64) ([]models.Meal, error) {
	rows, err := q.q.Query(ctx, `SELECT `+mealColumns+` FROM meals WHERE user_id = $1 ORDER BY meal_date DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list meals: %w", err)
	}

	var ptrs []*models.Meal
	for rows.Next() {
		m, err := scanMeal(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan meal: %w", err)
		}
		ptrs = append(ptrs, m)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list meals: %w", err)
	}

	if err := q.loadMealItems(ctx, ptrs); err != nil {
		return nil, err
	}
	meals := make([]models.Meal, len(ptrs))
	for i, m := range ptrs {
		meals[i] = *m
	}
	return meals, nil
}

var _ store.Store = (*PostgresDB)(nil)
