package db

import (
	"context"
	"fmt"

	"nutrilog/internal/models"
	"nutrilog/internal/nutrition"
	"nutrilog/internal/store"
)

const foodColumns = `f.id, f.fdc_id, f.description, f.brand_owner, f.category, f.market_country,
	f.serving_size, f.serving_unit, f.image, f.rating, f.review_count, f.created_at, f.updated_at,
	m.id, m.calories, m.protein, m.fat, m.carbohydrates, m.fiber, m.sugar`

const foodFrom = ` FROM foods f LEFT JOIN macros m ON m.id = f.macro_id`

func scanFood(row scanner) (*models.FoodItem, error) {
	var (
		f                            models.FoodItem
		macroID                      *int64
		calories, protein, fat, carb *float64
		fiber, sugar                 *float64
	)
	err := row.Scan(
		&f.ID, &f.FdcID, &f.Description, &f.Brand, &f.Category, &f.MarketCountry,
		&f.ServingSize, &f.ServingUnit, &f.Image, &f.Rating, &f.ReviewCount, &f.CreatedAt, &f.UpdatedAt,
		&macroID, &calories, &protein, &fat, &carb, &fiber, &sugar,
	)
	if err != nil {
		return nil, err
	}
	if macroID != nil {
		f.Macros = &nutrition.MacroProfile{
			ID:            *macroID,
			Calories:      deref(calories),
			Protein:       deref(protein),
			Fat:           deref(fat),
			Carbohydrates: deref(carb),
			Fiber:         fiber,
			Sugar:         sugar,
		}
	}
	return &f, nil
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func (q *Queries) collectFoods(ctx context.Context, query string, args ...interface{}) ([]models.FoodItem, error) {
	rows, err := q.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query foods: %w", err)
	}
	defer rows.Close()

	foods := make([]models.FoodItem, 0)
	for rows.Next() {
		f, err := scanFood(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan food: %w", err)
		}
		foods = append(foods, *f)
	}
	return foods, rows.Err()
}

func (q *Queries) ResolveFoodsByIDs(ctx context.Context, ids []int64) (map[int64]*models.FoodItem, error) {
	out := make(map[int64]*models.FoodItem, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	foods, err := q.collectFoods(ctx, `SELECT `+foodColumns+foodFrom+` WHERE f.id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	for i := range foods {
		out[foods[i].ID] = &foods[i]
	}
	return out, nil
}

func (q *Queries) GetFood(ctx context.Context, id int64) (*models.FoodItem, error) {
	f, err := scanFood(q.q.QueryRow(ctx, `SELECT `+foodColumns+foodFrom+` WHERE f.id = $1`, id))
	if err != nil {
		return nil, notFound(err, "get food")
	}
	return f, nil
}

func (q *Queries) SearchFoods(ctx context.Context, fq store.FoodQuery) ([]models.FoodItem, int, error) {
	where := ` WHERE ($1 = '' OR f.description ILIKE '%' || $1 || '%' OR f.category ILIKE '%' || $1 || '%')`

	var count int
	if err := q.q.QueryRow(ctx, `SELECT COUNT(*) FROM foods f`+where, fq.Keyword).Scan(&count); err != nil {
		return nil, 0, fmt.Errorf("failed to count foods: %w", err)
	}

	foods, err := q.collectFoods(ctx,
		`SELECT `+foodColumns+foodFrom+where+` ORDER BY f.id LIMIT $2 OFFSET $3`,
		fq.Keyword, fq.Limit, fq.Offset,
	)
	if err != nil {
		return nil, 0, err
	}
	return foods, count, nil
}

func (q *Queries) TopFoods(ctx context.Context, limit int) ([]models.FoodItem, error) {
	return q.collectFoods(ctx, `SELECT `+foodColumns+foodFrom+` ORDER BY f.rating DESC, f.id LIMIT $1`, limit)
}

func (q *Queries) insertMacros(ctx context.Context, m *nutrition.MacroProfile) error {
	query := `
        INSERT INTO macros (calories, protein, fat, carbohydrates, fiber, sugar)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id
    `
	if err := q.q.QueryRow(ctx, query, m.Calories, m.Protein, m.Fat, m.Carbohydrates, m.Fiber, m.Sugar).Scan(&m.ID); err != nil {
		return fmt.Errorf("failed to save macros: %w", err)
	}
	return nil
}

func (q *Queries) updateMacros(ctx context.Context, m *nutrition.MacroProfile) error {
	query := `
        UPDATE macros
        SET calories = $2, protein = $3, fat = $4, carbohydrates = $5, fiber = $6, sugar = $7
        WHERE id = $1
    `
	if _, err := q.q.Exec(ctx, query, m.ID, m.Calories, m.Protein, m.Fat, m.Carbohydrates, m.Fiber, m.Sugar); err != nil {
		return fmt.Errorf("failed to update macros: %w", err)
	}
	return nil
}

// CreateFood stores the food and, when present, its macro profile.
func (q *Queries) CreateFood(ctx context.Context, f *models.FoodItem) error {
	return inTx(ctx, q.q, func(tx *Queries) error {
		var macroID *int64
		if f.Macros != nil {
			if err := tx.insertMacros(ctx, f.Macros); err != nil {
				return err
			}
			macroID = &f.Macros.ID
		}

		query := `
            INSERT INTO foods (fdc_id, description, brand_owner, category, market_country,
                               serving_size, serving_unit, image, macro_id)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
            RETURNING id, rating, review_count, created_at, updated_at
        `
		err := tx.q.QueryRow(ctx, query,
			f.FdcID, f.Description, f.Brand, f.Category, f.MarketCountry,
			f.ServingSize, f.ServingUnit, f.Image, macroID,
		).Scan(&f.ID, &f.Rating, &f.ReviewCount, &f.CreatedAt, &f.UpdatedAt)
		if err != nil {
			return conflict(err, "create food")
		}
		return nil
	})
}

// UpdateFood rewrites the catalog fields and upserts the macro profile.
// A nil Macros leaves the stored profile untouched.
func (q *Queries) UpdateFood(ctx context.Context, f *models.FoodItem) error {
	return inTx(ctx, q.q, func(tx *Queries) error {
		var current *int64
		err := tx.q.QueryRow(ctx, `SELECT macro_id FROM foods WHERE id = $1 FOR UPDATE`, f.ID).Scan(&current)
		if err != nil {
			return notFound(err, "get food")
		}

		if f.Macros != nil {
			if current != nil {
				f.Macros.ID = *current
				if err := tx.updateMacros(ctx, f.Macros); err != nil {
					return err
				}
			} else {
				if err := tx.insertMacros(ctx, f.Macros); err != nil {
					return err
				}
				current = &f.Macros.ID
			}
		}

		query := `
            UPDATE foods
            SET fdc_id = $2, description = $3, brand_owner = $4, category = $5, market_country = $6,
                serving_size = $7, serving_unit = $8, image = $9, macro_id = $10, updated_at = NOW()
            WHERE id = $1
            RETURNING rating, review_count, created_at, updated_at
        `
		err = tx.q.QueryRow(ctx, query,
			f.ID, f.FdcID, f.Description, f.Brand, f.Category, f.MarketCountry,
			f.ServingSize, f.ServingUnit, f.Image, current,
		).Scan(&f.Rating, &f.ReviewCount, &f.CreatedAt, &f.UpdatedAt)
		if err != nil {
			return conflict(err, "update food")
		}
		return nil
	})
}

// DeleteFood removes the food and the macro profile it owns. Meals that
// reference it keep their snapshot totals.
func (q *Queries) DeleteFood(ctx context.Context, id int64) error {
	return inTx(ctx, q.q, func(tx *Queries) error {
		var macroID *int64
		err := tx.q.QueryRow(ctx, `DELETE FROM foods WHERE id = $1 RETURNING macro_id`, id).Scan(&macroID)
		if err != nil {
			return notFound(err, "delete food")
		}
		if macroID != nil {
			if _, err := tx.q.Exec(ctx, `DELETE FROM macros WHERE id = $1`, *macroID); err != nil {
				return fmt.Errorf("failed to delete macros: %w", err)
			}
		}
		return nil
	})
}

func (q *Queries) AddReview(ctx context.Context, r *models.Review) error {
	return inTx(ctx, q.q, func(tx *Queries) error {
		query := `
            INSERT INTO reviews (food_id, user_id, name, rating, comment)
            VALUES ($1, $2, $3, $4, $5)
            RETURNING id, created_at
        `
		err := tx.q.QueryRow(ctx, query, r.FoodID, r.UserID, r.Name, r.Rating, r.Comment).Scan(&r.ID, &r.CreatedAt)
		if err != nil {
			return conflict(err, "add review")
		}

		tag, err := tx.q.Exec(ctx, `
            UPDATE foods
            SET rating       = (SELECT AVG(rating) FROM reviews WHERE food_id = $1),
                review_count = (SELECT COUNT(*)    FROM reviews WHERE food_id = $1),
                updated_at   = NOW()
            WHERE id = $1
        `, r.FoodID)
		if err != nil {
			return fmt.Errorf("failed to recompute rating: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return store.ErrNotFound
		}
		return nil
	})
}
