package db

import (
	"context"
	"fmt"
	"time"

	"nutrilog/internal/models"
	"nutrilog/internal/nutrition"
	"nutrilog/internal/store"
)

const logColumns = `id, user_id, log_date, total_calories, total_protein, total_carbs, total_fats,
	progress_calories, progress_protein, progress_carbs, progress_fats, updated_at`

func scanLog(row scanner) (*models.NutritionLog, error) {
	var l models.NutritionLog
	err := row.Scan(
		&l.ID, &l.UserID, &l.Date,
		&l.TotalCalories, &l.TotalMacros.Protein, &l.TotalMacros.Carbs, &l.TotalMacros.Fats,
		&l.ProgressTowardsGoal.Calories, &l.ProgressTowardsGoal.Protein,
		&l.ProgressTowardsGoal.Carbohydrates, &l.ProgressTowardsGoal.Fat,
		&l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// IncrementLedger is a single upsert: the unique (user_id, log_date) key
// serialises concurrent writers on the row, so no increment is lost.
func (q *Queries) IncrementLedger(ctx context.Context, userID int64, day time.Time, delta nutrition.Totals) (*models.NutritionLog, error) {
	query := `
        INSERT INTO nutrition_logs (user_id, log_date, total_calories, total_protein, total_carbs, total_fats)
        VALUES ($1, $2, $3, $4, $5, $6)
        ON CONFLICT (user_id, log_date) DO UPDATE
        SET total_calories = nutrition_logs.total_calories + EXCLUDED.total_calories,
            total_protein  = nutrition_logs.total_protein  + EXCLUDED.total_protein,
            total_carbs    = nutrition_logs.total_carbs    + EXCLUDED.total_carbs,
            total_fats     = nutrition_logs.total_fats     + EXCLUDED.total_fats,
            updated_at     = NOW()
        RETURNING ` + logColumns

	l, err := scanLog(q.q.QueryRow(ctx, query,
		userID, nutrition.NormalizeDate(day),
		delta.Calories, delta.Protein, delta.Carbohydrates, delta.Fat,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to increment nutrition log: %w", err)
	}
	return l, nil
}

func (q *Queries) ApplyLedgerDelta(ctx context.Context, userID int64, day time.Time, delta nutrition.Totals) (*models.NutritionLog, error) {
	query := `
        UPDATE nutrition_logs
        SET total_calories = total_calories + $3,
            total_protein  = total_protein  + $4,
            total_carbs    = total_carbs    + $5,
            total_fats     = total_fats     + $6,
            updated_at     = NOW()
        WHERE user_id = $1 AND log_date = $2
        RETURNING ` + logColumns

	l, err := scanLog(q.q.QueryRow(ctx, query,
		userID, nutrition.NormalizeDate(day),
		delta.Calories, delta.Protein, delta.Carbohydrates, delta.Fat,
	))
	if err != nil {
		return nil, notFound(err, "adjust nutrition log")
	}
	return l, nil
}

func (q *Queries) SetLedgerProgress(ctx context.Context, logID int64, p nutrition.Progress) error {
	query := `
        UPDATE nutrition_logs
        SET progress_calories = $2, progress_protein = $3, progress_carbs = $4, progress_fats = $5
        WHERE id = $1
    `

	tag, err := q.q.Exec(ctx, query, logID, p.Calories, p.Protein, p.Carbohydrates, p.Fat)
	if err != nil {
		return fmt.Errorf("failed to store progress: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (q *Queries) GetNutritionLog(ctx context.Context, userID int64, day time.Time) (*models.NutritionLog, error) {
	query := `SELECT ` + logColumns + ` FROM nutrition_logs WHERE user_id = $1 AND log_date = $2`

	l, err := scanLog(q.q.QueryRow(ctx, query, userID, nutrition.NormalizeDate(day)))
	if err != nil {
		return nil, notFound(err, "get nutrition log")
	}
	return l, nil
}

func (q *Queries) LatestNutritionLog(ctx context.Context, userID int64) (*models.NutritionLog, error) {
	query := `SELECT ` + logColumns + ` FROM nutrition_logs WHERE user_id = $1 ORDER BY log_date DESC LIMIT 1`

	l, err := scanLog(q.q.QueryRow(ctx, query, userID))
	if err != nil {
		return nil, notFound(err, "get latest nutrition log")
	}
	return l, nil
}

func (q *Queries) ListNutritionLogs(ctx context.Context, userID int64) ([]models.NutritionLog, error) {
	query := `SELECT ` + logColumns + ` FROM nutrition_logs WHERE user_id = $1 ORDER BY log_date DESC`

	rows, err := q.q.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list nutrition logs: %w", err)
	}
	defer rows.Close()

	logs := make([]models.NutritionLog, 0)
	for rows.Next() {
		l, err := scanLog(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan nutrition log: %w", err)
		}
		logs = append(logs, *l)
	}
	return logs, rows.Err()
}
