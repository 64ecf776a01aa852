package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"

	"nutrilog/internal/models"
)

const goalColumns = `g.id, g.user_id, g.goal_type, g.target_weight, g.daily_calorie_goal, g.macro_id,
	g.start_date, g.end_date, m.protein, m.carbohydrates, m.fat`

const goalFrom = ` FROM goals g JOIN macros m ON m.id = g.macro_id`

func scanGoal(row scanner) (*models.Goal, error) {
	var g models.Goal
	err := row.Scan(
		&g.ID, &g.UserID, &g.GoalType, &g.TargetWeight, &g.DailyCalorieGoal, &g.MacroID,
		&g.StartDate, &g.EndDate,
		&g.DailyMacrosGoal.Protein, &g.DailyMacrosGoal.Carbs, &g.DailyMacrosGoal.Fats,
	)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (q *Queries) GetGoalForUser(ctx context.Context, userID int64) (*models.Goal, error) {
	g, err := scanGoal(q.q.QueryRow(ctx, `SELECT `+goalColumns+goalFrom+` WHERE g.user_id = $1`, userID))
	if err != nil {
		return nil, notFound(err, "get goal")
	}
	return g, nil
}

func (q *Queries) GetGoal(ctx context.Context, id int64) (*models.Goal, error) {
	g, err := scanGoal(q.q.QueryRow(ctx, `SELECT `+goalColumns+goalFrom+` WHERE g.id = $1`, id))
	if err != nil {
		return nil, notFound(err, "get goal")
	}
	return g, nil
}

func (q *Queries) ListGoals(ctx context.Context) ([]models.Goal, error) {
	rows, err := q.q.Query(ctx, `SELECT `+goalColumns+goalFrom+` ORDER BY g.id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list goals: %w", err)
	}
	defer rows.Close()

	goals := make([]models.Goal, 0)
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan goal: %w", err)
		}
		goals = append(goals, *g)
	}
	return goals, rows.Err()
}

// UpsertGoal writes a fresh macro row and points the user's single goal row
// at it, dropping the macro row of the goal it supersedes.
func (q *Queries) UpsertGoal(ctx context.Context, g *models.Goal) error {
	return inTx(ctx, q.q, func(tx *Queries) error {
		macros := g.MacroProfile()
		if err := tx.insertMacros(ctx, &macros); err != nil {
			return err
		}

		var previous *int64
		err := tx.q.QueryRow(ctx, `SELECT macro_id FROM goals WHERE user_id = $1 FOR UPDATE`, g.UserID).Scan(&previous)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("failed to load current goal: %w", err)
		}

		query := `
            INSERT INTO goals (user_id, goal_type, target_weight, daily_calorie_goal, macro_id, start_date, end_date)
            VALUES ($1, $2, $3, $4, $5, $6, $7)
            ON CONFLICT (user_id) DO UPDATE
            SET goal_type = $2, target_weight = $3, daily_calorie_goal = $4, macro_id = $5,
                start_date = $6, end_date = $7
            RETURNING id
        `
		err = tx.q.QueryRow(ctx, query,
			g.UserID, g.GoalType, g.TargetWeight, g.DailyCalorieGoal, macros.ID, g.StartDate, g.EndDate,
		).Scan(&g.ID)
		if err != nil {
			return fmt.Errorf("failed to save goal: %w", err)
		}
		g.MacroID = macros.ID

		if previous != nil {
			if _, err := tx.q.Exec(ctx, `DELETE FROM macros WHERE id = $1`, *previous); err != nil {
				return fmt.Errorf("failed to drop superseded macros: %w", err)
			}
		}
		return nil
	})
}

func (q *Queries) UpdateGoal(ctx context.Context, g *models.Goal) error {
	return inTx(ctx, q.q, func(tx *Queries) error {
		query := `
            UPDATE goals
            SET goal_type = $2, target_weight = $3, daily_calorie_goal = $4, start_date = $5, end_date = $6
            WHERE id = $1
            RETURNING macro_id
        `
		err := tx.q.QueryRow(ctx, query,
			g.ID, g.GoalType, g.TargetWeight, g.DailyCalorieGoal, g.StartDate, g.EndDate,
		).Scan(&g.MacroID)
		if err != nil {
			return notFound(err, "update goal")
		}
		macros := g.MacroProfile()
		return tx.updateMacros(ctx, &macros)
	})
}

func (q *Queries) DeleteGoal(ctx context.Context, id int64) error {
	return inTx(ctx, q.q, func(tx *Queries) error {
		var macroID int64
		err := tx.q.QueryRow(ctx, `DELETE FROM goals WHERE id = $1 RETURNING macro_id`, id).Scan(&macroID)
		if err != nil {
			return notFound(err, "delete goal")
		}
		if _, err := tx.q.Exec(ctx, `DELETE FROM macros WHERE id = $1`, macroID); err != nil {
			return fmt.Errorf("failed to delete macros: %w", err)
		}
		return nil
	})
}
