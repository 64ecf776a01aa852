package db

import (
	"context"
	"fmt"
)

// schema is applied on startup. Every statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id             BIGINT PRIMARY KEY,
		name           TEXT NOT NULL,
		email          TEXT NOT NULL UNIQUE,
		picture        TEXT NOT NULL DEFAULT '/images/user_images/default.jpg',
		age            INT NOT NULL DEFAULT 0,
		weight         DOUBLE PRECISION NOT NULL DEFAULT 0,
		height         DOUBLE PRECISION NOT NULL DEFAULT 0,
		gender         TEXT NOT NULL DEFAULT '',
		activity_level TEXT NOT NULL DEFAULT '',
		is_admin       BOOLEAN NOT NULL DEFAULT FALSE,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS macros (
		id            BIGSERIAL PRIMARY KEY,
		calories      DOUBLE PRECISION NOT NULL CHECK (calories >= 0),
		protein       DOUBLE PRECISION NOT NULL CHECK (protein >= 0),
		fat           DOUBLE PRECISION NOT NULL CHECK (fat >= 0),
		carbohydrates DOUBLE PRECISION NOT NULL CHECK (carbohydrates >= 0),
		fiber         DOUBLE PRECISION CHECK (fiber >= 0),
		sugar         DOUBLE PRECISION CHECK (sugar >= 0)
	)`,
	`CREATE TABLE IF NOT EXISTS foods (
		id             BIGSERIAL PRIMARY KEY,
		fdc_id         BIGINT UNIQUE,
		description    TEXT NOT NULL,
		brand_owner    TEXT NOT NULL DEFAULT '',
		category       TEXT NOT NULL DEFAULT '',
		market_country TEXT NOT NULL DEFAULT '',
		serving_size   DOUBLE PRECISION NOT NULL DEFAULT 1,
		serving_unit   TEXT NOT NULL DEFAULT 'g',
		image          TEXT NOT NULL DEFAULT '',
		macro_id       BIGINT REFERENCES macros(id) ON DELETE SET NULL,
		rating         DOUBLE PRECISION NOT NULL DEFAULT 0 CHECK (rating >= 0 AND rating <= 5),
		review_count   INT NOT NULL DEFAULT 0 CHECK (review_count >= 0),
		created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS reviews (
		id         BIGSERIAL PRIMARY KEY,
		food_id    BIGINT NOT NULL REFERENCES foods(id) ON DELETE CASCADE,
		user_id    BIGINT NOT NULL,
		name       TEXT NOT NULL,
		rating     DOUBLE PRECISION NOT NULL CHECK (rating >= 1 AND rating <= 5),
		comment    TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT reviews_food_user_key UNIQUE (food_id, user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS goals (
		id                 BIGSERIAL PRIMARY KEY,
		user_id            BIGINT NOT NULL,
		goal_type          TEXT NOT NULL,
		target_weight      DOUBLE PRECISION,
		daily_calorie_goal DOUBLE PRECISION NOT NULL CHECK (daily_calorie_goal >= 0),
		macro_id           BIGINT NOT NULL REFERENCES macros(id),
		start_date         TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		end_date           TIMESTAMPTZ,
		CONSTRAINT goals_user_key UNIQUE (user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS meals (
		id             BIGSERIAL PRIMARY KEY,
		user_id        BIGINT NOT NULL,
		meal_date      TIMESTAMPTZ NOT NULL,
		total_calories DOUBLE PRECISION NOT NULL,
		total_protein  DOUBLE PRECISION NOT NULL,
		total_carbs    DOUBLE PRECISION NOT NULL,
		total_fats     DOUBLE PRECISION NOT NULL,
		created_via    TEXT NOT NULL,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS meals_user_date_idx ON meals (user_id, meal_date DESC)`,
	`CREATE TABLE IF NOT EXISTS meal_items (
		meal_id  BIGINT NOT NULL REFERENCES meals(id) ON DELETE CASCADE,
		position INT NOT NULL,
		food_id  BIGINT NOT NULL,
		quantity DOUBLE PRECISION NOT NULL CHECK (quantity > 0),
		PRIMARY KEY (meal_id, position)
	)`,
	// One row per user per calendar day. The compound key is what keeps
	// concurrent first-meal-of-the-day inserts from splitting the ledger.
	`CREATE TABLE IF NOT EXISTS nutrition_logs (
		id                BIGSERIAL PRIMARY KEY,
		user_id           BIGINT NOT NULL,
		log_date          DATE NOT NULL,
		total_calories    DOUBLE PRECISION NOT NULL DEFAULT 0,
		total_protein     DOUBLE PRECISION NOT NULL DEFAULT 0,
		total_carbs       DOUBLE PRECISION NOT NULL DEFAULT 0,
		total_fats        DOUBLE PRECISION NOT NULL DEFAULT 0,
		progress_calories DOUBLE PRECISION,
		progress_protein  DOUBLE PRECISION,
		progress_carbs    DOUBLE PRECISION,
		progress_fats     DOUBLE PRECISION,
		updated_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT nutrition_logs_user_date_key UNIQUE (user_id, log_date)
	)`,
}

// Migrate creates any missing tables and indexes.
func (db *PostgresDB) Migrate(ctx context.Context) error {
	for i, stmt := range schema {
		if _, err := db.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement %d: %w", i, err)
		}
	}
	return nil
}
