package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"

	"nutrilog/internal/models"
	"nutrilog/internal/store"
)

const userColumns = `id, name, email, picture, age, weight, height, gender, activity_level, is_admin, created_at, updated_at`

func scanUser(row scanner) (*models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID, &u.Name, &u.Email, &u.Picture, &u.Age, &u.Weight, &u.Height,
		&u.Gender, &u.ActivityLevel, &u.IsAdmin, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (q *Queries) CreateUser(ctx context.Context, u *models.User) error {
	query := `
        INSERT INTO users (id, name, email, picture, age, weight, height, gender, activity_level, is_admin)
        VALUES ($1, $2, $3, COALESCE(NULLIF($4, ''), '/images/user_images/default.jpg'), $5, $6, $7, $8, $9, $10)
        RETURNING picture, created_at, updated_at
    `

	err := q.q.QueryRow(ctx, query,
		u.ID, u.Name, u.Email, u.Picture, u.Age, u.Weight, u.Height,
		u.Gender, u.ActivityLevel, u.IsAdmin,
	).Scan(&u.Picture, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return conflict(err, "create user")
	}
	return nil
}

func (q *Queries) GetUser(ctx context.Context, id int64) (*models.User, error) {
	u, err := scanUser(q.q.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "get user")
	}
	return u, nil
}

func (q *Queries) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := q.q.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := make([]models.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (q *Queries) UpdateUser(ctx context.Context, u *models.User) error {
	query := `
        UPDATE users
        SET name = $2, email = $3, picture = $4, age = $5, weight = $6, height = $7,
            gender = $8, activity_level = $9, is_admin = $10, updated_at = NOW()
        WHERE id = $1
        RETURNING created_at, updated_at
    `

	err := q.q.QueryRow(ctx, query,
		u.ID, u.Name, u.Email, u.Picture, u.Age, u.Weight, u.Height, u.Gender, u.ActivityLevel, u.IsAdmin,
	).Scan(&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.ErrNotFound
		}
		return conflict(err, "update user")
	}
	return nil
}

func (q *Queries) DeleteUser(ctx context.Context, id int64) error {
	tag, err := q.q.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}
