package service

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"nutrilog/internal/models"
	"nutrilog/internal/store"
)

// SeedUser is an account to create when seeding. ID is the token subject
// the account will sign in as.
type SeedUser struct {
	ID      int64 `json:"id"`
	IsAdmin bool  `json:"isAdmin"`
	ProfileInput
}

// SeedData is the content of a seed file: accounts and catalog foods.
type SeedData struct {
	Users []SeedUser  `json:"users"`
	Foods []FoodInput `json:"foods"`
}

type SeedResult struct {
	Users int `json:"users"`
	Foods int `json:"foods"`
}

func ReadSeedFile(path string) (*SeedData, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	var data SeedData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to parse seed file %s: %w", path, err)
	}
	return &data, nil
}

// Seed loads accounts and foods in one transaction. Nothing is written if
// any entry is invalid or already exists.
func (s *Service) Seed(ctx context.Context, data SeedData) (*SeedResult, error) {
	type profile struct {
		user *models.User
		goal *models.Goal
	}
	profiles := make([]profile, 0, len(data.Users))
	for i, su := range data.Users {
		if su.ID <= 0 {
			return nil, fmt.Errorf("seed user %d: %w", i, invalid("id", "must be positive"))
		}
		u, goal, err := s.newProfile(su.ID, su.ProfileInput)
		if err != nil {
			return nil, fmt.Errorf("seed user %d: %w", i, err)
		}
		u.IsAdmin = su.IsAdmin
		profiles = append(profiles, profile{u, goal})
	}
	for i, f := range data.Foods {
		if err := f.validate(); err != nil {
			return nil, fmt.Errorf("seed food %d: %w", i, err)
		}
	}

	err := s.store.InTx(ctx, func(tx store.Repository) error {
		for _, p := range profiles {
			if err := createProfile(ctx, tx, p.user, p.goal); err != nil {
				return fmt.Errorf("seed user %d: %w", p.user.ID, err)
			}
		}
		for i, f := range data.Foods {
			if err := tx.CreateFood(ctx, f.item(0)); err != nil {
				return fmt.Errorf("seed food %d (%s): %w", i, f.Description, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	res := &SeedResult{Users: len(profiles), Foods: len(data.Foods)}
	s.log.Infow("seed loaded", "users", res.Users, "foods", res.Foods)
	return res, nil
}
