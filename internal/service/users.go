package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/mail"
	"strings"

	"nutrilog/internal/models"
	"nutrilog/internal/store"
)

// ProfileInput registers or edits a profile. On edit, empty strings and
// zero numbers leave the stored value unchanged.
type ProfileInput struct {
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	Picture       string     `json:"picture"`
	Age           int        `json:"age"`
	Weight        float64    `json:"weight"`
	Height        float64    `json:"height"`
	Gender        string     `json:"gender"`
	ActivityLevel string     `json:"activityLevel"`
	Goal          *GoalInput `json:"goal"`
}

func (in ProfileInput) validate(register bool) error {
	if register && strings.TrimSpace(in.Name) == "" {
		return invalid("name", "is required")
	}
	if register || in.Email != "" {
		if _, err := mail.ParseAddress(in.Email); err != nil {
			return invalid("email", "is not a valid address")
		}
	}
	if in.Age < 0 {
		return invalid("age", "must not be negative")
	}
	for _, v := range []struct {
		field string
		value float64
	}{{"weight", in.Weight}, {"height", in.Height}} {
		if math.IsNaN(v.value) || math.IsInf(v.value, 0) || v.value < 0 {
			return invalid(v.field, "must not be negative")
		}
	}
	if in.Gender != "" && !models.ValidGender(in.Gender) {
		return invalid("gender", "is not supported")
	}
	if in.ActivityLevel != "" && !models.ValidActivityLevel(in.ActivityLevel) {
		return invalid("activityLevel", "is not supported")
	}
	return nil
}

// patch copies the non-empty fields onto u.
func (in ProfileInput) patch(u *models.User) {
	if name := strings.TrimSpace(in.Name); name != "" {
		u.Name = name
	}
	if in.Email != "" {
		u.Email = strings.ToLower(strings.TrimSpace(in.Email))
	}
	if in.Picture != "" {
		u.Picture = in.Picture
	}
	if in.Age != 0 {
		u.Age = in.Age
	}
	if in.Weight != 0 {
		u.Weight = in.Weight
	}
	if in.Height != 0 {
		u.Height = in.Height
	}
	if in.Gender != "" {
		u.Gender = in.Gender
	}
	if in.ActivityLevel != "" {
		u.ActivityLevel = in.ActivityLevel
	}
}

// seedGoal is the zero-filled goal every new profile starts with.
func seedGoal() GoalInput {
	return GoalInput{GoalType: models.GoalMaintenance}
}

// newProfile validates a registration and builds the user and the goal it
// starts with. The goal in the input is used when given.
func (s *Service) newProfile(userID int64, in ProfileInput) (*models.User, *models.Goal, error) {
	if err := in.validate(true); err != nil {
		return nil, nil, err
	}
	goalIn := seedGoal()
	if in.Goal != nil {
		goalIn = *in.Goal
		if err := goalIn.validate(true); err != nil {
			return nil, nil, err
		}
	}

	u := &models.User{
		ID:            userID,
		Name:          strings.TrimSpace(in.Name),
		Email:         strings.ToLower(strings.TrimSpace(in.Email)),
		Picture:       in.Picture,
		Age:           in.Age,
		Weight:        in.Weight,
		Height:        in.Height,
		Gender:        in.Gender,
		ActivityLevel: in.ActivityLevel,
	}
	return u, s.goalFrom(userID, goalIn), nil
}

func createProfile(ctx context.Context, tx store.Repository, u *models.User, goal *models.Goal) error {
	if err := tx.CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return invalid("email", "user already exists")
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	if err := tx.UpsertGoal(ctx, goal); err != nil {
		return fmt.Errorf("failed to seed goal: %w", err)
	}
	return nil
}

// Register creates the caller's profile and seeds their goal in one
// transaction.
func (s *Service) Register(ctx context.Context, userID int64, in ProfileInput) (*models.Profile, error) {
	u, goal, err := s.newProfile(userID, in)
	if err != nil {
		return nil, err
	}
	err = s.store.InTx(ctx, func(tx store.Repository) error {
		return createProfile(ctx, tx, u, goal)
	})
	if err != nil {
		return nil, err
	}

	s.log.Infow("user registered", "user_id", u.ID)
	return &models.Profile{User: *u, Goal: goal}, nil
}

func (s *Service) Profile(ctx context.Context, userID int64) (*models.Profile, error) {
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, notFoundOr(err, "user", userID)
	}
	goal, err := s.MyGoal(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &models.Profile{User: *u, Goal: goal}, nil
}

// UpdateProfile patches the caller's profile. A goal in the input replaces
// the current goal.
func (s *Service) UpdateProfile(ctx context.Context, userID int64, in ProfileInput) (*models.Profile, error) {
	if err := in.validate(false); err != nil {
		return nil, err
	}
	if in.Goal != nil {
		if err := in.Goal.validate(false); err != nil {
			return nil, err
		}
	}

	err := s.store.InTx(ctx, func(tx store.Repository) error {
		u, err := tx.GetUser(ctx, userID)
		if err != nil {
			return notFoundOr(err, "user", userID)
		}
		in.patch(u)
		if err := tx.UpdateUser(ctx, u); err != nil {
			switch {
			case errors.Is(err, store.ErrConflict):
				return invalid("email", "is already in use")
			case errors.Is(err, store.ErrNotFound):
				return &NotFoundError{Resource: "user", ID: userID}
			}
			return fmt.Errorf("failed to update user: %w", err)
		}
		if in.Goal != nil {
			if err := tx.UpsertGoal(ctx, s.goalFrom(userID, *in.Goal)); err != nil {
				return fmt.Errorf("failed to save goal: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Profile(ctx, userID)
}

func (s *Service) ListUsers(ctx context.Context) ([]models.User, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (s *Service) GetUser(ctx context.Context, id int64) (*models.User, error) {
	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "user", id)
	}
	return u, nil
}

// AdminUserInput is an admin edit of another account. Empty fields and a
// nil IsAdmin keep the stored value.
type AdminUserInput struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	IsAdmin *bool  `json:"isAdmin"`
}

func (s *Service) UpdateUser(ctx context.Context, id int64, in AdminUserInput) (*models.User, error) {
	if in.Email != "" {
		if _, err := mail.ParseAddress(in.Email); err != nil {
			return nil, invalid("email", "is not a valid address")
		}
	}

	var u *models.User
	err := s.store.InTx(ctx, func(tx store.Repository) error {
		var err error
		u, err = tx.GetUser(ctx, id)
		if err != nil {
			return notFoundOr(err, "user", id)
		}
		if name := strings.TrimSpace(in.Name); name != "" {
			u.Name = name
		}
		if in.Email != "" {
			u.Email = strings.ToLower(strings.TrimSpace(in.Email))
		}
		if in.IsAdmin != nil {
			u.IsAdmin = *in.IsAdmin
		}
		if err := tx.UpdateUser(ctx, u); err != nil {
			if errors.Is(err, store.ErrConflict) {
				return invalid("email", "is already in use")
			}
			return notFoundOr(err, "user", id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Infow("user updated by admin", "user_id", id, "is_admin", u.IsAdmin)
	return u, nil
}

// DeleteUser removes an account and its goal. Admin accounts cannot be
// deleted. Meals and daily logs stay as history.
func (s *Service) DeleteUser(ctx context.Context, id int64) error {
	err := s.store.InTx(ctx, func(tx store.Repository) error {
		u, err := tx.GetUser(ctx, id)
		if err != nil {
			return notFoundOr(err, "user", id)
		}
		if u.IsAdmin {
			return invalid("", "cannot delete admin user")
		}
		if err := tx.DeleteUser(ctx, id); err != nil {
			return notFoundOr(err, "user", id)
		}
		g, err := tx.GetGoalForUser(ctx, id)
		switch {
		case errors.Is(err, store.ErrNotFound):
			return nil
		case err != nil:
			return fmt.Errorf("failed to load goal: %w", err)
		}
		if err := tx.DeleteGoal(ctx, g.ID); err != nil {
			return fmt.Errorf("failed to delete goal: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.log.Infow("user deleted", "user_id", id)
	return nil
}
