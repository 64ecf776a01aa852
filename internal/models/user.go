// internal/models/user.go
package models

import (
	"time"
)

const (
	GenderMale   = "Male"
	GenderFemale = "Female"
	GenderOther  = "Other"
)

const (
	ActivitySedentary        = "Sedentary"
	ActivityLightlyActive    = "Lightly Active"
	ActivityModeratelyActive = "Moderately Active"
	ActivityVeryActive       = "Very Active"
)

// User is the profile of an authenticated account. ID is the subject of the
// caller's token.
type User struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Picture       string    `json:"picture"`
	Age           int       `json:"age"`
	Weight        float64   `json:"weight"`
	Height        float64   `json:"height"`
	Gender        string    `json:"gender"`
	ActivityLevel string    `json:"activityLevel"`
	IsAdmin       bool      `json:"isAdmin"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Profile is the user as returned to the client, with the goal attached.
type Profile struct {
	User
	Goal *Goal `json:"goal"`
}

func ValidGender(g string) bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther:
		return true
	}
	return false
}

func ValidActivityLevel(a string) bool {
	switch a {
	case ActivitySedentary, ActivityLightlyActive, ActivityModeratelyActive, ActivityVeryActive:
		return true
	}
	return false
}
