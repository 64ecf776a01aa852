package service

import (
	"context"

	"nutrilog/internal/models"
)

// Suggestion is the coaching text for the caller's latest day. Error is set
// instead of failing the request when the AI call does not succeed.
type Suggestion struct {
	Suggestion string               `json:"suggestion"`
	Error      string               `json:"error,omitempty"`
	Log        *models.NutritionLog `json:"nutritionLog"`
	Goal       *models.Goal         `json:"goal"`
}

const suggestionUnavailable = "suggestions are temporarily unavailable"

func (s *Service) Suggest(ctx context.Context, userID int64) (*Suggestion, error) {
	entry, err := s.store.LatestNutritionLog(ctx, userID)
	if err != nil {
		return nil, notFoundOr(err, "nutrition log", "latest")
	}
	goal, err := s.MyGoal(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := &Suggestion{Log: entry, Goal: goal}
	if s.coach == nil {
		out.Error = suggestionUnavailable
		return out, nil
	}

	text, err := s.coach.Suggest(ctx, entry, goal)
	if err != nil {
		s.log.Errorw("failed to generate suggestion", "user_id", userID, "error", err)
		s.metrics.SuggestionFailed()
		out.Error = suggestionUnavailable
		return out, nil
	}
	out.Suggestion = text
	return out, nil
}
