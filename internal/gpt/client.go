// internal/gpt/client.go
package gpt

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"nutrilog/internal/models"
	"nutrilog/internal/nutrition"
)

const (
	defaultModel = "gpt-4o-mini"
	systemPrompt = "You are a helpful nutrition coach."
)

type Client struct {
	client *openai.Client
	model  string
}

func NewClient(apiKey string) *Client {
	return NewClientWithBaseURL(apiKey, "")
}

// NewClientWithBaseURL points the client at an OpenAI-compatible endpoint.
// An empty baseURL keeps the public API.
func NewClientWithBaseURL(apiKey, baseURL string) *Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &Client{
		client: openai.NewClientWithConfig(cfg),
		model:  defaultModel,
	}
}

func (c *Client) WithModel(model string) *Client {
	if model != "" {
		c.model = model
	}
	return c
}

// Suggest asks for three short suggestions that would move the day's intake
// towards the goal. goal may be nil.
func (c *Client) Suggest(ctx context.Context, log *models.NutritionLog, goal *models.Goal) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: systemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildPrompt(log, goal),
			},
		},
		MaxTokens:   200,
		Temperature: 0.7,
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("failed to get suggestion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from GPT API")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func buildPrompt(log *models.NutritionLog, goal *models.Goal) string {
	var b strings.Builder
	if goal != nil && goal.DailyCalorieGoal > 0 {
		fmt.Fprintf(&b,
			"My goal is %s: %.0f calories, %.0fg protein, %.0fg carbs and %.0fg fats per day.\n",
			goal.GoalType, goal.DailyCalorieGoal,
			goal.DailyMacrosGoal.Protein, goal.DailyMacrosGoal.Carbs, goal.DailyMacrosGoal.Fats,
		)
	} else {
		b.WriteString("I have not set a nutrition goal yet.\n")
	}
	fmt.Fprintf(&b,
		"On %s I ate %.0f calories, %.0fg protein, %.0fg carbs and %.0fg fats.\n",
		log.Date.Format(nutrition.DateLayout), log.TotalCalories,
		log.TotalMacros.Protein, log.TotalMacros.Carbs, log.TotalMacros.Fats,
	)
	b.WriteString("Give me 3 short, practical suggestions to improve my diet based on this.")
	return b.String()
}
