package service

import (
	"context"
	"encoding/json"
	"fmt"
)

// PlanPreferences describes what a personalized meal plan should honor.
type PlanPreferences struct {
	Diet          string `json:"diet"`
	Restrictions  string `json:"restrictions"`
	DailyCalories int    `json:"dailyCalories"`
	MealsPerDay   int    `json:"mealsPerDay"`
}

// PlanMeal is one meal of a structured weekly plan.
type PlanMeal struct {
	Type         string   `json:"type"`
	Name         string   `json:"name"`
	Ingredients  []string `json:"ingredients"`
	Instructions string   `json:"instructions"`
	PrepTime     int      `json:"prepTime"`
	Servings     int      `json:"servings"`
}

// GenerateMealPlan asks for a personalized seven-day meal plan as plain
// text. One call, no batching; currentCalories lets the plan account for
// what was already eaten today.
func (s *LLMService) GenerateMealPlan(ctx context.Context, prefs PlanPreferences, currentCalories int) (string, error) {
	diet := prefs.Diet
	if diet == "" {
		diet = "not specified"
	}
	restrictions := prefs.Restrictions
	if restrictions == "" {
		restrictions = "none"
	}
	mealsPerDay := prefs.MealsPerDay
	if mealsPerDay <= 0 {
		mealsPerDay = 3
	}

	prompt := fmt.Sprintf(`Create a personalized weekly meal plan based on the following information:

Diet type: %s
Dietary restrictions: %s
Daily calorie target: %d
Meals per day: %d
Calories already consumed today: %d

The plan must include:
- All 7 days of the week
- %d meals per day (breakfast, lunch, dinner, and snacks where applicable)
- An estimated calorie count per meal
- Simple, practical recipes
- Respect the restrictions and stay close to the calorie target

Format the plan clearly as plain text.`,
		diet, restrictions, prefs.DailyCalories, mealsPerDay, currentCalories, mealsPerDay)

	content, err := s.complete(ctx, chatRequest{
		Model: s.model,
		Messages: []chatMessage{
			{Role: "user", Content: prompt},
		},
		Temperature: 0.8,
		MaxTokens:   2000,
	})
	if err != nil {
		return "", err
	}

	return stripMarkdown(content), nil
}

// GenerateWeeklyPlan asks for a structured seven-day plan: four meals per
// day as a strict JSON object with a "meals" array.
func (s *LLMService) GenerateWeeklyPlan(ctx context.Context, preferences string) ([]PlanMeal, error) {
	if preferences == "" {
		preferences = "healthy, balanced, easy to prepare"
	}

	prompt := fmt.Sprintf(`Generate a healthy and varied weekly meal plan for 7 days. For each day include:
- Breakfast
- Lunch
- Dinner
- 1 Snack

Each meal must have:
- A recipe name
- A list of the main ingredients
- Basic preparation instructions
- Preparation time in minutes
- Number of servings

Preferences: %s

Return ONLY a JSON object with a "meals" array, where each meal has the properties: type (breakfast/lunch/dinner/snack), name, ingredients (array), instructions, prepTime, servings. No additional text.`, preferences)

	content, err := s.complete(ctx, chatRequest{
		Model: s.model,
		Messages: []chatMessage{
			{Role: "system", Content: "You are an assistant specializing in nutrition and meal planning. Always return valid JSON with a \"meals\" array."},
			{Role: "user", Content: prompt},
		},
		ResponseFormat: map[string]string{"type": "json_object"},
		Temperature:    0.7,
		MaxTokens:      2000,
	})
	if err != nil {
		return nil, err
	}

	var wrapper struct {
		Meals []PlanMeal `json:"meals"`
	}
	if err := json.Unmarshal([]byte(content), &wrapper); err != nil {
		return nil, fmt.Errorf("failed to parse meals array: %w", err)
	}
	if len(wrapper.Meals) == 0 {
		return nil, fmt.Errorf("invalid response format from API - no meals array found")
	}
	return wrapper.Meals, nil
}
