// Package mocks provides function-backed fakes for the service interfaces.
package mocks

import (
	"context"

	"github.com/google/uuid"

	"github.com/tastegen/backend/internal/model"
	"github.com/tastegen/backend/internal/recipe"
	"github.com/tastegen/backend/internal/service"
)

// Generator fakes service.RecipeGenerator.
type Generator struct {
	GenerateMassRecipesFunc   func(ctx context.Context, totalCount, batchSize int, onProgress service.ProgressFunc) ([]map[string]any, []service.BatchFailure)
	GenerateThemedRecipesFunc func(ctx context.Context, theme string, count int) ([]map[string]any, error)
}

func (m *Generator) GenerateMassRecipes(ctx context.Context, totalCount, batchSize int, onProgress service.ProgressFunc) ([]map[string]any, []service.BatchFailure) {
	return m.GenerateMassRecipesFunc(ctx, totalCount, batchSize, onProgress)
}

func (m *Generator) GenerateThemedRecipes(ctx context.Context, theme string, count int) ([]map[string]any, error) {
	return m.GenerateThemedRecipesFunc(ctx, theme, count)
}

// Narrator fakes service.Narrator.
type Narrator struct {
	GenerateNarrationFunc func(ctx context.Context, recipeID uuid.UUID, name string, ingredients []recipe.Ingredient, instructions []string) (string, string, error)
}

func (m *Narrator) GenerateNarration(ctx context.Context, recipeID uuid.UUID, name string, ingredients []recipe.Ingredient, instructions []string) (string, string, error) {
	return m.GenerateNarrationFunc(ctx, recipeID, name, ingredients, instructions)
}

// Store fakes service.RecipeStore.
type Store struct {
	InsertManyFunc  func(ctx context.Context, rows []*model.Recipe) ([]*model.Recipe, error)
	UpdateMediaFunc func(ctx context.Context, id uuid.UUID, update service.MediaUpdate) error
}

func (m *Store) InsertMany(ctx context.Context, rows []*model.Recipe) ([]*model.Recipe, error) {
	if m.InsertManyFunc == nil {
		for _, row := range rows {
			if row.ID == uuid.Nil {
				row.ID = uuid.New()
			}
		}
		return rows, nil
	}
	return m.InsertManyFunc(ctx, rows)
}

func (m *Store) UpdateMedia(ctx context.Context, id uuid.UUID, update service.MediaUpdate) error {
	if m.UpdateMediaFunc == nil {
		return nil
	}
	return m.UpdateMediaFunc(ctx, id, update)
}

// Planner fakes service.PlanGenerator.
type Planner struct {
	GenerateMealPlanFunc   func(ctx context.Context, prefs service.PlanPreferences, currentCalories int) (string, error)
	GenerateWeeklyPlanFunc func(ctx context.Context, preferences string) ([]service.PlanMeal, error)
}

func (m *Planner) GenerateMealPlan(ctx context.Context, prefs service.PlanPreferences, currentCalories int) (string, error) {
	if m.GenerateMealPlanFunc == nil {
		return "Day 1: oatmeal for breakfast.", nil
	}
	return m.GenerateMealPlanFunc(ctx, prefs, currentCalories)
}

func (m *Planner) GenerateWeeklyPlan(ctx context.Context, preferences string) ([]service.PlanMeal, error) {
	if m.GenerateWeeklyPlanFunc == nil {
		return []service.PlanMeal{{Type: "breakfast", Name: "Oatmeal"}}, nil
	}
	return m.GenerateWeeklyPlanFunc(ctx, preferences)
}

// Runner fakes service.PipelineRunner.
type Runner struct {
	RunFunc func(ctx context.Context, req service.PipelineRequest) (*service.PipelineResult, error)
}

func (m *Runner) Run(ctx context.Context, req service.PipelineRequest) (*service.PipelineResult, error) {
	return m.RunFunc(ctx, req)
}

// ObjectStore fakes service.ObjectStore, recording every upload.
type ObjectStore struct {
	PutFunc func(ctx context.Context, key string, data []byte, contentType string) (string, error)

	Keys         []string
	ContentTypes []string
	Payloads     [][]byte
}

func (m *ObjectStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	m.Keys = append(m.Keys, key)
	m.ContentTypes = append(m.ContentTypes, contentType)
	m.Payloads = append(m.Payloads, data)
	if m.PutFunc != nil {
		return m.PutFunc(ctx, key, data, contentType)
	}
	return "https://media.test/" + key, nil
}
