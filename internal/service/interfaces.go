package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/tastegen/backend/internal/model"
	"github.com/tastegen/backend/internal/recipe"
)

// ProgressFunc is invoked after every generation batch, successful or not.
type ProgressFunc func(current, total int)

// RecipeGenerator produces raw recipe objects from the upstream
// text-generation API.
type RecipeGenerator interface {
	GenerateMassRecipes(ctx context.Context, totalCount, batchSize int, onProgress ProgressFunc) ([]map[string]any, []BatchFailure)
	GenerateThemedRecipes(ctx context.Context, theme string, count int) ([]map[string]any, error)
}

// Narrator synthesizes a narration for one recipe and stores the audio,
// returning the public URL and the narration script.
type Narrator interface {
	GenerateNarration(ctx context.Context, recipeID uuid.UUID, name string, ingredients []recipe.Ingredient, instructions []string) (audioURL, script string, err error)
}

// RecipeStore is the persistence surface the pipeline depends on.
type RecipeStore interface {
	InsertMany(ctx context.Context, rows []*model.Recipe) ([]*model.Recipe, error)
	UpdateMedia(ctx context.Context, id uuid.UUID, update MediaUpdate) error
}

// PipelineRunner executes one generate-validate-persist-narrate cycle.
type PipelineRunner interface {
	Run(ctx context.Context, req PipelineRequest) (*PipelineResult, error)
}

// PlanGenerator produces meal plans from the upstream text-generation API.
type PlanGenerator interface {
	GenerateMealPlan(ctx context.Context, prefs PlanPreferences, currentCalories int) (string, error)
	GenerateWeeklyPlan(ctx context.Context, preferences string) ([]PlanMeal, error)
}

// ObjectStore uploads a media object and returns its public URL.
// config.S3Config satisfies this.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}
