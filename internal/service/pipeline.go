package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tastegen/backend/internal/model"
	"github.com/tastegen/backend/internal/recipe"
)

// progressKey is where live pipeline progress is mirrored for pollers.
const progressKey = "pipeline:progress"

// PipelineRequest configures one generation run.
type PipelineRequest struct {
	Count          int    `json:"count"`
	BatchSize      int    `json:"batchSize"`
	Theme          string `json:"theme"`
	SaveToDatabase bool   `json:"saveToDatabase"`
	GenerateAudio  bool   `json:"generateAudio"`
}

// PipelineStats counts what happened at each stage of a run.
type PipelineStats struct {
	Requested int `json:"requested"`
	Generated int `json:"generated"`
	Validated int `json:"validated"`
	Rejected  int `json:"rejected"`
	Saved     int `json:"saved"`
	WithAudio int `json:"withAudio"`
}

// PipelineResult is the outcome of one run. Recipes carries the full
// validated set only when the run did not persist; SampleRecipes always
// carries up to three for preview.
type PipelineResult struct {
	Stats              PipelineStats    `json:"stats"`
	Recipes            []*recipe.Recipe `json:"recipes,omitempty"`
	SampleRecipes      []*recipe.Recipe `json:"sampleRecipes,omitempty"`
	GenerationFailures []BatchFailure   `json:"generationFailures,omitempty"`
}

// PipelineService chains generation, validation, persistence and narration
// into one run.
type PipelineService struct {
	generator  RecipeGenerator
	store      RecipeStore
	narrator   Narrator
	redis      *redis.Client
	audioLimit int
}

// NewPipelineService creates a new PipelineService instance. redis may be
// nil; progress mirroring is then skipped.
func NewPipelineService(generator RecipeGenerator, store RecipeStore, narrator Narrator, redisClient *redis.Client, audioLimit int) *PipelineService {
	if audioLimit <= 0 {
		audioLimit = 50
	}
	return &PipelineService{
		generator:  generator,
		store:      store,
		narrator:   narrator,
		redis:      redisClient,
		audioLimit: audioLimit,
	}
}

// Run executes one generate-validate-persist-narrate cycle. Upstream batch
// failures and per-recipe rejections are absorbed into the stats; only a
// themed generation failure or a database insert failure aborts the run.
func (s *PipelineService) Run(ctx context.Context, req PipelineRequest) (*PipelineResult, error) {
	if req.Count <= 0 {
		req.Count = 100
	}
	if req.BatchSize <= 0 {
		req.BatchSize = 10
	}

	result := &PipelineResult{}
	result.Stats.Requested = req.Count

	log.Printf("[Pipeline] Starting run: count=%d batchSize=%d theme=%q save=%v audio=%v",
		req.Count, req.BatchSize, req.Theme, req.SaveToDatabase, req.GenerateAudio)

	// Stage 1: generate.
	var raw []map[string]any
	if req.Theme != "" {
		themed, err := s.generator.GenerateThemedRecipes(ctx, req.Theme, req.Count)
		if err != nil {
			return result, fmt.Errorf("themed generation failed: %w", err)
		}
		raw = themed
		s.publishProgress(ctx, "generating", len(raw), req.Count)
	} else {
		var failures []BatchFailure
		raw, failures = s.generator.GenerateMassRecipes(ctx, req.Count, req.BatchSize, func(current, total int) {
			s.publishProgress(ctx, "generating", current, total)
		})
		result.GenerationFailures = failures
	}
	result.Stats.Generated = len(raw)

	// Stage 2: validate.
	validated := make([]*recipe.Recipe, 0, len(raw))
	for _, item := range raw {
		r, rej := recipe.ValidateAndStandardize(item)
		if rej != nil {
			result.Stats.Rejected++
			log.Printf("[Pipeline] Rejected recipe %q: %s", item["name"], rej)
			continue
		}
		validated = append(validated, r)
	}
	result.Stats.Validated = len(validated)
	s.publishProgress(ctx, "validating", result.Stats.Validated, result.Stats.Generated)

	for i := 0; i < len(validated) && i < 3; i++ {
		result.SampleRecipes = append(result.SampleRecipes, validated[i])
	}

	if !req.SaveToDatabase {
		result.Recipes = validated
		s.publishProgress(ctx, "done", result.Stats.Validated, req.Count)
		return result, nil
	}

	// Stage 3: persist.
	rows := make([]*model.Recipe, 0, len(validated))
	for _, r := range validated {
		rows = append(rows, model.FromCanonical(r))
	}

	inserted, err := s.store.InsertMany(ctx, rows)
	result.Stats.Saved = len(inserted)
	if err != nil {
		s.publishProgress(ctx, "failed", result.Stats.Saved, req.Count)
		return result, fmt.Errorf("database insert failed: %w", err)
	}
	s.publishProgress(ctx, "saving", result.Stats.Saved, req.Count)

	// Stage 4: narrate.
	if req.GenerateAudio {
		limit := s.audioLimit
		if limit > len(inserted) {
			limit = len(inserted)
		}

		for i, row := range inserted[:limit] {
			audioURL, script, err := s.narrator.GenerateNarration(ctx, row.ID, row.Name, row.Ingredients, row.Instructions)
			if err != nil {
				log.Printf("[Pipeline] Narration failed for recipe %s: %v", row.ID, err)
				continue
			}

			if err := s.store.UpdateMedia(ctx, row.ID, MediaUpdate{
				AudioURL:             &audioURL,
				DetailedInstructions: &script,
			}); err != nil {
				log.Printf("[Pipeline] Failed to attach audio to recipe %s: %v", row.ID, err)
				continue
			}

			result.Stats.WithAudio++
			s.publishProgress(ctx, "narrating", i+1, limit)
		}
	}

	s.publishProgress(ctx, "done", result.Stats.Saved, req.Count)
	log.Printf("[Pipeline] Run complete: %+v", result.Stats)
	return result, nil
}

// publishProgress mirrors run progress to redis so the status endpoint can
// report it. Best effort; a missing or unreachable redis never fails a run.
func (s *PipelineService) publishProgress(ctx context.Context, stage string, current, total int) {
	if s.redis == nil {
		return
	}

	payload, err := json.Marshal(map[string]any{
		"stage":     stage,
		"current":   current,
		"total":     total,
		"updatedAt": time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return
	}

	if err := s.redis.Set(ctx, progressKey, payload, time.Hour).Err(); err != nil {
		log.Printf("[Pipeline] Failed to publish progress: %v", err)
	}
}
