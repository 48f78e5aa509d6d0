package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tastegen/backend/internal/service"
)

// AudioHandler attaches narration audio to recipes. backfillLimit bounds
// how many recipes one backfill call may narrate; it tracks the pipeline's
// audio cap so both audio bounds come from the same setting.
type AudioHandler struct {
	recipes       *service.RecipeService
	narrator      service.Narrator
	backfillLimit int
}

func NewAudioHandler(recipes *service.RecipeService, narrator service.Narrator, backfillLimit int) *AudioHandler {
	if backfillLimit <= 0 {
		backfillLimit = 50
	}
	return &AudioHandler{recipes: recipes, narrator: narrator, backfillLimit: backfillLimit}
}

// Narrate generates narration for one recipe. Recipes that already carry
// audio are returned as-is; narration is idempotent at this level.
func (h *AudioHandler) Narrate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid recipe ID"})
		return
	}

	row, err := h.recipes.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrRecipeNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "recipe not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch recipe"})
		return
	}

	if row.AudioURL != "" {
		c.JSON(http.StatusOK, gin.H{
			"success":              true,
			"audioUrl":             row.AudioURL,
			"detailedInstructions": row.DetailedInstructions,
			"alreadyNarrated":      true,
		})
		return
	}

	audioURL, script, err := h.narrator.GenerateNarration(c.Request.Context(), row.ID, row.Name, row.Ingredients, row.Instructions)
	if err != nil {
		log.Printf("[API] Narration failed for recipe %s: %v", row.ID, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "narration failed"})
		return
	}

	if err := h.recipes.UpdateMedia(c.Request.Context(), row.ID, service.MediaUpdate{
		AudioURL:             &audioURL,
		DetailedInstructions: &script,
	}); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save audio URL"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":              true,
		"audioUrl":             audioURL,
		"detailedInstructions": script,
	})
}

// Backfill narrates a batch of recipes that have no audio yet.
func (h *AudioHandler) Backfill(c *gin.Context) {
	limit := intQuery(c, "limit", h.backfillLimit)
	if limit > h.backfillLimit {
		limit = h.backfillLimit
	}

	rows, err := h.recipes.ListWithoutAudio(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list recipes"})
		return
	}

	narrated := 0
	failed := 0
	for _, row := range rows {
		audioURL, script, err := h.narrator.GenerateNarration(c.Request.Context(), row.ID, row.Name, row.Ingredients, row.Instructions)
		if err != nil {
			log.Printf("[API] Backfill narration failed for recipe %s: %v", row.ID, err)
			failed++
			continue
		}

		if err := h.recipes.UpdateMedia(c.Request.Context(), row.ID, service.MediaUpdate{
			AudioURL:             &audioURL,
			DetailedInstructions: &script,
		}); err != nil {
			log.Printf("[API] Backfill update failed for recipe %s: %v", row.ID, err)
			failed++
			continue
		}
		narrated++
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"eligible": len(rows),
		"narrated": narrated,
		"failed":   failed,
	})
}
