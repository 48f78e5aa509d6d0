package api

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tastegen/backend/internal/service"
)

// GenerateRequest configures a pipeline run. Booleans default to true so a
// bare POST generates, saves and narrates.
type GenerateRequest struct {
	Count          int    `json:"count"`
	BatchSize      int    `json:"batchSize"`
	Theme          string `json:"theme"`
	SaveToDatabase *bool  `json:"saveToDatabase"`
	GenerateAudio  *bool  `json:"generateAudio"`
}

// GenerateHandler triggers and reports on pipeline runs.
type GenerateHandler struct {
	pipeline service.PipelineRunner
	recipes  *service.RecipeService
}

func NewGenerateHandler(pipeline service.PipelineRunner, recipes *service.RecipeService) *GenerateHandler {
	return &GenerateHandler{pipeline: pipeline, recipes: recipes}
}

func (h *GenerateHandler) Generate(c *gin.Context) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid request body"})
		return
	}

	pipelineReq := service.PipelineRequest{
		Count:          req.Count,
		BatchSize:      req.BatchSize,
		Theme:          req.Theme,
		SaveToDatabase: req.SaveToDatabase == nil || *req.SaveToDatabase,
		GenerateAudio:  req.GenerateAudio == nil || *req.GenerateAudio,
	}

	result, err := h.pipeline.Run(c.Request.Context(), pipelineReq)
	if err != nil {
		log.Printf("[API] Pipeline run failed: %v", err)
		failure := gin.H{
			"success": false,
			"error":   "recipe generation failed",
			"details": err.Error(),
		}
		if result != nil {
			failure["stats"] = result.Stats
		}
		c.JSON(http.StatusInternalServerError, failure)
		return
	}

	resp := gin.H{
		"success":       true,
		"message":       "recipe generation complete",
		"stats":         result.Stats,
		"sampleRecipes": result.SampleRecipes,
	}
	if len(result.GenerationFailures) > 0 {
		resp["generationFailures"] = result.GenerationFailures
	}
	if result.Recipes != nil {
		resp["recipes"] = result.Recipes
	}

	c.JSON(http.StatusOK, resp)
}

// Status reports corpus totals for pollers watching a long run.
func (h *GenerateHandler) Status(c *gin.Context) {
	stats, err := h.recipes.Stats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to compute stats"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":          true,
		"totalRecipes":     stats.Total,
		"recipesWithAudio": stats.WithAudio,
	})
}
