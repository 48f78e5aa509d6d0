package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tastegen/backend/internal/model"
	"github.com/tastegen/backend/internal/recipe"
	"github.com/tastegen/backend/internal/service"
)

// ImageHandler attaches generated images to recipes.
type ImageHandler struct {
	recipes *service.RecipeService
	images  *service.ImageService
}

func NewImageHandler(recipes *service.RecipeService, images *service.ImageService) *ImageHandler {
	return &ImageHandler{recipes: recipes, images: images}
}

// GenerateImage creates a hero image for one recipe.
func (h *ImageHandler) GenerateImage(c *gin.Context) {
	row, ok := h.fetch(c)
	if !ok {
		return
	}

	if row.ImageURL != "" {
		c.JSON(http.StatusOK, gin.H{"success": true, "imageUrl": row.ImageURL, "alreadyGenerated": true})
		return
	}

	canonical := &recipe.Recipe{
		Name:        row.Name,
		Description: row.Description,
		Category:    row.Category,
		Cuisine:     row.Cuisine,
	}

	imageURL, err := h.images.GenerateRecipeImage(c.Request.Context(), canonical)
	if err != nil {
		log.Printf("[API] Image generation failed for recipe %s: %v", row.ID, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "image generation failed"})
		return
	}

	if err := h.recipes.UpdateMedia(c.Request.Context(), row.ID, service.MediaUpdate{ImageURL: &imageURL}); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save image URL"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "imageUrl": imageURL})
}

// GenerateStepImages creates one illustration per instruction step.
func (h *ImageHandler) GenerateStepImages(c *gin.Context) {
	row, ok := h.fetch(c)
	if !ok {
		return
	}

	urls := h.images.GenerateStepImages(c.Request.Context(), row.Name, row.Instructions)

	generated := 0
	for _, u := range urls {
		if u != "" {
			generated++
		}
	}
	if generated == 0 {
		c.JSON(http.StatusBadGateway, gin.H{"error": "step image generation failed"})
		return
	}

	if err := h.recipes.UpdateMedia(c.Request.Context(), row.ID, service.MediaUpdate{StepImages: urls}); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save step images"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"stepImages": urls,
		"generated":  generated,
	})
}

func (h *ImageHandler) fetch(c *gin.Context) (*model.Recipe, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid recipe ID"})
		return nil, false
	}

	r, err := h.recipes.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrRecipeNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "recipe not found"})
			return nil, false
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch recipe"})
		return nil, false
	}

	return r, true
}
