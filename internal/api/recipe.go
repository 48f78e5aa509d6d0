package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tastegen/backend/internal/service"
)

// RecipeHandler serves recipe reads: search, detail, stats.
type RecipeHandler struct {
	recipes *service.RecipeService
}

func NewRecipeHandler(recipes *service.RecipeService) *RecipeHandler {
	return &RecipeHandler{recipes: recipes}
}

func (h *RecipeHandler) RegisterRoutes(r *gin.RouterGroup) {
	recipes := r.Group("/recipes")
	{
		recipes.GET("", h.Search)
		recipes.GET("/:id", h.Get)
	}
	r.GET("/stats", h.Stats)
}

func (h *RecipeHandler) Search(c *gin.Context) {
	params := service.SearchParams{
		Query:      c.Query("q"),
		Category:   c.Query("category"),
		Cuisine:    c.Query("cuisine"),
		Difficulty: c.Query("difficulty"),
	}

	if v := c.Query("maxPrepTime"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "maxPrepTime must be a non-negative integer"})
			return
		}
		params.MaxPrepTime = &n
	}

	if v := c.Query("maxCalories"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "maxCalories must be a non-negative integer"})
			return
		}
		params.MaxCalories = &n
	}

	if v := c.Query("tags"); v != "" {
		for _, tag := range strings.Split(v, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				params.Tags = append(params.Tags, tag)
			}
		}
	}

	params.Limit = intQuery(c, "limit", 20)
	params.Offset = intQuery(c, "offset", 0)
	if params.Limit > 100 {
		params.Limit = 100
	}

	rows, total, err := h.recipes.Search(c.Request.Context(), params)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to search recipes"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"recipes": rows,
		"pagination": gin.H{
			"total":   total,
			"limit":   params.Limit,
			"offset":  params.Offset,
			"hasMore": int64(params.Offset+len(rows)) < total,
		},
	})
}

func (h *RecipeHandler) Get(c *gin.Context) {
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

	c.JSON(http.StatusOK, row)
}

func (h *RecipeHandler) Stats(c *gin.Context) {
	stats, err := h.recipes.Stats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute stats"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "stats": stats})
}

func intQuery(c *gin.Context, name string, fallback int) int {
	if v := c.Query(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	return fallback
}
