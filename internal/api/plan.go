package api

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tastegen/backend/internal/service"
)

// MealPlanRequest configures a personalized plan generation.
type MealPlanRequest struct {
	Preferences     service.PlanPreferences `json:"preferences"`
	CurrentCalories int                     `json:"currentCalories"`
}

// WeeklyPlanRequest configures a structured weekly plan generation.
type WeeklyPlanRequest struct {
	Preferences string `json:"preferences"`
}

// PlanHandler serves meal plan generation.
type PlanHandler struct {
	planner service.PlanGenerator
}

func NewPlanHandler(planner service.PlanGenerator) *PlanHandler {
	return &PlanHandler{planner: planner}
}

// Generate returns a personalized seven-day plan as plain text.
func (h *PlanHandler) Generate(c *gin.Context) {
	var req MealPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid request body"})
		return
	}

	plan, err := h.planner.GenerateMealPlan(c.Request.Context(), req.Preferences, req.CurrentCalories)
	if err != nil {
		log.Printf("[API] Meal plan generation failed: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"success": false, "error": "failed to generate plan"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "plan": plan})
}

// Weekly returns a structured seven-day plan: one entry per meal.
func (h *PlanHandler) Weekly(c *gin.Context) {
	var req WeeklyPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid request body"})
		return
	}

	meals, err := h.planner.GenerateWeeklyPlan(c.Request.Context(), req.Preferences)
	if err != nil {
		log.Printf("[API] Weekly plan generation failed: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"success": false, "error": "failed to generate weekly plan"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "meals": meals})
}
