package router

import (
	"github.com/gin-gonic/gin"

	"github.com/tastegen/backend/internal/api"
	"github.com/tastegen/backend/internal/middleware"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Auth     *api.AuthHandler
	Recipes  *api.RecipeHandler
	Generate *api.GenerateHandler
	Plans    *api.PlanHandler
	Audio    *api.AudioHandler
	Images   *api.ImageHandler
	Health   gin.HandlerFunc

	TokenValidator middleware.TokenValidator
	RateLimiter    *middleware.RateLimiter
}

// SetupRouter configures the application routes. Reads are public; anything
// that spends money on upstream APIs sits behind auth and, when redis is
// available, a per-user rate limit.
func SetupRouter(h Handlers) *gin.Engine {
	router := gin.Default()

	router.Use(middleware.CORSMiddleware())

	router.GET("/health", h.Health)

	v1 := router.Group("/api/v1")

	h.Auth.RegisterRoutes(v1)
	h.Recipes.RegisterRoutes(v1)

	protected := v1.Group("")
	protected.Use(middleware.AuthMiddleware(h.TokenValidator))
	if h.RateLimiter != nil {
		protected.Use(h.RateLimiter.RateLimitMiddleware())
	}
	{
		protected.POST("/generate", h.Generate.Generate)
		protected.GET("/generate/status", h.Generate.Status)
		protected.POST("/generate/plan", h.Plans.Generate)
		protected.POST("/generate/weekly-plan", h.Plans.Weekly)
		protected.PUT("/audio/backfill", h.Audio.Backfill)
		protected.POST("/recipes/:id/audio", h.Audio.Narrate)
		protected.POST("/recipes/:id/image", h.Images.GenerateImage)
		protected.POST("/recipes/:id/step-images", h.Images.GenerateStepImages)
	}

	return router
}
