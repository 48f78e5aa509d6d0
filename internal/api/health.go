package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tastegen/backend/internal/database"
)

// HealthCheck returns the health status of the API. The database check is
// optional so the route also works in handler-level tests.
func HealthCheck(healthSvc *database.HealthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp := gin.H{
			"status":  "healthy",
			"message": "TasteGen API is running",
			"version": "v1.0.0",
		}

		if healthSvc != nil {
			if err := healthSvc.Check(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status": "unhealthy",
					"error":  err.Error(),
				})
				return
			}
		}

		c.JSON(http.StatusOK, resp)
	}
}
