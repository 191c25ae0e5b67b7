package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pawwalk/pawwalk/internal/monitoring"
	"github.com/pawwalk/pawwalk/pkg/response"
)

// Health runs the registered probes. Degraded integrations still answer 200;
// a component that is down turns the response into a 503.
func Health(manager *monitoring.HealthManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		report := manager.Evaluate(requestContext(c))
		if !report.Healthy() {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"success": false,
				"status":  http.StatusServiceUnavailable,
				"health":  report.Status,
				"checks":  report.Checks,
			})
			return
		}
		response.Success(c, http.StatusOK, gin.H{
			"health": report.Status,
			"checks": report.Checks,
		})
	}
}
