package api

import (
	"github.com/gin-gonic/gin"

	"github.com/pawwalk/pawwalk/internal/handlers"
)

func registerNotificationRoutes(api *gin.RouterGroup, handler *handlers.NotificationHandler, advisories *handlers.AdvisoryHandler) {
	group := api.Group("/notifications")
	{
		group.GET("", handler.List)
		group.PATCH("/:id/read", handler.MarkRead)

		group.POST("/health", advisories.Health)
		group.POST("/weather", advisories.Weather)
	}
}
