package api

import (
	"github.com/gin-gonic/gin"

	"github.com/pawwalk/pawwalk/internal/handlers"
)

func registerWalkRoutes(api *gin.RouterGroup, walks *handlers.WalkHandler, photos *handlers.PhotoHandler, advisories *handlers.AdvisoryHandler) {
	group := api.Group("/walks")
	{
		group.POST("/start", walks.Start)
		group.POST("/recommendations", advisories.WalkRecommendation)
		group.GET("/today", walks.Today)
		group.GET("/:id", walks.Get)
		group.POST("/:id/track", walks.Track)
		group.POST("/:id/end", walks.End)
		group.POST("/:id/photos", photos.Upload)
	}
}
