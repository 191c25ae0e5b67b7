package api

import (
	"github.com/gin-gonic/gin"

	"github.com/pawwalk/pawwalk/internal/handlers"
)

func registerRecordRoutes(api *gin.RouterGroup, records *handlers.RecordHandler) {
	group := api.Group("/records")
	{
		group.GET("/walks", records.Walks)
		group.GET("/photos", records.Photos)
		group.GET("/recent", records.Recent)
	}
}
