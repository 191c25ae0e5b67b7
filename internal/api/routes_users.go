package api

import (
	"github.com/gin-gonic/gin"

	"github.com/pawwalk/pawwalk/internal/handlers"
)

func registerUserRoutes(api *gin.RouterGroup, handler *handlers.UserHandler) {
	me := api.Group("/users/me")
	{
		me.GET("", handler.Me)
		me.PATCH("", handler.UpdateMe)
		me.PUT("/fcm-token", handler.UpdateFCMToken)
	}
}
