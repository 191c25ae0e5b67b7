package api

import (
	"github.com/gin-gonic/gin"

	"github.com/pawwalk/pawwalk/internal/handlers"
)

// registerPetRoutes mounts pets, share requests and walk plans. The share
// request route reuses the :id wildcard for the pet search code.
func registerPetRoutes(api *gin.RouterGroup, pets *handlers.PetHandler, shares *handlers.PetShareHandler, plans *handlers.WalkPlanHandler) {
	group := api.Group("/pets")
	{
		group.POST("", pets.Register)
		group.GET("/my", pets.ListMine)
		group.GET("/:id", pets.Get)
		group.PATCH("/:id", pets.Update)
		group.DELETE("/:id", pets.Delete)

		group.POST("/:id/request", shares.Create)
		group.PATCH("/share/:request_id", shares.Respond)
		group.GET("/share/requests/me", shares.ListMine)
		group.GET("/share/requests/received", shares.ListReceived)

		group.GET("/:id/walk-goal", plans.GetGoal)
		group.PUT("/:id/walk-goal", plans.PutGoal)
		group.GET("/:id/walk-recommendation", plans.GetRecommendation)
		group.PUT("/:id/walk-recommendation", plans.PutRecommendation)
	}
}
