package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/nearbite/restaurant-api/controllers"
)

func SetupRoutes(r *gin.Engine, graphqlController *controllers.GraphQLController, healthController *controllers.HealthController) {
	r.GET("/health", healthController.Health)

	SetupGraphQLRoutes(r, graphqlController)
}
