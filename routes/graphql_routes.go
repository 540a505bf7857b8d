package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/nearbite/restaurant-api/controllers"
)

func SetupGraphQLRoutes(r *gin.Engine, graphqlController *controllers.GraphQLController) {
	r.POST("/graphql", graphqlController.Execute)
	r.GET("/graphql", graphqlController.Execute)
}
