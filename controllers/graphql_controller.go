package controllers

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/graphql-go/graphql"

	"github.com/nearbite/restaurant-api/middleware"
)

type GraphQLController struct {
	schema graphql.Schema
}

type GraphQLRequest struct {
	Query         string                 `json:"query"`
	Variables     map[string]interface{} `json:"variables"`
	OperationName string                 `json:"operationName"`
}

func NewGraphQLController(schema graphql.Schema) *GraphQLController {
	return &GraphQLController{schema: schema}
}

// Execute serves both POST bodies and GET query strings. Resolver errors are
// reported inside the GraphQL result with a 200; only malformed requests get
// a 400.
func (gc *GraphQLController) Execute(c *gin.Context) {
	var req GraphQLRequest
	if c.Request.Method == http.MethodGet {
		req.Query = c.Query("query")
		req.OperationName = c.Query("operationName")
		if raw := c.Query("variables"); raw != "" {
			if err := json.Unmarshal([]byte(raw), &req.Variables); err != nil {
				badGraphQLRequest(c, "variables must be a JSON object")
				return
			}
		}
	} else if err := c.ShouldBindJSON(&req); err != nil {
		badGraphQLRequest(c, "Invalid request body")
		return
	}

	if strings.TrimSpace(req.Query) == "" {
		badGraphQLRequest(c, "query is required")
		return
	}

	result := graphql.Do(graphql.Params{
		Schema:         gc.schema,
		RequestString:  req.Query,
		VariableValues: req.Variables,
		OperationName:  req.OperationName,
		Context:        c.Request.Context(),
	})
	if len(result.Errors) > 0 {
		traceID := c.GetString(middleware.TraceIDKey)
		for _, gqlErr := range result.Errors {
			log.Printf("GraphQL error [trace_id=%s] %s: %s", traceID, req.OperationName, gqlErr.Message)
		}
	}
	c.JSON(http.StatusOK, result)
}

func badGraphQLRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"errors": []gin.H{{"message": message}},
	})
}
