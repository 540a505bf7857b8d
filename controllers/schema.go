package controllers

import (
	"errors"
	"time"

	"github.com/graphql-go/graphql"

	"github.com/nearbite/restaurant-api/models"
	"github.com/nearbite/restaurant-api/services"
	"github.com/nearbite/restaurant-api/types"
	"github.com/nearbite/restaurant-api/utils"
)

var locationType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Location",
	Fields: graphql.Fields{
		"lat": &graphql.Field{Type: graphql.NewNonNull(graphql.Float)},
		"lng": &graphql.Field{Type: graphql.NewNonNull(graphql.Float)},
	},
})

var reviewType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Review",
	Fields: graphql.Fields{
		"pros":          &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"cons":          &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"rating":        &graphql.Field{Type: graphql.NewNonNull(graphql.Float)},
		"isRecommended": &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean)},
		"images":        &graphql.Field{Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(graphql.String)))},
		"updatedAt": &graphql.Field{
			Type: graphql.NewNonNull(graphql.String),
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				review, ok := p.Source.(*models.Review)
				if !ok {
					return nil, nil
				}
				return formatTime(review.UpdatedAt), nil
			},
		},
	},
})

var restaurantType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Restaurant",
	Fields: graphql.Fields{
		"id":          &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
		"externalId":  &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"name":        &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"address":     &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"distance":    &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"rating":      &graphql.Field{Type: graphql.NewNonNull(graphql.Float)},
		"ratingCount": &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"categories":  &graphql.Field{Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(graphql.String)))},
		"priceLevel":  &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"isUserAdded": &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean)},
		"location": &graphql.Field{
			Type: locationType,
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				r, ok := p.Source.(*models.Restaurant)
				if !ok || r.Location == nil {
					return nil, nil
				}
				return r.Location, nil
			},
		},
		"createdAt": &graphql.Field{
			Type: graphql.NewNonNull(graphql.String),
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				r, ok := p.Source.(*models.Restaurant)
				if !ok {
					return nil, nil
				}
				return formatTime(r.CreatedAt), nil
			},
		},
		"review": &graphql.Field{
			Type: reviewType,
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				r, ok := p.Source.(*models.Restaurant)
				if !ok || r.Review == nil {
					return nil, nil
				}
				return r.Review, nil
			},
		},
	},
})

var restaurantPageType = graphql.NewObject(graphql.ObjectConfig{
	Name: "RestaurantPage",
	Fields: graphql.Fields{
		"items":      &graphql.Field{Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(restaurantType)))},
		"totalCount": &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"page":       &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"totalPages": &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
	},
})

var presignedUploadType = graphql.NewObject(graphql.ObjectConfig{
	Name: "PresignedUpload",
	Fields: graphql.Fields{
		"uploadUrl": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"fileUrl":   &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"key":       &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"expiresIn": &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
	},
})

var reviewInputType = graphql.NewInputObject(graphql.InputObjectConfig{
	Name: "ReviewInput",
	Fields: graphql.InputObjectConfigFieldMap{
		"pros":          &graphql.InputObjectFieldConfig{Type: graphql.String},
		"cons":          &graphql.InputObjectFieldConfig{Type: graphql.String},
		"rating":        &graphql.InputObjectFieldConfig{Type: graphql.Float},
		"isRecommended": &graphql.InputObjectFieldConfig{Type: graphql.Boolean},
		"images":        &graphql.InputObjectFieldConfig{Type: graphql.NewList(graphql.NewNonNull(graphql.String))},
	},
})

// schemaResolver binds the GraphQL fields to the services.
type schemaResolver struct {
	restaurants services.RestaurantServiceInterface
	uploads     services.ReviewImageUploader
}

func NewSchema(restaurants services.RestaurantServiceInterface, uploads services.ReviewImageUploader) (graphql.Schema, error) {
	r := &schemaResolver{restaurants: restaurants, uploads: uploads}

	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"restaurants": &graphql.Field{
				Type: graphql.NewNonNull(restaurantPageType),
				Args: graphql.FieldConfigArgument{
					"page":     &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: utils.DefaultPage},
					"pageSize": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: utils.DefaultPageSize},
					"sortBy":   &graphql.ArgumentConfig{Type: graphql.String},
					"order":    &graphql.ArgumentConfig{Type: graphql.String},
					"search":   &graphql.ArgumentConfig{Type: graphql.String},
				},
				Resolve: r.listRestaurants,
			},
			"restaurant": &graphql.Field{
				Type: restaurantType,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: r.restaurant,
			},
			"categories": &graphql.Field{
				Type:    graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(graphql.String))),
				Resolve: r.categories,
			},
		},
	})

	mutation := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"createRestaurant": &graphql.Field{
				Type: graphql.NewNonNull(restaurantType),
				Args: graphql.FieldConfigArgument{
					"name":       &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"address":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"rating":     &graphql.ArgumentConfig{Type: graphql.Float},
					"priceLevel": &graphql.ArgumentConfig{Type: graphql.Int},
					"categories": &graphql.ArgumentConfig{Type: graphql.NewList(graphql.NewNonNull(graphql.String))},
					"review":     &graphql.ArgumentConfig{Type: reviewInputType},
				},
				Resolve: r.createRestaurant,
			},
			"updateRestaurant": &graphql.Field{
				Type: graphql.NewNonNull(restaurantType),
				Args: graphql.FieldConfigArgument{
					"id":         &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
					"name":       &graphql.ArgumentConfig{Type: graphql.String},
					"address":    &graphql.ArgumentConfig{Type: graphql.String},
					"rating":     &graphql.ArgumentConfig{Type: graphql.Float},
					"priceLevel": &graphql.ArgumentConfig{Type: graphql.Int},
					"categories": &graphql.ArgumentConfig{Type: graphql.NewList(graphql.NewNonNull(graphql.String))},
					"review":     &graphql.ArgumentConfig{Type: reviewInputType},
				},
				Resolve: r.updateRestaurant,
			},
			"deleteRestaurant": &graphql.Field{
				Type: graphql.NewNonNull(graphql.Boolean),
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: r.deleteRestaurant,
			},
			"reviewImageUploadUrl": &graphql.Field{
				Type: graphql.NewNonNull(presignedUploadType),
				Args: graphql.FieldConfigArgument{
					"restaurantId": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
					"fileName":     &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"contentType":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: r.reviewImageUploadURL,
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query:    query,
		Mutation: mutation,
	})
}

func (r *schemaResolver) listRestaurants(p graphql.ResolveParams) (interface{}, error) {
	page, err := r.restaurants.ListRestaurants(p.Context, types.ListRestaurantsQuery{
		Page:     intArg(p.Args, "page", utils.DefaultPage),
		PageSize: intArg(p.Args, "pageSize", utils.DefaultPageSize),
		SortBy:   stringArgOr(p.Args, "sortBy", ""),
		Order:    stringArgOr(p.Args, "order", ""),
		Search:   stringArgOr(p.Args, "search", ""),
	})
	if err != nil {
		return nil, err
	}
	return page, nil
}

func (r *schemaResolver) restaurant(p graphql.ResolveParams) (interface{}, error) {
	restaurant, err := r.restaurants.GetRestaurant(p.Context, stringArgOr(p.Args, "id", ""))
	if errors.Is(err, utils.ErrRestaurantNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return restaurant, nil
}

func (r *schemaResolver) categories(p graphql.ResolveParams) (interface{}, error) {
	categories, err := r.restaurants.ListCategories(p.Context)
	if err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *schemaResolver) createRestaurant(p graphql.ResolveParams) (interface{}, error) {
	restaurant, err := r.restaurants.CreateRestaurant(p.Context, types.CreateRestaurantInput{
		Name:       stringArgOr(p.Args, "name", ""),
		Address:    stringArgOr(p.Args, "address", ""),
		Rating:     floatArg(p.Args, "rating"),
		PriceLevel: intPtrArg(p.Args, "priceLevel"),
		Categories: stringListArg(p.Args, "categories"),
		Review:     reviewArg(p.Args, "review"),
	})
	if err != nil {
		return nil, err
	}
	return restaurant, nil
}

func (r *schemaResolver) updateRestaurant(p graphql.ResolveParams) (interface{}, error) {
	restaurant, err := r.restaurants.UpdateRestaurant(p.Context, stringArgOr(p.Args, "id", ""), types.UpdateRestaurantInput{
		Name:       stringArg(p.Args, "name"),
		Address:    stringArg(p.Args, "address"),
		Rating:     floatArg(p.Args, "rating"),
		PriceLevel: intPtrArg(p.Args, "priceLevel"),
		Categories: stringListArg(p.Args, "categories"),
		Review:     reviewArg(p.Args, "review"),
	})
	if err != nil {
		return nil, err
	}
	return restaurant, nil
}

func (r *schemaResolver) deleteRestaurant(p graphql.ResolveParams) (interface{}, error) {
	return r.restaurants.DeleteRestaurant(p.Context, stringArgOr(p.Args, "id", ""))
}

func (r *schemaResolver) reviewImageUploadURL(p graphql.ResolveParams) (interface{}, error) {
	presigned, err := r.uploads.PresignReviewImage(p.Context, types.ReviewImageUploadRequest{
		RestaurantID: stringArgOr(p.Args, "restaurantId", ""),
		FileName:     stringArgOr(p.Args, "fileName", ""),
		ContentType:  stringArgOr(p.Args, "contentType", ""),
	})
	if err != nil {
		return nil, err
	}
	return presigned, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func stringArg(args map[string]interface{}, key string) *string {
	if v, ok := args[key].(string); ok {
		return &v
	}
	return nil
}

func stringArgOr(args map[string]interface{}, key, def string) string {
	if v := stringArg(args, key); v != nil {
		return *v
	}
	return def
}

func intPtrArg(args map[string]interface{}, key string) *int {
	if v, ok := args[key].(int); ok {
		return &v
	}
	return nil
}

func intArg(args map[string]interface{}, key string, def int) int {
	if v := intPtrArg(args, key); v != nil {
		return *v
	}
	return def
}

func floatArg(args map[string]interface{}, key string) *float64 {
	switch v := args[key].(type) {
	case float64:
		return &v
	case int:
		f := float64(v)
		return &f
	}
	return nil
}

func boolArg(args map[string]interface{}, key string) *bool {
	if v, ok := args[key].(bool); ok {
		return &v
	}
	return nil
}

// stringListArg returns nil when the argument is absent and an empty slice
// when it was passed as [].
func stringListArg(args map[string]interface{}, key string) []string {
	raw, ok := args[key].([]interface{})
	if !ok {
		return nil
	}
	values := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			values = append(values, s)
		}
	}
	return values
}

func reviewArg(args map[string]interface{}, key string) *types.ReviewInput {
	raw, ok := args[key].(map[string]interface{})
	if !ok {
		return nil
	}
	return &types.ReviewInput{
		Pros:          stringArg(raw, "pros"),
		Cons:          stringArg(raw, "cons"),
		Rating:        floatArg(raw, "rating"),
		IsRecommended: boolArg(raw, "isRecommended"),
		Images:        stringListArg(raw, "images"),
	}
}
