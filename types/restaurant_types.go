package types

import (
	"strings"

	"github.com/nearbite/restaurant-api/models"
)

type SortField string

const (
	SortByName          SortField = "name"
	SortByRating        SortField = "rating"
	SortByPriceLevel    SortField = "priceLevel"
	SortByCreatedAt     SortField = "createdAt"
	SortByRatingCount   SortField = "ratingCount"
	SortByDistance      SortField = "distance"
	SortByIsRecommended SortField = "isRecommended"
)

// sortableFields is the allow-list accepted from clients.
var sortableFields = map[string]SortField{
	"name":                 SortByName,
	"rating":               SortByRating,
	"priceLevel":           SortByPriceLevel,
	"createdAt":            SortByCreatedAt,
	"ratingCount":          SortByRatingCount,
	"distance":             SortByDistance,
	"isRecommended":        SortByIsRecommended,
	"review.isRecommended": SortByIsRecommended,
}

type SortSpec struct {
	Field SortField
	Desc  bool
}

// ResolveSort maps client input onto the allow-list. Unknown fields fall back
// to createdAt and anything other than "asc" means descending.
func ResolveSort(sortBy, order string) SortSpec {
	field, ok := sortableFields[strings.TrimSpace(sortBy)]
	if !ok {
		field = SortByCreatedAt
	}
	return SortSpec{
		Field: field,
		Desc:  !strings.EqualFold(strings.TrimSpace(order), "asc"),
	}
}

// NeedsTieBreak reports whether a secondary createdAt desc ordering applies.
func (s SortSpec) NeedsTieBreak() bool {
	return s.Field != SortByCreatedAt
}

type ListRestaurantsQuery struct {
	Page     int
	PageSize int
	SortBy   string
	Order    string
	Search   string
}

// RestaurantFilter is what the service hands to the store after defaults and
// the sort allow-list have been applied.
type RestaurantFilter struct {
	Search string
	Sort   SortSpec
	Offset int
	Limit  int
}

type RestaurantPage struct {
	Items      []*models.Restaurant `json:"items"`
	TotalCount int64                `json:"totalCount"`
	Page       int                  `json:"page"`
	TotalPages int                  `json:"totalPages"`
}

// ReviewInput carries a partial review edit; nil fields are left untouched.
type ReviewInput struct {
	Pros          *string
	Cons          *string
	Rating        *float64
	IsRecommended *bool
	Images        []string
}

func (r *ReviewInput) IsEmpty() bool {
	return r == nil || (r.Pros == nil && r.Cons == nil && r.Rating == nil && r.IsRecommended == nil && r.Images == nil)
}

type CreateRestaurantInput struct {
	Name       string `validate:"required"`
	Address    string `validate:"required"`
	Rating     *float64
	PriceLevel *int
	Categories []string
	Review     *ReviewInput
}

// UpdateRestaurantInput uses nil for "not provided". Categories is nil when
// absent and an empty slice when explicitly cleared.
type UpdateRestaurantInput struct {
	Name       *string
	Address    *string
	Rating     *float64
	PriceLevel *int
	Categories []string
	Review     *ReviewInput
}

type ReviewImageUploadRequest struct {
	RestaurantID string `validate:"required"`
	FileName     string `validate:"required"`
	ContentType  string `validate:"required"`
}

type PresignedURLResponse struct {
	UploadURL string `json:"uploadUrl"`
	FileURL   string `json:"fileUrl"`
	Key       string `json:"key"`
	ExpiresIn int    `json:"expiresIn"`
}
