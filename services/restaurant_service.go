package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/nearbite/restaurant-api/models"
	"github.com/nearbite/restaurant-api/repositories"
	"github.com/nearbite/restaurant-api/types"
	"github.com/nearbite/restaurant-api/utils"
)

// UserAddedIDPrefix marks external ids generated for manually entered
// restaurants, which have no provider place id.
const UserAddedIDPrefix = "user-"

type RestaurantServiceInterface interface {
	ListRestaurants(ctx context.Context, query types.ListRestaurantsQuery) (*types.RestaurantPage, error)
	ListCategories(ctx context.Context) ([]string, error)
	GetRestaurant(ctx context.Context, id string) (*models.Restaurant, error)
	CreateRestaurant(ctx context.Context, input types.CreateRestaurantInput) (*models.Restaurant, error)
	UpdateRestaurant(ctx context.Context, id string, input types.UpdateRestaurantInput) (*models.Restaurant, error)
	DeleteRestaurant(ctx context.Context, id string) (bool, error)
}

type RestaurantService struct {
	repo     repositories.RestaurantRepository
	validate *validator.Validate
	now      func() time.Time
}

func NewRestaurantService(repo repositories.RestaurantRepository) RestaurantServiceInterface {
	return &RestaurantService{
		repo:     repo,
		validate: validator.New(),
		now:      time.Now,
	}
}

func (s *RestaurantService) ListRestaurants(ctx context.Context, query types.ListRestaurantsQuery) (*types.RestaurantPage, error) {
	page, pageSize := utils.NormalizePage(query.Page, query.PageSize)

	items, total, err := s.repo.List(ctx, types.RestaurantFilter{
		Search: strings.TrimSpace(query.Search),
		Sort:   types.ResolveSort(query.SortBy, query.Order),
		Offset: utils.Offset(page, pageSize),
		Limit:  pageSize,
	})
	if err != nil {
		log.Printf("Error listing restaurants: %v", err)
		return nil, utils.ErrDatabaseError
	}
	if items == nil {
		items = []*models.Restaurant{}
	}

	return &types.RestaurantPage{
		Items:      items,
		TotalCount: total,
		Page:       page,
		TotalPages: utils.TotalPages(total, pageSize),
	}, nil
}

func (s *RestaurantService) ListCategories(ctx context.Context) ([]string, error) {
	categories, err := s.repo.Categories(ctx)
	if err != nil {
		log.Printf("Error listing categories: %v", err)
		return nil, utils.ErrDatabaseError
	}
	return categories, nil
}

func (s *RestaurantService) GetRestaurant(ctx context.Context, id string) (*models.Restaurant, error) {
	restaurant, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.storeError("fetching restaurant", err)
	}
	if restaurant == nil {
		return nil, utils.ErrRestaurantNotFound
	}
	return restaurant, nil
}

func (s *RestaurantService) CreateRestaurant(ctx context.Context, input types.CreateRestaurantInput) (*models.Restaurant, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Address = strings.TrimSpace(input.Address)
	if err := s.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("%w: name and address are required", utils.ErrInvalidInput)
	}

	now := s.now()
	restaurant := &models.Restaurant{
		ExternalID:  UserAddedIDPrefix + uuid.NewString(),
		Name:        input.Name,
		Address:     input.Address,
		Categories:  cleanCategories(input.Categories),
		IsUserAdded: true,
		CreatedAt:   now,
	}
	if input.Rating != nil && validRating(*input.Rating) {
		restaurant.Rating = *input.Rating
	}
	if input.PriceLevel != nil && validPriceLevel(*input.PriceLevel) {
		restaurant.PriceLevel = *input.PriceLevel
	}
	if review := reviewPatch(input.Review, now); review != nil {
		models.RestaurantPatch{Review: review}.ApplyTo(restaurant)
	}

	if err := s.repo.Create(ctx, restaurant); err != nil {
		return nil, s.storeError("creating restaurant", err)
	}
	return restaurant, nil
}

func (s *RestaurantService) UpdateRestaurant(ctx context.Context, id string, input types.UpdateRestaurantInput) (*models.Restaurant, error) {
	restaurant, err := s.GetRestaurant(ctx, id)
	if err != nil {
		return nil, err
	}

	patch := buildPatch(restaurant, input, s.now())
	if patch.IsEmpty() {
		return restaurant, nil
	}

	updated, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return nil, s.storeError("updating restaurant", err)
	}
	return updated, nil
}

func (s *RestaurantService) DeleteRestaurant(ctx context.Context, id string) (bool, error) {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return false, s.storeError("deleting restaurant", err)
	}
	return deleted, nil
}

// storeError passes request-level sentinels through and hides everything else
// behind ErrDatabaseError.
func (s *RestaurantService) storeError(action string, err error) error {
	if errors.Is(err, utils.ErrInvalidID) || errors.Is(err, utils.ErrRestaurantNotFound) {
		return err
	}
	log.Printf("Error %s: %v", action, err)
	return utils.ErrDatabaseError
}

// buildPatch keeps only the input fields that may change restaurant. Identity
// fields only move on manually entered restaurants; the review is editable on
// every restaurant. isUserAdded never changes after creation, so reading it
// before the write is safe.
func buildPatch(restaurant *models.Restaurant, input types.UpdateRestaurantInput, now time.Time) models.RestaurantPatch {
	var patch models.RestaurantPatch

	if restaurant.IsUserAdded {
		if input.Name != nil {
			if name := strings.TrimSpace(*input.Name); name != "" && name != restaurant.Name {
				patch.Name = &name
			}
		}
		if input.Address != nil {
			if address := strings.TrimSpace(*input.Address); address != "" && address != restaurant.Address {
				patch.Address = &address
			}
		}
		if input.Rating != nil && validRating(*input.Rating) {
			patch.Rating = input.Rating
		}
		if input.PriceLevel != nil && validPriceLevel(*input.PriceLevel) {
			patch.PriceLevel = input.PriceLevel
		}
		if input.Categories != nil {
			patch.Categories = cleanCategories(input.Categories)
		}
	}

	patch.Review = reviewPatch(input.Review, now)
	return patch
}

// reviewPatch returns the review fields to write, or nil when the input
// changes nothing. updatedAt is refreshed on any change.
func reviewPatch(input *types.ReviewInput, now time.Time) *models.ReviewPatch {
	if input.IsEmpty() {
		return nil
	}

	patch := &models.ReviewPatch{
		Pros:          input.Pros,
		Cons:          input.Cons,
		IsRecommended: input.IsRecommended,
		UpdatedAt:     now,
	}
	if input.Rating != nil && validRating(*input.Rating) {
		patch.Rating = input.Rating
	}
	if input.Images != nil {
		patch.Images = append([]string{}, input.Images...)
	}

	if patch.Pros == nil && patch.Cons == nil && patch.Rating == nil &&
		patch.IsRecommended == nil && patch.Images == nil {
		return nil
	}
	return patch
}

func validRating(v float64) bool {
	return !math.IsNaN(v) && v >= 0 && v <= 5
}

func validPriceLevel(v int) bool {
	return v >= 0 && v <= 4
}

func cleanCategories(categories []string) []string {
	cleaned := make([]string, 0, len(categories))
	seen := make(map[string]bool, len(categories))
	for _, c := range categories {
		c = strings.TrimSpace(c)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		cleaned = append(cleaned, c)
	}
	return cleaned
}
