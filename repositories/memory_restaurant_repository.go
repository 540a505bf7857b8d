package repositories

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nearbite/restaurant-api/models"
	"github.com/nearbite/restaurant-api/types"
	"github.com/nearbite/restaurant-api/utils"
)

// memoryRestaurantRepository keeps restaurants in process memory. It backs
// STORE_DRIVER=memory for local development and the package tests.
type memoryRestaurantRepository struct {
	mu         sync.RWMutex
	byID       map[string]*models.Restaurant
	byExternal map[string]string
}

func NewMemoryRestaurantRepository() RestaurantRepository {
	return &memoryRestaurantRepository{
		byID:       make(map[string]*models.Restaurant),
		byExternal: make(map[string]string),
	}
}

func (r *memoryRestaurantRepository) Upsert(_ context.Context, fields models.ProviderFields, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.byExternal[fields.ExternalID]; ok {
		applyProviderFields(r.byID[id], fields)
		return nil
	}

	restaurant := &models.Restaurant{
		ID:          uuid.NewString(),
		ExternalID:  fields.ExternalID,
		IsUserAdded: false,
		CreatedAt:   now,
	}
	applyProviderFields(restaurant, fields)
	r.byID[restaurant.ID] = restaurant
	r.byExternal[restaurant.ExternalID] = restaurant.ID
	return nil
}

func (r *memoryRestaurantRepository) Create(_ context.Context, restaurant *models.Restaurant) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byExternal[restaurant.ExternalID]; exists {
		return errDuplicateExternalID
	}

	restaurant.ID = uuid.NewString()
	stored := cloneRestaurant(restaurant)
	r.byID[stored.ID] = stored
	r.byExternal[stored.ExternalID] = stored.ID
	return nil
}

func (r *memoryRestaurantRepository) Update(_ context.Context, id string, patch models.RestaurantPatch) (*models.Restaurant, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, utils.ErrInvalidID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byID[id]
	if !ok {
		return nil, utils.ErrRestaurantNotFound
	}
	patch.ApplyTo(stored)
	return cloneRestaurant(stored), nil
}

func (r *memoryRestaurantRepository) Delete(_ context.Context, id string) (bool, error) {
	if _, err := uuid.Parse(id); err != nil {
		return false, utils.ErrInvalidID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byID[id]
	if !ok {
		return false, nil
	}
	delete(r.byID, id)
	delete(r.byExternal, stored.ExternalID)
	return true, nil
}

func (r *memoryRestaurantRepository) FindByID(_ context.Context, id string) (*models.Restaurant, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, utils.ErrInvalidID
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	return cloneRestaurant(stored), nil
}

func (r *memoryRestaurantRepository) FindByExternalID(_ context.Context, externalID string) (*models.Restaurant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byExternal[externalID]
	if !ok {
		return nil, nil
	}
	return cloneRestaurant(r.byID[id]), nil
}

func (r *memoryRestaurantRepository) List(_ context.Context, filter types.RestaurantFilter) ([]*models.Restaurant, int64, error) {
	r.mu.RLock()
	matched := make([]*models.Restaurant, 0, len(r.byID))
	needle := strings.ToLower(filter.Search)
	for _, stored := range r.byID {
		if needle == "" ||
			strings.Contains(strings.ToLower(stored.Name), needle) ||
			strings.Contains(strings.ToLower(stored.Address), needle) {
			matched = append(matched, cloneRestaurant(stored))
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		return lessRestaurant(matched[i], matched[j], filter.Sort)
	})

	total := int64(len(matched))
	start := filter.Offset
	if start > len(matched) {
		start = len(matched)
	}
	end := len(matched)
	if filter.Limit > 0 && start+filter.Limit < end {
		end = start + filter.Limit
	}
	return matched[start:end], total, nil
}

func (r *memoryRestaurantRepository) Categories(_ context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool)
	categories := []string{}
	for _, stored := range r.byID {
		for _, c := range stored.Categories {
			if c != "" && !seen[c] {
				seen[c] = true
				categories = append(categories, c)
			}
		}
	}
	sort.Strings(categories)
	return categories, nil
}

func (r *memoryRestaurantRepository) Ping(context.Context) error {
	return nil
}

func applyProviderFields(r *models.Restaurant, f models.ProviderFields) {
	r.Name = f.Name
	r.Address = f.Address
	r.Location = nil
	if f.Location != nil {
		r.Location = &models.GeoPoint{Lat: f.Location.Lat, Lng: f.Location.Lng}
	}
	r.DistanceMeters = f.DistanceMeters
	r.Rating = f.Rating
	r.RatingCount = f.RatingCount
	r.Categories = append([]string{}, f.Categories...)
	r.PriceLevel = f.PriceLevel
}

// lessRestaurant orders a before b for the given sort, falling back to
// createdAt descending when the primary keys are equal.
func lessRestaurant(a, b *models.Restaurant, by types.SortSpec) bool {
	cmp := compareField(a, b, by.Field)
	if by.Desc {
		cmp = -cmp
	}
	if cmp != 0 {
		return cmp < 0
	}
	if by.NeedsTieBreak() {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return false
}

func compareField(a, b *models.Restaurant, field types.SortField) int {
	switch field {
	case types.SortByName:
		return strings.Compare(a.Name, b.Name)
	case types.SortByRating:
		return compareFloat(a.Rating, b.Rating)
	case types.SortByPriceLevel:
		return compareInt(a.PriceLevel, b.PriceLevel)
	case types.SortByRatingCount:
		return compareInt(a.RatingCount, b.RatingCount)
	case types.SortByDistance:
		return compareInt(a.DistanceMeters, b.DistanceMeters)
	case types.SortByIsRecommended:
		return compareInt(recommendedRank(a), recommendedRank(b))
	default:
		return a.CreatedAt.Compare(b.CreatedAt)
	}
}

func recommendedRank(r *models.Restaurant) int {
	if r.Review != nil && r.Review.IsRecommended {
		return 1
	}
	return 0
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func cloneRestaurant(r *models.Restaurant) *models.Restaurant {
	c := *r
	c.Categories = append([]string{}, r.Categories...)
	if r.Location != nil {
		loc := *r.Location
		c.Location = &loc
	}
	if r.Review != nil {
		review := *r.Review
		review.Images = append([]string{}, r.Review.Images...)
		c.Review = &review
	}
	return &c
}
