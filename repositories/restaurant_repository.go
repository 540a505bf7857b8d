package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/nearbite/restaurant-api/models"
	"github.com/nearbite/restaurant-api/types"
)

// RestaurantRepository is the document store behind the service. Read helpers
// return (nil, nil) when nothing matches; a malformed id is utils.ErrInvalidID.
type RestaurantRepository interface {
	// Upsert inserts or refreshes a provider record keyed by ExternalID in a
	// single store operation. On insert the record gets isUserAdded=false,
	// createdAt=now and no review.
	Upsert(ctx context.Context, fields models.ProviderFields, now time.Time) error

	// Create stores a new record and assigns its ID.
	Create(ctx context.Context, restaurant *models.Restaurant) error

	// Update writes only the fields set in patch in one store operation and
	// returns the record as stored afterwards. No match is
	// utils.ErrRestaurantNotFound.
	Update(ctx context.Context, id string, patch models.RestaurantPatch) (*models.Restaurant, error)

	Delete(ctx context.Context, id string) (bool, error)

	FindByID(ctx context.Context, id string) (*models.Restaurant, error)
	FindByExternalID(ctx context.Context, externalID string) (*models.Restaurant, error)
	List(ctx context.Context, filter types.RestaurantFilter) ([]*models.Restaurant, int64, error)
	Categories(ctx context.Context) ([]string, error)

	Ping(ctx context.Context) error
}

var errDuplicateExternalID = errors.New("restaurant with this external id already exists")

func nonNilStrings(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
