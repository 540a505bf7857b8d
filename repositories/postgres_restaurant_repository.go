package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nearbite/restaurant-api/models"
	"github.com/nearbite/restaurant-api/types"
	"github.com/nearbite/restaurant-api/utils"
)

// RestaurantRow is the relational layout of a restaurant. The review is
// flattened into review_* columns; ReviewUpdatedAt is nil when there is none.
type RestaurantRow struct {
	ID                  string         `gorm:"primaryKey;type:uuid"`
	ExternalID          string         `gorm:"not null;uniqueIndex"`
	Name                string         `gorm:"not null"`
	Address             string         `gorm:"not null;default:''"`
	Lat                 *float64       `gorm:"type:double precision"`
	Lng                 *float64       `gorm:"type:double precision"`
	DistanceMeters      int            `gorm:"not null;default:0"`
	Rating              float64        `gorm:"not null;default:0"`
	RatingCount         int            `gorm:"not null;default:0"`
	Categories          pq.StringArray `gorm:"type:text[]"`
	PriceLevel          int            `gorm:"not null;default:0"`
	IsUserAdded         bool           `gorm:"not null"`
	CreatedAt           time.Time      `gorm:"not null;index"`
	ReviewPros          string
	ReviewCons          string
	ReviewRating        float64
	ReviewIsRecommended bool
	ReviewImages        pq.StringArray `gorm:"type:text[]"`
	ReviewUpdatedAt     *time.Time
}

func (RestaurantRow) TableName() string {
	return "restaurants"
}

// providerColumns are overwritten on conflict; everything else keeps the
// value written at insert time.
var providerColumns = []string{
	"name", "address", "lat", "lng", "distance_meters",
	"rating", "rating_count", "categories", "price_level",
}

var postgresSortColumns = map[types.SortField]string{
	types.SortByName:          "name",
	types.SortByRating:        "rating",
	types.SortByPriceLevel:    "price_level",
	types.SortByCreatedAt:     "created_at",
	types.SortByRatingCount:   "rating_count",
	types.SortByDistance:      "distance_meters",
	types.SortByIsRecommended: "review_is_recommended",
}

type postgresRestaurantRepository struct {
	db *gorm.DB
}

func NewPostgresRestaurantRepository(db *gorm.DB) RestaurantRepository {
	return &postgresRestaurantRepository{db: db}
}

func (r *postgresRestaurantRepository) Upsert(ctx context.Context, fields models.ProviderFields, now time.Time) error {
	row := RestaurantRow{
		ID:             uuid.NewString(),
		ExternalID:     fields.ExternalID,
		Name:           fields.Name,
		Address:        fields.Address,
		DistanceMeters: fields.DistanceMeters,
		Rating:         fields.Rating,
		RatingCount:    fields.RatingCount,
		Categories:     pq.StringArray(nonNilStrings(fields.Categories)),
		PriceLevel:     fields.PriceLevel,
		IsUserAdded:    false,
		CreatedAt:      now,
	}
	if fields.Location != nil {
		row.Lat = &fields.Location.Lat
		row.Lng = &fields.Location.Lng
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "external_id"}},
		DoUpdates: clause.AssignmentColumns(providerColumns),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to upsert restaurant %s: %w", fields.ExternalID, err)
	}
	return nil
}

func (r *postgresRestaurantRepository) Create(ctx context.Context, restaurant *models.Restaurant) error {
	row := toRestaurantRow(restaurant)
	row.ID = uuid.NewString()

	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to insert restaurant: %w", err)
	}
	restaurant.ID = row.ID
	return nil
}

func (r *postgresRestaurantRepository) Update(ctx context.Context, id string, patch models.RestaurantPatch) (*models.Restaurant, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, utils.ErrInvalidID
	}

	var rows []RestaurantRow
	result := r.db.WithContext(ctx).
		Model(&rows).
		Clauses(clause.Returning{}).
		Where("id = ?", id).
		Updates(postgresPatchColumns(patch))
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update restaurant: %w", result.Error)
	}
	if result.RowsAffected == 0 || len(rows) == 0 {
		return nil, utils.ErrRestaurantNotFound
	}
	return rows[0].toModel(), nil
}

func (r *postgresRestaurantRepository) Delete(ctx context.Context, id string) (bool, error) {
	if _, err := uuid.Parse(id); err != nil {
		return false, utils.ErrInvalidID
	}

	result := r.db.WithContext(ctx).Delete(&RestaurantRow{}, "id = ?", id)
	if result.Error != nil {
		return false, fmt.Errorf("failed to delete restaurant: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *postgresRestaurantRepository) FindByID(ctx context.Context, id string) (*models.Restaurant, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, utils.ErrInvalidID
	}
	return r.first(ctx, "id = ?", id)
}

func (r *postgresRestaurantRepository) FindByExternalID(ctx context.Context, externalID string) (*models.Restaurant, error) {
	return r.first(ctx, "external_id = ?", externalID)
}

func (r *postgresRestaurantRepository) first(ctx context.Context, query string, args ...interface{}) (*models.Restaurant, error) {
	var row RestaurantRow
	err := r.db.WithContext(ctx).Where(query, args...).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find restaurant: %w", err)
	}
	return row.toModel(), nil
}

func (r *postgresRestaurantRepository) List(ctx context.Context, filter types.RestaurantFilter) ([]*models.Restaurant, int64, error) {
	var total int64
	if err := r.searchScope(ctx, filter.Search).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count restaurants: %w", err)
	}

	query := r.searchScope(ctx, filter.Search)
	for _, order := range postgresOrder(filter.Sort) {
		query = query.Order(order)
	}

	var rows []RestaurantRow
	if err := query.Offset(filter.Offset).Limit(filter.Limit).Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list restaurants: %w", err)
	}

	restaurants := make([]*models.Restaurant, 0, len(rows))
	for i := range rows {
		restaurants = append(restaurants, rows[i].toModel())
	}
	return restaurants, total, nil
}

func (r *postgresRestaurantRepository) Categories(ctx context.Context) ([]string, error) {
	var categories []string
	err := r.db.WithContext(ctx).
		Raw(`SELECT DISTINCT c AS category FROM restaurants, unnest(categories) AS c WHERE c <> '' ORDER BY category`).
		Scan(&categories).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return nonNilStrings(categories), nil
}

func (r *postgresRestaurantRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (r *postgresRestaurantRepository) searchScope(ctx context.Context, search string) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&RestaurantRow{})
	if search != "" {
		like := "%" + escapeLike(search) + "%"
		query = query.Where("name ILIKE ? OR address ILIKE ?", like, like)
	}
	return query
}

func postgresOrder(by types.SortSpec) []string {
	column, ok := postgresSortColumns[by.Field]
	if !ok {
		column = "created_at"
	}
	direction := "ASC"
	if by.Desc {
		direction = "DESC"
	}

	orders := []string{column + " " + direction}
	if by.NeedsTieBreak() {
		orders = append(orders, "created_at DESC")
	}
	return orders
}

// postgresPatchColumns maps a patch onto column assignments. Untouched review
// columns keep their stored values, which are zero until first written.
func postgresPatchColumns(patch models.RestaurantPatch) map[string]interface{} {
	columns := map[string]interface{}{}
	if patch.Name != nil {
		columns["name"] = *patch.Name
	}
	if patch.Address != nil {
		columns["address"] = *patch.Address
	}
	if patch.Rating != nil {
		columns["rating"] = *patch.Rating
	}
	if patch.PriceLevel != nil {
		columns["price_level"] = *patch.PriceLevel
	}
	if patch.Categories != nil {
		columns["categories"] = pq.StringArray(patch.Categories)
	}
	if rv := patch.Review; rv != nil {
		if rv.Pros != nil {
			columns["review_pros"] = *rv.Pros
		}
		if rv.Cons != nil {
			columns["review_cons"] = *rv.Cons
		}
		if rv.Rating != nil {
			columns["review_rating"] = *rv.Rating
		}
		if rv.IsRecommended != nil {
			columns["review_is_recommended"] = *rv.IsRecommended
		}
		if rv.Images != nil {
			columns["review_images"] = pq.StringArray(rv.Images)
		}
		columns["review_updated_at"] = rv.UpdatedAt
	}
	return columns
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func toRestaurantRow(r *models.Restaurant) RestaurantRow {
	row := RestaurantRow{
		ID:             r.ID,
		ExternalID:     r.ExternalID,
		Name:           r.Name,
		Address:        r.Address,
		DistanceMeters: r.DistanceMeters,
		Rating:         r.Rating,
		RatingCount:    r.RatingCount,
		Categories:     pq.StringArray(nonNilStrings(r.Categories)),
		PriceLevel:     r.PriceLevel,
		IsUserAdded:    r.IsUserAdded,
		CreatedAt:      r.CreatedAt,
		ReviewImages:   pq.StringArray{},
	}
	if r.Location != nil {
		lat, lng := r.Location.Lat, r.Location.Lng
		row.Lat = &lat
		row.Lng = &lng
	}
	if r.Review != nil {
		updatedAt := r.Review.UpdatedAt
		row.ReviewPros = r.Review.Pros
		row.ReviewCons = r.Review.Cons
		row.ReviewRating = r.Review.Rating
		row.ReviewIsRecommended = r.Review.IsRecommended
		row.ReviewImages = pq.StringArray(nonNilStrings(r.Review.Images))
		row.ReviewUpdatedAt = &updatedAt
	}
	return row
}

func (row *RestaurantRow) toModel() *models.Restaurant {
	r := &models.Restaurant{
		ID:             row.ID,
		ExternalID:     row.ExternalID,
		Name:           row.Name,
		Address:        row.Address,
		DistanceMeters: row.DistanceMeters,
		Rating:         row.Rating,
		RatingCount:    row.RatingCount,
		Categories:     nonNilStrings(row.Categories),
		PriceLevel:     row.PriceLevel,
		IsUserAdded:    row.IsUserAdded,
		CreatedAt:      row.CreatedAt,
	}
	if row.Lat != nil && row.Lng != nil {
		r.Location = &models.GeoPoint{Lat: *row.Lat, Lng: *row.Lng}
	}
	if row.ReviewUpdatedAt != nil {
		r.Review = &models.Review{
			Pros:          row.ReviewPros,
			Cons:          row.ReviewCons,
			Rating:        row.ReviewRating,
			IsRecommended: row.ReviewIsRecommended,
			Images:        nonNilStrings(row.ReviewImages),
			UpdatedAt:     *row.ReviewUpdatedAt,
		}
	}
	return r
}
