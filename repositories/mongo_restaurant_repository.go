package repositories

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/nearbite/restaurant-api/models"
	"github.com/nearbite/restaurant-api/types"
	"github.com/nearbite/restaurant-api/utils"
)

const RestaurantCollection = "restaurants"

type mongoGeoPoint struct {
	Lat float64 `bson:"lat"`
	Lng float64 `bson:"lng"`
}

type mongoReview struct {
	Pros          string    `bson:"pros"`
	Cons          string    `bson:"cons"`
	Rating        float64   `bson:"rating"`
	IsRecommended bool      `bson:"isRecommended"`
	Images        []string  `bson:"images"`
	UpdatedAt     time.Time `bson:"updatedAt"`
}

type mongoRestaurant struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	ExternalID     string             `bson:"externalId"`
	Name           string             `bson:"name"`
	Address        string             `bson:"address"`
	Location       *mongoGeoPoint     `bson:"location,omitempty"`
	DistanceMeters int                `bson:"distanceMeters"`
	Rating         float64            `bson:"rating"`
	RatingCount    int                `bson:"ratingCount"`
	Categories     []string           `bson:"categories"`
	PriceLevel     int                `bson:"priceLevel"`
	IsUserAdded    bool               `bson:"isUserAdded"`
	CreatedAt      time.Time          `bson:"createdAt"`
	Review         *mongoReview       `bson:"review,omitempty"`
}

var mongoSortFields = map[types.SortField]string{
	types.SortByName:          "name",
	types.SortByRating:        "rating",
	types.SortByPriceLevel:    "priceLevel",
	types.SortByCreatedAt:     "createdAt",
	types.SortByRatingCount:   "ratingCount",
	types.SortByDistance:      "distanceMeters",
	types.SortByIsRecommended: "review.isRecommended",
}

type mongoRestaurantRepository struct {
	client     *mongo.Client
	collection *mongo.Collection
}

func NewMongoRestaurantRepository(client *mongo.Client, database string) RestaurantRepository {
	return &mongoRestaurantRepository{
		client:     client,
		collection: client.Database(database).Collection(RestaurantCollection),
	}
}

// EnsureMongoIndexes creates the unique externalId index that upserts rely on.
func EnsureMongoIndexes(ctx context.Context, client *mongo.Client, database string) error {
	_, err := client.Database(database).Collection(RestaurantCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "externalId", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("externalId_unique"),
	})
	if err != nil {
		return fmt.Errorf("failed to create externalId index: %w", err)
	}
	return nil
}

func (r *mongoRestaurantRepository) Upsert(ctx context.Context, fields models.ProviderFields, now time.Time) error {
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"externalId": fields.ExternalID},
		mongoUpsertUpdate(fields, now),
		options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to upsert restaurant %s: %w", fields.ExternalID, err)
	}
	return nil
}

func (r *mongoRestaurantRepository) Create(ctx context.Context, restaurant *models.Restaurant) error {
	doc := toMongoRestaurant(restaurant)
	doc.ID = primitive.NewObjectID()

	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to insert restaurant: %w", err)
	}
	restaurant.ID = doc.ID.Hex()
	return nil
}

func (r *mongoRestaurantRepository) Update(ctx context.Context, id string, patch models.RestaurantPatch) (*models.Restaurant, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, utils.ErrInvalidID
	}

	var doc mongoRestaurant
	err = r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": mongoPatchSet(patch)},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, utils.ErrRestaurantNotFound
		}
		return nil, fmt.Errorf("failed to update restaurant: %w", err)
	}
	return doc.toModel(), nil
}

func (r *mongoRestaurantRepository) Delete(ctx context.Context, id string) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, utils.ErrInvalidID
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return false, fmt.Errorf("failed to delete restaurant: %w", err)
	}
	return result.DeletedCount > 0, nil
}

func (r *mongoRestaurantRepository) FindByID(ctx context.Context, id string) (*models.Restaurant, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, utils.ErrInvalidID
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *mongoRestaurantRepository) FindByExternalID(ctx context.Context, externalID string) (*models.Restaurant, error) {
	return r.findOne(ctx, bson.M{"externalId": externalID})
}

func (r *mongoRestaurantRepository) findOne(ctx context.Context, filter bson.M) (*models.Restaurant, error) {
	var doc mongoRestaurant
	err := r.collection.FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find restaurant: %w", err)
	}
	return doc.toModel(), nil
}

func (r *mongoRestaurantRepository) List(ctx context.Context, filter types.RestaurantFilter) ([]*models.Restaurant, int64, error) {
	query := mongoSearchFilter(filter.Search)

	opts := options.Find().
		SetSort(mongoSort(filter.Sort)).
		SetSkip(int64(filter.Offset)).
		SetLimit(int64(filter.Limit))

	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list restaurants: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []mongoRestaurant
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, 0, fmt.Errorf("failed to decode restaurants: %w", err)
	}

	total, err := r.collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count restaurants: %w", err)
	}

	restaurants := make([]*models.Restaurant, 0, len(docs))
	for i := range docs {
		restaurants = append(restaurants, docs[i].toModel())
	}
	return restaurants, total, nil
}

func (r *mongoRestaurantRepository) Categories(ctx context.Context) ([]string, error) {
	values, err := r.collection.Distinct(ctx, "categories", bson.D{})
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}

	categories := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok && s != "" {
			categories = append(categories, s)
		}
	}
	sort.Strings(categories)
	return categories, nil
}

func (r *mongoRestaurantRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx, readpref.Primary())
}

// mongoUpsertUpdate refreshes the provider fields and sets isUserAdded and
// createdAt only when the document is first inserted.
func mongoUpsertUpdate(fields models.ProviderFields, now time.Time) bson.M {
	return bson.M{
		"$set": bson.M{
			"name":           fields.Name,
			"address":        fields.Address,
			"location":       toMongoGeoPoint(fields.Location),
			"distanceMeters": fields.DistanceMeters,
			"rating":         fields.Rating,
			"ratingCount":    fields.RatingCount,
			"categories":     nonNilStrings(fields.Categories),
			"priceLevel":     fields.PriceLevel,
		},
		"$setOnInsert": bson.M{
			"isUserAdded": false,
			"createdAt":   now,
		},
	}
}

// mongoPatchSet builds a $set over the patched fields only. Review fields are
// set by dotted path so concurrent edits to different fields both land.
func mongoPatchSet(patch models.RestaurantPatch) bson.M {
	set := bson.M{}
	if patch.Name != nil {
		set["name"] = *patch.Name
	}
	if patch.Address != nil {
		set["address"] = *patch.Address
	}
	if patch.Rating != nil {
		set["rating"] = *patch.Rating
	}
	if patch.PriceLevel != nil {
		set["priceLevel"] = *patch.PriceLevel
	}
	if patch.Categories != nil {
		set["categories"] = patch.Categories
	}
	if rv := patch.Review; rv != nil {
		if rv.Pros != nil {
			set["review.pros"] = *rv.Pros
		}
		if rv.Cons != nil {
			set["review.cons"] = *rv.Cons
		}
		if rv.Rating != nil {
			set["review.rating"] = *rv.Rating
		}
		if rv.IsRecommended != nil {
			set["review.isRecommended"] = *rv.IsRecommended
		}
		if rv.Images != nil {
			set["review.images"] = rv.Images
		}
		set["review.updatedAt"] = rv.UpdatedAt
	}
	return set
}

// mongoSearchFilter matches the search text as a literal, case-insensitive
// substring of name or address.
func mongoSearchFilter(search string) bson.M {
	if search == "" {
		return bson.M{}
	}
	pattern := primitive.Regex{Pattern: regexp.QuoteMeta(search), Options: "i"}
	return bson.M{"$or": bson.A{
		bson.M{"name": pattern},
		bson.M{"address": pattern},
	}}
}

func mongoSort(by types.SortSpec) bson.D {
	field, ok := mongoSortFields[by.Field]
	if !ok {
		field = "createdAt"
	}
	direction := 1
	if by.Desc {
		direction = -1
	}

	sortDoc := bson.D{{Key: field, Value: direction}}
	if by.NeedsTieBreak() {
		sortDoc = append(sortDoc, bson.E{Key: "createdAt", Value: -1})
	}
	return sortDoc
}

func toMongoGeoPoint(p *models.GeoPoint) *mongoGeoPoint {
	if p == nil {
		return nil
	}
	return &mongoGeoPoint{Lat: p.Lat, Lng: p.Lng}
}

func toMongoReview(rv *models.Review) *mongoReview {
	if rv == nil {
		return nil
	}
	return &mongoReview{
		Pros:          rv.Pros,
		Cons:          rv.Cons,
		Rating:        rv.Rating,
		IsRecommended: rv.IsRecommended,
		Images:        nonNilStrings(rv.Images),
		UpdatedAt:     rv.UpdatedAt,
	}
}

func toMongoRestaurant(r *models.Restaurant) mongoRestaurant {
	return mongoRestaurant{
		ExternalID:     r.ExternalID,
		Name:           r.Name,
		Address:        r.Address,
		Location:       toMongoGeoPoint(r.Location),
		DistanceMeters: r.DistanceMeters,
		Rating:         r.Rating,
		RatingCount:    r.RatingCount,
		Categories:     nonNilStrings(r.Categories),
		PriceLevel:     r.PriceLevel,
		IsUserAdded:    r.IsUserAdded,
		CreatedAt:      r.CreatedAt,
		Review:         toMongoReview(r.Review),
	}
}

func (d *mongoRestaurant) toModel() *models.Restaurant {
	r := &models.Restaurant{
		ID:             d.ID.Hex(),
		ExternalID:     d.ExternalID,
		Name:           d.Name,
		Address:        d.Address,
		DistanceMeters: d.DistanceMeters,
		Rating:         d.Rating,
		RatingCount:    d.RatingCount,
		Categories:     nonNilStrings(d.Categories),
		PriceLevel:     d.PriceLevel,
		IsUserAdded:    d.IsUserAdded,
		CreatedAt:      d.CreatedAt,
	}
	if d.Location != nil {
		r.Location = &models.GeoPoint{Lat: d.Location.Lat, Lng: d.Location.Lng}
	}
	if d.Review != nil {
		r.Review = &models.Review{
			Pros:          d.Review.Pros,
			Cons:          d.Review.Cons,
			Rating:        d.Review.Rating,
			IsRecommended: d.Review.IsRecommended,
			Images:        nonNilStrings(d.Review.Images),
			UpdatedAt:     d.Review.UpdatedAt,
		}
	}
	return r
}
