package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nearbite/restaurant-api/models"
	"github.com/nearbite/restaurant-api/repositories"
	"github.com/nearbite/restaurant-api/types"
)

// fakePlaces replays canned pages keyed by page token.
type fakePlaces struct {
	pages    map[string]*types.GooglePlacesResponse
	errs     map[string]error
	requests []types.NearbySearchRequest
}

func (f *fakePlaces) NearbySearch(_ context.Context, req types.NearbySearchRequest) (*types.GooglePlacesResponse, error) {
	f.requests = append(f.requests, req)
	if err := f.errs[req.PageToken]; err != nil {
		return nil, err
	}
	if resp, ok := f.pages[req.PageToken]; ok {
		return resp, nil
	}
	return &types.GooglePlacesResponse{Status: types.PlacesStatusZeroResults}, nil
}

type failingUpsertRepo struct {
	repositories.RestaurantRepository
	failOn string
}

func (r *failingUpsertRepo) Upsert(ctx context.Context, fields models.ProviderFields, now time.Time) error {
	if fields.ExternalID == r.failOn {
		return errors.New("write conflict")
	}
	return r.RestaurantRepository.Upsert(ctx, fields, now)
}

func place(id, name string, lat, lng float64) types.GooglePlaceResult {
	return types.GooglePlaceResult{
		PlaceID:  id,
		Name:     name,
		Vicinity: ptr(name + " road"),
		Rating:   ptr(4.1),
		Geometry: types.Geometry{Location: types.Location{Lat: lat, Lng: lng}},
		Types:    []string{"restaurant", "food"},
	}
}

func newTestIngest(places PlacesClient, repo repositories.RestaurantRepository, cfg IngestConfig) (*IngestService, *[]time.Duration) {
	svc := NewIngestService(places, repo, cfg)
	var slept []time.Duration
	svc.sleep = func(d time.Duration) { slept = append(slept, d) }
	return svc, &slept
}

func TestIngestRun_FollowsTokensAndWaits(t *testing.T) {
	places := &fakePlaces{pages: map[string]*types.GooglePlacesResponse{
		"": {
			Status:        types.PlacesStatusOK,
			Results:       []types.GooglePlaceResult{place("a", "A", 22.6514, 120.3033), place("b", "B", 22.6520, 120.3040)},
			NextPageToken: "tok-2",
		},
		"tok-2": {
			Status:  types.PlacesStatusOK,
			Results: []types.GooglePlaceResult{place("c", "C", 22.6500, 120.3030)},
		},
	}}
	repo := repositories.NewMemoryRestaurantRepository()
	svc, slept := newTestIngest(places, repo, IngestConfig{
		Latitude:     22.651373604896655,
		Longitude:    120.30332454684512,
		RadiusMeters: 200,
		Language:     "zh-TW",
		PageDelay:    500 * time.Millisecond,
	})

	report := svc.Run(context.Background())

	require.NoError(t, report.Err)
	assert.True(t, report.Complete)
	assert.Equal(t, 2, report.Pages)
	assert.Equal(t, 3, report.Upserted)
	assert.Equal(t, []time.Duration{MinPageDelay}, *slept)

	require.Len(t, places.requests, 2)
	assert.Equal(t, "restaurant", places.requests[0].Type)
	assert.Equal(t, 200, places.requests[0].RadiusMeters)
	assert.Equal(t, "", places.requests[0].PageToken)
	assert.Equal(t, "tok-2", places.requests[1].PageToken)

	_, total, err := repo.List(context.Background(), types.RestaurantFilter{Sort: types.ResolveSort("", "")})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)

	stored, err := repo.FindByExternalID(context.Background(), "a")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "A road", stored.Address)
	assert.False(t, stored.IsUserAdded)
	assert.Nil(t, stored.Review)
	assert.InDelta(t, 3, stored.DistanceMeters, 3)
}

func TestIngestRun_AbortsOnProviderErrorKeepingEarlierPages(t *testing.T) {
	places := &fakePlaces{
		pages: map[string]*types.GooglePlacesResponse{
			"": {
				Status:        types.PlacesStatusOK,
				Results:       []types.GooglePlaceResult{place("a", "A", 0, 0)},
				NextPageToken: "tok-2",
			},
		},
		errs: map[string]error{"tok-2": &PlacesStatusError{Status: "INVALID_REQUEST"}},
	}
	repo := repositories.NewMemoryRestaurantRepository()
	svc, _ := newTestIngest(places, repo, IngestConfig{RadiusMeters: 200})

	report := svc.Run(context.Background())

	var statusErr *PlacesStatusError
	require.ErrorAs(t, report.Err, &statusErr)
	assert.Equal(t, "INVALID_REQUEST", statusErr.Status)
	assert.False(t, report.Complete)
	assert.Equal(t, 1, report.Upserted)

	stored, err := repo.FindByExternalID(context.Background(), "a")
	require.NoError(t, err)
	assert.NotNil(t, stored)
}

func TestIngestRun_AbortsOnUpsertError(t *testing.T) {
	places := &fakePlaces{pages: map[string]*types.GooglePlacesResponse{
		"": {
			Status:        types.PlacesStatusOK,
			Results:       []types.GooglePlaceResult{place("a", "A", 0, 0), place("bad", "Bad", 0, 0), place("c", "C", 0, 0)},
			NextPageToken: "tok-2",
		},
	}}
	repo := &failingUpsertRepo{RestaurantRepository: repositories.NewMemoryRestaurantRepository(), failOn: "bad"}
	svc, _ := newTestIngest(places, repo, IngestConfig{RadiusMeters: 200})

	report := svc.Run(context.Background())

	require.Error(t, report.Err)
	assert.Equal(t, 1, report.Upserted)
	assert.Len(t, places.requests, 1)
}

func TestIngestRun_SkipsResultsWithoutPlaceID(t *testing.T) {
	places := &fakePlaces{pages: map[string]*types.GooglePlacesResponse{
		"": {
			Status:  types.PlacesStatusOK,
			Results: []types.GooglePlaceResult{place("", "Nameless", 0, 0), place("a", "A", 0, 0)},
		},
	}}
	repo := repositories.NewMemoryRestaurantRepository()
	svc, _ := newTestIngest(places, repo, IngestConfig{RadiusMeters: 200})

	report := svc.Run(context.Background())

	require.NoError(t, report.Err)
	assert.Equal(t, 2, report.Fetched)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 1, report.Upserted)
}

func TestIngestRun_StopsAtMaxPages(t *testing.T) {
	places := &fakePlaces{pages: map[string]*types.GooglePlacesResponse{
		"": {
			Status:        types.PlacesStatusOK,
			Results:       []types.GooglePlaceResult{place("a", "A", 0, 0)},
			NextPageToken: "tok-2",
		},
	}}
	svc, slept := newTestIngest(places, repositories.NewMemoryRestaurantRepository(), IngestConfig{RadiusMeters: 200, MaxPages: 1})

	report := svc.Run(context.Background())

	require.NoError(t, report.Err)
	assert.False(t, report.Complete)
	assert.Equal(t, 1, report.Pages)
	assert.Empty(t, *slept)
}

func TestIngestRun_ReingestUpdatesInPlace(t *testing.T) {
	repo := repositories.NewMemoryRestaurantRepository()
	first := &fakePlaces{pages: map[string]*types.GooglePlacesResponse{
		"": {Status: types.PlacesStatusOK, Results: []types.GooglePlaceResult{place("a", "Before", 0, 0)}},
	}}
	svc, _ := newTestIngest(first, repo, IngestConfig{RadiusMeters: 200})
	createdAt := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return createdAt }
	require.NoError(t, svc.Run(context.Background()).Err)

	second := &fakePlaces{pages: map[string]*types.GooglePlacesResponse{
		"": {Status: types.PlacesStatusOK, Results: []types.GooglePlaceResult{place("a", "After", 0, 0)}},
	}}
	svc.places = second
	svc.now = func() time.Time { return createdAt.Add(time.Hour) }
	require.NoError(t, svc.Run(context.Background()).Err)

	items, total, err := repo.List(context.Background(), types.RestaurantFilter{Sort: types.ResolveSort("", "")})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "After", items[0].Name)
	assert.Equal(t, createdAt, items[0].CreatedAt)
}

func TestIngestConfig_PageDelayFloor(t *testing.T) {
	assert.Equal(t, MinPageDelay, IngestConfig{}.pageDelay())
	assert.Equal(t, DefaultPageDelay, IngestConfig{PageDelay: DefaultPageDelay}.pageDelay())
}
