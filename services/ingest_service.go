package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/nearbite/restaurant-api/models"
	"github.com/nearbite/restaurant-api/repositories"
	"github.com/nearbite/restaurant-api/types"
	"github.com/nearbite/restaurant-api/utils"
)

const (
	// MinPageDelay is how long a next_page_token takes to become valid.
	MinPageDelay     = 2 * time.Second
	DefaultPageDelay = 2500 * time.Millisecond
)

// IngestConfig fixes the reference point and search parameters for one run.
type IngestConfig struct {
	Latitude     float64
	Longitude    float64
	RadiusMeters int
	PlaceType    string
	Language     string
	PageDelay    time.Duration
	MaxPages     int // 0 means follow tokens until exhausted
}

func (c IngestConfig) pageDelay() time.Duration {
	if c.PageDelay < MinPageDelay {
		return MinPageDelay
	}
	return c.PageDelay
}

type IngestReport struct {
	Pages    int
	Fetched  int
	Upserted int
	Skipped  int
	Complete bool
	Err      error
}

type IngestService struct {
	places PlacesClient
	repo   repositories.RestaurantRepository
	cfg    IngestConfig
	sleep  func(time.Duration)
	now    func() time.Time
}

func NewIngestService(places PlacesClient, repo repositories.RestaurantRepository, cfg IngestConfig) *IngestService {
	if cfg.PlaceType == "" {
		cfg.PlaceType = "restaurant"
	}
	return &IngestService{
		places: places,
		repo:   repo,
		cfg:    cfg,
		sleep:  time.Sleep,
		now:    time.Now,
	}
}

// Run pages through nearby search once and upserts every result. A failed
// page or upsert stops the run; whatever was already written stays. The
// returned report is never fatal to the caller.
func (s *IngestService) Run(ctx context.Context) IngestReport {
	var report IngestReport
	pageToken := ""

	for {
		if pageToken != "" {
			s.sleep(s.cfg.pageDelay())
		}

		resp, err := s.places.NearbySearch(ctx, types.NearbySearchRequest{
			Latitude:     s.cfg.Latitude,
			Longitude:    s.cfg.Longitude,
			RadiusMeters: s.cfg.RadiusMeters,
			Type:         s.cfg.PlaceType,
			Language:     s.cfg.Language,
			PageToken:    pageToken,
		})
		if err != nil {
			report.Err = fmt.Errorf("page %d: %w", report.Pages+1, err)
			break
		}
		report.Pages++

		if err := s.upsertPage(ctx, resp.Results, &report); err != nil {
			report.Err = fmt.Errorf("page %d: %w", report.Pages, err)
			break
		}
		log.Printf("ingest: page %d upserted %d restaurants", report.Pages, len(resp.Results))

		pageToken = resp.NextPageToken
		if pageToken == "" {
			report.Complete = true
			break
		}
		if s.cfg.MaxPages > 0 && report.Pages >= s.cfg.MaxPages {
			log.Printf("ingest: stopping at page limit %d", s.cfg.MaxPages)
			break
		}
	}

	if report.Err != nil {
		log.Printf("ingest: incomplete after %d pages, %d restaurants fetched: %v", report.Pages, report.Fetched, report.Err)
	} else {
		log.Printf("ingest: fetched %d restaurants over %d pages", report.Fetched, report.Pages)
	}
	return report
}

func (s *IngestService) upsertPage(ctx context.Context, results []types.GooglePlaceResult, report *IngestReport) error {
	for _, place := range results {
		report.Fetched++
		if place.PlaceID == "" {
			report.Skipped++
			continue
		}
		if err := s.repo.Upsert(ctx, s.providerFields(place), s.now()); err != nil {
			return err
		}
		report.Upserted++
	}
	return nil
}

func (s *IngestService) providerFields(place types.GooglePlaceResult) models.ProviderFields {
	loc := place.Geometry.Location
	fields := models.ProviderFields{
		ExternalID:     place.PlaceID,
		Name:           place.Name,
		Location:       &models.GeoPoint{Lat: loc.Lat, Lng: loc.Lng},
		DistanceMeters: utils.DistanceMeters(s.cfg.Latitude, s.cfg.Longitude, loc.Lat, loc.Lng),
		Categories:     place.Types,
	}
	if place.Vicinity != nil {
		fields.Address = *place.Vicinity
	}
	if place.Rating != nil {
		fields.Rating = *place.Rating
	}
	if place.UserRatingsTotal != nil {
		fields.RatingCount = *place.UserRatingsTotal
	}
	if place.PriceLevel != nil {
		fields.PriceLevel = *place.PriceLevel
	}
	if fields.Categories == nil {
		fields.Categories = []string{}
	}
	return fields
}
