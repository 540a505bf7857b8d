package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/nearbite/restaurant-api/types"
)

const DefaultPlacesBaseURL = "https://maps.googleapis.com/maps/api/place"

type PlacesClient interface {
	NearbySearch(ctx context.Context, req types.NearbySearchRequest) (*types.GooglePlacesResponse, error)
}

// PlacesStatusError is returned when the provider answers 200 with a status
// other than OK or ZERO_RESULTS (for example INVALID_REQUEST for a page token
// that is not live yet, or REQUEST_DENIED for a bad key).
type PlacesStatusError struct {
	Status  string
	Message string
}

func (e *PlacesStatusError) Error() string {
	status := e.Status
	if status == "" {
		status = "(missing)"
	}
	if e.Message == "" {
		return fmt.Sprintf("places api status %s", status)
	}
	return fmt.Sprintf("places api status %s: %s", status, e.Message)
}

type GooglePlacesClient struct {
	HTTP    *http.Client
	APIKey  string
	BaseURL string
}

func NewGooglePlacesClient(apiKey, baseURL string) *GooglePlacesClient {
	if baseURL == "" {
		baseURL = DefaultPlacesBaseURL
	}
	return &GooglePlacesClient{
		HTTP:    &http.Client{Timeout: 15 * time.Second},
		APIKey:  apiKey,
		BaseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (c *GooglePlacesClient) NearbySearch(ctx context.Context, req types.NearbySearchRequest) (*types.GooglePlacesResponse, error) {
	q := url.Values{}
	q.Set("location", fmt.Sprintf("%s,%s",
		strconv.FormatFloat(req.Latitude, 'f', -1, 64),
		strconv.FormatFloat(req.Longitude, 'f', -1, 64)))
	q.Set("radius", strconv.Itoa(req.RadiusMeters))
	if req.Type != "" {
		q.Set("type", req.Type)
	}
	if req.Language != "" {
		q.Set("language", req.Language)
	}
	if req.PageToken != "" {
		q.Set("pagetoken", req.PageToken)
	}
	q.Set("key", c.APIKey)

	endpoint := c.BaseURL + "/nearbysearch/json?" + q.Encode()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build nearby search request: %w", err)
	}

	resp, err := c.HTTP.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("nearby search http error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("nearby search bad status: %s", resp.Status)
	}

	var payload types.GooglePlacesResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("nearby search decode: %w", err)
	}

	switch payload.Status {
	case types.PlacesStatusOK, types.PlacesStatusZeroResults:
		return &payload, nil
	default:
		return nil, &PlacesStatusError{Status: payload.Status, Message: payload.ErrorMessage}
	}
}
