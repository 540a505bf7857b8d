package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nearbite/restaurant-api/types"
)

func TestGooglePlacesClient_NearbySearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/nearbysearch/json", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "22.65,120.3", q.Get("location"))
		assert.Equal(t, "200", q.Get("radius"))
		assert.Equal(t, "restaurant", q.Get("type"))
		assert.Equal(t, "zh-TW", q.Get("language"))
		assert.Equal(t, "secret", q.Get("key"))
		assert.Equal(t, "", q.Get("pagetoken"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"status": "OK",
			"next_page_token": "next",
			"results": [{
				"place_id": "abc",
				"name": "Beef Noodles",
				"vicinity": "No. 1, Some Rd",
				"rating": 4.3,
				"user_ratings_total": 120,
				"price_level": 1,
				"types": ["restaurant", "food"],
				"geometry": {"location": {"lat": 22.651, "lng": 120.303}}
			}]
		}`))
	}))
	defer server.Close()

	client := NewGooglePlacesClient("secret", server.URL+"/")
	resp, err := client.NearbySearch(context.Background(), types.NearbySearchRequest{
		Latitude:     22.65,
		Longitude:    120.3,
		RadiusMeters: 200,
		Type:         "restaurant",
		Language:     "zh-TW",
	})
	require.NoError(t, err)
	assert.Equal(t, "next", resp.NextPageToken)
	require.Len(t, resp.Results, 1)

	got := resp.Results[0]
	assert.Equal(t, "abc", got.PlaceID)
	assert.Equal(t, "No. 1, Some Rd", *got.Vicinity)
	assert.Equal(t, 120, *got.UserRatingsTotal)
	assert.Equal(t, 1, *got.PriceLevel)
	assert.Equal(t, 22.651, got.Geometry.Location.Lat)
}

func TestGooglePlacesClient_SendsPageToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "tok", r.URL.Query().Get("pagetoken"))
		_, _ = w.Write([]byte(`{"status": "ZERO_RESULTS", "results": []}`))
	}))
	defer server.Close()

	resp, err := NewGooglePlacesClient("k", server.URL).NearbySearch(context.Background(), types.NearbySearchRequest{PageToken: "tok"})
	require.NoError(t, err)
	assert.Empty(t, resp.Results)
	assert.Empty(t, resp.NextPageToken)
}

func TestGooglePlacesClient_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status": "REQUEST_DENIED", "error_message": "The provided API key is invalid.", "results": []}`))
	}))
	defer server.Close()

	_, err := NewGooglePlacesClient("bad", server.URL).NearbySearch(context.Background(), types.NearbySearchRequest{})

	var statusErr *PlacesStatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, "REQUEST_DENIED", statusErr.Status)
	assert.Contains(t, err.Error(), "API key is invalid")
}

func TestGooglePlacesClient_MissingStatusIsAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results": []}`))
	}))
	defer server.Close()

	resp, err := NewGooglePlacesClient("k", server.URL).NearbySearch(context.Background(), types.NearbySearchRequest{})
	assert.Nil(t, resp)

	var statusErr *PlacesStatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, "", statusErr.Status)
	assert.Equal(t, "places api status (missing)", err.Error())
}

func TestGooglePlacesClient_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := NewGooglePlacesClient("k", server.URL).NearbySearch(context.Background(), types.NearbySearchRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}
