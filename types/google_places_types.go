package types

const (
	PlacesStatusOK          = "OK"
	PlacesStatusZeroResults = "ZERO_RESULTS"
)

type GooglePlacesResponse struct {
	HTMLAttributions []string            `json:"html_attributions"`
	NextPageToken    string              `json:"next_page_token"`
	Results          []GooglePlaceResult `json:"results"`
	Status           string              `json:"status"`
	ErrorMessage     string              `json:"error_message,omitempty"`
}

// Alias for backward compatibility and clarity
type GooglePlaceResult = PlaceResult

type PlaceResult struct {
	BusinessStatus   *string  `json:"business_status,omitempty"`
	Geometry         Geometry `json:"geometry"`
	Name             string   `json:"name"`
	PlaceID          string   `json:"place_id"`
	PriceLevel       *int     `json:"price_level,omitempty"`
	Rating           *float64 `json:"rating,omitempty"`
	Types            []string `json:"types"`
	UserRatingsTotal *int     `json:"user_ratings_total,omitempty"`
	Vicinity         *string  `json:"vicinity,omitempty"`
}

type Geometry struct {
	Location Location `json:"location"`
	Viewport Viewport `json:"viewport"`
}

type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type Viewport struct {
	Northeast Location `json:"northeast"`
	Southwest Location `json:"southwest"`
}

// NearbySearchRequest is one call to the nearby-search endpoint. PageToken is
// set only when continuing a previous response.
type NearbySearchRequest struct {
	Latitude     float64
	Longitude    float64
	RadiusMeters int
	Type         string
	Language     string
	PageToken    string
}
