package models

import "time"

type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Review is the single user-editable annotation attached to a restaurant.
type Review struct {
	Pros          string    `json:"pros"`
	Cons          string    `json:"cons"`
	Rating        float64   `json:"rating"`
	IsRecommended bool      `json:"isRecommended"`
	Images        []string  `json:"images"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Restaurant is one venue known to the service, either ingested from the
// places provider or entered by hand (IsUserAdded).
type Restaurant struct {
	ID             string    `json:"id"`
	ExternalID     string    `json:"externalId"`
	Name           string    `json:"name"`
	Address        string    `json:"address"`
	Location       *GeoPoint `json:"location"`
	DistanceMeters int       `json:"distance"`
	Rating         float64   `json:"rating"`
	RatingCount    int       `json:"ratingCount"`
	Categories     []string  `json:"categories"`
	PriceLevel     int       `json:"priceLevel"`
	IsUserAdded    bool      `json:"isUserAdded"`
	CreatedAt      time.Time `json:"createdAt"`
	Review         *Review   `json:"review"`
}

// ProviderFields are the columns owned by the places provider. Re-ingestion
// overwrites exactly these and nothing else.
type ProviderFields struct {
	ExternalID     string
	Name           string
	Address        string
	Location       *GeoPoint
	DistanceMeters int
	Rating         float64
	RatingCount    int
	Categories     []string
	PriceLevel     int
}

// RestaurantPatch lists the user-editable fields an update touches. Nil
// pointers and a nil Categories slice leave the stored value alone, so a
// store can write only these fields and leave concurrent changes intact.
type RestaurantPatch struct {
	Name       *string
	Address    *string
	Rating     *float64
	PriceLevel *int
	Categories []string
	Review     *ReviewPatch
}

// ReviewPatch edits individual review fields. UpdatedAt is always written.
type ReviewPatch struct {
	Pros          *string
	Cons          *string
	Rating        *float64
	IsRecommended *bool
	Images        []string
	UpdatedAt     time.Time
}

func (p RestaurantPatch) IsEmpty() bool {
	return p.Name == nil && p.Address == nil && p.Rating == nil &&
		p.PriceLevel == nil && p.Categories == nil && p.Review == nil
}

// ApplyTo writes the patch onto r. A missing review starts from zero values.
func (p RestaurantPatch) ApplyTo(r *Restaurant) {
	if p.Name != nil {
		r.Name = *p.Name
	}
	if p.Address != nil {
		r.Address = *p.Address
	}
	if p.Rating != nil {
		r.Rating = *p.Rating
	}
	if p.PriceLevel != nil {
		r.PriceLevel = *p.PriceLevel
	}
	if p.Categories != nil {
		r.Categories = append([]string{}, p.Categories...)
	}
	if p.Review == nil {
		return
	}

	if r.Review == nil {
		r.Review = &Review{Images: []string{}}
	}
	rv := p.Review
	if rv.Pros != nil {
		r.Review.Pros = *rv.Pros
	}
	if rv.Cons != nil {
		r.Review.Cons = *rv.Cons
	}
	if rv.Rating != nil {
		r.Review.Rating = *rv.Rating
	}
	if rv.IsRecommended != nil {
		r.Review.IsRecommended = *rv.IsRecommended
	}
	if rv.Images != nil {
		r.Review.Images = append([]string{}, rv.Images...)
	}
	r.Review.UpdatedAt = rv.UpdatedAt
}
