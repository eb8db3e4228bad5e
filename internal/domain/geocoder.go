package domain

import "context"

// Place is a location returned by a geocoding provider.
type Place struct {
	Lat        float64 `json:"lat"`
	Lng        float64 `json:"lng"`
	Label      string  `json:"label"`
	Name       string  `json:"name,omitempty"`
	Confidence float64 `json:"confidence,omitempty"` // 0.0–1.0 provider importance score
}

// Geocoder backs the location search boxes and report enrichment.
type Geocoder interface {
	// Search converts free text to up to limit candidate places.
	Search(ctx context.Context, query string, limit int) ([]Place, error)

	// Reverse converts coordinates to place details.
	Reverse(ctx context.Context, lat, lng float64) (Place, error)
}
