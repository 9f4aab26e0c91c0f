package reference

import (
	"context"
	"errors"
	"strings"

	"github.com/Madhu097/realestate-fraud-detection/internal/geo"
)

// ErrNotFound is returned when no reference record exists for a locality.
var ErrNotFound = errors.New("locality reference not found")

// Locality is the reference record for one city+locality.
type Locality struct {
	City       string    `json:"city"`
	Name       string    `json:"locality"`
	Centroid   geo.Point `json:"centroid"`
	AvgPrice   float64   `json:"avg_price,omitempty"` // 0 when unknown
	SampleSize int       `json:"sample_size,omitempty"`
}

// Key returns the composite lookup key for the record.
func (l Locality) Key() string {
	return Key(l.City, l.Name)
}

// HasAvgPrice reports whether an average price is known.
func (l Locality) HasAvgPrice() bool {
	return l.AvgPrice > 0
}

// Key builds the normalized "city|locality" key.
func Key(city, locality string) string {
	return normalize(city) + "|" + normalize(locality)
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// LocalityLookup resolves reference centroids. Implementations return
// ErrNotFound for unknown localities.
type LocalityLookup interface {
	Locality(ctx context.Context, city, locality string) (*Locality, error)
}

// PriceSampler returns the comparable prices for a locality. An unknown
// locality yields an empty slice, not an error.
type PriceSampler interface {
	ComparablePrices(ctx context.Context, city, locality string) ([]float64, error)
}

// Store combines both lookups and can enumerate its localities.
type Store interface {
	LocalityLookup
	PriceSampler
	Localities(ctx context.Context) ([]Locality, error)
}
