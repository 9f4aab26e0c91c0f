// Package geocode verifies a listing's declared city and locality against
// independent reverse-geocoding providers.
package geocode

import (
	"context"
	"errors"
	"strings"

	"github.com/Madhu097/realestate-fraud-detection/internal/geo"
)

// ErrNoResult is returned when a provider answers but has no address for
// the coordinates.
var ErrNoResult = errors.New("geocode: no result")

// Place is a provider's address for a coordinate, reduced to the fields we
// compare.
type Place struct {
	City          string `json:"city,omitempty"`
	Locality      string `json:"locality,omitempty"`
	Suburb        string `json:"suburb,omitempty"`
	Neighbourhood string `json:"neighbourhood,omitempty"`
	State         string `json:"state,omitempty"`
	Country       string `json:"country,omitempty"`
}

// Provider reverse-geocodes a point.
type Provider interface {
	Name() string
	Reverse(ctx context.Context, p geo.Point) (*Place, error)
}

// osmAddress is the address block shared by Nominatim, LocationIQ and the
// components block of OpenCage.
type osmAddress struct {
	City          string `json:"city"`
	Town          string `json:"town"`
	Village       string `json:"village"`
	Municipality  string `json:"municipality"`
	County        string `json:"county"`
	Suburb        string `json:"suburb"`
	Neighbourhood string `json:"neighbourhood"`
	Quarter       string `json:"quarter"`
	State         string `json:"state"`
	Country       string `json:"country"`
}

func (a osmAddress) place(withCounty bool) *Place {
	city := firstNonEmpty(a.City, a.Town, a.Village, a.Municipality)
	if city == "" && withCounty {
		city = a.County
	}
	return &Place{
		City:          city,
		Locality:      firstNonEmpty(a.Suburb, a.Neighbourhood, a.Quarter),
		Suburb:        a.Suburb,
		Neighbourhood: a.Neighbourhood,
		State:         a.State,
		Country:       a.Country,
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
