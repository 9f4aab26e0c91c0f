package geo

import (
	"fmt"
	"math"

	"github.com/uber/h3-go/v4"
)

const earthRadiusKm = 6371.0

// Point is a WGS-84 coordinate in decimal degrees.
type Point struct {
	Lat float64 `json:"latitude"`
	Lon float64 `json:"longitude"`
}

func (p Point) String() string {
	return fmt.Sprintf("(%.6f, %.6f)", p.Lat, p.Lon)
}

// Valid reports whether the point is within latitude [-90, 90] and
// longitude [-180, 180]. NaN and Inf are invalid.
func (p Point) Valid() bool {
	return ValidCoordinates(p.Lat, p.Lon)
}

// ValidCoordinates reports whether lat/lon are finite and in range.
func ValidCoordinates(lat, lon float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lat, 0) || math.IsInf(lon, 0) {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// HaversineKm returns the great-circle distance between two points in km.
func HaversineKm(a, b Point) float64 {
	dLat := toRad(b.Lat - a.Lat)
	dLon := toRad(b.Lon - a.Lon)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Lat))*math.Cos(toRad(b.Lat))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// RoundKm rounds a distance to 2 decimals for display.
func RoundKm(d float64) float64 {
	return math.Round(d*100) / 100
}

// Offset returns the point reached by travelling distanceKm from p on the
// given bearing (degrees clockwise from north).
func Offset(p Point, distanceKm, bearingDeg float64) Point {
	delta := distanceKm / earthRadiusKm
	theta := toRad(bearingDeg)
	lat1 := toRad(p.Lat)
	lon1 := toRad(p.Lon)

	lat2 := math.Asin(math.Sin(lat1)*math.Cos(delta) + math.Cos(lat1)*math.Sin(delta)*math.Cos(theta))
	lon2 := lon1 + math.Atan2(math.Sin(theta)*math.Sin(delta)*math.Cos(lat1), math.Cos(delta)-math.Sin(lat1)*math.Sin(lat2))

	return Point{Lat: toDeg(lat2), Lon: math.Mod(toDeg(lon2)+540, 360) - 180}
}

// Cell returns the H3 cell containing p at the given resolution.
func Cell(p Point, resolution int) (h3.Cell, error) {
	if !p.Valid() {
		return 0, fmt.Errorf("invalid coordinates %s", p)
	}
	cell, err := h3.LatLngToCell(h3.NewLatLng(p.Lat, p.Lon), resolution)
	if err != nil {
		return 0, fmt.Errorf("h3 cell for %s: %w", p, err)
	}
	return cell, nil
}

// Disk returns the cells within k grid steps of the cell containing p.
func Disk(p Point, resolution, k int) ([]h3.Cell, error) {
	cell, err := Cell(p, resolution)
	if err != nil {
		return nil, err
	}
	cells, err := h3.GridDisk(cell, k)
	if err != nil {
		return nil, fmt.Errorf("h3 grid disk: %w", err)
	}
	return cells, nil
}

func toRad(deg float64) float64 { return deg * math.Pi / 180.0 }

func toDeg(rad float64) float64 { return rad * 180.0 / math.Pi }
