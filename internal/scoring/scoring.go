// Package scoring holds the value types shared by every detector and the
// fusion engine.
package scoring

import "math"

// Module identifies a detector.
type Module string

const (
	ModulePrice            Module = "price"
	ModuleImage            Module = "image"
	ModuleText             Module = "text"
	ModuleLocation         Module = "location"
	ModuleExternalLocation Module = "external_location"
	ModuleAmenity          Module = "amenity"
)

// Modules lists every detector in canonical order.
var Modules = []Module{
	ModulePrice,
	ModuleImage,
	ModuleText,
	ModuleLocation,
	ModuleExternalLocation,
	ModuleAmenity,
}

// Score is one detector's verdict: a value in [0, 1] and why.
type Score struct {
	Value       float64 `json:"score"`
	Explanation string  `json:"explanation"`
}

// New returns a Score with value clamped into [0, 1].
func New(value float64, explanation string) Score {
	return Score{Value: Clamp(value), Explanation: explanation}
}

// Clamp maps v into [0, 1]. NaN becomes 0.
func Clamp(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// Round3 rounds to 3 decimals, the precision scores are reported with.
func Round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
