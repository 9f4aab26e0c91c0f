package fraud

import (
	"time"

	"github.com/Madhu097/realestate-fraud-detection/internal/geo"
	"github.com/Madhu097/realestate-fraud-detection/internal/scoring"
	"github.com/google/uuid"
)

// Listing is the property listing submitted for analysis. It is never
// mutated by the detectors.
type Listing struct {
	Title       string   `json:"title" validate:"required,notblank,min=1,max=500"`
	Description string   `json:"description" validate:"required,notblank,min=1,max=5000"`
	Price       float64  `json:"price" validate:"gt=0"`
	AreaSqft    float64  `json:"area_sqft" validate:"gte=0"`
	City        string   `json:"city" validate:"required,notblank,max=100"`
	Locality    string   `json:"locality" validate:"required,notblank,max=100"`
	Latitude    float64  `json:"latitude" validate:"latitude"`
	Longitude   float64  `json:"longitude" validate:"longitude"`
	ImagePaths  []string `json:"image_paths,omitempty" validate:"max=20,dive,image_ref"`
}

// Point returns the declared coordinates.
func (l Listing) Point() geo.Point {
	return geo.Point{Lat: l.Latitude, Lon: l.Longitude}
}

// AnalyzeRequest is the body of POST /api/v1/analyze. Persist defaults to
// the service setting when omitted.
type AnalyzeRequest struct {
	Listing
	Persist *bool `json:"persist,omitempty"`
}

// ModuleReport is one detector's score and explanation as returned to the
// caller.
type ModuleReport struct {
	Score       float64 `json:"score"`
	Explanation string  `json:"explanation"`
}

// Analysis is the outcome of analyzing one listing.
type Analysis struct {
	ID               uuid.UUID                       `json:"analysis_id"`
	AnalyzedAt       time.Time                       `json:"analyzed_at"`
	FraudProbability float64                         `json:"fraud_probability"`
	RiskBand         string                          `json:"risk_band"`
	FraudTypes       []string                        `json:"fraud_types"`
	Explanations     []string                        `json:"explanations"`
	ModuleScores     map[scoring.Module]float64      `json:"module_scores"`
	Modules          map[scoring.Module]ModuleReport `json:"modules"`
	DurationMs       int64                           `json:"duration_ms"`
}

// HistoryEntry is a stored analysis together with the listing it scored.
type HistoryEntry struct {
	ID               uuid.UUID                  `json:"id"`
	Title            string                     `json:"title"`
	Description      string                     `json:"description,omitempty"`
	Price            float64                    `json:"price"`
	AreaSqft         float64                    `json:"area_sqft"`
	City             string                     `json:"city"`
	Locality         string                     `json:"locality"`
	Latitude         float64                    `json:"latitude"`
	Longitude        float64                    `json:"longitude"`
	FraudProbability float64                    `json:"fraud_probability"`
	FraudTypes       []string                   `json:"fraud_types"`
	Explanations     []string                   `json:"explanations,omitempty"`
	ModuleScores     map[scoring.Module]float64 `json:"module_scores,omitempty"`
	AnalyzedAt       time.Time                  `json:"analyzed_at"`
}

// NewHistoryEntry pairs a listing with its analysis for storage.
func NewHistoryEntry(l Listing, a *Analysis) *HistoryEntry {
	return &HistoryEntry{
		ID:               a.ID,
		Title:            l.Title,
		Description:      l.Description,
		Price:            l.Price,
		AreaSqft:         l.AreaSqft,
		City:             l.City,
		Locality:         l.Locality,
		Latitude:         l.Latitude,
		Longitude:        l.Longitude,
		FraudProbability: a.FraudProbability,
		FraudTypes:       a.FraudTypes,
		Explanations:     a.Explanations,
		ModuleScores:     a.ModuleScores,
		AnalyzedAt:       a.AnalyzedAt,
	}
}

// WeightsResponse describes the fusion configuration.
type WeightsResponse struct {
	Weights              map[scoring.Module]float64 `json:"weights"`
	LabelThreshold       float64                    `json:"label_threshold"`
	ExplanationThreshold float64                    `json:"explanation_threshold"`
	RiskBands            map[string]float64         `json:"risk_bands"`
}
