// Package location checks that a listing's declared coordinates sit inside
// the locality it claims.
package location

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/Madhu097/realestate-fraud-detection/internal/geo"
	"github.com/Madhu097/realestate-fraud-detection/internal/reference"
	"github.com/Madhu097/realestate-fraud-detection/internal/scoring"
	"github.com/Madhu097/realestate-fraud-detection/pkg/i18n"
	"github.com/Madhu097/realestate-fraud-detection/pkg/logger"
	"go.uber.org/zap"
)

const (
	DefaultSuspiciousRadiusKm = 1.5
	DefaultHighRiskRadiusKm   = 3.0

	invalidCoordinatesScore = 0.8
	bandStartScore          = 0.4
	bandEndScore            = 0.7
	farSlopePerKm           = 0.1
	farCapScore             = 0.9

	priceBoost          = 0.15
	priceBoostGate      = 0.3
	priceBoostDeviation = 0.3
)

// Config holds the distance radii.
type Config struct {
	SuspiciousRadiusKm float64
	HighRiskRadiusKm   float64
}

func (c Config) withDefaults() Config {
	if c.SuspiciousRadiusKm <= 0 {
		c.SuspiciousRadiusKm = DefaultSuspiciousRadiusKm
	}
	if c.HighRiskRadiusKm <= c.SuspiciousRadiusKm {
		c.HighRiskRadiusKm = math.Max(DefaultHighRiskRadiusKm, c.SuspiciousRadiusKm*2)
	}
	return c
}

// Input is the location part of a listing.
type Input struct {
	City     string
	Locality string
	Point    geo.Point
	Price    float64
}

// Detector scores the distance between declared coordinates and the
// reference centroid of the declared locality.
type Detector struct {
	lookup   reference.LocalityLookup
	index    *reference.Index
	cfg      Config
	currency string
}

// NewDetector creates a location detector. index may be nil, in which case
// explanations never name a closer locality.
func NewDetector(lookup reference.LocalityLookup, index *reference.Index, cfg Config) *Detector {
	return &Detector{
		lookup:   lookup,
		index:    index,
		cfg:      cfg.withDefaults(),
		currency: i18n.DefaultCurrency,
	}
}

// DistanceScore maps a centroid distance to a score: 0 inside the
// suspicious radius, 0.4→0.7 linearly up to the high-risk radius, then
// +0.1 per km capped at 0.9.
func DistanceScore(distanceKm, suspiciousKm, highRiskKm float64) float64 {
	switch {
	case distanceKm <= suspiciousKm:
		return 0
	case distanceKm <= highRiskKm:
		frac := (distanceKm - suspiciousKm) / (highRiskKm - suspiciousKm)
		return bandStartScore + frac*(bandEndScore-bandStartScore)
	default:
		return math.Min(bandEndScore+farSlopePerKm*(distanceKm-highRiskKm), farCapScore)
	}
}

// Detect scores in.
func (d *Detector) Detect(ctx context.Context, in Input) scoring.Score {
	if !in.Point.Valid() {
		return scoring.New(invalidCoordinatesScore, fmt.Sprintf(
			"Invalid coordinates %v: latitude must be within [-90, 90] and longitude within [-180, 180].", in.Point))
	}

	loc, err := d.lookup.Locality(ctx, in.City, in.Locality)
	if err != nil {
		if !errors.Is(err, reference.ErrNotFound) {
			logger.WithContext(ctx).Warn("locality lookup failed",
				zap.String("city", in.City),
				zap.String("locality", in.Locality),
				zap.Error(err),
			)
		}
		return scoring.New(0, fmt.Sprintf(
			"Cannot verify location: no reference coordinates for %s, %s.", in.Locality, in.City))
	}

	distance := geo.HaversineKm(in.Point, loc.Centroid)
	score := DistanceScore(distance, d.cfg.SuspiciousRadiusKm, d.cfg.HighRiskRadiusKm)

	var b strings.Builder
	fmt.Fprintf(&b, "Declared location %v is %.2f km from the %s centroid %v",
		in.Point, geo.RoundKm(distance), loc.Name, loc.Centroid)
	switch {
	case score == 0:
		fmt.Fprintf(&b, ", within the acceptable %.1f km range.", d.cfg.SuspiciousRadiusKm)
	case distance <= d.cfg.HighRiskRadiusKm:
		fmt.Fprintf(&b, ", suspiciously far (%.1f to %.1f km).", d.cfg.SuspiciousRadiusKm, d.cfg.HighRiskRadiusKm)
	default:
		fmt.Fprintf(&b, ", well outside the locality (more than %.1f km).", d.cfg.HighRiskRadiusKm)
	}

	if score > 0 {
		if near, nd, ok := d.index.Nearest(in.Point, loc.Key()); ok && nd < distance {
			fmt.Fprintf(&b, " The coordinates are closer to %s, %s (%.2f km).", near.Name, near.City, geo.RoundKm(nd))
		}
	}

	if loc.HasAvgPrice() && score > priceBoostGate && in.Price > 0 {
		dev := math.Abs(in.Price-loc.AvgPrice) / loc.AvgPrice
		if dev > priceBoostDeviation {
			score += priceBoost
			fmt.Fprintf(&b, " Price %s is %s off the %s average of %s, which compounds the location mismatch.",
				i18n.FormatAmount(in.Price, d.currency), i18n.FormatPercent(dev), loc.Name,
				i18n.FormatAmount(loc.AvgPrice, d.currency))
		}
	}

	return scoring.New(score, b.String())
}
