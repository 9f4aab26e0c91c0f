package amenity

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/Madhu097/realestate-fraud-detection/internal/geo"
	"github.com/Madhu097/realestate-fraud-detection/internal/scoring"
	"github.com/Madhu097/realestate-fraud-detection/pkg/logger"
	"go.uber.org/zap"
)

const (
	DefaultNearbyKm    = 2.0
	DefaultVeryCloseKm = 0.5

	allFalsePenalty  = 0.2
	unavailableScore = 0.5
	maxParallelQuery = 2
)

// Status is the outcome of checking one claim.
type Status string

const (
	StatusVerified     Status = "verified"
	StatusNotVerified  Status = "not_verified"
	StatusUnverifiable Status = "unverifiable"
)

// Config holds the search radii.
type Config struct {
	NearbyKm    float64
	VeryCloseKm float64
}

func (c Config) withDefaults() Config {
	if c.NearbyKm <= 0 {
		c.NearbyKm = DefaultNearbyKm
	}
	if c.VeryCloseKm <= 0 || c.VeryCloseKm > c.NearbyKm {
		c.VeryCloseKm = math.Min(DefaultVeryCloseKm, c.NearbyKm)
	}
	return c
}

// Result is the check of one claimed category.
type Result struct {
	Claim   Claim
	Status  Status
	Nearest *POI
	Found   int
}

// VeryClose reports whether the nearest match is within radiusKm.
func (r Result) VeryClose(radiusKm float64) bool {
	return r.Nearest != nil && r.Nearest.DistanceKm <= radiusKm
}

// Verifier checks claimed amenities against a POI source.
type Verifier struct {
	claims *ClaimDetector
	source POISource
	cfg    Config
}

// NewVerifier creates a verifier.
func NewVerifier(source POISource, cfg Config) *Verifier {
	return &Verifier{
		claims: NewClaimDetector(),
		source: source,
		cfg:    cfg.withDefaults(),
	}
}

// Verify scores the amenity claims in title and description.
func (v *Verifier) Verify(ctx context.Context, p geo.Point, title, description string) scoring.Score {
	claims := v.claims.Detect(title + " " + description)
	if len(claims) == 0 {
		return scoring.New(0, "No specific amenity claims detected in the listing.")
	}
	if !p.Valid() {
		return scoring.New(unavailableScore, fmt.Sprintf(
			"Amenity claims (%s) cannot be checked: invalid coordinates %v.", names(claims), p))
	}

	results := v.check(ctx, p, claims)

	var verified, falseClaims int
	for _, r := range results {
		switch r.Status {
		case StatusVerified:
			verified++
		case StatusNotVerified:
			falseClaims++
		}
	}

	total := verified + falseClaims
	if total == 0 {
		return scoring.New(unavailableScore, fmt.Sprintf(
			"Amenity verification unavailable: points-of-interest lookups failed for %s.", names(claims)))
	}

	score := float64(falseClaims) / float64(total)
	if falseClaims == total {
		score += allFalsePenalty
	}
	return scoring.New(score, v.describe(results, verified, falseClaims))
}

func (v *Verifier) check(ctx context.Context, p geo.Point, claims []Claim) []Result {
	results := make([]Result, len(claims))
	sem := make(chan struct{}, maxParallelQuery)

	var wg sync.WaitGroup
	for i, c := range claims {
		wg.Add(1)
		go func(i int, c Claim) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[i] = v.checkOne(ctx, p, c)
		}(i, c)
	}
	wg.Wait()
	return results
}

func (v *Verifier) checkOne(ctx context.Context, p geo.Point, c Claim) Result {
	pois, err := v.source.Nearby(ctx, p, c.Category, v.cfg.NearbyKm)
	if err != nil {
		logger.WithContext(ctx).Warn("amenity lookup failed",
			zap.String("category", c.Category.Name),
			zap.Error(err),
		)
		return Result{Claim: c, Status: StatusUnverifiable}
	}

	var within []POI
	for _, poi := range pois {
		if poi.DistanceKm <= v.cfg.NearbyKm {
			within = append(within, poi)
		}
	}
	if len(within) == 0 {
		return Result{Claim: c, Status: StatusNotVerified}
	}
	nearest := within[0]
	for _, poi := range within[1:] {
		if poi.DistanceKm < nearest.DistanceKm {
			nearest = poi
		}
	}
	return Result{Claim: c, Status: StatusVerified, Nearest: &nearest, Found: len(within)}
}

func (v *Verifier) describe(results []Result, verified, falseClaims int) string {
	var b strings.Builder
	total := verified + falseClaims
	if falseClaims == 0 {
		fmt.Fprintf(&b, "All %d checked amenity claims verified within %.1f km.", total, v.cfg.NearbyKm)
	} else {
		fmt.Fprintf(&b, "%d of %d amenity claims could not be verified within %.1f km.", falseClaims, total, v.cfg.NearbyKm)
	}

	for _, r := range results {
		switch r.Status {
		case StatusVerified:
			closeness := ""
			if r.VeryClose(v.cfg.VeryCloseKm) {
				closeness = ", very close"
			}
			fmt.Fprintf(&b, " %s (%q) verified: nearest %s at %.2f km%s, %d found.",
				r.Claim.Category.Name, r.Claim.Keyword, r.Nearest.Name, geo.RoundKm(r.Nearest.DistanceKm), closeness, r.Found)
		case StatusNotVerified:
			fmt.Fprintf(&b, " %s (%q) NOT verified: none found within %.1f km.",
				r.Claim.Category.Name, r.Claim.Keyword, v.cfg.NearbyKm)
		default:
			fmt.Fprintf(&b, " %s (%q) unverifiable: lookup failed.", r.Claim.Category.Name, r.Claim.Keyword)
		}
	}
	return b.String()
}

func names(claims []Claim) string {
	out := make([]string, len(claims))
	for i, c := range claims {
		out[i] = c.Category.Name
	}
	return strings.Join(out, ", ")
}
