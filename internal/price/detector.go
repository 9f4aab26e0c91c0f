package price

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/Madhu097/realestate-fraud-detection/internal/reference"
	"github.com/Madhu097/realestate-fraud-detection/internal/scoring"
	"github.com/Madhu097/realestate-fraud-detection/pkg/i18n"
	"github.com/Madhu097/realestate-fraud-detection/pkg/logger"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"
)

const (
	// DefaultMinComparables is the smallest sample the detector will judge.
	DefaultMinComparables = 5

	zeroVarianceScore   = 0.8
	invalidPriceScore   = 0.8
	exactMatchTolerance = 0.01
	zSaturation         = 3.0
	iqrFence            = 1.5
)

// Stats summarizes a comparable price sample.
type Stats struct {
	N      int
	Mean   float64
	StdDev float64
	Median float64
	Q1     float64
	Q3     float64
}

// IQR returns Q3 - Q1.
func (s Stats) IQR() float64 { return s.Q3 - s.Q1 }

// Bounds returns the 1.5×IQR outlier fences.
func (s Stats) Bounds() (lower, upper float64) {
	return s.Q1 - iqrFence*s.IQR(), s.Q3 + iqrFence*s.IQR()
}

// Summarize computes sample statistics. StdDev is the unbiased sample
// standard deviation and quartiles use linear interpolation between order
// statistics.
func Summarize(sample []float64) Stats {
	sorted := make([]float64, len(sample))
	copy(sorted, sample)
	sort.Float64s(sorted)

	s := Stats{N: len(sorted)}
	if s.N == 0 {
		return s
	}
	s.Mean = stat.Mean(sorted, nil)
	if s.N > 1 {
		s.StdDev = stat.StdDev(sorted, nil)
	}
	s.Median = quantile(sorted, 0.5)
	s.Q1 = quantile(sorted, 0.25)
	s.Q3 = quantile(sorted, 0.75)
	return s
}

// quantile expects sorted input.
func quantile(sorted []float64, p float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	h := p * float64(len(sorted)-1)
	lo := math.Floor(h)
	hi := math.Ceil(h)
	return sorted[int(lo)] + (h-lo)*(sorted[int(hi)]-sorted[int(lo)])
}

// Detector scores a listing price against comparable listings in the same
// city and locality.
type Detector struct {
	sampler        reference.PriceSampler
	minComparables int
	currency       string
}

// NewDetector creates a price detector. A non-positive minComparables
// falls back to DefaultMinComparables.
func NewDetector(sampler reference.PriceSampler, minComparables int) *Detector {
	if minComparables <= 0 {
		minComparables = DefaultMinComparables
	}
	return &Detector{
		sampler:        sampler,
		minComparables: minComparables,
		currency:       i18n.DefaultCurrency,
	}
}

// Detect loads the comparable sample and scores price against it. A failing
// sampler is treated as an empty sample.
func (d *Detector) Detect(ctx context.Context, price float64, city, locality string) scoring.Score {
	sample, err := d.sampler.ComparablePrices(ctx, city, locality)
	if err != nil {
		logger.WithContext(ctx).Warn("comparable prices unavailable",
			zap.String("city", city),
			zap.String("locality", locality),
			zap.Error(err),
		)
		sample = nil
	}
	return d.Evaluate(price, locality, sample)
}

// Evaluate scores price against sample. The score is the larger of the
// normalized z-score and the IQR fence excess.
func (d *Detector) Evaluate(price float64, locality string, sample []float64) scoring.Score {
	if len(sample) < d.minComparables {
		return scoring.New(0, fmt.Sprintf(
			"Insufficient data: only %d comparable listings in %s (at least %d required), price not assessed.",
			len(sample), displayLocality(locality), d.minComparables))
	}

	if price <= 0 || math.IsNaN(price) || math.IsInf(price, 0) {
		return scoring.New(invalidPriceScore, fmt.Sprintf(
			"Invalid listing price %v: price must be a positive amount.", price))
	}

	st := Summarize(sample)
	deviation := (price - st.Mean) / st.Mean

	if st.StdDev == 0 {
		if math.Abs(price-st.Mean) < exactMatchTolerance {
			return scoring.New(0, fmt.Sprintf(
				"All %d comparable listings in %s are priced at %s and the listing matches.",
				st.N, displayLocality(locality), d.money(st.Mean)))
		}
		return scoring.New(zeroVarianceScore, fmt.Sprintf(
			"All %d comparable listings in %s are priced at %s but the listing asks %s (%s %s).",
			st.N, displayLocality(locality), d.money(st.Mean), d.money(price),
			i18n.FormatPercent(math.Abs(deviation)), direction(deviation)))
	}

	z := math.Abs(price-st.Mean) / st.StdDev
	zScore := math.Min(z/zSaturation, 1.0)

	lower, upper := st.Bounds()
	iqrScore := 0.0
	var beyond float64
	switch {
	case price < lower:
		beyond = lower - price
	case price > upper:
		beyond = price - upper
	}
	if beyond > 0 {
		if st.IQR() == 0 {
			iqrScore = 1.0
		} else {
			iqrScore = math.Min(beyond/st.IQR()/2, 1.0)
		}
	}

	score := math.Max(zScore, iqrScore)

	var b strings.Builder
	fmt.Fprintf(&b, "Listing price %s vs %s mean %s (median %s, %d comparables): %s %s average, z-score %.2f.",
		d.money(price), displayLocality(locality), d.money(st.Mean), d.money(st.Median), st.N,
		i18n.FormatPercent(math.Abs(deviation)), direction(deviation), z)
	if iqrScore > 0 {
		side := "above"
		if price < lower {
			side = "below"
		}
		fmt.Fprintf(&b, " Price is %s the expected range %s to %s (IQR method).",
			side, d.money(lower), d.money(upper))
	}

	return scoring.New(score, b.String())
}

func (d *Detector) money(v float64) string {
	return i18n.FormatAmount(v, d.currency)
}

func direction(deviation float64) string {
	if deviation < 0 {
		return "below"
	}
	return "above"
}

func displayLocality(locality string) string {
	if strings.TrimSpace(locality) == "" {
		return "the locality"
	}
	return strings.TrimSpace(locality)
}
