package price

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockSampler struct {
	mock.Mock
}

func (m *mockSampler) ComparablePrices(ctx context.Context, city, locality string) ([]float64, error) {
	args := m.Called(ctx, city, locality)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float64), args.Error(1)
}

var basic = []float64{100, 110, 90, 105, 95}

func TestSummarize(t *testing.T) {
	st := Summarize([]float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 1000})

	assert.Equal(t, 10, st.N)
	assert.InDelta(t, 145, st.Mean, 1e-9)
	assert.InDelta(t, 301.52, st.StdDev, 0.01)
	assert.InDelta(t, 55, st.Median, 1e-9)
	assert.InDelta(t, 32.5, st.Q1, 1e-9)
	assert.InDelta(t, 77.5, st.Q3, 1e-9)

	lower, upper := st.Bounds()
	assert.InDelta(t, -35, lower, 1e-9)
	assert.InDelta(t, 145, upper, 1e-9)
}

func TestEvaluate_InsufficientData(t *testing.T) {
	d := NewDetector(nil, 0)

	for _, p := range []float64{1, 100, 1e9, -5} {
		s := d.Evaluate(p, "Madhapur", []float64{100, 100, 100, 100})
		assert.Equal(t, 0.0, s.Value)
		assert.Contains(t, s.Explanation, "Insufficient data")
	}
}

func TestEvaluate_PriceAtMean(t *testing.T) {
	s := NewDetector(nil, 5).Evaluate(100, "Madhapur", basic)

	assert.Less(t, s.Value, 0.3)
	assert.Contains(t, s.Explanation, "0.0% above average")
	assert.Contains(t, s.Explanation, "₹100")
}

func TestEvaluate_ThreeSigmaSaturates(t *testing.T) {
	st := Summarize(basic)
	s := NewDetector(nil, 5).Evaluate(st.Mean+3*st.StdDev, "Madhapur", basic)

	assert.InDelta(t, 1.0, s.Value, 1e-9)
}

func TestEvaluate_IQRDominates(t *testing.T) {
	sample := []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 1000}
	s := NewDetector(nil, 5).Evaluate(190, "Kondapur", sample)

	assert.InDelta(t, 0.5, s.Value, 1e-9)
	assert.Contains(t, s.Explanation, "above the expected range")
}

func TestEvaluate_BelowRange(t *testing.T) {
	sample := []float64{100, 101, 102, 103, 104, 105, 106, 107, 108, 109}
	s := NewDetector(nil, 5).Evaluate(90, "Kondapur", sample)

	assert.Equal(t, 1.0, s.Value)
	assert.Contains(t, s.Explanation, "below the expected range")
	assert.Contains(t, s.Explanation, "below average")
}

func TestEvaluate_ZeroIQROutlier(t *testing.T) {
	sample := []float64{100, 100, 100, 100, 100, 100, 100, 100, 100, 200}
	s := NewDetector(nil, 5).Evaluate(105, "Kondapur", sample)

	assert.Equal(t, 1.0, s.Value)
}

func TestEvaluate_ZeroVariance(t *testing.T) {
	sample := []float64{5e6, 5e6, 5e6, 5e6, 5e6}
	d := NewDetector(nil, 5)

	assert.Equal(t, 0.0, d.Evaluate(5e6, "Baner", sample).Value)
	assert.Equal(t, 0.8, d.Evaluate(5.5e6, "Baner", sample).Value)
	assert.Equal(t, 0.8, d.Evaluate(4.5e6, "Baner", sample).Value)
}

func TestEvaluate_InvalidPrice(t *testing.T) {
	s := NewDetector(nil, 5).Evaluate(0, "Baner", basic)

	assert.Equal(t, 0.8, s.Value)
	assert.Contains(t, s.Explanation, "Invalid listing price")
}

func TestEvaluate_MonotonicInDeviation(t *testing.T) {
	d := NewDetector(nil, 5)
	prev := -1.0
	for p := 100.0; p <= 200; p += 2.5 {
		s := d.Evaluate(p, "x", basic)
		assert.GreaterOrEqual(t, s.Value, prev, "price %v", p)
		prev = s.Value
	}
}

func TestDetect_UsesSampler(t *testing.T) {
	sampler := new(mockSampler)
	sampler.On("ComparablePrices", mock.Anything, "Hyderabad", "Madhapur").Return(basic, nil).Once()

	s := NewDetector(sampler, 5).Detect(context.Background(), 100, "Hyderabad", "Madhapur")

	assert.Less(t, s.Value, 0.3)
	sampler.AssertExpectations(t)
}

func TestDetect_SamplerErrorIsInsufficientData(t *testing.T) {
	sampler := new(mockSampler)
	sampler.On("ComparablePrices", mock.Anything, "Hyderabad", "Madhapur").Return(nil, errors.New("db down")).Once()

	s := NewDetector(sampler, 5).Detect(context.Background(), 100, "Hyderabad", "Madhapur")

	require.Equal(t, 0.0, s.Value)
	assert.Contains(t, s.Explanation, "Insufficient data")
}
