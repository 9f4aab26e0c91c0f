package geocode

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/Madhu097/realestate-fraud-detection/internal/geo"
	"github.com/stretchr/testify/assert"
)

type fakeProvider struct {
	name  string
	place *Place
	err   error
	delay time.Duration
}

func (f fakeProvider) Name() string { return f.name }

func (f fakeProvider) Reverse(ctx context.Context, p geo.Point) (*Place, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.place, f.err
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "hitech city", Normalize("  HiTech-City "))
	assert.Equal(t, "banjara hills", Normalize("Banjara_Hills"))
}

func TestCompare(t *testing.T) {
	tests := []struct {
		name          string
		place         Place
		city          string
		locality      string
		cityMatch     bool
		localityMatch bool
	}{
		{"exact", Place{City: "Hyderabad", Locality: "Madhapur"}, "Hyderabad", "Madhapur", true, true},
		{"claimed contains reported", Place{City: "Hyderabad"}, "Greater Hyderabad", "x", true, false},
		{"reported contains claimed", Place{City: "Hyderabad Urban"}, "hyderabad", "", true, false},
		{"locality via suburb", Place{City: "Hyderabad", Suburb: "Hi-Tech City"}, "Hyderabad", "hitech city", true, false},
		{"locality via suburb separators", Place{City: "Hyderabad", Suburb: "Hi-Tech City"}, "Hyderabad", "hi tech city", true, true},
		{"locality via neighbourhood", Place{Neighbourhood: "Madhapur"}, "Pune", "madhapur", false, true},
		{"empty reported never matches", Place{}, "Hyderabad", "Madhapur", false, false},
		{"empty claimed never matches", Place{City: "Hyderabad", Locality: "Madhapur"}, "", "", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Compare("p", tt.place, tt.city, tt.locality)
			assert.Equal(t, tt.cityMatch, v.CityMatch)
			assert.Equal(t, tt.localityMatch, v.LocalityMatch)
		})
	}
}

func TestConsensus(t *testing.T) {
	votes := []Vote{
		{CityMatch: true, LocalityMatch: true},
		{CityMatch: true, LocalityMatch: false},
	}
	assert.InDelta(t, 0.6+0.4*0.5, Consensus(votes), 1e-9)
	assert.Equal(t, 0.0, Consensus(nil))
}

func TestVerify_AllAgree(t *testing.T) {
	v := NewVerifier(
		fakeProvider{name: "a", place: &Place{City: "Hyderabad", Locality: "Madhapur"}},
		fakeProvider{name: "b", place: &Place{City: "Hyderabad", Neighbourhood: "Madhapur"}},
	)

	s := v.Verify(context.Background(), madhapur, "Hyderabad", "Madhapur")

	assert.Equal(t, 0.0, s.Value)
	assert.Contains(t, s.Explanation, "VERIFIED")
	assert.Contains(t, s.Explanation, "a reports Madhapur, Hyderabad (city match, locality match)")
}

func TestVerify_PartialAgreement(t *testing.T) {
	v := NewVerifier(
		fakeProvider{name: "a", place: &Place{City: "Hyderabad", Locality: "Kondapur"}},
		fakeProvider{name: "b", place: &Place{City: "Hyderabad", Locality: "Madhapur"}},
	)

	s := v.Verify(context.Background(), madhapur, "Hyderabad", "Madhapur")

	assert.InDelta(t, 0.2, s.Value, 1e-9)
	assert.Contains(t, s.Explanation, "VERIFIED")
}

func TestVerify_Bands(t *testing.T) {
	ctx := context.Background()

	s := NewVerifier(fakeProvider{name: "a", place: &Place{City: "Hyderabad", Locality: "Kondapur"}}).
		Verify(ctx, madhapur, "Hyderabad", "Madhapur")
	assert.InDelta(t, 0.4, s.Value, 1e-9)
	assert.Contains(t, s.Explanation, "MODERATE RISK")

	s = NewVerifier(fakeProvider{name: "a", place: &Place{City: "Mumbai", Locality: "Andheri"}}).
		Verify(ctx, madhapur, "Hyderabad", "Madhapur")
	assert.Equal(t, 1.0, s.Value)
	assert.Contains(t, s.Explanation, "HIGH RISK")
	assert.Contains(t, s.Explanation, "city mismatch, locality mismatch")
}

func TestVerify_FailedProvidersDoNotVote(t *testing.T) {
	v := NewVerifier(
		fakeProvider{name: "down", err: errors.New("connection refused")},
		fakeProvider{name: "ok", place: &Place{City: "Hyderabad", Locality: "Madhapur"}},
	)

	s := v.Verify(context.Background(), madhapur, "Hyderabad", "Madhapur")

	assert.Equal(t, 0.0, s.Value)
	assert.Contains(t, s.Explanation, "1 of 2 providers responded")
	assert.NotContains(t, s.Explanation, "down reports")
}

func TestVerify_NoResponses(t *testing.T) {
	v := NewVerifier(
		fakeProvider{name: "a", err: errors.New("timeout")},
		fakeProvider{name: "b", err: ErrNoResult},
	)

	s := v.Verify(context.Background(), madhapur, "Hyderabad", "Madhapur")

	assert.Equal(t, 0.5, s.Value)
	assert.Contains(t, s.Explanation, "Unable to verify location")
}

func TestVerify_NoProviders(t *testing.T) {
	s := NewVerifier().Verify(context.Background(), madhapur, "Hyderabad", "Madhapur")
	assert.Equal(t, 0.5, s.Value)
}

func TestVerify_InvalidCoordinates(t *testing.T) {
	v := NewVerifier(fakeProvider{name: "a", err: errors.New("must not be called")})

	for _, p := range []geo.Point{{Lat: -91, Lon: 0}, {Lat: 0, Lon: 200}, {Lat: math.Inf(1), Lon: 0}} {
		s := v.Verify(context.Background(), p, "Hyderabad", "Madhapur")
		assert.Equal(t, 0.9, s.Value)
	}
}

func TestVerify_ContextDeadline(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	v := NewVerifier(
		fakeProvider{name: "slow", place: &Place{City: "Hyderabad"}, delay: time.Second},
		fakeProvider{name: "fast", place: &Place{City: "Mumbai"}},
	)

	s := v.Verify(ctx, madhapur, "Hyderabad", "Madhapur")
	assert.Equal(t, 1.0, s.Value)
	assert.Contains(t, s.Explanation, "1 of 2 providers responded")
}
