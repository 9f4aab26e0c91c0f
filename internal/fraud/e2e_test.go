package fraud

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/Madhu097/realestate-fraud-detection/internal/amenity"
	"github.com/Madhu097/realestate-fraud-detection/internal/corpus"
	"github.com/Madhu097/realestate-fraud-detection/internal/geo"
	"github.com/Madhu097/realestate-fraud-detection/internal/geocode"
	"github.com/Madhu097/realestate-fraud-detection/internal/imaging"
	"github.com/Madhu097/realestate-fraud-detection/internal/location"
	"github.com/Madhu097/realestate-fraud-detection/internal/price"
	"github.com/Madhu097/realestate-fraud-detection/internal/reference"
	"github.com/Madhu097/realestate-fraud-detection/internal/scoring"
	"github.com/Madhu097/realestate-fraud-detection/internal/text"
	"github.com/Madhu097/realestate-fraud-detection/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var madhapur = reference.Locality{
	City:     "Hyderabad",
	Name:     "Madhapur",
	Centroid: geo.Point{Lat: 17.4483, Lon: 78.3915},
	AvgPrice: 8_500_000,
}

var madhapurPrices = []float64{8_000_000, 8_500_000, 9_000_000, 8_200_000, 8_800_000}

// staticPlace answers every reverse lookup with the same place.
type staticPlace struct {
	name  string
	place geocode.Place
}

func (s staticPlace) Name() string { return s.name }

func (s staticPlace) Reverse(ctx context.Context, p geo.Point) (*geocode.Place, error) {
	place := s.place
	return &place, nil
}

// poiEverywhere finds one match 300 m away for every category, or nothing
// when empty is set.
type poiEverywhere struct {
	empty bool
}

func (s poiEverywhere) Nearby(ctx context.Context, p geo.Point, c amenity.Category, radiusKm float64) ([]amenity.POI, error) {
	if s.empty {
		return []amenity.POI{}, nil
	}
	return []amenity.POI{{Name: "Nearby " + c.Name, Point: geo.Offset(p, 0.3, 90), DistanceKm: 0.3}}, nil
}

type pipeline struct {
	service *Service
	text    *text.Detector
	images  *imaging.Detector
}

func newPipeline(place geocode.Place, pois amenity.POISource) pipeline {
	ref := reference.NewMemoryStore(
		[]reference.Locality{madhapur},
		map[string][]float64{madhapur.Key(): madhapurPrices},
	)
	textDetector := text.NewDetector(corpus.NewMemoryTextStore(), 0)
	imageDetector := imaging.NewDetector(
		imaging.NewObjectSource(storage.NewLocalStorage(""), nil),
		corpus.NewMemoryFingerprintStore(),
		imaging.DefaultMaxDistance,
	)

	svc := NewService(Detectors{
		Price:    price.NewDetector(ref, 5),
		Text:     textDetector,
		Location: location.NewDetector(ref, nil, location.Config{}),
		ExternalLocation: geocode.NewVerifier(
			staticPlace{name: "nominatim", place: place},
			staticPlace{name: "bigdatacloud", place: place},
		),
		Amenity: amenity.NewVerifier(pois, amenity.Config{}),
		Image:   imageDetector,
	})
	return pipeline{service: svc, text: textDetector, images: imageDetector}
}

func noiseImage(t *testing.T, dir, name string, seed int64) string {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	img := image.NewGray(image.Rect(0, 0, 64, 64))
	for by := 0; by < 8; by++ {
		for bx := 0; bx < 8; bx++ {
			c := color.Gray{Y: uint8(rng.Intn(256))}
			for y := by * 8; y < by*8+8; y++ {
				for x := bx * 8; x < bx*8+8; x++ {
					img.SetGray(x, y, c)
				}
			}
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, buf.Bytes(), 0o600))
	return p
}

func TestEndToEnd_GenuineListing(t *testing.T) {
	p := newPipeline(geocode.Place{City: "Hyderabad", Locality: "Madhapur"}, poiEverywhere{})

	listing := Listing{
		Title: "3BHK apartment in Madhapur",
		Description: "Well maintained 3BHK apartment on the fourth floor with two covered parking slots, " +
			"modular kitchen, east facing balcony and 24 hour water supply. Close to schools and the outer ring road.",
		Price:     8_500_000,
		AreaSqft:  1650,
		City:      "Hyderabad",
		Locality:  "Madhapur",
		Latitude:  madhapur.Centroid.Lat,
		Longitude: madhapur.Centroid.Lon,
	}

	a, err := p.service.Analyze(context.Background(), listing, true)
	require.NoError(t, err)

	assert.Less(t, a.FraudProbability, 0.2)
	assert.Empty(t, a.FraudTypes)
	assert.Equal(t, "MINIMAL", a.RiskBand)
	for _, m := range scoring.Modules {
		assert.Less(t, a.ModuleScores[m], 0.3, "module %s", m)
	}
	require.Len(t, a.Explanations, 1)
	assert.Contains(t, a.Explanations[0], "MINIMAL RISK")
}

func TestEndToEnd_FraudulentListing(t *testing.T) {
	p := newPipeline(geocode.Place{City: "Chennai", Locality: "T Nagar"}, poiEverywhere{empty: true})
	dir := t.TempDir()
	photos := []string{
		noiseImage(t, dir, "front.png", 11),
		noiseImage(t, dir, "hall.png", 29),
	}

	title := "URGENT SALE!!! Best deal in Madhapur"
	description := "Hurry, limited time offer, act now! Last chance to grab the best deal and lowest price. " +
		"Amazing, incredible, unbeatable luxury dream home. Metro station and international airport next door."

	// The same text and photos were posted before by another listing.
	ctx := context.Background()
	p.text.Detect(ctx, text.Input{Title: title, Description: description, City: "Hyderabad", Locality: "Madhapur"}, true)
	p.images.Detect(ctx, photos, true)

	far := geo.Offset(madhapur.Centroid, 10, 45)
	listing := Listing{
		Title:       title,
		Description: description,
		Price:       0.2 * madhapur.AvgPrice,
		AreaSqft:    1650,
		City:        "Hyderabad",
		Locality:    "Madhapur",
		Latitude:    far.Lat,
		Longitude:   far.Lon,
		ImagePaths:  photos,
	}

	a, err := p.service.Analyze(ctx, listing, false)
	require.NoError(t, err)

	assert.Greater(t, a.FraudProbability, 0.8)
	assert.Equal(t, "CRITICAL", a.RiskBand)
	assert.Contains(t, a.FraudTypes, "Price Fraud")
	assert.Contains(t, a.FraudTypes, "Text Fraud")
	assert.Contains(t, a.FraudTypes, "Location Fraud")
	assert.Contains(t, a.FraudTypes, "External Location Fraud")
	assert.Contains(t, a.FraudTypes, "Amenity Fraud")
	assert.Contains(t, a.FraudTypes, "Image Fraud")

	assert.Equal(t, 1.0, a.ModuleScores[scoring.ModulePrice])
	assert.Equal(t, 1.0, a.ModuleScores[scoring.ModuleLocation])
	assert.Equal(t, 1.0, a.ModuleScores[scoring.ModuleExternalLocation])
	assert.GreaterOrEqual(t, a.ModuleScores[scoring.ModuleImage], 0.7)

	// Summary first, then the price explanation, which carries the most weight.
	require.Len(t, a.Explanations, 7)
	assert.Contains(t, a.Explanations[0], "CRITICAL RISK")
	assert.Contains(t, a.Explanations[1], "[Price]")
}

func TestEndToEnd_RepeatSubmissionRaisesDuplicateScore(t *testing.T) {
	p := newPipeline(geocode.Place{City: "Hyderabad", Locality: "Madhapur"}, poiEverywhere{})
	listing := sampleListing()

	first, err := p.service.Analyze(context.Background(), listing, true)
	require.NoError(t, err)
	second, err := p.service.Analyze(context.Background(), listing, true)
	require.NoError(t, err)

	assert.Greater(t, second.ModuleScores[scoring.ModuleText], first.ModuleScores[scoring.ModuleText])
	assert.Contains(t, second.FraudTypes, "Text Fraud")
}
