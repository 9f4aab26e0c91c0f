package amenity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/Madhu097/realestate-fraud-detection/internal/geo"
	"github.com/Madhu097/realestate-fraud-detection/pkg/httpclient"
	"github.com/Madhu097/realestate-fraud-detection/pkg/resilience"
)

const (
	ProviderOverpass = "overpass"

	DefaultOverpassTimeout = 10 * time.Second
	interpreterPath        = "/api/interpreter"
	unnamed                = "Unnamed"
)

// POI is a point of interest with its distance from the query point.
type POI struct {
	Name       string    `json:"name"`
	Point      geo.Point `json:"point"`
	DistanceKm float64   `json:"distance_km"`
}

// POISource finds points of interest of a category around a point, nearest
// first.
type POISource interface {
	Nearby(ctx context.Context, p geo.Point, c Category, radiusKm float64) ([]POI, error)
}

// Overpass queries the OpenStreetMap Overpass API.
type Overpass struct {
	client  *httpclient.Client
	timeout time.Duration
}

// NewOverpass creates a POI source on client.
func NewOverpass(client *httpclient.Client, timeout time.Duration) *Overpass {
	if timeout <= 0 {
		timeout = DefaultOverpassTimeout
	}
	return &Overpass{client: client, timeout: timeout}
}

// NewOverpassSource builds an Overpass source for baseURL with its own
// circuit breaker.
func NewOverpassSource(baseURL string, timeout time.Duration) *Overpass {
	if timeout <= 0 {
		timeout = DefaultOverpassTimeout
	}
	breaker := resilience.NewCircuitBreaker(
		resilience.ProviderSettings("amenity-"+ProviderOverpass),
		resilience.GracefulDegradation(ProviderOverpass),
	)
	client := httpclient.NewClient(baseURL, timeout).With(
		httpclient.WithName(ProviderOverpass),
		httpclient.WithBreaker(breaker),
	)
	return NewOverpass(client, timeout)
}

// BuildQuery renders one union query over the category's tag filters.
// "out center" gives ways and relations a single coordinate.
func BuildQuery(p geo.Point, c Category, radiusKm float64, timeout time.Duration) string {
	radius := int(radiusKm * 1000)
	var b strings.Builder
	fmt.Fprintf(&b, "[out:json][timeout:%d];\n(\n", int(timeout.Seconds()))
	for _, t := range c.Tags {
		fmt.Fprintf(&b, "  nwr[%q=%q](around:%d,%.6f,%.6f);\n", t.Key, t.Value, radius, p.Lat, p.Lon)
	}
	b.WriteString(");\nout center;")
	return b.String()
}

type overpassResponse struct {
	Elements []struct {
		Type   string   `json:"type"`
		Lat    *float64 `json:"lat"`
		Lon    *float64 `json:"lon"`
		Center *struct {
			Lat float64 `json:"lat"`
			Lon float64 `json:"lon"`
		} `json:"center"`
		Tags map[string]string `json:"tags"`
	} `json:"elements"`
}

func (o *Overpass) Nearby(ctx context.Context, p geo.Point, c Category, radiusKm float64) ([]POI, error) {
	form := url.Values{}
	form.Set("data", BuildQuery(p, c, radiusKm, o.timeout))

	body, err := o.client.PostForm(ctx, interpreterPath, form, nil)
	if err != nil {
		return nil, err
	}

	var resp overpassResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode overpass response: %w", err)
	}

	pois := make([]POI, 0, len(resp.Elements))
	for _, el := range resp.Elements {
		var at geo.Point
		switch {
		case el.Lat != nil && el.Lon != nil:
			at = geo.Point{Lat: *el.Lat, Lon: *el.Lon}
		case el.Center != nil:
			at = geo.Point{Lat: el.Center.Lat, Lon: el.Center.Lon}
		default:
			continue
		}
		name := el.Tags["name"]
		if name == "" {
			name = unnamed
		}
		pois = append(pois, POI{Name: name, Point: at, DistanceKm: geo.HaversineKm(p, at)})
	}

	sort.SliceStable(pois, func(i, j int) bool { return pois[i].DistanceKm < pois[j].DistanceKm })
	return pois, nil
}
