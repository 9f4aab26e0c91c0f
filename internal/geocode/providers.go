package geocode

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/Madhu097/realestate-fraud-detection/internal/geo"
	"github.com/Madhu097/realestate-fraud-detection/pkg/config"
	"github.com/Madhu097/realestate-fraud-detection/pkg/httpclient"
	"github.com/Madhu097/realestate-fraud-detection/pkg/ratelimit"
	"github.com/Madhu097/realestate-fraud-detection/pkg/resilience"
)

const (
	ProviderNominatim    = "nominatim"
	ProviderBigDataCloud = "bigdatacloud"
	ProviderLocationIQ   = "locationiq"
	ProviderOpenCage     = "opencage"
)

func coord(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

// Nominatim is the OpenStreetMap reverse geocoder. Its usage policy
// requires an identifying User-Agent and at most one request per second.
type Nominatim struct {
	client  *httpclient.Client
	limiter *ratelimit.IntervalLimiter
}

// NewNominatim wraps client. limiter serializes calls; nil disables it.
func NewNominatim(client *httpclient.Client, userAgent string, limiter *ratelimit.IntervalLimiter) *Nominatim {
	return &Nominatim{
		client:  client.With(httpclient.WithHeader("User-Agent", userAgent)),
		limiter: limiter,
	}
}

func (n *Nominatim) Name() string { return ProviderNominatim }

func (n *Nominatim) Reverse(ctx context.Context, p geo.Point) (*Place, error) {
	q := url.Values{}
	q.Set("lat", coord(p.Lat))
	q.Set("lon", coord(p.Lon))
	q.Set("format", "json")
	q.Set("addressdetails", "1")
	q.Set("zoom", "18")

	var resp struct {
		Error   string     `json:"error"`
		Address osmAddress `json:"address"`
	}
	call := func(ctx context.Context) error {
		return n.client.GetJSON(ctx, "/reverse", q, &resp)
	}
	var err error
	if n.limiter != nil {
		err = n.limiter.Do(ctx, call)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrNoResult, resp.Error)
	}
	return resp.Address.place(false), nil
}

// BigDataCloud is the keyless client-side reverse geocoding endpoint.
type BigDataCloud struct {
	client *httpclient.Client
}

func NewBigDataCloud(client *httpclient.Client) *BigDataCloud {
	return &BigDataCloud{client: client}
}

func (b *BigDataCloud) Name() string { return ProviderBigDataCloud }

func (b *BigDataCloud) Reverse(ctx context.Context, p geo.Point) (*Place, error) {
	q := url.Values{}
	q.Set("latitude", coord(p.Lat))
	q.Set("longitude", coord(p.Lon))
	q.Set("localityLanguage", "en")

	var resp struct {
		City                 string `json:"city"`
		Locality             string `json:"locality"`
		PrincipalSubdivision string `json:"principalSubdivision"`
		CountryName          string `json:"countryName"`
		LocalityInfo         struct {
			Administrative []struct {
				Name string `json:"name"`
			} `json:"administrative"`
		} `json:"localityInfo"`
	}
	if err := b.client.GetJSON(ctx, "/data/reverse-geocode-client", q, &resp); err != nil {
		return nil, err
	}
	if resp.City == "" && resp.Locality == "" {
		return nil, ErrNoResult
	}

	place := &Place{
		City:     resp.City,
		Locality: resp.Locality,
		State:    resp.PrincipalSubdivision,
		Country:  resp.CountryName,
	}
	if admin := resp.LocalityInfo.Administrative; len(admin) > 0 {
		place.Suburb = admin[len(admin)-1].Name
	}
	return place, nil
}

// LocationIQ is a Nominatim-compatible commercial geocoder.
type LocationIQ struct {
	client *httpclient.Client
	key    string
}

func NewLocationIQ(client *httpclient.Client, key string) *LocationIQ {
	return &LocationIQ{client: client, key: key}
}

func (l *LocationIQ) Name() string { return ProviderLocationIQ }

func (l *LocationIQ) Reverse(ctx context.Context, p geo.Point) (*Place, error) {
	q := url.Values{}
	q.Set("key", l.key)
	q.Set("lat", coord(p.Lat))
	q.Set("lon", coord(p.Lon))
	q.Set("format", "json")
	q.Set("addressdetails", "1")

	var resp struct {
		Error   string     `json:"error"`
		Address osmAddress `json:"address"`
	}
	if err := l.client.GetJSON(ctx, "/v1/reverse.php", q, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrNoResult, resp.Error)
	}
	return resp.Address.place(false), nil
}

// OpenCage geocodes through the OpenCage Data API.
type OpenCage struct {
	client *httpclient.Client
	key    string
}

func NewOpenCage(client *httpclient.Client, key string) *OpenCage {
	return &OpenCage{client: client, key: key}
}

func (o *OpenCage) Name() string { return ProviderOpenCage }

func (o *OpenCage) Reverse(ctx context.Context, p geo.Point) (*Place, error) {
	q := url.Values{}
	q.Set("key", o.key)
	q.Set("q", coord(p.Lat)+","+coord(p.Lon))
	q.Set("language", "en")
	q.Set("no_annotations", "1")

	var resp struct {
		Results []struct {
			Components osmAddress `json:"components"`
		} `json:"results"`
	}
	if err := o.client.GetJSON(ctx, "/geocode/v1/json", q, &resp); err != nil {
		return nil, err
	}
	if len(resp.Results) == 0 {
		return nil, ErrNoResult
	}
	return resp.Results[0].Components.place(true), nil
}

func newProviderClient(name, baseURL string, cfg config.ProvidersConfig) *httpclient.Client {
	breaker := resilience.NewCircuitBreaker(
		resilience.ProviderSettings("geocode-"+name),
		resilience.GracefulDegradation(name),
	)
	return httpclient.NewClient(baseURL, cfg.Timeout()).With(
		httpclient.WithName(name),
		httpclient.WithBreaker(breaker),
	)
}

// NewProviders builds the configured providers. Keyed providers without a
// key are left out.
func NewProviders(cfg config.ProvidersConfig) []Provider {
	var out []Provider
	if cfg.NominatimEnabled {
		out = append(out, NewNominatim(
			newProviderClient(ProviderNominatim, cfg.NominatimURL, cfg),
			cfg.UserAgent,
			ratelimit.NewIntervalLimiter(cfg.NominatimMinInterval),
		))
	}
	if cfg.BigDataCloudEnabled {
		out = append(out, NewBigDataCloud(newProviderClient(ProviderBigDataCloud, cfg.BigDataCloudURL, cfg)))
	}
	if cfg.LocationIQKey != "" {
		out = append(out, NewLocationIQ(newProviderClient(ProviderLocationIQ, cfg.LocationIQURL, cfg), cfg.LocationIQKey))
	}
	if cfg.OpenCageKey != "" {
		out = append(out, NewOpenCage(newProviderClient(ProviderOpenCage, cfg.OpenCageURL, cfg), cfg.OpenCageKey))
	}
	return out
}
