package amenity

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Madhu097/realestate-fraud-detection/internal/geo"
	"github.com/Madhu097/realestate-fraud-detection/pkg/httpclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var home = geo.Point{Lat: 17.4483, Lon: 78.3915}

type mockSource struct {
	mock.Mock
}

func (m *mockSource) Nearby(ctx context.Context, p geo.Point, c Category, radiusKm float64) ([]POI, error) {
	args := m.Called(ctx, p, c.Name, radiusKm)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]POI), args.Error(1)
}

func categoryNames(claims []Claim) []string {
	out := make([]string, len(claims))
	for i, c := range claims {
		out[i] = c.Category.Name
	}
	return out
}

func TestClaimDetector(t *testing.T) {
	d := NewClaimDetector()

	claims := d.Detect("Walk to the METRO, near Apollo Hospital and a 5 minute drive to the airport. ATM in the complex.")
	assert.Equal(t, []string{"transit", "healthcare", "transport-hub", "finance"}, categoryNames(claims))
	assert.Equal(t, "metro", claims[0].Keyword)
}

func TestClaimDetector_WordBoundaries(t *testing.T) {
	d := NewClaimDetector()

	assert.Empty(t, d.Detect("Two covered parking slots, banking-grade security doors, metropolitan views"))
	assert.Equal(t, []string{"recreation"}, categoryNames(d.Detect("Opposite a large park")))
}

func TestClaimDetector_OneClaimPerCategory(t *testing.T) {
	claims := NewClaimDetector().Detect("schools, a college and a university nearby")
	require.Len(t, claims, 1)
	assert.Equal(t, "education", claims[0].Category.Name)
}

func TestBuildQuery(t *testing.T) {
	q := BuildQuery(home, Categories[0], 2, 10*time.Second)

	assert.True(t, strings.HasPrefix(q, "[out:json][timeout:10];"))
	assert.Contains(t, q, `nwr["railway"="station"](around:2000,17.448300,78.391500);`)
	assert.Contains(t, q, `nwr["public_transport"="station"]`)
	assert.True(t, strings.HasSuffix(q, "out center;"))
}

func TestOverpass_Nearby(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/interpreter", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.NoError(t, r.ParseForm())
		assert.Contains(t, r.PostForm.Get("data"), `nwr["amenity"="hospital"]`)
		_, _ = w.Write([]byte(`{"elements":[
			{"type":"way","id":1,"center":{"lat":17.4600,"lon":78.3915},"tags":{"name":"Far Clinic"}},
			{"type":"node","id":2,"lat":17.4490,"lon":78.3915,"tags":{}},
			{"type":"relation","id":3}
		]}`))
	}))
	defer srv.Close()

	o := NewOverpass(httpclient.NewClient(srv.URL), time.Second)
	pois, err := o.Nearby(context.Background(), home, Categories[2], 2)

	require.NoError(t, err)
	require.Len(t, pois, 2)
	assert.Equal(t, "Unnamed", pois[0].Name)
	assert.InDelta(t, 0.078, pois[0].DistanceKm, 0.001)
	assert.Equal(t, "Far Clinic", pois[1].Name)
	assert.Less(t, pois[0].DistanceKm, pois[1].DistanceKm)
}

func TestOverpass_Failure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusGatewayTimeout)
	}))
	defer srv.Close()

	_, err := NewOverpass(httpclient.NewClient(srv.URL), time.Second).Nearby(context.Background(), home, Categories[0], 2)
	assert.Error(t, err)
}

func TestVerify_NoClaims(t *testing.T) {
	src := &mockSource{}
	s := NewVerifier(src, Config{}).Verify(context.Background(), home, "3BHK flat", "East facing, covered parking.")

	assert.Equal(t, 0.0, s.Value)
	src.AssertNotCalled(t, "Nearby", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestVerify_Mixed(t *testing.T) {
	src := &mockSource{}
	src.On("Nearby", mock.Anything, home, "transit", 2.0).
		Return([]POI{{Name: "Madhapur Metro", DistanceKm: 0.3}, {Name: "Durgam Cheruvu", DistanceKm: 1.2}}, nil)
	src.On("Nearby", mock.Anything, home, "healthcare", 2.0).Return([]POI{}, nil)

	s := NewVerifier(src, Config{}).Verify(context.Background(), home, "Flat near metro", "Close to a hospital.")

	assert.InDelta(t, 0.5, s.Value, 1e-9)
	assert.Contains(t, s.Explanation, "1 of 2 amenity claims could not be verified")
	assert.Contains(t, s.Explanation, "nearest Madhapur Metro at 0.30 km, very close, 2 found")
	assert.Contains(t, s.Explanation, `healthcare ("hospital") NOT verified`)
	src.AssertExpectations(t)
}

func TestVerify_AllFalse(t *testing.T) {
	src := &mockSource{}
	src.On("Nearby", mock.Anything, home, mock.Anything, 2.0).Return([]POI{}, nil)

	s := NewVerifier(src, Config{}).Verify(context.Background(), home, "Near metro", "Walk to school and the mall.")

	assert.Equal(t, 1.0, s.Value)
	src.AssertNumberOfCalls(t, "Nearby", 3)
}

func TestVerify_SingleFalseClaim(t *testing.T) {
	src := &mockSource{}
	src.On("Nearby", mock.Anything, home, "finance", 2.0).Return([]POI{}, nil)

	s := NewVerifier(src, Config{}).Verify(context.Background(), home, "", "ATM downstairs")
	assert.InDelta(t, 1.0, s.Value, 1e-9)
}

func TestVerify_OutsideRadiusIgnored(t *testing.T) {
	src := &mockSource{}
	src.On("Nearby", mock.Anything, home, "retail", 2.0).Return([]POI{{Name: "Far Mall", DistanceKm: 2.5}}, nil)

	s := NewVerifier(src, Config{}).Verify(context.Background(), home, "", "Next to the mall")
	assert.Equal(t, 1.0, s.Value)
}

func TestVerify_UnverifiableExcluded(t *testing.T) {
	src := &mockSource{}
	src.On("Nearby", mock.Anything, home, "transit", 2.0).Return([]POI{{Name: "Metro", DistanceKm: 1.0}}, nil)
	src.On("Nearby", mock.Anything, home, "education", 2.0).Return(nil, errors.New("overpass busy"))

	s := NewVerifier(src, Config{}).Verify(context.Background(), home, "Metro", "School nearby")

	assert.Equal(t, 0.0, s.Value)
	assert.Contains(t, s.Explanation, "All 1 checked amenity claims verified")
	assert.Contains(t, s.Explanation, "education (\"school\") unverifiable")
	assert.NotContains(t, s.Explanation, "very close")
}

func TestVerify_AllUnverifiable(t *testing.T) {
	src := &mockSource{}
	src.On("Nearby", mock.Anything, home, mock.Anything, 2.0).Return(nil, errors.New("timeout"))

	s := NewVerifier(src, Config{}).Verify(context.Background(), home, "Metro", "School nearby")

	assert.Equal(t, 0.5, s.Value)
	assert.Contains(t, s.Explanation, "unavailable")
}

func TestVerify_InvalidCoordinates(t *testing.T) {
	src := &mockSource{}
	s := NewVerifier(src, Config{}).Verify(context.Background(), geo.Point{Lat: 100}, "Metro", "")

	assert.Equal(t, 0.5, s.Value)
	src.AssertNotCalled(t, "Nearby", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestConfigDefaults(t *testing.T) {
	c := Config{}.withDefaults()
	assert.Equal(t, 2.0, c.NearbyKm)
	assert.Equal(t, 0.5, c.VeryCloseKm)

	c = Config{NearbyKm: 0.3}.withDefaults()
	assert.Equal(t, 0.3, c.VeryCloseKm)
}
