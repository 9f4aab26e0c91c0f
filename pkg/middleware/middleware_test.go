package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type listingRequest struct {
	Title string  `json:"title" validate:"required,notblank,max=20"`
	Price float64 `json:"price" validate:"gt=0"`
}

func newTestRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(handlers...)
	return r
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestCorrelationID(t *testing.T) {
	r := newTestRouter(CorrelationID())
	var seen string
	r.GET("/", func(c *gin.Context) {
		seen = GetCorrelationID(c)
		c.Status(http.StatusNoContent)
	})

	t.Run("propagates incoming header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(CorrelationIDHeader, "abc-123")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, "abc-123", seen)
		assert.Equal(t, "abc-123", w.Header().Get(CorrelationIDHeader))
	})

	t.Run("generates when missing", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Len(t, seen, 36)
		assert.Equal(t, seen, w.Header().Get(CorrelationIDHeader))
	})
}

func TestGetCorrelationID_Missing(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Empty(t, GetCorrelationID(c))
}

func TestRecovery(t *testing.T) {
	r := newTestRouter(Recovery())
	r.GET("/panic", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decode(t, w)
	assert.False(t, body["success"].(bool))
	assert.Equal(t, "internal server error", body["error"].(map[string]interface{})["message"])
}

func TestSecurityHeaders(t *testing.T) {
	r := newTestRouter(SecurityHeaders())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	assert.Contains(t, w.Header().Get("Content-Security-Policy"), "default-src 'none'")
}

func TestRequestLoggerAndMetricsPassThrough(t *testing.T) {
	r := newTestRouter(RequestLogger(), Metrics("test"))
	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/fail", func(c *gin.Context) { c.Status(http.StatusBadGateway) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/fail", nil))
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestValidateAndBind(t *testing.T) {
	r := newTestRouter()
	r.POST("/listings", MaxBodySize(128), ValidateJSONContentType(), func(c *gin.Context) {
		var req listingRequest
		if !ValidateAndBind(c, &req) {
			return
		}
		c.JSON(http.StatusOK, req)
	})

	tests := []struct {
		name        string
		body        string
		contentType string
		wantStatus  int
		wantField   string
	}{
		{"valid", `{"title":"2BHK","price":10}`, "application/json", http.StatusOK, ""},
		{"blank title", `{"title":"   ","price":10}`, "application/json", http.StatusBadRequest, "title"},
		{"title too long", `{"title":"` + strings.Repeat("x", 21) + `","price":10}`, "application/json", http.StatusBadRequest, "title"},
		{"negative price", `{"title":"2BHK","price":-1}`, "application/json", http.StatusBadRequest, "price"},
		{"malformed", `{"title":`, "application/json", http.StatusBadRequest, ""},
		{"too large", `{"title":"` + strings.Repeat("x", 200) + `"}`, "application/json", http.StatusRequestEntityTooLarge, ""},
		{"form body", `title=x`, "application/x-www-form-urlencoded", http.StatusUnsupportedMediaType, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/listings", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", tt.contentType)
			w := httptest.NewRecorder()

			r.ServeHTTP(w, req)

			require.Equal(t, tt.wantStatus, w.Code)
			if tt.wantField != "" {
				fields := decode(t, w)["error"].(map[string]interface{})["fields"].(map[string]interface{})
				assert.Contains(t, fields, tt.wantField)
			}
		})
	}
}
