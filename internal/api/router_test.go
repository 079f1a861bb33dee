package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/heatmap-backend-go/internal/config"
	"github.com/jengzang/heatmap-backend-go/internal/database"
	"github.com/jengzang/heatmap-backend-go/internal/middleware"
	"github.com/jengzang/heatmap-backend-go/internal/repository"
	"github.com/jengzang/heatmap-backend-go/internal/sampling"
	"github.com/jengzang/heatmap-backend-go/internal/service"
)

const testSecret = "test-secret"

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newTestRouter(t *testing.T, cfg *config.Config) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	conn, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, database.NewMigrationManager(conn).RunMigrations())

	repo := repository.NewVisitRepository(conn)
	policy := sampling.NewPolicy(sampling.DefaultPolicyConfig(), repo, nil)
	tracker := sampling.NewTracker(policy, true)

	return SetupRouter(cfg, Services{
		Heatmap:  service.NewHeatmapService(repo),
		Visits:   service.NewVisitService(repo),
		Tracking: service.NewTrackingService(tracker),
		Limiter:  middleware.NewRateLimiter(cfg.RateLimit, time.Minute),
	})
}

func do(r http.Handler, method, path, body string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, data interface{}) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	if data != nil {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env
}

func TestHealth(t *testing.T) {
	r := newTestRouter(t, &config.Config{RateLimit: 100})

	w := do(r, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
}

func TestReportFixesThenHeatmap(t *testing.T) {
	r := newTestRouter(t, &config.Config{RateLimit: 100})

	body := `{"fixes":[
		{"latitude":40.7128,"longitude":-74.0060,"timestamp":"2026-01-07T08:30:00Z"},
		{"latitude":40.7128,"longitude":-74.0060,"timestamp":"2026-01-07T08:31:00Z"},
		{"latitude":40.7128,"longitude":-74.0060,"timestamp":"2026-01-07T08:40:00Z"},
		{"latitude":95,"longitude":0}
	]}`
	w := do(r, http.MethodPost, "/api/v1/fixes", body, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var report struct {
		Decisions []sampling.Decision `json:"decisions"`
		Accepted  int                 `json:"accepted"`
		Count     int                 `json:"count"`
	}
	decode(t, w, &report)
	assert.Equal(t, 4, report.Count)
	assert.Equal(t, 2, report.Accepted)
	assert.Equal(t, sampling.ReasonFirstFix, report.Decisions[0].Reason)
	assert.Equal(t, sampling.ReasonTooClose, report.Decisions[1].Reason)
	assert.Equal(t, sampling.ReasonElapsed, report.Decisions[2].Reason)
	assert.Equal(t, sampling.ReasonInvalidFix, report.Decisions[3].Reason)
	require.NotNil(t, report.Decisions[2].Record)
	assert.Equal(t, 600.0, report.Decisions[2].Record.Duration)

	w = do(r, http.MethodGet, "/api/v1/heatmap", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var heat struct {
		Points []struct {
			CellKey   string  `json:"cell_key"`
			Intensity float64 `json:"intensity"`
			ColorHex  string  `json:"color_hex"`
			Count     int     `json:"count"`
		} `json:"points"`
		VisitCount int `json:"visit_count"`
	}
	decode(t, w, &heat)
	assert.Equal(t, 2, heat.VisitCount)
	require.Len(t, heat.Points, 1)
	assert.Equal(t, "lat_40.713_lng_-74.006", heat.Points[0].CellKey)
	assert.Equal(t, 1.0, heat.Points[0].Intensity)
	assert.Equal(t, "#ff0000", heat.Points[0].ColorHex)
	assert.Equal(t, 2, heat.Points[0].Count)

	w = do(r, http.MethodGet, "/api/v1/heatmap?minLat=0&maxLat=10", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &heat)
	assert.Empty(t, heat.Points)

	w = do(r, http.MethodGet, "/api/v1/visits?pageSize=1", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var visits struct {
		Total      int64 `json:"total"`
		TotalPages int   `json:"totalPages"`
	}
	decode(t, w, &visits)
	assert.Equal(t, int64(2), visits.Total)
	assert.Equal(t, 2, visits.TotalPages)
}

func TestReportSingleFix(t *testing.T) {
	r := newTestRouter(t, &config.Config{RateLimit: 100})

	w := do(r, http.MethodPost, "/api/v1/fixes", `{"latitude":1.5,"longitude":2.5}`, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var report struct {
		Accepted int `json:"accepted"`
	}
	decode(t, w, &report)
	assert.Equal(t, 1, report.Accepted)
}

func TestReportFixesBadRequests(t *testing.T) {
	r := newTestRouter(t, &config.Config{RateLimit: 100})

	w := do(r, http.MethodPost, "/api/v1/fixes", `{"latitude":`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, "/api/v1/fixes", `{"fixes":[{"latitude":1}]}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	env := decode(t, w, nil)
	assert.Equal(t, http.StatusBadRequest, env.Code)
}

func TestHeatmapGeoJSON(t *testing.T) {
	r := newTestRouter(t, &config.Config{RateLimit: 100})
	do(r, http.MethodPost, "/api/v1/fixes", `{"latitude":-33.8688,"longitude":151.2093}`, nil)

	w := do(r, http.MethodGet, "/api/v1/heatmap/geojson", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/geo+json", w.Header().Get("Content-Type"))

	var fc struct {
		Type     string `json:"type"`
		Features []struct {
			Geometry struct {
				Coordinates []float64 `json:"coordinates"`
			} `json:"geometry"`
			Properties map[string]interface{} `json:"properties"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fc))
	assert.Equal(t, "FeatureCollection", fc.Type)
	require.Len(t, fc.Features, 1)
	assert.Equal(t, []float64{151.2093, -33.8688}, fc.Features[0].Geometry.Coordinates)
	assert.Equal(t, 0.5, fc.Features[0].Properties["intensity"])
}

func TestHeatmapInvertedBounds(t *testing.T) {
	r := newTestRouter(t, &config.Config{RateLimit: 100})

	w := do(r, http.MethodGet, "/api/v1/heatmap?minLat=10&maxLat=5", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodGet, "/api/v1/heatmap?minLat=0&maxLat=-5", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHeatmapZeroLatitudeBound(t *testing.T) {
	r := newTestRouter(t, &config.Config{RateLimit: 100})
	do(r, http.MethodPost, "/api/v1/fixes", `{"fixes":[
		{"latitude":40.7128,"longitude":-74.0060,"timestamp":"2026-01-07T08:30:00Z"},
		{"latitude":-33.9249,"longitude":18.4241,"timestamp":"2026-01-07T20:30:00Z"}
	]}`, nil)

	w := do(r, http.MethodGet, "/api/v1/heatmap?maxLat=0", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var heat struct {
		Points []struct {
			CellKey string `json:"cell_key"`
		} `json:"points"`
	}
	decode(t, w, &heat)
	require.Len(t, heat.Points, 1)
	assert.Equal(t, "lat_-33.925_lng_18.424", heat.Points[0].CellKey)
}

func TestTrackingSwitch(t *testing.T) {
	r := newTestRouter(t, &config.Config{RateLimit: 100})

	w := do(r, http.MethodPost, "/api/v1/tracking/stop", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var status sampling.TrackingStatus
	decode(t, w, &status)
	assert.False(t, status.Tracking)

	w = do(r, http.MethodPost, "/api/v1/fixes", `{"latitude":1,"longitude":1}`, nil)
	var report struct {
		Decisions []sampling.Decision `json:"decisions"`
	}
	decode(t, w, &report)
	assert.Equal(t, sampling.ReasonNotTracking, report.Decisions[0].Reason)

	do(r, http.MethodPost, "/api/v1/tracking/start", "", nil)
	do(r, http.MethodPost, "/api/v1/fixes", `{"latitude":1,"longitude":1}`, nil)

	w = do(r, http.MethodGet, "/api/v1/tracking", "", nil)
	decode(t, w, &status)
	assert.True(t, status.Tracking)
	require.NotNil(t, status.CurrentFix)
	require.NotNil(t, status.LastAccepted)
	assert.Equal(t, 1.0, status.LastAccepted.Latitude)
}

func TestAuthOnWriteEndpoints(t *testing.T) {
	r := newTestRouter(t, &config.Config{RateLimit: 100, AuthEnabled: true, JWTSecret: testSecret})

	w := do(r, http.MethodPost, "/api/v1/fixes", `{"latitude":1,"longitude":1}`, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token, err := middleware.IssueToken(testSecret, "phone-1", jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	require.NoError(t, err)
	w = do(r, http.MethodPost, "/api/v1/fixes", `{"latitude":1,"longitude":1}`, http.Header{
		"Authorization": []string{"Bearer " + token},
	})
	assert.Equal(t, http.StatusOK, w.Code)

	// Reads stay open
	w = do(r, http.MethodGet, "/api/v1/heatmap", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimitOnWriteEndpoints(t *testing.T) {
	r := newTestRouter(t, &config.Config{RateLimit: 2})

	for i := 0; i < 2; i++ {
		w := do(r, http.MethodPost, "/api/v1/tracking/start", "", nil)
		assert.Equal(t, http.StatusOK, w.Code)
	}
	w := do(r, http.MethodPost, "/api/v1/tracking/start", "", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	w = do(r, http.MethodGet, "/api/v1/tracking", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	r := newTestRouter(t, &config.Config{RateLimit: 100})
	do(r, http.MethodPost, "/api/v1/fixes", `{"latitude":1,"longitude":1}`, nil)

	w := do(r, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "heatmap_fixes_total")
}
