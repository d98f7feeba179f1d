package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tecnolord/meteohub/internal/config"
	"github.com/tecnolord/meteohub/internal/db"
	"github.com/tecnolord/meteohub/internal/ingest"
)

type stubRunner struct {
	summary ingest.PullSummary
	hydro   ingest.HydroResult
	err     error
}

func (s *stubRunner) PullAll(context.Context) (ingest.PullSummary, error) {
	return s.summary, s.err
}

func (s *stubRunner) PullHydro(context.Context) (ingest.HydroResult, error) {
	return s.hydro, s.err
}

type stubStore struct {
	pingErr error
	weather []db.WeatherItem
	hydro   []db.HydroItem
	err     error
}

func (s *stubStore) Ping(context.Context) error { return s.pingErr }

func (s *stubStore) LatestWeather(context.Context, *string, int) ([]db.WeatherItem, error) {
	return s.weather, s.err
}

func (s *stubStore) LatestHydro(context.Context, *string, int) ([]db.HydroItem, error) {
	return s.hydro, s.err
}

func newTestServer(apiKey string, store QueryStore, runner Ingestor) *Server {
	cfg := config.Config{Port: 8080, IngestAPIKey: apiKey}
	return New(cfg, store, runner, zap.NewNop())
}

func perform(t *testing.T, srv *Server, method, target string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	srv.Engine().ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestPullRejectedWithoutConfiguredKey(t *testing.T) {
	srv := newTestServer("", &stubStore{}, &stubRunner{})

	w := perform(t, srv, http.MethodPost, "/tasks/pull-ecowitt", map[string]string{"x-api-key": "anything"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, false, body["ok"])
}

func TestPullRejectedWithBadKey(t *testing.T) {
	srv := newTestServer("secret", &stubStore{}, &stubRunner{})

	w := perform(t, srv, http.MethodPost, "/tasks/pull-ecowitt", map[string]string{"x-api-key": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, false, body["ok"])
	assert.Equal(t, "invalid api key", body["error"])
}

func TestPullCreatedVsDuplicate(t *testing.T) {
	id := int64(7)
	instant := time.Date(2024, 6, 1, 10, 30, 0, 0, time.UTC)

	runner := &stubRunner{summary: ingest.PullSummary{
		Meteo: ingest.WeatherResult{ID: &id, Station: "home", Instant: instant},
		Hidro: ingest.HydroResult{OK: true, Inserts: []ingest.HydroInsert{}},
	}}
	srv := newTestServer("secret", &stubStore{}, runner)

	w := perform(t, srv, http.MethodPost, "/tasks/pull-ecowitt", map[string]string{"x-api-key": "secret"})
	assert.Equal(t, http.StatusCreated, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, true, body["ok"])
	meteo := body["meteo"].(map[string]any)
	assert.Equal(t, "home", meteo["estacio"])
	assert.Equal(t, float64(7), meteo["id"])

	// Duplicate reading: nil id maps to 200.
	runner.summary.Meteo.ID = nil
	w = perform(t, srv, http.MethodPost, "/api/tasks/pull-ecowitt", map[string]string{"x-api-key": "secret"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestPullKeyViaQueryParam(t *testing.T) {
	srv := newTestServer("secret", &stubStore{}, &stubRunner{})

	w := perform(t, srv, http.MethodPost, "/tasks/pull-aca?key=secret", nil)
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestPullHydroAlwaysCreatedOnSuccess(t *testing.T) {
	runner := &stubRunner{hydro: ingest.HydroResult{OK: true}}
	srv := newTestServer("secret", &stubStore{}, runner)

	w := perform(t, srv, http.MethodPost, "/tasks/pull-aca", map[string]string{"x-api-key": "secret"})
	assert.Equal(t, http.StatusCreated, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, true, body["ok"])
}

func TestPullFailureCollapsesToGenericError(t *testing.T) {
	runner := &stubRunner{err: errors.New("upstream status 503: http://example.test")}
	srv := newTestServer("secret", &stubStore{}, runner)

	w := perform(t, srv, http.MethodPost, "/tasks/pull-ecowitt", map[string]string{"x-api-key": "secret"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, false, body["ok"])
	assert.Equal(t, "pull failed", body["error"], "internal detail must not leak")
}

func TestPing(t *testing.T) {
	srv := newTestServer("", &stubStore{}, &stubRunner{})

	w := perform(t, srv, http.MethodGet, "/api/ping", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, "pong", body["msg"])
}

func TestHealthReportsDBDown(t *testing.T) {
	srv := newTestServer("", &stubStore{pingErr: errors.New("no connection")}, &stubRunner{})

	w := perform(t, srv, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, "down", body["db"])
}

func TestLatestWeather(t *testing.T) {
	store := &stubStore{weather: []db.WeatherItem{{ID: 1, Station: "home"}}}
	srv := newTestServer("", store, &stubRunner{})

	w := perform(t, srv, http.MethodGet, "/api/v1/weather/latest?station=home&limit=10", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, true, body["ok"])
	items := body["items"].([]any)
	require.Len(t, items, 1)
}

func TestLatestHydroQueryError(t *testing.T) {
	store := &stubStore{err: errors.New("boom")}
	srv := newTestServer("", store, &stubRunner{})

	w := perform(t, srv, http.MethodGet, "/api/v1/hydro/latest", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, "db query error", body["error"])
}

func TestListLimitClamped(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/?limit=99999", nil)
	assert.Equal(t, maxListLimit, listLimit(c))

	c, _ = gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Equal(t, defaultListLimit, listLimit(c))

	c, _ = gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/?limit=bogus", nil)
	assert.Equal(t, defaultListLimit, listLimit(c))
}
