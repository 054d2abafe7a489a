package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"weathersub.app/internal/adapters/api"
	"weathersub.app/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Port: 0, AdminTriggerEnabled: true},
		Database: config.DatabaseConfig{
			Driver:              config.DatabaseDriverSQLite,
			SQLitePath:          ":memory:",
			QueryTimeoutSeconds: 5,
		},
		Weather: config.WeatherConfig{
			EnableCache:     true,
			CacheTTLMinutes: 10,
			TimeoutSeconds:  1,
		},
		Email: config.EmailConfig{
			SMTPHost:       "127.0.0.1",
			SMTPPort:       1,
			FromName:       "Weather Updates",
			FromAddress:    "no-reply@weathersub.app",
			TimeoutSeconds: 1,
		},
		Scheduler: config.SchedulerConfig{
			Enabled:                 false,
			Timezone:                "Europe/Berlin",
			MaxConcurrency:          2,
			RecipientTimeoutSeconds: 1,
		},
		Cache:      config.CacheConfig{Type: config.CacheTypeMemory},
		AppBaseURL: "http://localhost:8080",
	}
}

func newTestApplication(t *testing.T, cfg *config.Config) *Application {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	application, err := NewApplication(cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = application.Shutdown(ctx)
	})
	return application
}

func request(router http.Handler, method, target string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestNewApplication_InvalidConfiguration(t *testing.T) {
	cfg := testConfig()
	cfg.Scheduler.Timezone = "Mars/Olympus_Mons"
	_, err := NewApplication(cfg, nil)
	assert.Error(t, err)

	cfg = testConfig()
	cfg.Database.Driver = "oracle"
	_, err = NewApplication(cfg, nil)
	assert.Error(t, err)
}

func TestApplication_HealthReportsMissingWeatherCredentials(t *testing.T) {
	application := newTestApplication(t, testConfig())

	w := request(application.GetRouter(), http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var response api.HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "degraded", response.Status)
	assert.Equal(t, "healthy", response.Components["database"].Status)
	assert.Equal(t, "healthy", response.Components["cache"].Status)
	assert.Equal(t, "healthy", response.Components["smtp"].Status)
	assert.Equal(t, "degraded", response.Components["weather"].Status)
}

func TestApplication_SubscriptionLifecycleOverSQLite(t *testing.T) {
	application := newTestApplication(t, testConfig())
	router := application.GetRouter()

	// The SMTP relay is unreachable; the subscription is still stored.
	body := []byte(`{"email":"user@example.com","city":"Kyiv","frequency":"hourly"}`)
	w := request(router, http.MethodPost, "/api/subscribe", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var subscribed api.SubscribeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &subscribed))
	require.NotEmpty(t, subscribed.UnsubscribeToken)

	w = request(router, http.MethodPost, "/api/subscribe", []byte(`{"email":"USER@example.com","city":"Lviv","frequency":"daily"}`))
	assert.Equal(t, http.StatusConflict, w.Code)

	w = request(router, http.MethodGet, "/api/status?email=user@example.com", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"email":"user@example.com","confirmed":false}`, w.Body.String())

	w = request(router, http.MethodGet, "/api/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"hourly":1,"daily":0,"confirmed":0}`, w.Body.String())

	w = request(router, http.MethodGet, "/api/unsubscribe/"+subscribed.UnsubscribeToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = request(router, http.MethodGet, "/api/unsubscribe/"+subscribed.UnsubscribeToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = request(router, http.MethodGet, "/api/status?email=user@example.com", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestApplication_AdminTriggerWithNoRecipients(t *testing.T) {
	application := newTestApplication(t, testConfig())

	w := request(application.GetRouter(), http.MethodPost, "/api/admin/notify/daily", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var response api.BatchResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "daily", response.Frequency)
	assert.Equal(t, 0, response.Recipients)
	assert.NotEmpty(t, response.RunID)
}

func TestApplication_MetricsExposeBatchRuns(t *testing.T) {
	application := newTestApplication(t, testConfig())
	router := application.GetRouter()

	require.Equal(t, http.StatusOK, request(router, http.MethodPost, "/api/admin/notify/hourly", nil).Code)

	w := request(router, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `weathersub_batch_runs_total{frequency="hourly"} 1`)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestApplication_WeatherWithoutProvidersIsUnavailable(t *testing.T) {
	application := newTestApplication(t, testConfig())

	w := request(application.GetRouter(), http.MethodGet, "/api/weather?city=Kyiv", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
