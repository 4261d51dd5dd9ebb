package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vzahanych/outfit-wizard/internal/config"
	"github.com/vzahanych/outfit-wizard/internal/geo"
	"github.com/vzahanych/outfit-wizard/internal/outfit"
	"github.com/vzahanych/outfit-wizard/internal/server/handlers"
	"github.com/vzahanych/outfit-wizard/internal/session"
	"github.com/vzahanych/outfit-wizard/internal/stage"
	"github.com/vzahanych/outfit-wizard/internal/weather"
	"go.uber.org/zap/zaptest"
)

type fixedSource struct {
	snapshot weather.Snapshot
}

func (s fixedSource) Current(ctx context.Context, location string) (weather.Snapshot, error) {
	return s.snapshot, nil
}

func (s fixedSource) Name() string { return "fixed" }

var mildCloudy = weather.Snapshot{
	Temperature:     13,
	Condition:       weather.ConditionCloudy,
	RainProbability: 30,
	WindSpeed:       12,
	Humidity:        55,
	FeelsLike:       11,
	Description:     "Bewölkt",
}

type client struct {
	t       *testing.T
	handler http.Handler
	cookie  *http.Cookie
	lang    string
}

func newTestClient(t *testing.T) *client {
	t.Helper()
	logger := zaptest.NewLogger(t)

	cfg := config.NewDefaultConfig()
	cfg.Weather.DelayMS = 0
	cfg.Wizard.LocationDelayMS = 0
	cfg.Wizard.OutfitDelayMS = 0

	provider := weather.NewProvider(&cfg.Weather, logger, nil)
	provider.RegisterSource(fixedSource{snapshot: mildCloudy})
	provider.Use("fixed")

	manager := session.NewManager(session.NewMemoryStore(), provider, session.OptionsFromConfig(cfg), logger, nil)
	srv := NewServer(cfg, manager, provider, logger, nil)

	ctx, cancel := context.WithCancel(context.Background())
	manager.Start(ctx)
	t.Cleanup(func() {
		cancel()
		manager.Stop()
	})

	return &client{t: t, handler: srv.Handler()}
}

func (c *client) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	c.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if c.lang != "" {
		req.Header.Set("Accept-Language", c.lang)
	}
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}

	w := httptest.NewRecorder()
	c.handler.ServeHTTP(w, req)

	for _, ck := range w.Result().Cookies() {
		if ck.Name == "wizard_session" {
			c.cookie = ck
		}
	}
	return w
}

func (c *client) view(method, path string, body interface{}) stage.View {
	c.t.Helper()
	w := c.do(method, path, body)
	require.Equal(c.t, http.StatusOK, w.Code, w.Body.String())
	var v stage.View
	require.NoError(c.t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

func (c *client) waitView(cond func(stage.View) bool) stage.View {
	c.t.Helper()
	var v stage.View
	require.Eventually(c.t, func() bool {
		v = c.view(http.MethodGet, "/api/v1/wizard", nil)
		return cond(v)
	}, 2*time.Second, 5*time.Millisecond)
	return v
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) handlers.ErrorResponse {
	t.Helper()
	var resp handlers.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestWizardFlow(t *testing.T) {
	c := newTestClient(t)

	v := c.view(http.MethodGet, "/api/v1/wizard", nil)
	require.NotNil(t, c.cookie)
	assert.Equal(t, 1, v.Stage)
	assert.Equal(t, "de", v.Lang)
	require.NotNil(t, v.Location)

	w := c.do(http.MethodPost, "/api/v1/wizard/location", map[string]interface{}{"location": "   "})
	require.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeError(t, w)
	assert.Equal(t, "EMPTY_LOCATION", resp.Code)
	require.NotNil(t, resp.View)
	assert.Equal(t, 1, resp.View.Stage)

	v = c.view(http.MethodPost, "/api/v1/wizard/location", map[string]interface{}{"location": "Köln", "preset": true})
	assert.Equal(t, 2, v.Stage)
	assert.Equal(t, "Aktuelles Wetter in Köln", v.Weather.Subtitle)

	v = c.waitView(func(v stage.View) bool { return v.Weather != nil && v.Weather.Snapshot != nil })
	assert.Equal(t, "Bewölkt", v.Weather.ConditionText)

	v = c.view(http.MethodPost, "/api/v1/wizard/weather", nil)
	assert.Equal(t, 3, v.Stage)

	v = c.waitView(func(v stage.View) bool { return v.Outfit != nil && v.Outfit.Outfit != nil })
	assert.Equal(t, "Hose", v.Outfit.Outfit.BottomWear)
	assert.Equal(t, []string{"Leichte Jacke"}, v.Outfit.Outfit.Outerwear)

	v = c.view(http.MethodPost, "/api/v1/wizard/outfit", nil)
	assert.Equal(t, 4, v.Stage)
	require.NotNil(t, v.Colors)
	assert.Equal(t, []string{"Hose", "Langarmshirt", "Pulli"}, v.Colors.Summary)

	v = c.view(http.MethodPut, "/api/v1/wizard/colors", map[string]string{"bottom_color": "jeans"})
	assert.Equal(t, "jeans", v.Colors.Selected)
	assert.Len(t, v.Colors.Suggestions, 8)

	w = c.do(http.MethodPut, "/api/v1/wizard/colors", map[string]string{"bottom_color": "lila"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_PARAMS", decodeError(t, w).Code)

	v = c.view(http.MethodPost, "/api/v1/wizard/back", nil)
	assert.Equal(t, 3, v.Stage)

	v = c.view(http.MethodPost, "/api/v1/wizard/reset", nil)
	assert.Equal(t, 1, v.Stage)

	w = c.do(http.MethodPost, "/api/v1/wizard/back", nil)
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "NO_PREVIOUS_STAGE", decodeError(t, w).Code)
}

func TestWizardWrongStage(t *testing.T) {
	c := newTestClient(t)

	w := c.do(http.MethodPost, "/api/v1/wizard/weather", nil)
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "WRONG_STAGE", decodeError(t, w).Code)
	assert.NotNil(t, c.cookie)
}

func TestWizardCurrentLocation(t *testing.T) {
	c := newTestClient(t)

	w := c.do(http.MethodPost, "/api/v1/wizard/location/current", map[string]string{"error": "denied"})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	resp := decodeError(t, w)
	assert.Equal(t, "GEOLOCATION_FAILED", resp.Code)
	require.NotNil(t, resp.View)
	assert.Equal(t, "Standort konnte nicht ermittelt werden. Bitte geben Sie eine Stadt manuell ein.", resp.View.Notice)

	w = c.do(http.MethodPost, "/api/v1/wizard/location/current", map[string]string{"error": "unsupported"})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "GEOLOCATION_UNSUPPORTED", decodeError(t, w).Code)

	w = c.do(http.MethodPost, "/api/v1/wizard/location/current", map[string]string{"error": "exploded"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = c.do(http.MethodPost, "/api/v1/wizard/location/current", map[string]float64{"latitude": 123, "longitude": 13.4})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	v := c.view(http.MethodPost, "/api/v1/wizard/location/current", map[string]float64{"latitude": 52.52, "longitude": 13.405})
	assert.Equal(t, 2, v.Stage)
	assert.Empty(t, v.Notice)
	assert.Equal(t, "Aktuelles Wetter in "+geo.CurrentLocation, v.Weather.Subtitle)
}

func TestWizardLanguage(t *testing.T) {
	c := newTestClient(t)
	c.lang = "en-US,en;q=0.9"

	v := c.view(http.MethodGet, "/api/v1/wizard", nil)
	assert.Equal(t, "en", v.Lang)
	assert.Equal(t, "Choose a location", v.Location.Title)

	v = c.view(http.MethodGet, "/api/v1/wizard?lang=de", nil)
	assert.Equal(t, "de", v.Lang)
}

func TestColorsLookup(t *testing.T) {
	c := newTestClient(t)

	w := c.do(http.MethodGet, "/api/v1/colors/beige", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp handlers.ColorsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Beige", resp.Name)
	require.Len(t, resp.Suggestions, 5)
	assert.Equal(t, "Schwarz", resp.Suggestions[0].Name)

	w = c.do(http.MethodGet, "/api/v1/colors/lila", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Suggestions, 1)
	assert.Equal(t, "Neutrale Farben empfohlen", resp.Suggestions[0].Name)
}

func TestDecideOutfit(t *testing.T) {
	c := newTestClient(t)

	w := c.do(http.MethodPost, "/api/v1/outfit", weather.Snapshot{
		Temperature:     -3,
		Condition:       weather.ConditionRainy,
		RainProbability: 90,
		WindSpeed:       30,
	})
	require.Equal(t, http.StatusOK, w.Code)
	var o outfit.Outfit
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &o))
	assert.Equal(t, "Dicke Hose", o.BottomWear)
	assert.Equal(t, []string{"Winterjacke", "Regenjacke"}, o.Outerwear)
	assert.True(t, o.Flags.Rainy)
	assert.True(t, o.Flags.Windy)

	w = c.do(http.MethodPost, "/api/v1/outfit", map[string]interface{}{"temperature": 10, "condition": "foggy"})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	c := newTestClient(t)

	w := c.do(http.MethodGet, "/health/ready", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var health handlers.HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, "ready", health.Status)
	assert.Equal(t, "ok", health.Checks["session_store"])

	w = c.do(http.MethodGet, "/health/live", nil)
	require.Equal(t, http.StatusOK, w.Code)

	c.view(http.MethodPost, "/api/v1/wizard/location", map[string]interface{}{"location": "Berlin", "preset": true})

	w = c.do(http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.True(t, strings.Contains(body, `wizard_transitions_total{stage="weather"} 1`), body)
	assert.Contains(t, body, "http_requests_total")
	assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")
}
