package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vzahanych/outfit-wizard/internal/i18n"
	"github.com/vzahanych/outfit-wizard/internal/server/utils"
	"go.uber.org/zap/zaptest"
)

func newEngine(t *testing.T) (*gin.Engine, *MetricsMiddleware) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zaptest.NewLogger(t)

	metrics := NewMetricsMiddleware(logger, nil)
	r := gin.New()
	r.Use(RequestIDMiddleware(logger))
	r.Use(metrics.Handler())
	r.Use(RecoveryMiddleware(logger, false))
	r.Use(LanguageMiddleware(i18n.Default()))

	r.GET("/lang", func(c *gin.Context) {
		c.String(http.StatusOK, utils.GetPrinterFromGinContext(c).Tag().String())
	})
	r.GET("/panic", func(c *gin.Context) {
		panic("boom")
	})
	return r, metrics
}

func TestRequestIDIsEchoed(t *testing.T) {
	r, _ := newEngine(t)

	req := httptest.NewRequest(http.MethodGet, "/lang", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "req-123", w.Header().Get(RequestIDHeader))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/lang", nil))
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}

func TestLanguageResolution(t *testing.T) {
	r, _ := newEngine(t)

	tests := []struct {
		name   string
		path   string
		accept string
		cookie string
		want   string
	}{
		{"default", "/lang", "", "", "de"},
		{"accept language", "/lang", "en-GB,en;q=0.8", "", "en"},
		{"unsupported falls back", "/lang", "fr-FR", "", "de"},
		{"cookie", "/lang", "", "en", "en"},
		{"query wins", "/lang?lang=de", "en", "en", "de"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.accept != "" {
				req.Header.Set("Accept-Language", tt.accept)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: LangCookieName, Value: tt.cookie})
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.want, w.Body.String())
		})
	}
}

func TestLanguageQueryIsPersisted(t *testing.T) {
	r, _ := newEngine(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/lang?lang=en", nil))

	var found bool
	for _, ck := range w.Result().Cookies() {
		if ck.Name == LangCookieName {
			found = true
			assert.Equal(t, "en", ck.Value)
		}
	}
	assert.True(t, found)
}

func TestRecoveryAndMetrics(t *testing.T) {
	r, metrics := newEngine(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/lang", nil))

	snap := metrics.GetHTTPMetrics().Snapshot()
	assert.Equal(t, int64(1), snap.RequestsTotal["GET /lang_200"])
	assert.Equal(t, int64(1), snap.RequestsTotal["GET /panic_500"])
	assert.Equal(t, int64(0), snap.ActiveRequests)
}
