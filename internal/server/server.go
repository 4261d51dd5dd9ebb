package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/vzahanych/outfit-wizard/internal/config"
	"github.com/vzahanych/outfit-wizard/internal/i18n"
	"github.com/vzahanych/outfit-wizard/internal/server/handlers"
	"github.com/vzahanych/outfit-wizard/internal/server/middlewares"
	"github.com/vzahanych/outfit-wizard/internal/session"
	"github.com/vzahanych/outfit-wizard/internal/weather"
	"github.com/vzahanych/outfit-wizard/pkg/telemetry"
	"go.uber.org/zap"
)

type Server struct {
	cfg      *config.Config
	engine   *gin.Engine
	server   *http.Server
	manager  *session.Manager
	provider *weather.Provider
	metrics  *handlers.MetricsHandler
	logger   *zap.Logger
	tele     *telemetry.Telemetry
}

// NewServer wires routes and metrics recorders. It must run before the
// manager's workers are started.
func NewServer(cfg *config.Config, manager *session.Manager, provider *weather.Provider, logger *zap.Logger, tele *telemetry.Telemetry) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	httpMetrics := middlewares.NewMetricsMiddleware(logger, tele)

	engine.Use(middlewares.RequestIDMiddleware(logger))
	engine.Use(middlewares.LoggingMiddleware(logger, true, "/health", "/health/live", "/health/ready", "/metrics"))
	engine.Use(httpMetrics.Handler())
	engine.Use(middlewares.RecoveryMiddleware(logger, true))
	engine.Use(middlewares.TelemetryMiddleware(logger, tele))
	engine.Use(middlewares.LanguageMiddleware(i18n.Default()))

	metrics := handlers.NewMetricsHandler(logger)
	provider.SetMetricsRecorder(metrics)
	manager.SetMetricsRecorder(metrics)

	s := &Server{
		cfg:      cfg,
		engine:   engine,
		manager:  manager,
		provider: provider,
		metrics:  metrics,
		logger:   logger,
		tele:     tele,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	wizardHandler := handlers.NewWizardHandler(s.manager, s.cfg.Session, s.logger)
	catalogHandler := handlers.NewCatalogHandler(s.logger)

	api := s.engine.Group("/api/v1")
	{
		api.GET("/wizard", wizardHandler.GetWizard)
		api.POST("/wizard/location", wizardHandler.SubmitLocation)
		api.POST("/wizard/location/current", wizardHandler.SubmitCurrentLocation)
		api.POST("/wizard/weather", wizardHandler.ConfirmWeather)
		api.POST("/wizard/outfit", wizardHandler.ConfirmOutfit)
		api.PUT("/wizard/colors", wizardHandler.SelectBottomColor)
		api.POST("/wizard/back", wizardHandler.Back)
		api.POST("/wizard/reset", wizardHandler.Reset)

		api.GET("/colors/:key", catalogHandler.GetColors)
		api.POST("/outfit", catalogHandler.DecideOutfit)
	}

	// Health endpoints (Kubernetes friendly)
	health := handlers.NewHealthHandler(s.logger, map[string]handlers.ReadinessCheck{
		"session_store":  s.manager.Ready,
		"weather_source": s.provider.Ready,
	})
	s.engine.GET("/health", health.Health)
	s.engine.GET("/health/live", health.Liveness)
	s.engine.GET("/health/ready", health.Readiness)

	// Monitoring endpoints
	s.engine.GET("/metrics", s.metrics.ServeMetrics)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port),
		Handler:      s.engine,
		ReadTimeout:  time.Duration(s.cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(s.cfg.Server.IdleTimeout) * time.Second,
	}

	s.logger.Info("Starting server", zap.String("addr", s.server.Addr))
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return s.server.Shutdown(ctx)
}
