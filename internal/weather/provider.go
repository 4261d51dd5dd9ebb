package weather

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/vzahanych/outfit-wizard/internal/config"
	"github.com/vzahanych/outfit-wizard/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

type cacheEntry struct {
	Snapshot  Snapshot
	Timestamp time.Time
}

// Provider fronts the configured Source with the simulated network delay, an
// optional per-location cache and tracing.
type Provider struct {
	sources  map[string]Source
	active   string
	cache    map[string]*cacheEntry
	mutex    sync.RWMutex
	cacheTTL time.Duration
	delay    time.Duration
	logger   *zap.Logger
	tele     *telemetry.Telemetry
	metrics  MetricsRecorder
}

// MetricsRecorder interface for recording metrics
type MetricsRecorder interface {
	RecordCacheHit(ctx context.Context, cacheType string)
	RecordCacheMiss(ctx context.Context, cacheType string)
	RecordWeatherSourceCall(ctx context.Context, source string, success bool)
}

func NewProvider(cfg *config.WeatherConfig, logger *zap.Logger, tele *telemetry.Telemetry) *Provider {
	p := &Provider{
		sources:  make(map[string]Source),
		active:   cfg.Source,
		cache:    make(map[string]*cacheEntry),
		cacheTTL: time.Duration(cfg.CacheTTL) * time.Second,
		delay:    time.Duration(cfg.DelayMS) * time.Millisecond,
		logger:   logger,
		tele:     tele,
	}

	timeout := time.Duration(cfg.Timeout) * time.Second
	for name, serviceConfig := range cfg.Services {
		if !serviceConfig.Enabled {
			continue
		}

		src := p.createSource(name, serviceConfig, timeout)
		if src != nil {
			p.sources[name] = src
			p.logger.Info("Registered weather source", zap.String("source", name), zap.String("type", serviceConfig.Type))
		}
	}

	if _, ok := p.sources[p.active]; !ok {
		p.logger.Warn("Configured weather source is not enabled", zap.String("source", p.active))
	}

	return p
}

// SetMetricsRecorder sets the metrics recorder for the provider
func (p *Provider) SetMetricsRecorder(metrics MetricsRecorder) {
	p.metrics = metrics
}

// RegisterSource adds or replaces a source under its own name.
func (p *Provider) RegisterSource(src Source) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.sources[src.Name()] = src
}

// Use switches the active source.
func (p *Provider) Use(name string) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.active = name
}

func (p *Provider) createSource(name string, cfg config.WeatherServiceConfig, timeout time.Duration) Source {
	switch cfg.Type {
	case "random":
		return NewRandomSource()
	case "open-meteo":
		return NewOpenMeteoSourceWithConfig(cfg, timeout)
	default:
		p.logger.Warn("Unknown source type", zap.String("type", cfg.Type), zap.String("source", name))
		return nil
	}
}

func (p *Provider) Current(ctx context.Context, location string) (Snapshot, error) {
	tracer := p.tele.GetTracer()
	ctx, span := tracer.Start(ctx, "weather.Provider.Current")
	defer span.End()

	span.SetAttributes(attribute.String("location", location))

	if err := p.wait(ctx); err != nil {
		span.SetAttributes(attribute.Bool("cancelled", true))
		return Snapshot{}, err
	}

	cacheKey := strings.ToLower(strings.TrimSpace(location))

	if cached, ok := p.getFromCache(cacheKey); ok {
		p.logger.Debug("Cache hit", zap.String("cache_key", cacheKey))
		span.SetAttributes(attribute.Bool("cache_hit", true))
		if p.metrics != nil {
			p.metrics.RecordCacheHit(ctx, "weather_snapshot")
		}
		return cached, nil
	}

	span.SetAttributes(attribute.Bool("cache_hit", false))
	if p.cacheTTL > 0 && p.metrics != nil {
		p.metrics.RecordCacheMiss(ctx, "weather_snapshot")
	}

	p.mutex.RLock()
	name := p.active
	src, ok := p.sources[name]
	p.mutex.RUnlock()
	if !ok {
		span.SetAttributes(attribute.Bool("success", false))
		return Snapshot{}, fmt.Errorf("weather source %q not registered", name)
	}

	snapshot, err := src.Current(ctx, location)
	if p.metrics != nil {
		p.metrics.RecordWeatherSourceCall(ctx, name, err == nil)
	}
	if err != nil {
		span.SetAttributes(attribute.Bool("success", false))
		p.logger.Error("Failed to fetch weather snapshot",
			zap.String("source", name),
			zap.String("location", location),
			zap.Error(err))
		return Snapshot{}, fmt.Errorf("%s: %w", name, err)
	}

	p.setCache(cacheKey, snapshot)
	span.SetAttributes(
		attribute.Bool("success", true),
		attribute.String("source", name),
		attribute.Int("temperature", snapshot.Temperature),
	)

	p.logger.Info("Weather snapshot fetched",
		zap.String("source", name),
		zap.String("location", location),
		zap.Int("temperature", snapshot.Temperature),
		zap.String("condition", string(snapshot.Condition)))

	return snapshot, nil
}

func (p *Provider) wait(ctx context.Context) error {
	if p.delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(p.delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Provider) getFromCache(key string) (Snapshot, bool) {
	if p.cacheTTL <= 0 {
		return Snapshot{}, false
	}

	p.mutex.Lock()
	defer p.mutex.Unlock()

	entry, exists := p.cache[key]
	if !exists {
		return Snapshot{}, false
	}

	if time.Since(entry.Timestamp) > p.cacheTTL {
		delete(p.cache, key)
		return Snapshot{}, false
	}

	return entry.Snapshot, true
}

func (p *Provider) setCache(key string, snapshot Snapshot) {
	if p.cacheTTL <= 0 {
		return
	}

	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.cache[key] = &cacheEntry{
		Snapshot:  snapshot,
		Timestamp: time.Now(),
	}
}

func (p *Provider) ClearCache() {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.cache = make(map[string]*cacheEntry)
}

func (p *Provider) GetCacheStats() map[string]interface{} {
	p.mutex.RLock()
	defer p.mutex.RUnlock()

	enabledSources := make([]string, 0, len(p.sources))
	for name := range p.sources {
		enabledSources = append(enabledSources, name)
	}

	return map[string]interface{}{
		"cache_size":      len(p.cache),
		"cache_ttl":       p.cacheTTL.String(),
		"active_source":   p.active,
		"enabled_sources": enabledSources,
	}
}

// Ready reports whether the active source is registered.
func (p *Provider) Ready(ctx context.Context) error {
	p.mutex.RLock()
	defer p.mutex.RUnlock()
	if _, ok := p.sources[p.active]; !ok {
		return fmt.Errorf("weather source %q not registered", p.active)
	}
	return ctx.Err()
}
