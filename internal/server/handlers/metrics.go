package handlers

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/vzahanych/outfit-wizard/internal/server/middlewares"
	"go.uber.org/zap"
)

// AppMetrics holds application-level metrics (cache, sources, wizard)
type AppMetrics struct {
	mutex               sync.RWMutex
	cacheHits           int64
	cacheMisses         int64
	weatherSourceCalls  map[string]int64
	weatherSourceErrors map[string]int64
	transitions         map[string]int64
	staleResults        map[string]int64
	tasks               map[string]int64
	taskErrors          map[string]int64
}

// MetricsHandler records application metrics for the weather provider and the
// session manager and exposes them in Prometheus text format.
type MetricsHandler struct {
	logger     *zap.Logger
	appMetrics *AppMetrics
}

func NewMetricsHandler(logger *zap.Logger) *MetricsHandler {
	return &MetricsHandler{
		logger: logger,
		appMetrics: &AppMetrics{
			weatherSourceCalls:  make(map[string]int64),
			weatherSourceErrors: make(map[string]int64),
			transitions:         make(map[string]int64),
			staleResults:        make(map[string]int64),
			tasks:               make(map[string]int64),
			taskErrors:          make(map[string]int64),
		},
	}
}

// RecordCacheHit records a cache hit metric
func (h *MetricsHandler) RecordCacheHit(ctx context.Context, cacheType string) {
	h.appMetrics.mutex.Lock()
	h.appMetrics.cacheHits++
	h.appMetrics.mutex.Unlock()
}

// RecordCacheMiss records a cache miss metric
func (h *MetricsHandler) RecordCacheMiss(ctx context.Context, cacheType string) {
	h.appMetrics.mutex.Lock()
	h.appMetrics.cacheMisses++
	h.appMetrics.mutex.Unlock()
}

// RecordWeatherSourceCall records a weather source call
func (h *MetricsHandler) RecordWeatherSourceCall(ctx context.Context, source string, success bool) {
	h.appMetrics.mutex.Lock()
	h.appMetrics.weatherSourceCalls[source]++
	if !success {
		h.appMetrics.weatherSourceErrors[source]++
	}
	h.appMetrics.mutex.Unlock()
}

func (h *MetricsHandler) RecordTransition(ctx context.Context, stage string) {
	h.appMetrics.mutex.Lock()
	h.appMetrics.transitions[stage]++
	h.appMetrics.mutex.Unlock()
}

func (h *MetricsHandler) RecordStaleResult(ctx context.Context, kind string) {
	h.appMetrics.mutex.Lock()
	h.appMetrics.staleResults[kind]++
	h.appMetrics.mutex.Unlock()
}

func (h *MetricsHandler) RecordTask(ctx context.Context, kind string, success bool) {
	h.appMetrics.mutex.Lock()
	h.appMetrics.tasks[kind]++
	if !success {
		h.appMetrics.taskErrors[kind]++
	}
	h.appMetrics.mutex.Unlock()
}

// ServeMetrics exposes metrics in Prometheus format. HTTP metrics come from
// the metrics middleware through the gin context.
func (h *MetricsHandler) ServeMetrics(c *gin.Context) {
	var b strings.Builder

	if httpMetrics := h.getHTTPMetricsFromContext(c); httpMetrics != nil {
		snap := httpMetrics.Snapshot()

		writeHeader(&b, "http_requests_total", "Total number of HTTP requests", "counter")
		writeLabeled(&b, "http_requests_total", "route_status", snap.RequestsTotal)

		writeHeader(&b, "http_request_duration_seconds_avg", "Average duration of HTTP requests", "gauge")
		b.WriteString("http_request_duration_seconds_avg " + strconv.FormatFloat(snap.AvgDuration, 'f', 6, 64) + "\n")

		writeHeader(&b, "http_active_requests", "Number of active HTTP requests", "gauge")
		b.WriteString("http_active_requests " + strconv.FormatInt(snap.ActiveRequests, 10) + "\n")
	}

	h.appMetrics.mutex.RLock()
	defer h.appMetrics.mutex.RUnlock()

	writeHeader(&b, "weather_cache_hits_total", "Total cache hits", "counter")
	b.WriteString("weather_cache_hits_total " + strconv.FormatInt(h.appMetrics.cacheHits, 10) + "\n")

	writeHeader(&b, "weather_cache_miss_total", "Total cache misses", "counter")
	b.WriteString("weather_cache_miss_total " + strconv.FormatInt(h.appMetrics.cacheMisses, 10) + "\n")

	writeHeader(&b, "weather_source_calls_total", "Total weather source calls", "counter")
	writeLabeled(&b, "weather_source_calls_total", "source", h.appMetrics.weatherSourceCalls)

	writeHeader(&b, "weather_source_errors_total", "Total weather source errors", "counter")
	writeLabeled(&b, "weather_source_errors_total", "source", h.appMetrics.weatherSourceErrors)

	writeHeader(&b, "wizard_transitions_total", "Stage entries by target stage", "counter")
	writeLabeled(&b, "wizard_transitions_total", "stage", h.appMetrics.transitions)

	writeHeader(&b, "wizard_stale_results_total", "Loader results dropped because the stage was left", "counter")
	writeLabeled(&b, "wizard_stale_results_total", "kind", h.appMetrics.staleResults)

	writeHeader(&b, "wizard_tasks_total", "Completed loader tasks", "counter")
	writeLabeled(&b, "wizard_tasks_total", "kind", h.appMetrics.tasks)

	writeHeader(&b, "wizard_task_errors_total", "Failed loader tasks", "counter")
	writeLabeled(&b, "wizard_task_errors_total", "kind", h.appMetrics.taskErrors)

	c.Header("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	c.String(http.StatusOK, b.String())
}

func writeHeader(b *strings.Builder, name, help, kind string) {
	if b.Len() > 0 {
		b.WriteString("\n")
	}
	fmt.Fprintf(b, "# HELP %s %s\n# TYPE %s %s\n", name, help, name, kind)
}

func writeLabeled(b *strings.Builder, name, label string, values map[string]int64) {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(b, "%s{%s=%q} %d\n", name, label, k, values[k])
	}
}

func (h *MetricsHandler) getHTTPMetricsFromContext(c *gin.Context) *middlewares.HTTPMetrics {
	if value, exists := c.Get(middlewares.HTTPMetricsKey); exists {
		if metrics, ok := value.(*middlewares.HTTPMetrics); ok {
			return metrics
		}
	}
	return nil
}
