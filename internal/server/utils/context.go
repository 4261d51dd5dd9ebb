package utils

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/vzahanych/outfit-wizard/internal/i18n"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/text/language"
)

const (
	SpanContextKey = "span_context"
	RequestIDKey   = "request_id"
	PrinterKey     = "i18n_printer"
	LoggerKey      = "request_logger"
)

// GetSpanFromGinContext extracts the span context from Gin context
func GetSpanFromGinContext(c *gin.Context) trace.Span {
	if spanCtx, exists := c.Get(SpanContextKey); exists {
		if ctx, ok := spanCtx.(context.Context); ok {
			return trace.SpanFromContext(ctx)
		}
	}
	return trace.SpanFromContext(c.Request.Context())
}

// GetContextFromGinContext extracts the context with span from Gin context
func GetContextFromGinContext(c *gin.Context) context.Context {
	if spanCtx, exists := c.Get(SpanContextKey); exists {
		if ctx, ok := spanCtx.(context.Context); ok {
			return ctx
		}
	}
	return c.Request.Context()
}

// GetRequestIDFromGinContext extracts request ID from Gin context
func GetRequestIDFromGinContext(c *gin.Context) string {
	if requestID, exists := c.Get(RequestIDKey); exists {
		if id, ok := requestID.(string); ok {
			return id
		}
	}
	return ""
}

// GetPrinterFromGinContext returns the printer chosen by the language
// middleware, or a printer for the default locale.
func GetPrinterFromGinContext(c *gin.Context) *i18n.Printer {
	if value, exists := c.Get(PrinterKey); exists {
		if p, ok := value.(*i18n.Printer); ok {
			return p
		}
	}
	return i18n.Default().Printer(language.Make(i18n.DefaultLocale))
}

// GetLoggerFromGinContext returns the request-scoped logger, or fallback
// tagged with the request id when the middleware did not run.
func GetLoggerFromGinContext(c *gin.Context, fallback *zap.Logger) *zap.Logger {
	if value, exists := c.Get(LoggerKey); exists {
		if l, ok := value.(*zap.Logger); ok {
			return l
		}
	}
	return fallback.With(zap.String("request_id", GetRequestIDFromGinContext(c)))
}
