package obs

import (
	"context"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/toko-tenant-cart/internal/tenant"
)

// NewLogger returns a timestamped zerolog logger writing JSON to stdout, or
// human readable lines when format is "console" or "text". Unknown levels
// fall back to info.
func NewLogger(format, level string) zerolog.Logger {
	return newLogger(os.Stdout, format, level)
}

func newLogger(w io.Writer, format, level string) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	if f := strings.ToLower(strings.TrimSpace(format)); f == "console" || f == "text" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).With().Timestamp().Logger()
}

// WithTenant returns a child logger tagged with the tenant active in ctx.
func WithTenant(ctx context.Context, logger zerolog.Logger) zerolog.Logger {
	if id, ok := tenant.From(ctx); ok {
		return logger.With().Str("tenant", id).Logger()
	}
	return logger
}

// RequestLogger emits one "http_request" entry per request. Handlers can
// reach the request-scoped logger through zerolog.Ctx.
type RequestLogger struct {
	Logger zerolog.Logger
}

// Middleware implements chi middleware for structured request logs.
func (l RequestLogger) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		fields := WithTenant(ctx, l.Logger).With().Str("request_id", middleware.GetReqID(ctx))
		if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
			fields = fields.Str("trace_id", sc.TraceID().String()).Str("span_id", sc.SpanID().String())
		}
		reqLogger := fields.Logger()

		rec := NewStatusRecorder(w)
		start := time.Now()
		next.ServeHTTP(rec, r.WithContext(reqLogger.WithContext(ctx)))

		status := rec.Status()
		reqLogger.WithLevel(levelFor(status)).
			Str("method", r.Method).
			Str("route", RouteOf(r, r.URL.Path)).
			Str("path", r.URL.Path).
			Str("host", r.Host).
			Str("remote_addr", r.RemoteAddr).
			Int("status", status).
			Int64("bytes", rec.BytesWritten()).
			Dur("duration", time.Since(start)).
			Msg("http_request")
	})
}

func levelFor(status int) zerolog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return zerolog.ErrorLevel
	case status >= http.StatusBadRequest:
		return zerolog.WarnLevel
	default:
		return zerolog.InfoLevel
	}
}
