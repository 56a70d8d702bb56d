package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/gridwatch/gridwatch/internal/observability"
)

// HTTP metric names.
const (
	RequestsTotalName     = "http_requests_total"
	RequestDurationName   = "http_request_duration_ms"
	RequestSizeName       = "http_request_size_bytes"
	ResponseSizeName      = "http_response_size_bytes"
	HTTPErrorsTotalName   = "http_errors_total"
	errorTypeClientErrors = "client_error"
	errorTypeServerErrors = "server_error"
)

// responseWriter captures the status code and body size.
type responseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int64
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += int64(n)
	return n, err
}

// getEndpointPattern returns the chi route pattern, or a coarse bucket for
// requests that never matched a route, so labels stay low-cardinality.
func getEndpointPattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}

	path := r.URL.Path
	switch {
	case path == "/":
		return "/"
	case path == "/version", path == "/metrics":
		return path
	case path == "/health" || strings.HasPrefix(path, "/health/"):
		return "/health/*"
	case strings.HasPrefix(path, "/api/v1/openf1/"):
		return "/api/v1/openf1/*"
	case strings.HasPrefix(path, "/api/v1/races/"):
		return "/api/v1/races/*"
	case path == "/api/v1/schedule" || strings.HasPrefix(path, "/api/v1/schedule/"):
		return "/api/v1/schedule/*"
	default:
		return "/unknown"
	}
}

// RequestMetrics emits request counters, durations and sizes, then logs the
// request with its ID.
func RequestMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		telemetry := observability.TelemetrySystem
		if telemetry == nil {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		var requestSize int64
		if r.ContentLength > 0 {
			requestSize = r.ContentLength
		} else if header := r.Header.Get("Content-Length"); header != "" {
			if size, err := strconv.ParseInt(header, 10, 64); err == nil {
				requestSize = size
			}
		}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start)
		endpoint := getEndpointPattern(r)
		status := strconv.Itoa(wrapped.statusCode)
		sizeLabels := map[string]string{"method": r.Method, "endpoint": endpoint}

		_ = telemetry.Counter(RequestsTotalName, 1, map[string]string{
			"method":   r.Method,
			"endpoint": endpoint,
			"status":   status,
		})
		_ = telemetry.Histogram(RequestDurationName, duration, map[string]string{
			"method":   r.Method,
			"endpoint": endpoint,
			"status":   status,
		})
		_ = telemetry.Gauge(RequestSizeName, float64(requestSize), sizeLabels)
		_ = telemetry.Gauge(ResponseSizeName, float64(wrapped.bytesWritten), sizeLabels)

		if wrapped.statusCode >= 400 {
			errorType := errorTypeClientErrors
			if wrapped.statusCode >= 500 {
				errorType = errorTypeServerErrors
			}
			_ = telemetry.Counter(HTTPErrorsTotalName, 1, map[string]string{
				"method":     r.Method,
				"endpoint":   endpoint,
				"status":     status,
				"error_type": errorType,
			})
		}

		observability.Logger().Info("HTTP request completed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("endpoint", endpoint),
			zap.Int("status", wrapped.statusCode),
			zap.Duration("duration", duration),
			zap.Int64("request_size", requestSize),
			zap.Int64("response_size", wrapped.bytesWritten),
			zap.String("request_id", GetRequestID(r.Context())))
	})
}
