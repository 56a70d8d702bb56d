package metrics

import (
	"strconv"
	"time"

	"github.com/gridwatch/gridwatch/internal/observability"
)

// Application-level metrics following Prometheus conventions
var (
	// Upstream client metrics
	UpstreamRequestsTotal   = "openf1_requests_total"
	UpstreamRequestDuration = "openf1_request_duration_ms"
	UpstreamRetriesTotal    = "openf1_retries_total"
	UpstreamWindowWait      = "openf1_window_wait_ms"
	CacheLookupsTotal       = "openf1_cache_lookups_total"
	QueueDepth              = "openf1_queue_depth"

	// Derived lookups (podium, results)
	LookupsTotal = "race_lookups_total"

	// Server lifecycle metrics
	ServerStartTime = "app_server_start_time_seconds"
)

// RecordUpstreamRequest records one dispatched upstream call and its outcome
// (an HTTP status code or "transport_error").
func RecordUpstreamRequest(endpoint string, outcome string, duration time.Duration) {
	if observability.TelemetrySystem == nil {
		return
	}

	labels := map[string]string{
		"endpoint": endpoint,
		"outcome":  outcome,
	}
	_ = observability.TelemetrySystem.Counter(UpstreamRequestsTotal, 1, labels)
	_ = observability.TelemetrySystem.Histogram(UpstreamRequestDuration, duration, labels)
}

// RecordUpstreamStatus is a convenience wrapper for HTTP outcomes.
func RecordUpstreamStatus(endpoint string, status int, duration time.Duration) {
	RecordUpstreamRequest(endpoint, strconv.Itoa(status), duration)
}

// RecordRetry records a 429 retry for an endpoint.
func RecordRetry(endpoint string, attempt int) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			UpstreamRetriesTotal,
			1,
			map[string]string{
				"endpoint": endpoint,
				"attempt":  strconv.Itoa(attempt),
			},
		)
	}
}

// RecordWindowWait records time the drain loop spent waiting for a slot.
func RecordWindowWait(wait time.Duration) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Histogram(UpstreamWindowWait, wait, nil)
	}
}

// RecordCacheLookup records a cache hit or miss.
func RecordCacheLookup(endpoint string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}

	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			CacheLookupsTotal,
			1,
			map[string]string{
				"endpoint": endpoint,
				"result":   result,
			},
		)
	}
}

// SetQueueDepth records the number of requests waiting for a slot.
func SetQueueDepth(depth int) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Gauge(QueueDepth, float64(depth), nil)
	}
}

// RecordLookup records a derived lookup with its outcome
// ("found", "empty" or "error").
func RecordLookup(kind string, outcome string) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			LookupsTotal,
			1,
			map[string]string{
				"kind":    kind,
				"outcome": outcome,
			},
		)
	}
}

// SetServerStartTime records the server start time (Unix timestamp)
func SetServerStartTime(timestamp int64) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Gauge(
			ServerStartTime,
			float64(timestamp),
			nil,
		)
	}
}
