package openf1

import "time"

// RateLimit represents a rolling request window.
type RateLimit struct {
	RequestsPerWindow int
	WindowDuration    time.Duration
	// Buffer is added to computed waits so a slot has fully expired by the
	// time the drain loop checks again.
	Buffer time.Duration
}

// DefaultRateLimit admits three requests per rolling second.
var DefaultRateLimit = RateLimit{
	RequestsPerWindow: 3,
	WindowDuration:    time.Second,
	Buffer:            50 * time.Millisecond,
}

func rateLimitWithDefaults(limit RateLimit) RateLimit {
	if limit.RequestsPerWindow <= 0 {
		limit.RequestsPerWindow = DefaultRateLimit.RequestsPerWindow
	}
	if limit.WindowDuration <= 0 {
		limit.WindowDuration = DefaultRateLimit.WindowDuration
	}
	if limit.Buffer < 0 {
		limit.Buffer = 0
	}
	return limit
}

// rateWindow tracks dispatch timestamps. It is not safe for concurrent use;
// the client guards it with its queue mutex.
type rateWindow struct {
	limit  RateLimit
	stamps []time.Time
}

func (w *rateWindow) prune(now time.Time) {
	keep := w.stamps[:0]
	for _, ts := range w.stamps {
		if now.Sub(ts) < w.limit.WindowDuration {
			keep = append(keep, ts)
		}
	}
	w.stamps = keep
}

// wait prunes the window and returns how long to sleep before the next
// dispatch is admitted, or zero when a slot is free.
func (w *rateWindow) wait(now time.Time) time.Duration {
	w.prune(now)
	if len(w.stamps) < w.limit.RequestsPerWindow {
		return 0
	}
	oldest := w.stamps[0]
	return w.limit.WindowDuration - now.Sub(oldest) + w.limit.Buffer
}

func (w *rateWindow) record(now time.Time) {
	w.stamps = append(w.stamps, now)
}

func (w *rateWindow) used() int {
	return len(w.stamps)
}
