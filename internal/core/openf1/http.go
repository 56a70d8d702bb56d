package openf1

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// RetryPolicy controls how 429 responses are retried. The zero value means
// DefaultRetryPolicy; set MaxRetries to NoRetries to fail on the first 429.
type RetryPolicy struct {
	MaxRetries  int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
}

// DefaultRetryPolicy retries three times with 1s, 2s, 4s backoff capped at 10s.
var DefaultRetryPolicy = RetryPolicy{
	MaxRetries:  3,
	BaseBackoff: time.Second,
	MaxBackoff:  10 * time.Second,
}

// NoRetries disables 429 retries.
const NoRetries = -1

func retryPolicyWithDefaults(policy RetryPolicy) RetryPolicy {
	if policy == (RetryPolicy{}) {
		return DefaultRetryPolicy
	}
	if policy.MaxRetries < 0 {
		policy.MaxRetries = 0
	}
	if policy.BaseBackoff <= 0 {
		policy.BaseBackoff = DefaultRetryPolicy.BaseBackoff
	}
	if policy.MaxBackoff <= 0 {
		policy.MaxBackoff = DefaultRetryPolicy.MaxBackoff
	}
	return policy
}

// backoff returns min(base * 2^retry, max).
func (p RetryPolicy) backoff(retry int) time.Duration {
	wait := p.BaseBackoff
	for i := 0; i < retry; i++ {
		wait *= 2
		if wait >= p.MaxBackoff {
			return p.MaxBackoff
		}
	}
	if wait > p.MaxBackoff {
		return p.MaxBackoff
	}
	return wait
}

// retryAfterHeader reads Retry-After as delay-seconds or as an HTTP date
// relative to now. Zero means the header was absent or unusable.
func retryAfterHeader(resp *http.Response, now time.Time) time.Duration {
	if resp == nil || resp.Header == nil {
		return 0
	}

	retry := strings.TrimSpace(resp.Header.Get("Retry-After"))
	if retry == "" {
		return 0
	}

	if seconds, err := strconv.ParseFloat(retry, 64); err == nil {
		if seconds <= 0 {
			return 0
		}
		return time.Duration(seconds * float64(time.Second))
	}
	if parsed, err := http.ParseTime(retry); err == nil {
		if wait := parsed.Sub(now); wait > 0 {
			return wait
		}
	}

	return 0
}

func isSuccess(status int) bool {
	return status >= 200 && status <= 299
}
