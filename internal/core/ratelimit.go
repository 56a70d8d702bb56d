package core

import "time"

// ClientStats captures a point-in-time view of the upstream client's
// cache, queue and rate window.
type ClientStats struct {
	CacheEntries   int        `json:"cache_entries"`
	FreshEntries   int        `json:"fresh_entries"`
	CacheHits      int64      `json:"cache_hits"`
	CacheMisses    int64      `json:"cache_misses"`
	Pending        int        `json:"pending"`
	Draining       bool       `json:"draining"`
	WindowUsed     int        `json:"window_used"`
	WindowLimit    int        `json:"window_limit"`
	Dispatched     int64      `json:"dispatched"`
	LastDispatchAt *time.Time `json:"last_dispatch_at,omitempty"`
}
