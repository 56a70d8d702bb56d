package openf1

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/gridwatch/gridwatch/internal/core"
	"github.com/gridwatch/gridwatch/internal/metrics"
)

// DefaultBaseURL is the public OpenF1 API root.
const DefaultBaseURL = "https://api.openf1.org/v1"

// Record is one flat JSON object from an upstream response array.
type Record map[string]any

// Logger is the subset of the structured logger the client uses.
type Logger interface {
	Debug(msg string, fields ...zap.Field)
	Warn(msg string, fields ...zap.Field)
}

// Options configures a Client. Zero values fall back to the defaults.
type Options struct {
	BaseURL    string
	HTTPClient *http.Client
	UserAgent  string
	CacheTTL   time.Duration
	RateLimit  RateLimit
	Retry      RetryPolicy
	// DedupeInFlight collapses concurrent identical queries into a single
	// upstream fetch. Off by default: every cache miss fetches on its own.
	DedupeInFlight bool
	Logger         Logger
	Clock          func() time.Time
	Sleep          func(ctx context.Context, d time.Duration) error
}

// Client fronts the upstream API with a global rate window, a response
// cache and bounded retry on 429. All state is owned by the instance.
type Client struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
	retry      RetryPolicy
	dedupe     bool
	logger     Logger
	clock      func() time.Time
	sleep      func(ctx context.Context, d time.Duration) error

	cache *responseCache
	group singleflight.Group

	mu           sync.Mutex
	queue        []*queuedRequest
	draining     bool
	window       rateWindow
	dispatched   int64
	lastDispatch time.Time
}

type attempt struct {
	status     int
	records    []Record
	retryAfter time.Duration
	body       string
	err        error
}

type queuedRequest struct {
	execute func() attempt
	done    chan attempt
}

// NewClient builds a client from opts.
func NewClient(opts Options) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"),
		httpClient: opts.HTTPClient,
		userAgent:  strings.TrimSpace(opts.UserAgent),
		retry:      retryPolicyWithDefaults(opts.Retry),
		dedupe:     opts.DedupeInFlight,
		logger:     opts.Logger,
		clock:      opts.Clock,
		sleep:      opts.Sleep,
		cache:      newResponseCache(opts.CacheTTL),
		window:     rateWindow{limit: rateLimitWithDefaults(opts.RateLimit)},
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{}
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	if c.clock == nil {
		c.clock = func() time.Time { return time.Now().UTC() }
	}
	if c.sleep == nil {
		c.sleep = sleepContext
	}
	return c
}

// Query returns the records for endpoint filtered by params. Fresh cached
// payloads are returned without touching the queue. Callers must treat the
// returned records as read-only; they are shared with the cache.
func (c *Client) Query(ctx context.Context, endpoint string, params Params) ([]Record, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	endpoint = normalizeEndpoint(endpoint)
	if !IsKnownEndpoint(endpoint) {
		return nil, &UnknownEndpointError{Endpoint: endpoint}
	}

	pairs, err := normalizeParams(params)
	if err != nil {
		return nil, err
	}
	key := fingerprintPairs(endpoint, pairs)

	if payload, ok := c.cache.lookup(key, c.clock()); ok {
		metrics.RecordCacheLookup(endpoint, true)
		return payload, nil
	}
	metrics.RecordCacheLookup(endpoint, false)

	if !c.dedupe {
		return c.fetch(ctx, endpoint, key, pairs)
	}

	// The shared fetch outlives any one caller; each caller only stops
	// waiting when its own ctx ends.
	shared := context.WithoutCancel(ctx)
	results := c.group.DoChan(key, func() (any, error) {
		return c.fetch(shared, endpoint, key, pairs)
	})
	select {
	case res := <-results:
		if res.Shared {
			c.logger.Debug("Shared in-flight upstream fetch", zap.String("fingerprint", key))
		}
		if res.Err != nil {
			return nil, res.Err
		}
		records, _ := res.Val.([]Record)
		return records, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// fetch runs the request through the queue, retrying 429 responses.
func (c *Client) fetch(ctx context.Context, endpoint, key string, pairs []param) ([]Record, error) {
	requestURL := c.baseURL + "/" + endpoint
	if query := encodeQuery(pairs); query != "" {
		requestURL += "?" + query
	}

	for retry := 0; ; retry++ {
		result, err := c.enqueue(ctx, func() attempt {
			return c.execute(ctx, endpoint, requestURL)
		})
		if err != nil {
			return nil, err
		}
		if result.err != nil {
			return nil, result.err
		}

		switch {
		case isSuccess(result.status):
			c.cache.store(key, result.records, c.clock())
			return result.records, nil
		case result.status == http.StatusTooManyRequests:
			if retry >= c.retry.MaxRetries {
				return nil, &RateLimitExceededError{Endpoint: endpoint, Retries: retry}
			}
			wait := result.retryAfter
			if wait <= 0 {
				wait = c.retry.backoff(retry)
			}
			c.logger.Debug("Upstream rate limited, backing off",
				zap.String("endpoint", endpoint),
				zap.Int("retry", retry+1),
				zap.Duration("wait", wait))
			metrics.RecordRetry(endpoint, retry+1)
			if err := c.sleep(ctx, wait); err != nil {
				return nil, err
			}
		default:
			return nil, &UpstreamHTTPError{Endpoint: endpoint, StatusCode: result.status, Body: result.body}
		}
	}
}

// enqueue appends a request, starts the drain loop if it is idle and
// waits for the result. A cancelled ctx stops the wait; the queued request
// still runs and fails fast on its cancelled context.
func (c *Client) enqueue(ctx context.Context, execute func() attempt) (attempt, error) {
	req := &queuedRequest{execute: execute, done: make(chan attempt, 1)}

	c.mu.Lock()
	c.queue = append(c.queue, req)
	depth := len(c.queue)
	if !c.draining {
		c.draining = true
		go c.drain()
	}
	c.mu.Unlock()
	metrics.SetQueueDepth(depth)

	select {
	case result := <-req.done:
		return result, nil
	case <-ctx.Done():
		return attempt{}, ctx.Err()
	}
}

// drain dispatches queued requests in FIFO order, at most one at a time,
// and exits once the queue is empty.
func (c *Client) drain() {
	for {
		c.mu.Lock()
		if len(c.queue) == 0 {
			c.draining = false
			c.mu.Unlock()
			return
		}

		now := c.clock()
		if wait := c.window.wait(now); wait > 0 {
			c.mu.Unlock()
			metrics.RecordWindowWait(wait)
			_ = c.sleep(context.Background(), wait)
			continue
		}

		next := c.queue[0]
		c.queue[0] = nil
		c.queue = c.queue[1:]
		c.window.record(now)
		c.dispatched++
		c.lastDispatch = now
		depth := len(c.queue)
		c.mu.Unlock()

		metrics.SetQueueDepth(depth)
		next.done <- runQueued(next)
	}
}

func runQueued(req *queuedRequest) (result attempt) {
	defer func() {
		if r := recover(); r != nil {
			result = attempt{err: fmt.Errorf("openf1 request panicked: %v", r)}
		}
	}()
	return req.execute()
}

// execute performs one HTTP call. It never retries.
func (c *Client) execute(ctx context.Context, endpoint, requestURL string) attempt {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return attempt{err: err}
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordUpstreamRequest(endpoint, "transport_error", time.Since(started))
		return attempt{err: fmt.Errorf("openf1 %s request: %w", endpoint, err)}
	}
	defer resp.Body.Close() // nolint:errcheck // best-effort cleanup on HTTP response body

	metrics.RecordUpstreamStatus(endpoint, resp.StatusCode, time.Since(started))

	switch {
	case isSuccess(resp.StatusCode):
		records, err := decodeRecords(resp.Body)
		if err != nil {
			return attempt{err: fmt.Errorf("decode openf1 %s response: %w", endpoint, err)}
		}
		return attempt{status: resp.StatusCode, records: records}
	case resp.StatusCode == http.StatusTooManyRequests:
		return attempt{status: resp.StatusCode, retryAfter: retryAfterHeader(resp, c.clock())}
	default:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return attempt{status: resp.StatusCode, body: strings.TrimSpace(string(snippet))}
	}
}

func decodeRecords(body io.Reader) ([]Record, error) {
	var records []Record
	if err := json.NewDecoder(body).Decode(&records); err != nil {
		if errors.Is(err, io.EOF) {
			return []Record{}, nil
		}
		return nil, err
	}
	if records == nil {
		records = []Record{}
	}
	return records, nil
}

// Purge drops every cached response and returns how many were removed.
func (c *Client) Purge() int {
	return c.cache.purge()
}

// Pending returns the number of requests waiting for a rate slot.
func (c *Client) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}

// Stats reports cache, queue and window state.
func (c *Client) Stats() core.ClientStats {
	now := c.clock()
	total, fresh := c.cache.counts(now)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.window.prune(now)

	stats := core.ClientStats{
		CacheEntries: total,
		FreshEntries: fresh,
		CacheHits:    c.cache.hits.Load(),
		CacheMisses:  c.cache.misses.Load(),
		Pending:      len(c.queue),
		Draining:     c.draining,
		WindowUsed:   c.window.used(),
		WindowLimit:  c.window.limit.RequestsPerWindow,
		Dispatched:   c.dispatched,
	}
	if !c.lastDispatch.IsZero() {
		last := c.lastDispatch
		stats.LastDispatchAt = &last
	}
	return stats
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
